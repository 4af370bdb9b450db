package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luct/reports/core"
)

var (
	errInvalidData = errors.New("Invalid data")

	msgTransient = "service temporarily unavailable"
)

func newMessage(msg string) error { return errors.New(msg) }

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fields map[string]string

		fieldMap := func(flds []core.FieldError) map[string]string {
			if len(flds) == 0 {
				return nil
			}
			m := make(map[string]string, len(flds))
			for _, fErr := range flds {
				m[fErr.Field] = fErr.Error
			}
			return m
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = errInvalidData.Error()
			fields = fieldMap(core.TranslateFieldErrors(origErr, translator))
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
			fields = fieldMap(origErr.Fields)
		case *core.ConflictError:
			code = http.StatusBadRequest
			message = origErr.Error()
		case *core.AuthError:
			code = http.StatusBadRequest
			message = origErr.Error()
		case *core.UnauthorizedError:
			code = http.StatusUnauthorized
			message = origErr.Error()
		case *core.ForbiddenError:
			code = http.StatusForbidden
			message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.TransientError:
			code = http.StatusInternalServerError
			message = msgTransient
			logger.Error(msgTransient, err, getContextIdentity(ctx))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			logger.Error(message, err, getContextIdentity(ctx))

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		body := echo.Map{"message": message}
		if fields != nil {
			body["fields"] = fields
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
