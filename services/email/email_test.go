package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luct/reports/core"
)

var testMsg = core.EmailMessage{
	To:      []mail.Address{{Name: "Lineo", Address: "lineo@luct.ac.ls"}},
	Subject: "Feedback on your BIWA2110 report",
	Body:    "Good pacing",
}

func TestConsoleService_Send(t *testing.T) {
	out := new(bytes.Buffer)
	svc := NewConsoleService(core.NewTestConfig(), out)

	require.NoError(t, svc.Send(context.Background(), testMsg))
	require.NoError(t, svc.Send(context.Background(), core.EmailMessage{Subject: "no recipients", Body: "x"}))

	assert.Equal(t, []core.EmailMessage{testMsg}, svc.Sent())
	assert.Contains(t, out.String(), "Subject: [LUCT Reports] Feedback on your BIWA2110 report")
	assert.Contains(t, out.String(), `To: "Lineo" <lineo@luct.ac.ls>`)
	assert.Contains(t, out.String(), "Good pacing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.Send(ctx, testMsg))
	assert.Len(t, svc.Sent(), 1)
}

func TestSendgridService_Send(t *testing.T) {
	var got map[string]interface{}
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	conf := core.NewTestConfig()
	conf.SendgridApiKey = "sg-key"
	svc := NewSendgridService(conf)
	svc.host = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Send(ctx, testMsg))

	personalizations := got["personalizations"].([]interface{})
	assert.Equal(t, "[LUCT Reports] Feedback on your BIWA2110 report", personalizations[0].(map[string]interface{})["subject"])
	assert.Equal(t, "noreply@localhost", got["from"].(map[string]interface{})["email"])

	status = http.StatusUnauthorized
	assert.Error(t, svc.Send(ctx, testMsg))
}
