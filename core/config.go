package core

import (
	"errors"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// devSecretKey is only accepted in debug mode.
const devSecretKey = "k2#v!8d0)xw@n4qz$e7r^t1y(u6i&o5p"

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		AppName          string
		Build            string
		SecretKey        string
		DefaultFromEmail mail.Address

		// JWTExpirationDelta is the lifetime of an identity token.
		JWTExpirationDelta time.Duration

		RollbarToken   string
		SendgridApiKey string
		EmailTimeout   time.Duration

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		AllowedOrigins  []string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		QueryTimeout  time.Duration
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the configuration from the environment, optionally seeded by
// a `config/.env.<env>` file. It is meant to be called once at process start.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("app_name", "LUCT Reports")
	v.SetDefault("build", "dev")
	v.SetDefault("secret_key", devSecretKey)
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("jwt_expiration_delta", time.Hour)
	v.SetDefault("email_timeout", 10*time.Second)

	v.SetDefault("server_host", "")
	v.SetDefault("server_port", "5000")
	v.SetDefault("server_debug_host", "localhost:4000")
	v.SetDefault("server_allowed_origins", "*")
	v.SetDefault("server_read_timeout", 5*time.Second)
	v.SetDefault("server_write_timeout", 10*time.Second)
	v.SetDefault("server_shutdown_timeout", 5*time.Second)

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "luct_reports")
	v.SetDefault("database_user", "postgres")
	v.SetDefault("database_password", "")
	v.SetDefault("database_admin_user", "")
	v.SetDefault("database_admin_password", "")
	v.SetDefault("database_disable_tls", true)
	v.SetDefault("database_query_timeout", 5*time.Second)

	v.AutomaticEnv()

	conf := &Config{
		Debug:              v.GetBool("debug"),
		TestMode:           env == "TEST",
		Env:                env,
		AppName:            v.GetString("app_name"),
		Build:              v.GetString("build"),
		SecretKey:          v.GetString("secret_key"),
		JWTExpirationDelta: v.GetDuration("jwt_expiration_delta"),
		RollbarToken:       v.GetString("rollbar_token"),
		SendgridApiKey:     v.GetString("sendgrid_api_key"),
		EmailTimeout:       v.GetDuration("email_timeout"),
		Server: ServerConfig{
			Host:            v.GetString("server_host"),
			Port:            v.GetString("server_port"),
			DebugHost:       v.GetString("server_debug_host"),
			AllowedOrigins:  splitList(v.GetString("server_allowed_origins")),
			ReadTimeout:     v.GetDuration("server_read_timeout"),
			WriteTimeout:    v.GetDuration("server_write_timeout"),
			ShutdownTimeout: v.GetDuration("server_shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetString("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_admin_user"),
			AdminPassword: v.GetString("database_admin_password"),
			DisableTLS:    v.GetBool("database_disable_tls"),
			QueryTimeout:  v.GetDuration("database_query_timeout"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		log.Fatalf("config: invalid DEFAULT_FROM_EMAIL: %v", err)
	}
	conf.DefaultFromEmail = *from

	return conf
}

// Validate reports settings that must not reach production.
func (c *Config) Validate() error {
	if !c.Debug && (c.SecretKey == "" || c.SecretKey == devSecretKey) {
		return errors.New("SECRET_KEY must be set when DEBUG is off")
	}
	if c.JWTExpirationDelta <= 0 {
		return errors.New("JWT_EXPIRATION_DELTA must be positive")
	}
	return nil
}

// NewTestConfig returns a Config suitable for tests; nothing is read from the environment.
func NewTestConfig() *Config {
	return &Config{
		Debug:              false,
		TestMode:           true,
		Env:                "TEST",
		AppName:            "LUCT Reports",
		Build:              "test",
		SecretKey:          "secret",
		DefaultFromEmail:   mail.Address{Name: "LUCT Reports", Address: "noreply@localhost"},
		JWTExpirationDelta: time.Hour,
		EmailTimeout:       time.Second,
		Server: ServerConfig{
			Port:            "5000",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: time.Second,
		},
		Database: DatabaseConfig{
			Engine:       "memory",
			QueryTimeout: time.Second,
		},
	}
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
