package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Port               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	GatewayConfig struct {
		BaseURL        string
		BankCode       string
		CallbackMarker string
		Timeout        time.Duration
	}

	AcademyConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string

		AppName          string
		SecretKey        string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		Server  ServerConfig
		Gateway GatewayConfig
		Academy AcademyConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Courtside")
	conf.SetDefault("secretKey", "y0w*2v$m)9batj5(ce#&fp+7hqku!dz%8sxg6r4n_l1io3-e")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugHost", "localhost:6060")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("gatewayBaseUrl", "http://localhost:8080/api/v1/payment")
	conf.SetDefault("gatewayBankCode", "NCB")
	conf.SetDefault("gatewayCallbackMarker", "vn-pay-callback")
	conf.SetDefault("gatewayTimeout", 15*time.Second)
	conf.SetDefault("academyBaseUrl", "http://localhost:8080/api")
	conf.SetDefault("academyTimeout", 10*time.Second)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               conf.GetString("serverHost"),
			Port:               conf.GetString("serverPort"),
			DebugHost:          conf.GetString("serverDebugHost"),
			ShutdownTimeout:    conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		},
		Gateway: GatewayConfig{
			BaseURL:        conf.GetString("gatewayBaseUrl"),
			BankCode:       conf.GetString("gatewayBankCode"),
			CallbackMarker: conf.GetString("gatewayCallbackMarker"),
			Timeout:        conf.GetDuration("gatewayTimeout"),
		},
		Academy: AcademyConfig{
			BaseURL: conf.GetString("academyBaseUrl"),
			Timeout: conf.GetDuration("academyTimeout"),
		},
	}
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}
