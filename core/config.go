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

// Owner addressing modes. A deployment serves syllabi for exactly one of them.
const (
	OwnerKindCourse  = "course"
	OwnerKindSubject = "subject"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Driver string // postgres | sqlite
		URL    string
	}

	RedisConfig struct {
		Address string // empty disables the document cache
		TTL     time.Duration
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		AppName  string

		SecretKey          string
		JWTExpirationDelta time.Duration

		// OwnerKind is the deployment addressing mode: syllabi belong to courses or to subjects.
		OwnerKind      string
		MaxSaveRetries int

		FrontendBaseURL  string
		DefaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}
)

// NewConfig loads the configuration of the current environment (ENV: DEV (default), TEST, QA, PROD).
// Values come from `<ENV>_`-prefixed environment variables, optionally seeded from `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo Syllabus")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("ownerKind", OwnerKindSubject)
	v.SetDefault("maxSaveRetries", 3)
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("defaultFromEmail", "Masomo <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:syllabus.db?_pragma=foreign_keys(1)")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.ttl", 10*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                env,
		Build:              v.GetString("build"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		AppName:            v.GetString("appName"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		OwnerKind:          CleanString(v.GetString("ownerKind"), true /* lower */),
		MaxSaveRetries:     v.GetInt("maxSaveRetries"),
		FrontendBaseURL:    v.GetString("frontendBaseURL"),
		DefaultFromEmail:   v.GetString("defaultFromEmail"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			URL:    v.GetString("database.url"),
		},
		Redis: RedisConfig{
			Address: v.GetString("redis.address"),
			TTL:     v.GetDuration("redis.ttl"),
		},
	}
}

// DefaultFromAddress parses DefaultFromEmail, falling back to a bare address.
func (c *Config) DefaultFromAddress() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Address: c.DefaultFromEmail}
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
