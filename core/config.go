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
		Host            string        `mapstructure:"host"`
		Address         string        `mapstructure:"address"`
		DebugHost       string        `mapstructure:"debugHost"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		DisableReqLogs  bool          `mapstructure:"disableReqLogs"`
		// JWTSecret verifies the access tokens issued by the auth backend.
		JWTSecret string `mapstructure:"jwtSecret"`
	}

	DatabaseConfig struct {
		Engine     string `mapstructure:"engine"`
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		Name       string `mapstructure:"name"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		DisableTLS bool   `mapstructure:"disableTLS"`
	}

	CheckInConfig struct {
		Secret      string        `mapstructure:"secret"`
		TokenTTL    time.Duration `mapstructure:"tokenTTL"`
		EarlyWindow time.Duration `mapstructure:"earlyWindow"`
		GracePeriod time.Duration `mapstructure:"gracePeriod"`
	}

	PushConfig struct {
		BaseURL     string        `mapstructure:"baseURL"`
		AccessToken string        `mapstructure:"accessToken"`
		ChunkSize   int           `mapstructure:"chunkSize"`
		Concurrency int           `mapstructure:"concurrency"`
		Timeout     time.Duration `mapstructure:"timeout"`
	}

	Config struct {
		Env              string `mapstructure:"env"`
		Build            string `mapstructure:"build"`
		Debug            bool   `mapstructure:"debug"`
		TestMode         bool   `mapstructure:"testMode"`
		AppName          string `mapstructure:"appName"`
		AppScheme        string `mapstructure:"appScheme"`
		TimeZone         string `mapstructure:"timeZone"`
		DefaultFromEmail string `mapstructure:"defaultFromEmail"`
		SendgridApiKey   string `mapstructure:"sendgridApiKey"`
		RollbarToken     string `mapstructure:"rollbarToken"`
		WorkDir          string `mapstructure:"workDir"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`
		CheckIn  CheckInConfig  `mapstructure:"checkIn"`
		Push     PushConfig     `mapstructure:"push"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "SHPE")
	v.SetDefault("appScheme", "shpe")
	v.SetDefault("timeZone", "America/New_York")
	v.SetDefault("defaultFromEmail", "SHPE <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("workDir", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtSecret", "super-secret-jwt-token-with-at-least-32-characters-long")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "shpe")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("checkIn.secret", "v8m2-kq)x!3c$+d1=zr&uo7h2(h!p)#*c2(#lf4h^$cjgm2ewq")
	v.SetDefault("checkIn.tokenTTL", 15*time.Minute)
	v.SetDefault("checkIn.earlyWindow", 30*time.Minute)
	v.SetDefault("checkIn.gracePeriod", 1*time.Hour)

	v.SetDefault("push.baseURL", "https://exp.host")
	v.SetDefault("push.accessToken", "")
	v.SetDefault("push.chunkSize", 100)
	v.SetDefault("push.concurrency", 4)
	v.SetDefault("push.timeout", 10*time.Second)
}

// NewConfig builds the app configuration from defaults, the optional
// config/.env.<env> file and the environment (prefixed by the env name, eg. PROD_SERVER_ADDRESS).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := os.Getenv("WORKDIR")
	if workDir == "" {
		workDir = Getwd()
	}
	v.SetDefault("workDir", workDir)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	return &conf
}

// Address returns the database host:port.
func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// FromAddress parses DefaultFromEmail, falling back to a bare noreply address.
func (c *Config) FromAddress() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// Location returns the time zone used to render times in notification copy.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
