package users

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// AppConfig is the file/env backed implementation of Config, loaded
// with cleanenv so every field can come from YAML or the environment.
type AppConfig struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local"`
	DB         DBConfig   `yaml:"db"`
	HTTPServer HTTPConfig `yaml:"http_server"`
	Auth       AuthConfig `yaml:"auth"`
}

type DBConfig struct {
	DSN string `yaml:"dsn" env:"DB_DSN" env-default:"file::memory:?cache=shared"`
}

type HTTPConfig struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type AuthConfig struct {
	SigningKey      string   `yaml:"signing_key" env:"AUTH_SIGNING_KEY" env-required:"true"`
	TokenExpiration int      `yaml:"token_expiration" env:"AUTH_TOKEN_EXPIRATION" env-default:"24"`
	Issuer          string   `yaml:"issuer" env:"AUTH_ISSUER" env-default:"go-users"`
	Audience        []string `yaml:"audience" env:"AUTH_AUDIENCE"`
	ContextKey      string   `yaml:"context_key" env-default:"user"`
	TokenLookup     string   `yaml:"token_lookup" env-default:"header:Authorization"`
	AuthScheme      string   `yaml:"auth_scheme" env-default:"Bearer"`
}

var _ Config = (*AppConfig)(nil)

func (c *AppConfig) GetSigningKey() string   { return c.Auth.SigningKey }
func (c *AppConfig) GetTokenExpiration() int { return c.Auth.TokenExpiration }
func (c *AppConfig) GetIssuer() string       { return c.Auth.Issuer }
func (c *AppConfig) GetAudience() []string   { return c.Auth.Audience }
func (c *AppConfig) GetContextKey() string   { return c.Auth.ContextKey }
func (c *AppConfig) GetTokenLookup() string  { return c.Auth.TokenLookup }
func (c *AppConfig) GetAuthScheme() string   { return c.Auth.AuthScheme }

// LoadConfig reads configuration from the given path, falling back to
// environment variables only when the path is empty.
func LoadConfig(path string) (*AppConfig, error) {
	config := &AppConfig{}

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, err
		}
		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoadConfig is LoadConfig for main functions; it resolves the
// path from CONFIG_PATH and exits on failure.
func MustLoadConfig() *AppConfig {
	path := os.Getenv("CONFIG_PATH")

	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	return config
}
