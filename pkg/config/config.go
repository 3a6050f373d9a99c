package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Planning PlanningConfig `mapstructure:"planning"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Sessions SessionsConfig `mapstructure:"sessions"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	// MaxUploadMB caps multipart uploads of stock and formula sheets.
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PlanningConfig holds allocation defaults
type PlanningConfig struct {
	DecimalPlaces int `mapstructure:"decimal_places"`
}

// ReportsConfig holds report rendering configuration
type ReportsConfig struct {
	CompanyName string `mapstructure:"company_name"`
	OutputDir   string `mapstructure:"output_dir"`
}

// SessionsConfig holds planning workspace lifecycle configuration
type SessionsConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Validate checks every section
func (c *Config) Validate() error {
	return validation.Errors{
		"server":   c.Server.Validate(),
		"planning": c.Planning.Validate(),
		"sessions": c.Sessions.Validate(),
	}.Filter()
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.Environment, validation.Required, validation.In(EnvDevelopment, EnvStaging, EnvProduction)),
		validation.Field(&s.MaxUploadMB, validation.Min(int64(1))),
	)
}

func (p PlanningConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DecimalPlaces, validation.Min(entities.MinDecimalPlaces), validation.Max(entities.MaxDecimalPlaces)),
	)
}

func (s SessionsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.TTL, validation.Required, validation.Min(time.Minute)),
	)
}

// Load loads configuration from .env, environment and config files
func Load(serviceName string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and fails fast on invalid values.
// Use this function in main().
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := Load(serviceName)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfig is the internal configuration loader
func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("FGPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fgplan")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("planning.decimal_places", entities.DefaultDecimalPlaces)

	v.SetDefault("reports.company_name", "Production Planning")
	v.SetDefault("reports.output_dir", "./output")

	v.SetDefault("sessions.ttl", 8*time.Hour)
	v.SetDefault("sessions.sweep_interval", 10*time.Minute)
}
