package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName   = "lazyplan"
	envPrefix = "LAZYPLAN"
)

type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
}

type DatabaseConfig struct {
	// Driver is sqlite or pgx.
	Driver string `yaml:"driver" mapstructure:"driver"`
	URL    string `yaml:"url" mapstructure:"url"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// Path is where the terminal client logs; empty discards.
	Path string `yaml:"path" mapstructure:"path"`
}

type CalendarConfig struct {
	Credentials string `yaml:"credentials" mapstructure:"credentials"`
	Token       string `yaml:"token" mapstructure:"token"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Server:   ServerConfig{Addr: ":3001"},
		Auth:     AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Log:      LogConfig{Level: "info"},
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName, "config.yaml"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the YAML file at path, if present, over the defaults. A .env
// file in the working directory is loaded first and LAZYPLAN_* variables
// override the file, e.g. LAZYPLAN_DATABASE_URL.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides are seen by
// Unmarshal even when the file omits them.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", cfg.Auth.TokenTTL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
	v.SetDefault("calendar.credentials", cfg.Calendar.Credentials)
	v.SetDefault("calendar.token", cfg.Calendar.Token)
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
