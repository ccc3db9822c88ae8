package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config agrupa toda la configuración del servicio.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Site     SiteConfig     `yaml:"site"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	S3       S3Config       `yaml:"s3"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig: si DSN está vacío el router usa los repos in-memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SiteConfig struct {
	City string `yaml:"city"`
}

type UploadsConfig struct {
	Store        string `yaml:"store"` // disk | s3
	Dir          string `yaml:"dir"`
	PublicPrefix string `yaml:"public_prefix"`
	MaxBytes     int64  `yaml:"max_bytes"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

// DefaultPath es el archivo YAML que se busca si CONFIG_FILE no está seteada.
const DefaultPath = "config.yaml"

// PathFromEnv devuelve CONFIG_FILE o DefaultPath.
func PathFromEnv() string {
	if v, ok := lookup("CONFIG_FILE"); ok {
		return v
	}
	return DefaultPath
}

// Default devuelve la configuración de desarrollo.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Site:   SiteConfig{City: "Tijuana"},
		Uploads: UploadsConfig{
			Store:        "disk",
			Dir:          "public/uploads/cats",
			PublicPrefix: "/uploads/cats",
			MaxBytes:     5 << 20,
		},
		Session: SessionConfig{TTL: 30 * 24 * time.Hour},
		Log:     LogConfig{Level: "info", Format: "text", App: "gatitown"},
	}
}

// Load arma la config en capas: defaults, .env (si existe), archivo YAML (si path
// no está vacío y existe) y por último variables de entorno.
func Load(path string) (Config, error) {
	// .env es opcional; en prod las variables vienen del entorno.
	_ = godotenv.Load()

	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: seguimos con defaults + env
		default:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate revisa combinaciones que no tienen sentido.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads.max_bytes must be positive")
	}
	switch c.Uploads.Store {
	case "disk":
		if strings.TrimSpace(c.Uploads.Dir) == "" {
			return errors.New("uploads.dir required for disk store")
		}
	case "s3":
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return errors.New("s3.bucket required for s3 store")
		}
	default:
		return fmt.Errorf("unknown photo store %q", c.Uploads.Store)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	return nil
}

// Addr es la dirección de escucha del servidor HTTP.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("DB_DSN"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := lookup("CITY"); ok {
		cfg.Site.City = v
	}

	if v, ok := lookup("PHOTO_STORE"); ok {
		cfg.Uploads.Store = strings.ToLower(v)
	}
	if v, ok := lookup("UPLOAD_DIR"); ok {
		cfg.Uploads.Dir = v
	}
	if v, ok := lookup("UPLOAD_PUBLIC_PREFIX"); ok {
		cfg.Uploads.PublicPrefix = v
	}
	if v, ok := lookup("UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
		}
		cfg.Uploads.MaxBytes = n
	}

	if v, ok := lookup("S3_BUCKET"); ok {
		cfg.S3.Bucket = v
	}
	if v, ok := lookup("S3_REGION"); ok {
		cfg.S3.Region = v
	}
	if v, ok := lookup("S3_ENDPOINT"); ok {
		cfg.S3.Endpoint = v
	}
	if v, ok := lookup("S3_ACCESS_KEY"); ok {
		cfg.S3.AccessKey = v
	}
	if v, ok := lookup("S3_SECRET_KEY"); ok {
		cfg.S3.SecretKey = v
	}
	if v, ok := lookup("S3_PUBLIC_BASE_URL"); ok {
		cfg.S3.PublicBaseURL = v
	}

	if v, ok := lookup("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
		cfg.Session.CookieSecure = b
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup("APP_NAME"); ok {
		cfg.Log.App = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
