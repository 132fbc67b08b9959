package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/httpapi"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/mongostore"
)

const (
	dbTypeMemory = "memory"
	dbTypeMongo  = "mongo"

	// defaultJWTSecret matches what older deployments signed with; running with it logs a warning.
	defaultJWTSecret = "your-secret-key"
)

// Config is read from the environment first; command line flags override it.
type Config struct {
	Port   int    `env:"PORT" envDefault:"5000"`
	DBType string `env:"DB_TYPE"`
	DBPath string `env:"DB_PATH"`

	MongoURI                    string        `env:"MONGO_URI"`
	MongoDBURI                  string        `env:"MONGODB_URI"`
	MongoDatabase               string        `env:"MONGO_DATABASE" envDefault:"food_delivery"`
	MongoMaxPoolSize            uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"10"`
	MongoServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT" envDefault:"10s"`
	MongoSocketTimeout          time.Duration `env:"MONGO_SOCKET_TIMEOUT" envDefault:"45s"`
	MongoConnectTimeout         time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"your-secret-key"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	RedisURL        string        `env:"REDIS_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	SeedOnEmpty     bool          `env:"SEED_ON_EMPTY" envDefault:"true"`

	PublicURL   string   `env:"PUBLIC_URL"`
	ImagesDir   string   `env:"IMAGES_DIR" envDefault:"images"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"10"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For header is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ShowVersion bool
}

// LoadConfig parses environ (the process environment when nil) and then args.
func LoadConfig(args []string, environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	set := flag.NewFlagSet("food-delivery", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	set.BoolVar(&cfg.ShowVersion, "version", false, "Show the application version")
	set.IntVar(&cfg.Port, "port", cfg.Port, "Port for the HTTP server.")
	set.StringVar(&cfg.DBType, "db-type", cfg.DBType, "Storage backend: mongo or memory. Defaults to mongo when a Mongo URI is set.")
	set.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Snapshot file for the memory backend; empty keeps data in memory only.")
	if err := set.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.MongoURI == "" {
		cfg.MongoURI = cfg.MongoDBURI
	}
	if cfg.DBType == "" {
		cfg.DBType = dbTypeMemory
		if cfg.MongoURI != "" {
			cfg.DBType = dbTypeMongo
		}
	}
	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.DBType {
	case dbTypeMemory:
	case dbTypeMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("db-type mongo needs MONGO_URI or MONGODB_URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db-type %q (want mongo or memory)", c.DBType))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must not be negative"))
	}
	if _, err := httpapi.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// address converts the port into a binding string.
func (c Config) address() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c Config) mongoConfig() mongostore.Config {
	cfg := mongostore.DefaultConfig(c.MongoURI, c.MongoDatabase)
	cfg.MaxPoolSize = c.MongoMaxPoolSize
	cfg.ServerSelectionTimeout = c.MongoServerSelectionTimeout
	cfg.SocketTimeout = c.MongoSocketTimeout
	cfg.ConnectTimeout = c.MongoConnectTimeout
	return cfg
}

// NewLogger builds the process logger. level and format fall back to info and text.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	configureLogger(logger, level, format)
	return logger
}

func configureLogger(logger *logrus.Logger, level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
