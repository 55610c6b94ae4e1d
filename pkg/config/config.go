package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PHOTOALBUM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	BlobDriverLocal = "local"
	BlobDriverGCS   = "gcs"
)

const (
	EnvAppEnv        = "PHOTOALBUM_APP_ENV"
	EnvPort          = "PHOTOALBUM_APP_PORT"
	EnvLogLevel      = "PHOTOALBUM_LOG_LEVEL"
	EnvStoreDriver   = "PHOTOALBUM_STORE_DRIVER"
	EnvDBDSN         = "PHOTOALBUM_DB_DSN"
	EnvDBHost        = "PHOTOALBUM_DB_HOST"
	EnvDBUser        = "PHOTOALBUM_DB_USER"
	EnvDBName        = "PHOTOALBUM_DB_NAME"
	EnvUploadDir     = "PHOTOALBUM_UPLOAD_DIR"
	EnvBlobDriver    = "PHOTOALBUM_BLOB_DRIVER"
	EnvMaxFileMB     = "PHOTOALBUM_MAX_FILE_MB"
	EnvMinYear       = "PHOTOALBUM_MIN_YEAR"
	EnvMaxYear       = "PHOTOALBUM_MAX_YEAR"
	EnvGCSBucket     = "PHOTOALBUM_GCS_BUCKET_NAME"
	EnvRedisURL      = "PHOTOALBUM_REDIS_URL"
	EnvUploadRLLimit = "PHOTOALBUM_UPLOAD_RATE_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App             AppConfig
	DB              DBConfig
	Media           MediaConfig
	GCS             GCSConfig
	Redis           RedisConfig
	UploadRateLimit UploadRateLimitConfig
	CORS            CORSConfig
}

// Load reads the PHOTOALBUM_* environment into a Config and checks the
// cross-field rules envconfig cannot express.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Media.validate(); err != nil {
		return nil, err
	}
	if cfg.Media.BlobDriver == BlobDriverGCS && cfg.GCS.BucketName == "" {
		return nil, fmt.Errorf("%s is required when blob driver is %q", EnvGCSBucket, BlobDriverGCS)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"PHOTOALBUM_APP_ENV" required:"true"`
	Port            string        `envconfig:"PHOTOALBUM_APP_PORT" default:"5000"`
	LogLevel        string        `envconfig:"PHOTOALBUM_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"PHOTOALBUM_LOG_FORMAT" default:"json"`
	LogWarnStack    bool          `envconfig:"PHOTOALBUM_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"PHOTOALBUM_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver      string `envconfig:"PHOTOALBUM_STORE_DRIVER" default:"memory"`
	DSN         string `envconfig:"PHOTOALBUM_DB_DSN"`
	AutoMigrate bool   `envconfig:"PHOTOALBUM_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"PHOTOALBUM_DB_HOST"`
	LegacyPort     int    `envconfig:"PHOTOALBUM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHOTOALBUM_DB_USER"`
	LegacyPassword string `envconfig:"PHOTOALBUM_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHOTOALBUM_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHOTOALBUM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHOTOALBUM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHOTOALBUM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHOTOALBUM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHOTOALBUM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsRelational reports whether metadata lives in a SQL database.
func (db DBConfig) IsRelational() bool {
	return db.normalizedDriver() != StoreDriverMemory
}

func (db DBConfig) normalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(db.Driver))
}

type MediaConfig struct {
	UploadDir        string        `envconfig:"PHOTOALBUM_UPLOAD_DIR" default:"uploads"`
	BlobDriver       string        `envconfig:"PHOTOALBUM_BLOB_DRIVER" default:"local"`
	MaxFileMB        int           `envconfig:"PHOTOALBUM_MAX_FILE_MB" default:"100"`
	MaxRequestMB     int           `envconfig:"PHOTOALBUM_MAX_REQUEST_MB" default:"1024"`
	MultipartMemMB   int           `envconfig:"PHOTOALBUM_MULTIPART_MEMORY_MB" default:"32"`
	MinYear          int           `envconfig:"PHOTOALBUM_MIN_YEAR" default:"1900"`
	MaxYear          int           `envconfig:"PHOTOALBUM_MAX_YEAR" default:"2100"`
	MetadataCacheLen int           `envconfig:"PHOTOALBUM_METADATA_CACHE_SIZE" default:"1024"`
	MetadataCacheTTL time.Duration `envconfig:"PHOTOALBUM_METADATA_CACHE_TTL" default:"10m"`
}

// MaxFileBytes is the per-file upload ceiling.
func (m MediaConfig) MaxFileBytes() int64 {
	return int64(m.MaxFileMB) * 1024 * 1024
}

// MaxRequestBytes bounds a whole multipart upload request.
func (m MediaConfig) MaxRequestBytes() int64 {
	return int64(m.MaxRequestMB) * 1024 * 1024
}

// MultipartMemoryBytes is how much of a multipart body is buffered in memory
// before spilling to temporary files.
func (m MediaConfig) MultipartMemoryBytes() int64 {
	return int64(m.MultipartMemMB) * 1024 * 1024
}

func (m MediaConfig) validate() error {
	if m.MinYear > m.MaxYear {
		return fmt.Errorf("%s (%d) must not exceed %s (%d)", EnvMinYear, m.MinYear, EnvMaxYear, m.MaxYear)
	}
	if m.MaxFileMB <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxFileMB)
	}
	switch strings.ToLower(m.BlobDriver) {
	case BlobDriverLocal, BlobDriverGCS:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvBlobDriver, BlobDriverLocal, BlobDriverGCS)
	}
	return nil
}

type GCSConfig struct {
	BucketName      string `envconfig:"PHOTOALBUM_GCS_BUCKET_NAME"`
	Prefix          string `envconfig:"PHOTOALBUM_GCS_PREFIX" default:"media"`
	CredentialsFile string `envconfig:"PHOTOALBUM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHOTOALBUM_REDIS_URL"`
	Address      string        `envconfig:"PHOTOALBUM_REDIS_ADDR"`
	Password     string        `envconfig:"PHOTOALBUM_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHOTOALBUM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHOTOALBUM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHOTOALBUM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHOTOALBUM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHOTOALBUM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHOTOALBUM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured. Redis is optional;
// without it upload rate limiting is off.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type UploadRateLimitConfig struct {
	Window  time.Duration `envconfig:"PHOTOALBUM_UPLOAD_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"PHOTOALBUM_UPLOAD_RATE_LIMIT" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PHOTOALBUM_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	switch db.normalizedDriver() {
	case StoreDriverMemory:
		return nil
	case StoreDriverSQLite:
		if db.DSN == "" {
			db.DSN = "photoalbum.db"
		}
		return nil
	case StoreDriverPostgres:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvStoreDriver, StoreDriverMemory, StoreDriverPostgres, StoreDriverSQLite)
	}

	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
