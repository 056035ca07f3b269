package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Docstore      DocstoreConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCS           GCSConfig
	Media         MediaConfig
	Seed          SeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.FeatureFlags.StorageBackend {
	case StorageBackendSQL:
		if c.FeatureFlags.UseSQLite {
			if c.DB.SQLitePath == "" {
				return fmt.Errorf("%s is required when %s is set", EnvSQLitePath, EnvUseSQLite)
			}
			break
		}
		if err := c.DB.ensureDSN(); err != nil {
			return err
		}
	case StorageBackendMongo:
		if c.Docstore.URI == "" {
			return fmt.Errorf("%s is required for the %q storage backend", EnvDocstoreURI, StorageBackendMongo)
		}
	default:
		return fmt.Errorf("unknown %s %q", EnvStorageBackend, c.FeatureFlags.StorageBackend)
	}

	switch c.FeatureFlags.UploadBackend {
	case UploadBackendLocal:
		if c.Media.LocalDir == "" {
			return fmt.Errorf("%s is required for local uploads", EnvMediaLocalDir)
		}
	case UploadBackendGCS:
		if c.GCS.BucketName == "" {
			return fmt.Errorf("%s is required for gcs uploads", EnvGCSBucket)
		}
	default:
		return fmt.Errorf("unknown %s %q", EnvUploadBackend, c.FeatureFlags.UploadBackend)
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"INVOICEDESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"INVOICEDESK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"INVOICEDESK_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"INVOICEDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"INVOICEDESK_LOG_WARN_STACK" default:"false"`
	PublicURL    string   `envconfig:"INVOICEDESK_PUBLIC_URL" default:"http://localhost:8080"`
	CORSOrigins  []string `envconfig:"INVOICEDESK_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"INVOICEDESK_DB_DSN"`
	SQLitePath string `envconfig:"INVOICEDESK_SQLITE_PATH" default:"invoicedesk.db"`

	Host     string `envconfig:"INVOICEDESK_DB_HOST"`
	Port     int    `envconfig:"INVOICEDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"INVOICEDESK_DB_USER"`
	Password string `envconfig:"INVOICEDESK_DB_PASSWORD"`
	Name     string `envconfig:"INVOICEDESK_DB_NAME"`
	SSLMode  string `envconfig:"INVOICEDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INVOICEDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INVOICEDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"INVOICEDESK_DB_SLOW_QUERY" default:"200ms"`
}

// DocstoreConfig configures the optional MongoDB backend.
type DocstoreConfig struct {
	URI            string        `envconfig:"INVOICEDESK_DOCSTORE_URI"`
	Database       string        `envconfig:"INVOICEDESK_DOCSTORE_DATABASE" default:"invoicedesk"`
	ConnectTimeout time.Duration `envconfig:"INVOICEDESK_DOCSTORE_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"INVOICEDESK_DOCSTORE_MAX_POOL_SIZE" default:"20"`
}

// RedisConfig is optional; an empty URL and address disables revocation checks and
// falls back to in-process rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"INVOICEDESK_REDIS_URL"`
	Address      string        `envconfig:"INVOICEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"INVOICEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVOICEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVOICEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVOICEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVOICEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"INVOICEDESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"INVOICEDESK_JWT_ISSUER" default:"invoicedesk"`
	ExpirationMinutes      int    `envconfig:"INVOICEDESK_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"INVOICEDESK_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

func (j JWTConfig) Expiration() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INVOICEDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INVOICEDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INVOICEDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INVOICEDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INVOICEDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"INVOICEDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool   `envconfig:"INVOICEDESK_USE_SQLITE" default:"false"`
	AutoMigrate    bool   `envconfig:"INVOICEDESK_AUTO_MIGRATE" default:"false"`
	AutoSeed       bool   `envconfig:"INVOICEDESK_AUTO_SEED" default:"false"`
	StorageBackend string `envconfig:"INVOICEDESK_STORAGE_BACKEND" default:"sql"`
	UploadBackend  string `envconfig:"INVOICEDESK_UPLOAD_BACKEND" default:"local"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"INVOICEDESK_GCS_BUCKET_NAME"`
	ProjectID       string `envconfig:"INVOICEDESK_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"INVOICEDESK_GCP_CREDENTIALS_JSON"`
	// PublicBaseURL overrides https://storage.googleapis.com/<bucket> in returned URLs.
	PublicBaseURL string `envconfig:"INVOICEDESK_GCS_PUBLIC_BASE_URL"`
}

type MediaConfig struct {
	MaxUploadMB    int    `envconfig:"INVOICEDESK_MAX_UPLOAD_MB" default:"10"`
	ImageMaxWidth  int    `envconfig:"INVOICEDESK_MEDIA_IMAGE_MAX_WIDTH" default:"1600"`
	ImageMaxHeight int    `envconfig:"INVOICEDESK_MEDIA_IMAGE_MAX_HEIGHT" default:"1600"`
	ImageQuality   int    `envconfig:"INVOICEDESK_MEDIA_IMAGE_QUALITY" default:"80"`
	LocalDir       string `envconfig:"INVOICEDESK_MEDIA_LOCAL_DIR" default:"uploads"`
	LocalBaseURL   string `envconfig:"INVOICEDESK_MEDIA_LOCAL_BASE_URL" default:"/uploads"`
}

func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

// SeedConfig holds the bootstrap identities created by `admin seed` or by AutoSeed in dev.
type SeedConfig struct {
	SuperAdminEmail    string `envconfig:"INVOICEDESK_SEED_SUPERADMIN_EMAIL"`
	SuperAdminPassword string `envconfig:"INVOICEDESK_SEED_SUPERADMIN_PASSWORD"`
	AdminEmail         string `envconfig:"INVOICEDESK_SEED_ADMIN_EMAIL"`
	AdminPassword      string `envconfig:"INVOICEDESK_SEED_ADMIN_PASSWORD"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
