package config

// EnvPrefix namespaces the generated envconfig keys; the explicit tags below are matched
// directly as fallbacks.
const EnvPrefix = "INVOICEDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendSQL   = "sql"
	StorageBackendMongo = "mongo"

	UploadBackendLocal = "local"
	UploadBackendGCS   = "gcs"
)

const (
	EnvAppEnv    = "INVOICEDESK_APP_ENV"
	EnvPort      = "INVOICEDESK_APP_PORT"
	EnvLogLevel  = "INVOICEDESK_LOG_LEVEL"
	EnvPublicURL = "INVOICEDESK_PUBLIC_URL"

	EnvDBDSN      = "INVOICEDESK_DB_DSN"
	EnvDBHost     = "INVOICEDESK_DB_HOST"
	EnvDBUser     = "INVOICEDESK_DB_USER"
	EnvDBName     = "INVOICEDESK_DB_NAME"
	EnvSQLitePath = "INVOICEDESK_SQLITE_PATH"

	EnvDocstoreURI = "INVOICEDESK_DOCSTORE_URI"
	EnvRedisURL    = "INVOICEDESK_REDIS_URL"

	EnvJWTSecret  = "INVOICEDESK_JWT_SECRET"
	EnvJWTIssuer  = "INVOICEDESK_JWT_ISSUER"
	EnvJWTExpMins = "INVOICEDESK_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite      = "INVOICEDESK_USE_SQLITE"
	EnvStorageBackend = "INVOICEDESK_STORAGE_BACKEND"
	EnvUploadBackend  = "INVOICEDESK_UPLOAD_BACKEND"

	EnvGCSBucket     = "INVOICEDESK_GCS_BUCKET_NAME"
	EnvMediaLocalDir = "INVOICEDESK_MEDIA_LOCAL_DIR"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
