package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix only matters for untagged fields.
const EnvPrefix = "LASER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LASER_DB_DSN"
	EnvDBHost = "LASER_DB_HOST"
	EnvDBUser = "LASER_DB_USER"
	EnvDBName = "LASER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
