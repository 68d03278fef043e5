package config

// EnvPrefix namespaces every configuration variable.
const EnvPrefix = "SOLMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SOLMARKET_DB_DSN"
	EnvDBHost = "SOLMARKET_DB_HOST"
	EnvDBUser = "SOLMARKET_DB_USER"
	EnvDBName = "SOLMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
