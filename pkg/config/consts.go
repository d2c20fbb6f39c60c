package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "TASTEBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TASTEBITE_DB_DSN"
	EnvDBHost = "TASTEBITE_DB_HOST"
	EnvDBUser = "TASTEBITE_DB_USER"
	EnvDBName = "TASTEBITE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
