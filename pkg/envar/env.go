package envar

import "os"

const (
	// FLEETFTP_MODELS points at a YAML model table used instead of the
	// built-in one when --models is not given
	FLEETFTP_MODELS = "FLEETFTP_MODELS"
	// FLEETFTP_PASSWORD pre-fills the password of the get command
	FLEETFTP_PASSWORD = "FLEETFTP_PASSWORD"
)

func ModelsFile() string {
	return os.Getenv(FLEETFTP_MODELS)
}

func Password() string {
	return os.Getenv(FLEETFTP_PASSWORD)
}
