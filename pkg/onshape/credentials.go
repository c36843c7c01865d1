package onshape

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadCredentials.
const (
	EnvAccessKey = "ONSHAPE_ACCESS_KEY"
	EnvSecretKey = "ONSHAPE_SECRET_KEY"
	EnvWVM       = "WVM"
)

// DefaultSecretsFile is the dotenv file LoadCredentials reads when given an empty path.
const DefaultSecretsFile = "secrets.env"

// Credentials holds the API key pair and the workspace segment literal used in every URL.
type Credentials struct {
	AccessKey string
	SecretKey string
	WVM       string
}

// Token returns the basic-auth token: base64 of "accessKey:secretKey".
func (c Credentials) Token() string {
	return base64.StdEncoding.EncodeToString([]byte(c.AccessKey + ":" + c.SecretKey))
}

// LoadCredentials loads envFile into the process environment, without overriding
// variables that are already set, and reads the credentials from it.
// A missing envFile is not an error; missing keys are.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile == "" {
		envFile = DefaultSecretsFile
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Credentials{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	creds := Credentials{
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
		WVM:       os.Getenv(EnvWVM),
	}
	if creds.WVM == "" {
		creds.WVM = "w"
	}

	var missing []string
	if creds.AccessKey == "" {
		missing = append(missing, EnvAccessKey)
	}
	if creds.SecretKey == "" {
		missing = append(missing, EnvSecretKey)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("missing credentials: %v must be set in the environment or %s", missing, envFile)
	}

	switch creds.WVM {
	case "w", "v", "m":
	default:
		return Credentials{}, fmt.Errorf("invalid %s value %q (must be w, v or m)", EnvWVM, creds.WVM)
	}

	return creds, nil
}
