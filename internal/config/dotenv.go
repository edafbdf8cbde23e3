package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// OpsDir is the per-repository directory holding config and, by
	// default, the store.
	OpsDir = ".ops"
	// EnvFileName is the name of the environment variables file.
	EnvFileName = ".env"
)

// LoadDotEnv loads environment variables from {repoRoot}/.ops/.env if it
// exists. Variables already set in the environment win over the file.
// A missing file is not an error.
func LoadDotEnv(repoRoot string) error {
	envPath := filepath.Join(repoRoot, OpsDir, EnvFileName)

	if _, err := os.Stat(envPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return godotenv.Load(envPath)
}
