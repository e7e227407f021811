package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var envFileNames = []string{".env", ".env.local"}

// loadEnvFile loads the first .env/.env.local found in dir. Variables already
// present in the process environment are never overwritten.
// It returns the loaded path, or "" when no file exists.
func loadEnvFile(dir string) (string, error) {
	for _, name := range envFileNames {
		envPath := filepath.Join(dir, name)
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return "", fmt.Errorf("load %s: %w", envPath, err)
		}
		return envPath, nil
	}
	return "", nil
}
