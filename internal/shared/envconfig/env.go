// Package envconfig reads service settings from the environment.
package envconfig

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadDotEnv copies KEY=VALUE pairs from files (".env" when none are given) into the
// process environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Get returns the trimmed value of name, or fallback when it is unset or blank.
func Get(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

// GetDuration parses name as a Go duration. Unset or unparsable values give fallback.
func GetDuration(name string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(Get(name, ""))
	if err != nil {
		return fallback
	}
	return d
}

// GetBool parses name with strconv.ParseBool. Unset or unparsable values give fallback.
func GetBool(name string, fallback bool) bool {
	b, err := strconv.ParseBool(Get(name, ""))
	if err != nil {
		return fallback
	}
	return b
}

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}
