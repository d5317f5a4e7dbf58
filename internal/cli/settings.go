package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings is the CLI configuration, read from flags, WILDNEST_* variables and
// $HOME/.wildnest/config.yaml in that order of precedence.
type Settings struct {
	APIURL  string        `mapstructure:"api_url"`
	Token   string        `mapstructure:"token"`
	DBPath  string        `mapstructure:"db_path"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".wildnest"
	}
	return filepath.Join(home, ".wildnest")
}

func loadSettings(v *viper.Viper, configFile string) (Settings, error) {
	dir := configDir()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("db_path", filepath.Join(dir, "wildnest.db"))
	v.SetDefault("timeout", "30s")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("WILDNEST")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error parsing config: %w", err)
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	return s, nil
}
