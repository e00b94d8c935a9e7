package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"desabafa/pkg/board/remote"

	"github.com/spf13/viper"
)

var configFile string

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "desabafa", "config.yaml"), nil
}

// initConfig layers defaults, the config file and DESABAFA_* env vars.
func initConfig() error {
	viper.SetDefault("api.url", "http://localhost:8082")
	viper.SetDefault("api.timeout", 15*time.Second)
	viper.SetDefault("log.level", "warn")

	viper.SetEnvPrefix("DESABAFA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}
		configFile = p
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return err
	}

	viper.SetConfigPermissions(0o600)
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func loadTokens() remote.Tokens {
	return remote.Tokens{
		Access:    viper.GetString("auth.access_token"),
		Refresh:   viper.GetString("auth.refresh_token"),
		ExpiresAt: viper.GetTime("auth.expires_at"),
	}
}

func saveTokens(t remote.Tokens) error {
	viper.Set("auth.access_token", t.Access)
	viper.Set("auth.refresh_token", t.Refresh)
	if t.ExpiresAt.IsZero() {
		viper.Set("auth.expires_at", "")
	} else {
		viper.Set("auth.expires_at", t.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return viper.WriteConfigAs(configFile)
}
