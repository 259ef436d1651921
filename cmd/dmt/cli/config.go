package cli

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var configSearchPaths = []string{".", "./config", "/etc/dmt", "$HOME/.dmt"}

func initConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range configSearchPaths {
			viper.AddConfigPath(dir)
			loadEnvFiles(dir)
		}
	}

	viper.SetEnvPrefix("DMT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadEnvFiles reads .env and .env.local from dir into the process
// environment. Missing files are not an error.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		godotenv.Load(filepath.Join(dir, name))
	}
}
