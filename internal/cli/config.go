package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	appName    = "orphanclean"
	configName = ".orphanclean"
	envPrefix  = "ORPHANCLEAN"
)

// InitConfig initializes viper configuration.
// A .env file in the working directory is loaded first when present.
func InitConfig(cfgFile string) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".orphanclean" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	// Environment variables, e.g. ORPHANCLEAN_PROJECT_LANGUAGE
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// DefaultConfigPath returns $HOME/.orphanclean.yaml
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, configName+".yaml")
}

// DefaultStateDir returns the directory holding the journal and backups
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// StateDir returns the configured state directory
func StateDir() string {
	if dir := viper.GetString("state.dir"); dir != "" {
		return dir
	}
	return DefaultStateDir()
}

// JournalPath returns the path of the run journal database
func JournalPath() string {
	return filepath.Join(StateDir(), "journal.db")
}

// UILanguage returns the configured user interface language, "" when unset
func UILanguage() string {
	return viper.GetString("ui.language")
}

// SaveUILanguage stores the user interface language in the config file.
// Only the keys already in the file and ui.language are written.
func SaveUILanguage(code string) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.Set("ui.language", code)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set("ui.language", code)
	log.Debug().Str("file", path).Str("language", code).Msg("Saved interface language")
	return nil
}
