package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName       = "config"
	configFileType       = "yaml"
	configFileExt        = "config.yaml"
	defaultConfigDirName = ".tablectl"
	envConfigDir         = "TABLECTL_CONFIG_DIR"

	cfgKeyTableName = "table.name"
	cfgKeyPrefix    = "table.prefix"
	cfgKeyPerPage   = "table.per_page"
	cfgKeyPersistTo = "table.persist_to"
	cfgKeyDataDir   = "data_dir"

	defaultTableName = "vulnerabilities"
	defaultPerPage   = 10
	defaultPersistTo = "localStorage"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# tablectl configuration

table:
  name: vulnerabilities
  # prefix namespaces persisted keys when several tables share a store
  # prefix: sbom
  per_page: 10
  # one of: state, urlParams, localStorage, sessionStorage
  persist_to: localStorage

# data_dir:
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyTableName, defaultTableName)
	v.SetDefault(cfgKeyPerPage, defaultPerPage)
	v.SetDefault(cfgKeyPersistTo, defaultPersistTo)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("TABLECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
