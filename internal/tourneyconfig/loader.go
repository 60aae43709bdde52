package tourneyconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tourney/pkg/logging"
)

const subsystem = "tourneyconfig"

const (
	assignmentConfigFile         = "assignment_config.json"
	approvedSubmittersConfigFile = "approved_submitters.json"
	serverConfigFile             = "server_config.json"
	emailConfigFile              = "email_config.json"
)

// ErrNoConfigDefined is returned by loadOrWriteDefault when no config file
// existed and a default one has just been written, mirroring the original
// tournament's NoConfigDefined exception: the caller must stop and ask the
// operator to fill in the file that was just created.
var ErrNoConfigDefined = errors.New("tourneyconfig: no configuration file found, a default one has been written")

// LoadAssignmentConfig reads assignment_config.json from configDir. If the
// file does not exist, a default is written and ErrNoConfigDefined is
// returned so the caller can surface the need to edit it before continuing.
func LoadAssignmentConfig(configDir string) (AssignmentConfig, error) {
	var cfg AssignmentConfig
	err := loadOrWriteDefault(filepath.Join(configDir, assignmentConfigFile), DefaultAssignmentConfig(), &cfg)
	return cfg, err
}

// LoadApprovedSubmittersConfig reads approved_submitters.json from configDir.
func LoadApprovedSubmittersConfig(configDir string) (ApprovedSubmittersConfig, error) {
	var cfg ApprovedSubmittersConfig
	err := loadOrWriteDefault(filepath.Join(configDir, approvedSubmittersConfigFile), DefaultApprovedSubmittersConfig(), &cfg)
	return cfg, err
}

// LoadServerConfig reads server_config.json from configDir. Unlike the
// other config files, a missing server_config.json is not fatal: the
// default (127.0.0.1:8080) is perfectly usable, so the default is returned
// without ErrNoConfigDefined.
func LoadServerConfig(configDir string) (ServerConfig, error) {
	path := filepath.Join(configDir, serverConfigFile)
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info(subsystem, "no %s found, using defaults and writing one to %s", serverConfigFile, path)
			if writeErr := writeDefault(path, cfg); writeErr != nil {
				return cfg, writeErr
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("tourneyconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("tourneyconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEmailConfig reads email_config.json from configDir. A missing file is
// not an error and returns ok=false: crash notification is optional, and
// internal/notify's logging-only Notifier does not read this config.
func LoadEmailConfig(configDir string) (EmailConfig, bool, error) {
	path := filepath.Join(configDir, emailConfigFile)
	var cfg EmailConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EmailConfig{}, false, nil
		}
		return EmailConfig{}, false, fmt.Errorf("tourneyconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return EmailConfig{}, false, fmt.Errorf("tourneyconfig: parsing %s: %w", path, err)
	}
	return cfg, true, nil
}

func loadOrWriteDefault[T any](path string, def T, out *T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info(subsystem, "no config file found at %s, writing default", path)
			if writeErr := writeDefault(path, def); writeErr != nil {
				return writeErr
			}
			*out = def
			return fmt.Errorf("%w: %s", ErrNoConfigDefined, path)
		}
		return fmt.Errorf("tourneyconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("tourneyconfig: parsing %s: %w", path, err)
	}
	logging.Info(subsystem, "loaded configuration from %s", path)
	return nil
}

func writeDefault[T any](path string, def T) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("tourneyconfig: marshaling default for %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("tourneyconfig: creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tourneyconfig: writing default to %s: %w", path, err)
	}
	return nil
}
