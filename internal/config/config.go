package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds bootstrap parameters shared by the install and check commands.
type Config struct {
	// Prefix is the root directory of the environment to install.
	Prefix string `yaml:"prefix"`
	// Interpreter is the path to the host interpreter executable that will
	// be replaced by the shim.
	Interpreter string `yaml:"interpreter"`
	// StartupScript is the host interpreter start-up configuration file,
	// executed on every kernel start.
	StartupScript string `yaml:"startup_script"`
	// CondaExecutable is the package-manager executable name expected on
	// PATH after a successful bootstrap.
	CondaExecutable string `yaml:"conda_executable"`
	// KernelProcessName is the executable name of the host kernel process
	// to signal when requesting a restart. Defaults to the interpreter's
	// base name when empty.
	KernelProcessName string `yaml:"kernel_process_name"`
	// Timeout is the duration for interpreter probes and other short
	// subprocess calls. The installer itself runs without a deadline.
	Timeout time.Duration `yaml:"timeout"`
	// Env contains extra environment variables injected into every future
	// interpreter invocation through the shim.
	Env map[string]string `yaml:"env"`
}

const (
	// DefaultConfigFilename is the default filename for bootstrap settings.
	DefaultConfigFilename = "conda-bootstrap-settings.yaml"

	// DefaultPrefix is the default installation root.
	DefaultPrefix = "/usr/local"

	// DefaultInterpreter is the default host interpreter executable.
	DefaultInterpreter = "/usr/bin/python3"

	// DefaultStartupScript is the default interpreter start-up script.
	DefaultStartupScript = "/etc/ipython/ipython_config.py"

	// DefaultCondaExecutable is the default package-manager executable name.
	DefaultCondaExecutable = "conda"

	// DefaultTimeout is the default duration for short subprocess calls.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPrefixRequired is returned when the prefix is missing.
	errPrefixRequired = errors.New("prefix must be provided")
	// errPrefixNotAbsolute is returned when the prefix is a relative path.
	errPrefixNotAbsolute = errors.New("prefix must be an absolute path")
	// errInterpreterRequired is returned when the interpreter path is missing.
	errInterpreterRequired = errors.New("interpreter path must be provided")
)

// Default returns a configuration populated with package defaults.
func Default() *Config {
	return &Config{
		Prefix:          DefaultPrefix,
		Interpreter:     DefaultInterpreter,
		StartupScript:   DefaultStartupScript,
		CondaExecutable: DefaultCondaExecutable,
		Timeout:         DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Prefix == "" {
		return errPrefixRequired
	}

	if !filepath.IsAbs(cfg.Prefix) {
		return fmt.Errorf("%s: %w", cfg.Prefix, errPrefixNotAbsolute)
	}

	if cfg.Interpreter == "" {
		return errInterpreterRequired
	}

	if cfg.StartupScript == "" {
		cfg.StartupScript = DefaultStartupScript
	}

	if cfg.CondaExecutable == "" {
		cfg.CondaExecutable = DefaultCondaExecutable
	}

	if cfg.KernelProcessName == "" {
		cfg.KernelProcessName = filepath.Base(cfg.Interpreter)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
