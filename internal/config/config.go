package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the packaging parameters used by the release tools.
type Config struct {
	// Product is the project name; it names the payload directory inside the
	// release archive and the /opt/<product> install prefix.
	Product string `yaml:"product" mapstructure:"product"`
	// PackageName is the Debian binary package name (e.g. drake-dev).
	PackageName string `yaml:"package_name" mapstructure:"package_name"`
	// Maintainer is the contact address handed to alien via $EMAIL.
	Maintainer string `yaml:"maintainer" mapstructure:"maintainer"`
	// VersionPrefix is prepended to the archive timestamp to form the default version.
	VersionPrefix string `yaml:"version_prefix" mapstructure:"version_prefix"`
	// Revision is the Debian revision appended by debian/rules.
	Revision string `yaml:"revision" mapstructure:"revision"`
	// Architecture is the Debian architecture of the produced package.
	Architecture string `yaml:"architecture" mapstructure:"architecture"`
	// Codename overrides the host distribution codename when set.
	Codename string `yaml:"codename,omitempty" mapstructure:"codename"`
	// OSReleasePath is the os-release file consulted when Codename is empty.
	OSReleasePath string `yaml:"os_release_path" mapstructure:"os_release_path"`
	// ResourceDir is searched first for the debian/* templates.
	ResourceDir string `yaml:"resource_dir,omitempty" mapstructure:"resource_dir"`
	// Tools holds the paths of the external programs.
	Tools Tools `yaml:"tools" mapstructure:"tools"`
	// Env is added to the environment of every subprocess.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`
	// VerifyOutput enables inspection of the produced .deb before it is moved.
	VerifyOutput bool `yaml:"verify_output" mapstructure:"verify_output"`
	// SigningKey is an ASCII-armored OpenPGP private key, usually supplied
	// as DRAKE_RELEASE_SIGNING_KEY. Save never writes it.
	SigningKey string `yaml:"-" mapstructure:"signing_key"`
	// Wheel configures the wheel-builder backends.
	Wheel Wheel `yaml:"wheel" mapstructure:"wheel"`
}

// Tools lists the external programs driven by repack-deb.
type Tools struct {
	Fakeroot string `yaml:"fakeroot" mapstructure:"fakeroot"`
	Alien    string `yaml:"alien" mapstructure:"alien"`
}

// Wheel configures the wheel-builder backends.
type Wheel struct {
	// Engine forces a container engine binary (docker or podman).
	Engine string `yaml:"engine,omitempty" mapstructure:"engine"`
	// Image is the container image used on Linux.
	Image string `yaml:"image" mapstructure:"image"`
	// Script is the build script path inside the container.
	Script string `yaml:"script" mapstructure:"script"`
	// HostScript is the build script run directly on macOS.
	HostScript string `yaml:"host_script" mapstructure:"host_script"`
	// PythonTargets restricts the build to the listed python versions.
	PythonTargets []string `yaml:"python_targets,omitempty" mapstructure:"python_targets"`
}

const (
	// DefaultConfigFilename is the config file looked up when --config is not given.
	DefaultConfigFilename = "drake-release.yaml"

	// EnvPrefix prefixes every environment override (DRAKE_RELEASE_REVISION, ...).
	EnvPrefix = "DRAKE_RELEASE"

	DefaultProduct       = "drake"
	DefaultPackageName   = "drake-dev"
	DefaultMaintainer    = "drake-users@mit.edu"
	DefaultVersionPrefix = "0.0."
	DefaultRevision      = "1"
	DefaultArchitecture  = "amd64"
	DefaultOSReleasePath = "/etc/os-release"
	DefaultFakeroot      = "fakeroot"
	DefaultAlien         = "/usr/bin/alien"
	DefaultWheelImage    = "drake-wheel-build:latest"
	DefaultWheelScript   = "/wheel/build-wheels"
	DefaultHostScript    = "tools/wheel/macos/build-wheels"

	// DefaultFilePermissions is the permission used when saving config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidName is returned for product or package names dpkg would reject.
	errInvalidName = errors.New("invalid package name")
	// errInvalidRevision is returned for a hyphenated revision.
	errInvalidRevision = errors.New("invalid debian revision")

	packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	cfg := new(Config)
	cfg.VerifyOutput = true
	_ = Validate(cfg) //nolint:errcheck // Defaults are always valid.

	return cfg
}

// Load resolves the configuration from defaults, the optional YAML file at
// path and DRAKE_RELEASE_* environment variables, then validates it.
// An empty path skips the file unless DefaultConfigFilename exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(filepath.Clean(path))

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultConfigFilename); err == nil {
			v.SetConfigFile(DefaultConfigFilename)

			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read settings %s: %w", DefaultConfigFilename, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if file := v.ConfigFileUsed(); file != "" {
		env, err := readEnv(file)
		if err != nil {
			return nil, err
		}

		cfg.Env = env
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readEnv reads the env section of the YAML file at path. Viper lowercases
// map keys and environment variable names are case-sensitive.
func readEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var section struct {
		Env map[string]string `yaml:"env"`
	}

	if err := yaml.Unmarshal(data, &section); err != nil {
		return nil, fmt.Errorf("parse env section of %s: %w", path, err)
	}

	return section.Env, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("product", DefaultProduct)
	v.SetDefault("package_name", DefaultPackageName)
	v.SetDefault("maintainer", DefaultMaintainer)
	v.SetDefault("version_prefix", DefaultVersionPrefix)
	v.SetDefault("revision", DefaultRevision)
	v.SetDefault("architecture", DefaultArchitecture)
	v.SetDefault("codename", "")
	v.SetDefault("os_release_path", DefaultOSReleasePath)
	v.SetDefault("resource_dir", "")
	v.SetDefault("tools.fakeroot", DefaultFakeroot)
	v.SetDefault("tools.alien", DefaultAlien)
	v.SetDefault("env", map[string]string{})
	v.SetDefault("verify_output", true)
	v.SetDefault("signing_key", "")
	v.SetDefault("wheel.engine", "")
	v.SetDefault("wheel.image", DefaultWheelImage)
	v.SetDefault("wheel.script", DefaultWheelScript)
	v.SetDefault("wheel.host_script", DefaultHostScript)
	v.SetDefault("wheel.python_targets", []string{})
}

// Save writes cfg to the provided path as YAML.
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

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills optional fields with defaults and rejects values the
// Debian tooling would refuse later on.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setIfEmpty(&cfg.Product, DefaultProduct)
	setIfEmpty(&cfg.PackageName, DefaultPackageName)
	setIfEmpty(&cfg.Maintainer, DefaultMaintainer)
	setIfEmpty(&cfg.Revision, DefaultRevision)
	setIfEmpty(&cfg.Architecture, DefaultArchitecture)
	setIfEmpty(&cfg.OSReleasePath, DefaultOSReleasePath)
	setIfEmpty(&cfg.Tools.Fakeroot, DefaultFakeroot)
	setIfEmpty(&cfg.Tools.Alien, DefaultAlien)
	setIfEmpty(&cfg.Wheel.Image, DefaultWheelImage)
	setIfEmpty(&cfg.Wheel.Script, DefaultWheelScript)
	setIfEmpty(&cfg.Wheel.HostScript, DefaultHostScript)

	setIfEmpty(&cfg.VersionPrefix, DefaultVersionPrefix)

	if !packageNamePattern.MatchString(cfg.Product) {
		return fmt.Errorf("product %q: %w", cfg.Product, errInvalidName)
	}

	if !packageNamePattern.MatchString(cfg.PackageName) {
		return fmt.Errorf("package name %q: %w", cfg.PackageName, errInvalidName)
	}

	if strings.Contains(cfg.Revision, "-") {
		return fmt.Errorf("revision %q: %w", cfg.Revision, errInvalidRevision)
	}

	if _, err := mail.ParseAddress(cfg.Maintainer); err != nil {
		return fmt.Errorf("invalid maintainer address %q: %w", cfg.Maintainer, err)
	}

	if cfg.Env == nil {
		cfg.Env = make(map[string]string)
	}

	return nil
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
