package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluedeke/go-safari-xcode/pkg/safarixcode"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
)

const (
	defaultConfigFile = "safari-xcode.yaml"
	dotEnvFile        = ".env"
	packageJSONFile   = "package.json"
	defaultOutputRoot = ".output"
)

// flagConfig holds the command-line options. Empty means not given.
type flagConfig struct {
	ConfigFile string
	Root       string
	Output     string
	Name       string
	Category   string
	BundleID   string
	Team       string
	Profile    string
	P12        string
	Password   string
	Version    string
	Build      string
}

// envConfig binds SAFARI_XCODE_* variables.
type envConfig struct {
	Root       string `env:"SAFARI_XCODE_ROOT"`
	ConfigFile string `env:"SAFARI_XCODE_CONFIG"`
	Output     string `env:"SAFARI_XCODE_OUTPUT"`
	Name       string `env:"SAFARI_XCODE_NAME"`
	Category   string `env:"SAFARI_XCODE_CATEGORY"`
	BundleID   string `env:"SAFARI_XCODE_BUNDLE_ID"`
	Team       string `env:"SAFARI_XCODE_TEAM"`
	Profile    string `env:"SAFARI_XCODE_PROFILE"`
	P12        string `env:"SAFARI_XCODE_P12"`
	Password   string `env:"SAFARI_XCODE_PASSWORD"`
	Version    string `env:"SAFARI_XCODE_VERSION"`
	Build      string `env:"SAFARI_XCODE_BUILD"`
}

// fileConfig is the layout of safari-xcode.yaml.
type fileConfig struct {
	Name             string `yaml:"projectName"`
	Output           string `yaml:"outputPath"`
	Category         string `yaml:"appCategory"`
	BundleID         string `yaml:"bundleIdentifier"`
	Team             string `yaml:"developmentTeam"`
	Profile          string `yaml:"provisioningProfile"`
	P12              string `yaml:"p12"`
	MarketingVersion string `yaml:"marketingVersion"`
	BuildNumber      string `yaml:"buildNumber"`
}

type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// location is the part of the configuration needed to find a project.
type location struct {
	Root   string
	Output string
	Name   string

	flags flagConfig
	env   envConfig
	file  fileConfig
	pkg   packageJSON
}

// resolveLocation reads every configuration source and settles the root,
// the output path and the project name.
func resolveLocation(flags flagConfig, logger *zap.Logger) (*location, error) {
	root := firstNonEmpty(flags.Root, os.Getenv("SAFARI_XCODE_ROOT"))
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	loc := &location{Root: root, flags: flags}

	environ, err := loadEnvironment(root, logger)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(&loc.env, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := loc.loadConfigFile(logger); err != nil {
		return nil, err
	}
	if err := loc.loadPackageJSON(logger); err != nil {
		return nil, err
	}

	loc.Name = firstNonEmpty(flags.Name, loc.env.Name, loc.file.Name, loc.pkg.Name)
	if loc.Name == "" {
		return nil, &safarixcode.ConfigurationError{Field: "projectName", Reason: "not set and no name in " + packageJSONFile}
	}
	loc.Output = firstNonEmpty(flags.Output, loc.env.Output, loc.file.Output, defaultOutputRoot+"/"+loc.Name+"/")
	return loc, nil
}

// resolveConfig builds the updater configuration. Flags win over the
// environment, the environment over the config file and the config file
// over package.json.
func resolveConfig(flags flagConfig, logger *zap.Logger) (safarixcode.Config, error) {
	loc, err := resolveLocation(flags, logger)
	if err != nil {
		return safarixcode.Config{}, err
	}

	cfg := safarixcode.Config{
		ProjectName:      loc.Name,
		AppCategory:      firstNonEmpty(flags.Category, loc.env.Category, loc.file.Category),
		BundleIdentifier: firstNonEmpty(flags.BundleID, loc.env.BundleID, loc.file.BundleID),
		DevelopmentTeam:  firstNonEmpty(flags.Team, loc.env.Team, loc.file.Team),
		RootPath:         loc.Root,
		OutputPath:       loc.Output,
		BuildNumber:      firstNonEmpty(flags.Build, loc.env.Build, loc.file.BuildNumber),
	}

	version := firstNonEmpty(flags.Version, loc.env.Version, loc.file.MarketingVersion, loc.pkg.Version)
	if version != "" {
		normalized, err := safarixcode.NormalizeMarketingVersion(version)
		if err != nil {
			return cfg, &safarixcode.ConfigurationError{Field: "marketingVersion", Reason: err.Error()}
		}
		cfg.MarketingVersion = normalized
	}

	if cfg.DevelopmentTeam == "" {
		team, err := loc.teamFromSigningFiles(cfg.BundleIdentifier, logger)
		if err != nil {
			return cfg, err
		}
		cfg.DevelopmentTeam = team
	}
	return cfg, nil
}

// loadEnvironment merges root/.env under the process environment.
func loadEnvironment(root string, logger *zap.Logger) (map[string]string, error) {
	environ := map[string]string{}
	path := filepath.Join(root, dotEnvFile)
	dotenv, err := godotenv.Read(path)
	switch {
	case err == nil:
		logger.Debug("loaded env file", zap.String("path", path), zap.Int("vars", len(dotenv)))
		for k, v := range dotenv {
			environ[k] = v
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ, nil
}

func (l *location) loadConfigFile(logger *zap.Logger) error {
	path := firstNonEmpty(l.flags.ConfigFile, l.env.ConfigFile)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l.file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	logger.Debug("loaded config file", zap.String("path", path))
	return nil
}

func (l *location) loadPackageJSON(logger *zap.Logger) error {
	path := filepath.Join(l.Root, packageJSONFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &l.pkg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logger.Debug("loaded package.json", zap.String("name", l.pkg.Name), zap.String("version", l.pkg.Version))
	return nil
}

// teamFromSigningFiles reads the team from a provisioning profile or a
// signing certificate, in that order. No file configured means no team.
func (l *location) teamFromSigningFiles(bundleID string, logger *zap.Logger) (string, error) {
	if profilePath := firstNonEmpty(l.flags.Profile, l.env.Profile, l.file.Profile); profilePath != "" {
		data, err := os.ReadFile(l.signingPath(profilePath))
		if err != nil {
			return "", fmt.Errorf("failed to read provisioning profile: %w", err)
		}
		profile, err := safarixcode.ParseProvisioningProfile(data)
		if err != nil {
			return "", err
		}
		team, err := profile.SigningTeam()
		if err != nil {
			return "", err
		}
		if bundleID != "" && !profile.Covers(bundleID) {
			logger.Warn("provisioning profile does not cover the bundle identifier",
				zap.String("profile", profile.Name),
				zap.String("appID", profile.GetApplicationIdentifier()),
				zap.String("bundleID", bundleID))
		}
		logger.Info("team from provisioning profile", zap.String("path", profilePath), zap.String("team", team))
		return team, nil
	}

	if p12Path := firstNonEmpty(l.flags.P12, l.env.P12, l.file.P12); p12Path != "" {
		data, err := os.ReadFile(l.signingPath(p12Path))
		if err != nil {
			return "", fmt.Errorf("failed to read P12 file: %w", err)
		}
		team, err := safarixcode.TeamIDFromP12(data, firstNonEmpty(l.flags.Password, l.env.Password))
		if err != nil {
			return "", err
		}
		logger.Info("team from signing certificate", zap.String("path", p12Path), zap.String("team", team))
		return team, nil
	}
	return "", nil
}

// signingPath resolves paths from the config file against the root; flag
// and environment paths are used as given.
func (l *location) signingPath(p string) string {
	if filepath.IsAbs(p) || p == l.flags.Profile || p == l.flags.P12 || p == l.env.Profile || p == l.env.P12 {
		return p
	}
	return filepath.Join(l.Root, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
