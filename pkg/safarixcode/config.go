package safarixcode

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Config is the resolved input of one conversion run.
type Config struct {
	ProjectName      string // Name of the generated Xcode project and its directory
	AppCategory      string // App Store category, e.g. public.app-category.productivity
	BundleIdentifier string // Application bundle identifier
	DevelopmentTeam  string // Optional: Apple Developer Team ID
	RootPath         string // Absolute path of the web extension project
	OutputPath       string // Converter project location, relative to RootPath or absolute

	MarketingVersion string // Optional: semantic version written to MARKETING_VERSION
	BuildNumber      string // Optional: written to CURRENT_PROJECT_VERSION
}

var (
	appCategoryPattern = regexp.MustCompile(`^public\.app-category\.[a-z0-9]+(-[a-z0-9]+)*$`)
	bundleIDPattern    = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)
	teamIDPattern      = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	buildNumberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+){0,2}$`)
)

// Validate checks required fields and identifier formats.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectName) == "" {
		return &ConfigurationError{Field: "projectName", Reason: "is required"}
	}
	if strings.ContainsAny(c.ProjectName, `/\`) {
		return &ConfigurationError{Field: "projectName", Reason: "must not contain path separators"}
	}
	if strings.IndexFunc(c.ProjectName, isUnwritableRune) >= 0 {
		return &ConfigurationError{Field: "projectName", Reason: "must not contain control characters"}
	}
	if c.AppCategory == "" {
		return &ConfigurationError{Field: "appCategory", Reason: "is required"}
	}
	if !appCategoryPattern.MatchString(c.AppCategory) {
		return &ConfigurationError{Field: "appCategory", Reason: "must look like public.app-category.<name>"}
	}
	if c.BundleIdentifier == "" {
		return &ConfigurationError{Field: "bundleIdentifier", Reason: "is required"}
	}
	if !bundleIDPattern.MatchString(c.BundleIdentifier) {
		return &ConfigurationError{Field: "bundleIdentifier", Reason: "must be a reverse-domain identifier"}
	}
	if c.DevelopmentTeam != "" && !teamIDPattern.MatchString(c.DevelopmentTeam) {
		return &ConfigurationError{Field: "developmentTeam", Reason: "must be 10 uppercase letters or digits"}
	}
	if c.RootPath == "" {
		return &ConfigurationError{Field: "rootPath", Reason: "is required"}
	}
	if !filepath.IsAbs(c.RootPath) {
		return &ConfigurationError{Field: "rootPath", Reason: "must be absolute"}
	}
	if c.OutputPath == "" {
		return &ConfigurationError{Field: "outputPath", Reason: "is required"}
	}
	if c.MarketingVersion != "" {
		if _, err := NormalizeMarketingVersion(c.MarketingVersion); err != nil {
			return &ConfigurationError{Field: "marketingVersion", Reason: err.Error()}
		}
	}
	if c.BuildNumber != "" && !buildNumberPattern.MatchString(c.BuildNumber) {
		return &ConfigurationError{Field: "buildNumber", Reason: "must be up to three dot-separated integers"}
	}
	return nil
}

// ProjectLocation returns the converter's project location as an absolute
// path.
func (c Config) ProjectLocation() string {
	if filepath.IsAbs(c.OutputPath) {
		return filepath.Clean(c.OutputPath)
	}
	return filepath.Join(c.RootPath, c.OutputPath)
}

// isUnwritableRune reports runes an XML property list cannot carry.
func isUnwritableRune(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r) || r == unicode.ReplacementChar
}
