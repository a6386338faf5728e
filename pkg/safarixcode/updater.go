package safarixcode

import (
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Updater applies a Config to a converted Safari extension project.
//
// A run is not atomic across files: when a step fails, files updated by the
// earlier steps stay updated. Every step is idempotent, so running again
// after fixing the cause finishes the job.
type Updater struct {
	log *zap.Logger
}

// NewUpdater returns an Updater logging to logger. A nil logger discards
// all output.
func NewUpdater(logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{log: logger}
}

// Run updates the project with a default Updater.
func Run(cfg Config) error {
	return NewUpdater(nil).Run(cfg)
}

// Run validates cfg, updates the build configuration and then every
// Info.plist. It stops at the first error and returns it unchanged.
func (u *Updater) Run(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	paths, err := ResolvePaths(cfg.RootPath, cfg.OutputPath, cfg.ProjectName)
	if err != nil {
		return err
	}
	u.log.Debug("resolved scaffold",
		zap.String("project", paths.ProjectDir),
		zap.String("buildConfig", paths.BuildConfig),
		zap.Strings("metadata", paths.Metadata))

	doc, err := ReadBuildConfigFile(paths.BuildConfig)
	if err != nil {
		return err
	}
	targets, err := doc.Targets()
	if err != nil {
		return withPath(err, paths.BuildConfig)
	}
	if err := requireRoles(paths.BuildConfig, targets); err != nil {
		return err
	}

	targetUpdates := make(map[string][]FieldUpdate)
	for _, t := range targets {
		if t.Role == RoleOther {
			continue
		}
		targetUpdates[t.Name] = buildSettingsUpdates(cfg, t.Role)
	}

	u.log.Info("updating build configuration", zap.String("path", paths.BuildConfig), zap.Int("targets", len(targetUpdates)))
	if err := UpdateBuildConfig(paths.BuildConfig, targetUpdates); err != nil {
		return err
	}

	for _, p := range paths.Metadata {
		role := metadataRole(paths.ProjectDir, p, targets)
		if role == RoleOther {
			u.log.Debug("skipping Info.plist of unrelated target", zap.String("path", p))
			continue
		}
		u.log.Info("updating Info.plist", zap.String("path", p), zap.Stringer("role", role))
		if err := UpdateMetadataFile(p, metadataUpdates(cfg, role)); err != nil {
			return err
		}
	}
	return nil
}

// requireRoles fails unless the project has both an application and an
// extension target.
func requireRoles(path string, targets []Target) error {
	var haveApp, haveExt bool
	for _, t := range targets {
		switch t.Role {
		case RoleApplication:
			haveApp = true
		case RoleExtension:
			haveExt = true
		}
	}
	if !haveApp {
		return &TargetNotFoundError{Path: path, Target: "application target (" + productTypeApplication + ")"}
	}
	if !haveExt {
		return &TargetNotFoundError{Path: path, Target: "extension target (" + productTypeAppExtension + ")"}
	}
	return nil
}

// metadataRole finds the target whose INFOPLIST_FILE names file. Files no
// target claims are classified by their directory name.
func metadataRole(projectDir, file string, targets []Target) TargetRole {
	rel, err := filepath.Rel(projectDir, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)

	for _, t := range targets {
		for _, c := range t.Configurations {
			setting := c.Settings[SettingInfoPlistFile]
			if setting != "" && path.Clean(infoPlistPath(setting)) == rel {
				return t.Role
			}
		}
	}

	dir := strings.SplitN(rel, "/", 2)[0]
	if strings.Contains(dir, "Extension") {
		return RoleExtension
	}
	return RoleApplication
}
