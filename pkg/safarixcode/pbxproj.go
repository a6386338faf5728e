package safarixcode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Build settings written by the updater.
const (
	SettingBundleIdentifier = "PRODUCT_BUNDLE_IDENTIFIER"
	SettingDisplayName      = "INFOPLIST_KEY_CFBundleDisplayName"
	SettingAppCategory      = "INFOPLIST_KEY_LSApplicationCategoryType"
	SettingDevelopmentTeam  = "DEVELOPMENT_TEAM"
	SettingMarketingVersion = "MARKETING_VERSION"
	SettingProjectVersion   = "CURRENT_PROJECT_VERSION"
	SettingInfoPlistFile    = "INFOPLIST_FILE"
)

// BuildConfigDocument is a parsed project.pbxproj.
type BuildConfigDocument struct {
	raw  []byte
	root *pbxNode
}

// BuildConfiguration is one flavor (Debug, Release, ...) of a target.
type BuildConfiguration struct {
	ID       string
	Name     string
	Settings map[string]string // string-valued build settings only

	settings *pbxNode
}

// Target is a PBXNativeTarget with its build configurations.
type Target struct {
	ID             string
	Name           string
	ProductType    string
	Role           TargetRole
	Configurations []BuildConfiguration
}

// Setting returns the first non-empty value of key across the target's
// configurations.
func (t *Target) Setting(key string) string {
	for _, c := range t.Configurations {
		if v := c.Settings[key]; v != "" {
			return v
		}
	}
	return ""
}

// ParseBuildConfig parses the content of a project.pbxproj.
func ParseBuildConfig(data []byte) (*BuildConfigDocument, error) {
	root, err := parsePBXProj(data)
	if err != nil {
		return nil, err
	}
	if objects := root.get("objects"); objects == nil || objects.kind != pbxDict {
		return nil, &ParseError{Err: errors.New("missing objects dictionary")}
	}
	return &BuildConfigDocument{raw: data, root: root}, nil
}

// Bytes returns the serialized document.
func (d *BuildConfigDocument) Bytes() []byte { return d.raw }

func (d *BuildConfigDocument) objects() *pbxNode {
	return d.root.get("objects")
}

// Targets returns the native targets in document order.
func (d *BuildConfigDocument) Targets() ([]Target, error) {
	objects := d.objects()
	var targets []Target
	for _, e := range objects.entries {
		obj := e.value
		if obj.getString("isa") != "PBXNativeTarget" {
			continue
		}
		t, err := d.loadTarget(e.key, obj)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, nil
}

// Target returns the native target called name.
func (d *BuildConfigDocument) Target(name string) (*Target, error) {
	for _, e := range d.objects().entries {
		obj := e.value
		if obj.getString("isa") == "PBXNativeTarget" && obj.getString("name") == name {
			return d.loadTarget(e.key, obj)
		}
	}
	return nil, &TargetNotFoundError{Target: name}
}

func (d *BuildConfigDocument) loadTarget(id string, obj *pbxNode) (*Target, error) {
	t := &Target{
		ID:          id,
		Name:        obj.getString("name"),
		ProductType: obj.getString("productType"),
	}
	t.Role = roleForProductType(t.ProductType)

	objects := d.objects()
	listID := obj.getString("buildConfigurationList")
	list := objects.get(listID)
	if list == nil || list.getString("isa") != "XCConfigurationList" {
		return nil, d.structureError(obj, "target %q references missing configuration list %q", t.Name, listID)
	}
	refs := list.get("buildConfigurations")
	if refs == nil || refs.kind != pbxArray {
		return nil, d.structureError(list, "configuration list %q has no buildConfigurations", listID)
	}

	for _, ref := range refs.items {
		cfg := objects.get(ref.value)
		if ref.kind != pbxString || cfg == nil || cfg.getString("isa") != "XCBuildConfiguration" {
			return nil, d.structureError(ref, "configuration list %q references missing build configuration %q", listID, ref.value)
		}
		settings := cfg.get("buildSettings")
		if settings == nil || settings.kind != pbxDict {
			return nil, d.structureError(cfg, "build configuration %q has no buildSettings", ref.value)
		}
		bc := BuildConfiguration{
			ID:       ref.value,
			Name:     cfg.getString("name"),
			Settings: make(map[string]string, len(settings.entries)),
			settings: settings,
		}
		for _, s := range settings.entries {
			if s.value.kind == pbxString {
				bc.Settings[s.key] = s.value.value
			}
		}
		t.Configurations = append(t.Configurations, bc)
	}
	return t, nil
}

func (d *BuildConfigDocument) structureError(n *pbxNode, format string, args ...interface{}) error {
	return &ParseError{Line: lineAt(d.raw, n.start), Err: fmt.Errorf(format, args...)}
}

// Apply sets the given build settings on every configuration of each named
// target. Settings already holding the requested value are not touched and
// missing ones are inserted in alphabetical position, so Apply is
// idempotent. When nothing changes the receiver itself is returned.
func (d *BuildConfigDocument) Apply(targetUpdates map[string][]FieldUpdate) (*BuildConfigDocument, error) {
	names := make([]string, 0, len(targetUpdates))
	for name := range targetUpdates {
		names = append(names, name)
	}
	sort.Strings(names)

	var edits []splice
	for _, name := range names {
		t, err := d.Target(name)
		if err != nil {
			return nil, err
		}
		updates := dedupeUpdates(targetUpdates[name])
		for _, c := range t.Configurations {
			edits = append(edits, d.settingsEdits(c.settings, updates)...)
		}
	}
	if len(edits) == 0 {
		return d, nil
	}
	return ParseBuildConfig(applySplices(d.raw, edits))
}

func (d *BuildConfigDocument) settingsEdits(settings *pbxNode, updates []FieldUpdate) []splice {
	var edits []splice
	var missing []FieldUpdate
	for _, u := range updates {
		e := settings.entry(u.Key)
		if e == nil {
			missing = append(missing, u)
			continue
		}
		if e.value.kind == pbxString && e.value.value == u.Value {
			continue
		}
		edits = append(edits, splice{start: e.value.start, end: e.value.end, text: quotePBX(u.Value)})
	}

	sort.SliceStable(missing, func(i, j int) bool { return missing[i].Key < missing[j].Key })
	for _, u := range missing {
		edits = append(edits, d.settingInsertion(settings, u))
	}
	return edits
}

// settingInsertion places key = value; in front of the first setting that
// sorts after it, matching that line's indentation.
func (d *BuildConfigDocument) settingInsertion(settings *pbxNode, u FieldUpdate) splice {
	line := quotePBX(u.Key) + " = " + quotePBX(u.Value) + ";"

	for _, e := range settings.entries {
		if e.key <= u.Key {
			continue
		}
		if indent, ok := leadingBlank(d.raw, e.keyStart); ok {
			pos := lineStart(d.raw, e.keyStart)
			return splice{start: pos, end: pos, text: indent + line + "\n"}
		}
		return splice{start: e.keyStart, end: e.keyStart, text: line + " "}
	}

	if n := len(settings.entries); n > 0 {
		last := settings.entries[n-1]
		if indent, ok := leadingBlank(d.raw, last.keyStart); ok {
			if pos, ok := nextLine(d.raw, last.end); ok {
				return splice{start: pos, end: pos, text: indent + line + "\n"}
			}
		}
		return splice{start: last.end, end: last.end, text: " " + line}
	}

	if indent, ok := leadingBlank(d.raw, settings.close); ok && lineStart(d.raw, settings.close) > settings.start {
		pos := lineStart(d.raw, settings.close)
		return splice{start: pos, end: pos, text: indent + "\t" + line + "\n"}
	}
	return splice{start: settings.close, end: settings.close, text: line + " "}
}

// nextLine returns the start of the line after off when the rest of the
// current line is blank.
func nextLine(raw []byte, off int) (int, bool) {
	for i := off; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '\t', '\r':
		case '\n':
			return i + 1, true
		default:
			return 0, false
		}
	}
	return 0, false
}

// buildSettingsUpdates returns the build settings of a target of the given
// role. Optional fields that are not set are left out so existing values
// survive.
func buildSettingsUpdates(cfg Config, role TargetRole) []FieldUpdate {
	updates := []FieldUpdate{
		{Key: SettingBundleIdentifier, Value: BundleIDFor(role, cfg.BundleIdentifier)},
		{Key: SettingDisplayName, Value: cfg.ProjectName},
	}
	if role == RoleApplication {
		updates = append(updates, FieldUpdate{Key: SettingAppCategory, Value: cfg.AppCategory})
	}
	if cfg.DevelopmentTeam != "" {
		updates = append(updates, FieldUpdate{Key: SettingDevelopmentTeam, Value: cfg.DevelopmentTeam})
	}
	if cfg.MarketingVersion != "" {
		if v, err := NormalizeMarketingVersion(cfg.MarketingVersion); err == nil {
			updates = append(updates, FieldUpdate{Key: SettingMarketingVersion, Value: v})
		}
	}
	if cfg.BuildNumber != "" {
		updates = append(updates, FieldUpdate{Key: SettingProjectVersion, Value: cfg.BuildNumber})
	}
	return updates
}

// infoPlistPath strips the project-relative build variables Xcode allows in
// INFOPLIST_FILE.
func infoPlistPath(setting string) string {
	for _, prefix := range []string{"$(SRCROOT)/", "$(PROJECT_DIR)/", "${SRCROOT}/", "${PROJECT_DIR}/"} {
		setting = strings.TrimPrefix(setting, prefix)
	}
	return setting
}
