package safarixcode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

const plistHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
`

func TestParseMetadata_KeepsOrder(t *testing.T) {
	doc, err := ParseMetadata(readFixture(t, "iOS (App)", "Info.plist"))
	require.NoError(t, err)

	assert.Equal(t, plist.XMLFormat, doc.Format())
	assert.Equal(t, []string{
		"CFBundleDisplayName",
		"CFBundleIdentifier",
		"SFSafariWebExtensionConverterVersion",
		"UIApplicationSceneManifest",
	}, doc.Keys())
	assert.Equal(t, "my-extension", doc.GetString(KeyBundleDisplayName))

	scenes, ok := doc.Get("UIApplicationSceneManifest")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"UIApplicationSupportsMultipleScenes": false}, scenes)
}

func TestMetadataApply_ReplacesAndAppends(t *testing.T) {
	doc, err := ParseMetadata(readFixture(t, "iOS (App)", "Info.plist"))
	require.NoError(t, err)

	updated, err := doc.Apply(metadataUpdates(testConfig("/tmp"), RoleApplication))
	require.NoError(t, err)

	want := plistHeader + `<dict>
	<key>CFBundleDisplayName</key>
	<string>MyApp</string>
	<key>CFBundleIdentifier</key>
	<string>com.example.myapp</string>
	<key>SFSafariWebExtensionConverterVersion</key>
	<string>15.0</string>
	<key>UIApplicationSceneManifest</key>
	<dict>
		<key>UIApplicationSupportsMultipleScenes</key>
		<false/>
	</dict>
	<key>LSApplicationCategoryType</key>
	<string>public.app-category.productivity</string>
</dict>
</plist>
`
	assert.Equal(t, want, string(updated.Bytes()))
	assert.Equal(t, []string{
		"CFBundleDisplayName",
		"CFBundleIdentifier",
		"SFSafariWebExtensionConverterVersion",
		"UIApplicationSceneManifest",
		"LSApplicationCategoryType",
	}, updated.Keys())
}

func TestMetadataApply_ExtensionHasNoCategory(t *testing.T) {
	doc, err := ParseMetadata(readFixture(t, "macOS (Extension)", "Info.plist"))
	require.NoError(t, err)

	updated, err := doc.Apply(metadataUpdates(testConfig("/tmp"), RoleExtension))
	require.NoError(t, err)

	assert.Equal(t, "com.example.myapp.Extension", updated.GetString(KeyBundleIdentifier))
	assert.Equal(t, "MyApp", updated.GetString(KeyBundleDisplayName))
	_, ok := updated.Get(KeyAppCategory)
	assert.False(t, ok)

	ext, ok := updated.Get("NSExtension")
	require.True(t, ok)
	assert.Equal(t, "com.apple.Safari.web-extension", ext.(map[string]interface{})["NSExtensionPointIdentifier"])
}

func TestMetadataApply_Idempotent(t *testing.T) {
	doc, err := ParseMetadata(readFixture(t, "macOS (App)", "Info.plist"))
	require.NoError(t, err)
	updates := metadataUpdates(testConfig("/tmp"), RoleApplication)

	once, err := doc.Apply(updates)
	require.NoError(t, err)
	twice, err := once.Apply(updates)
	require.NoError(t, err)

	assert.Same(t, once, twice)
	assert.Equal(t, string(once.Bytes()), string(twice.Bytes()))
}

func TestMetadataApply_PreservesUntouchedValues(t *testing.T) {
	src := plistHeader + `<dict>
    <key>A</key>
    <integer>7</integer>
    <key>CFBundleIdentifier</key>
    <string>old.id</string>
    <key>Z</key>
    <array>
        <string>x</string>
    </array>
</dict>
</plist>
`
	doc, err := ParseMetadata([]byte(src))
	require.NoError(t, err)

	updated, err := doc.Apply([]FieldUpdate{
		{Key: KeyBundleIdentifier, Value: "new.id"},
		{Key: "New", Value: "v"},
	})
	require.NoError(t, err)

	want := plistHeader + `<dict>
    <key>A</key>
    <integer>7</integer>
    <key>CFBundleIdentifier</key>
    <string>new.id</string>
    <key>Z</key>
    <array>
        <string>x</string>
    </array>
    <key>New</key>
    <string>v</string>
</dict>
</plist>
`
	assert.Equal(t, want, string(updated.Bytes()))
}

func TestMetadataApply_EscapesText(t *testing.T) {
	doc, err := ParseMetadata([]byte(plistHeader + "<dict>\n</dict>\n</plist>\n"))
	require.NoError(t, err)

	updated, err := doc.Apply([]FieldUpdate{{Key: KeyBundleDisplayName, Value: "Tom & Jerry <3"}})
	require.NoError(t, err)

	assert.Contains(t, string(updated.Bytes()), "\t<string>Tom &amp; Jerry &lt;3</string>\n</dict>")
	assert.Equal(t, "Tom & Jerry <3", updated.GetString(KeyBundleDisplayName))

	again, err := updated.Apply([]FieldUpdate{{Key: KeyBundleDisplayName, Value: "Tom & Jerry <3"}})
	require.NoError(t, err)
	assert.Same(t, updated, again)
}

func TestMetadataApply_SelfClosingDict(t *testing.T) {
	doc, err := ParseMetadata([]byte(plistHeader + "<dict/>\n</plist>\n"))
	require.NoError(t, err)

	updated, err := doc.Apply([]FieldUpdate{{Key: "A", Value: "b"}})
	require.NoError(t, err)

	assert.Equal(t, plistHeader+"<dict>\n\t<key>A</key>\n\t<string>b</string>\n</dict>\n</plist>\n", string(updated.Bytes()))
}

func TestMetadataApply_CompactDocument(t *testing.T) {
	doc, err := ParseMetadata([]byte(`<plist version="1.0"><dict><key>A</key><string>1</string></dict></plist>`))
	require.NoError(t, err)

	updated, err := doc.Apply([]FieldUpdate{{Key: "A", Value: "2"}, {Key: "B", Value: "3"}})
	require.NoError(t, err)

	assert.Equal(t, `<plist version="1.0"><dict><key>A</key><string>2</string><key>B</key><string>3</string></dict></plist>`, string(updated.Bytes()))
}

func TestMetadataApply_BinaryFormat(t *testing.T) {
	data, err := plist.Marshal(map[string]interface{}{
		KeyBundleIdentifier: "old.id",
		"Other":             1,
	}, plist.BinaryFormat)
	require.NoError(t, err)

	doc, err := ParseMetadata(data)
	require.NoError(t, err)
	require.Equal(t, plist.BinaryFormat, doc.Format())

	updated, err := doc.Apply([]FieldUpdate{{Key: KeyBundleIdentifier, Value: "com.example.myapp"}})
	require.NoError(t, err)

	assert.Equal(t, plist.BinaryFormat, updated.Format())
	assert.Equal(t, "com.example.myapp", updated.GetString(KeyBundleIdentifier))
	other, ok := updated.Get("Other")
	require.True(t, ok)
	assert.EqualValues(t, 1, other)

	again, err := updated.Apply([]FieldUpdate{{Key: KeyBundleIdentifier, Value: "com.example.myapp"}})
	require.NoError(t, err)
	assert.Same(t, updated, again)
}

func TestParseMetadata_Malformed(t *testing.T) {
	tests := map[string]string{
		"mismatched tags":   plistHeader + "<dict>\n\t<key>A</key>\n\t<string>x</dict>\n</plist>\n",
		"truncated":         plistHeader + "<dict>\n\t<key>A</key>\n",
		"not a dict":        plistHeader + "<array>\n\t<string>x</string>\n</array>\n</plist>\n",
		"key without value": plistHeader + "<dict>\n\t<key>A</key>\n</dict>\n</plist>\n",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(src))
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
		})
	}
}

func TestUpdateMetadataFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Info.plist")
	require.NoError(t, os.WriteFile(path, readFixture(t, "iOS (Extension)", "Info.plist"), 0600))

	require.NoError(t, UpdateMetadataFile(path, metadataUpdates(testConfig(dir), RoleExtension)))

	doc, err := ReadMetadataFile(path)
	require.NoError(t, err)
	assert.Equal(t, "com.example.myapp.Extension", doc.GetString(KeyBundleIdentifier))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestUpdateMetadataFile_Errors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.plist")
	err := UpdateMetadataFile(missing, nil)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	assert.Equal(t, missing, ioErr.Path)

	broken := filepath.Join(dir, "broken.plist")
	require.NoError(t, os.WriteFile(broken, []byte(plistHeader+"<dict><key>A</key>"), 0644))
	err = UpdateMetadataFile(broken, []FieldUpdate{{Key: "A", Value: "b"}})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, broken, parseErr.Path)
}
