package safarixcode

import "bytes"

// ReadBuildConfigFile parses the project.pbxproj at path.
func ReadBuildConfigFile(path string) (*BuildConfigDocument, error) {
	data, _, err := readFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseBuildConfig(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return doc, nil
}

// UpdateBuildConfig sets build settings per target name in the
// project.pbxproj at path. The file is rewritten atomically, and only when
// its content changes.
func UpdateBuildConfig(path string, targetUpdates map[string][]FieldUpdate) error {
	data, mode, err := readFile(path)
	if err != nil {
		return err
	}
	doc, err := ParseBuildConfig(data)
	if err != nil {
		return withPath(err, path)
	}
	updated, err := doc.Apply(targetUpdates)
	if err != nil {
		return withPath(err, path)
	}
	if bytes.Equal(updated.Bytes(), data) {
		return nil
	}
	return writeFileAtomic(path, updated.Bytes(), mode)
}
