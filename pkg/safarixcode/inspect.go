package safarixcode

// ProjectInfo summarizes a converted project.
type ProjectInfo struct {
	Paths    *ScaffoldPaths
	Targets  []Target
	Metadata []MetadataInfo
}

// MetadataInfo holds the identity fields of one Info.plist.
type MetadataInfo struct {
	Path        string
	Role        TargetRole
	DisplayName string
	BundleID    string
	Category    string
}

// Inspect reads the project without modifying it.
func Inspect(rootPath, outputPath, projectName string) (*ProjectInfo, error) {
	paths, err := ResolvePaths(rootPath, outputPath, projectName)
	if err != nil {
		return nil, err
	}

	doc, err := ReadBuildConfigFile(paths.BuildConfig)
	if err != nil {
		return nil, err
	}
	targets, err := doc.Targets()
	if err != nil {
		return nil, withPath(err, paths.BuildConfig)
	}

	info := &ProjectInfo{Paths: paths, Targets: targets}
	for _, p := range paths.Metadata {
		md, err := ReadMetadataFile(p)
		if err != nil {
			return nil, err
		}
		info.Metadata = append(info.Metadata, MetadataInfo{
			Path:        p,
			Role:        metadataRole(paths.ProjectDir, p, targets),
			DisplayName: md.GetString(KeyBundleDisplayName),
			BundleID:    md.GetString(KeyBundleIdentifier),
			Category:    md.GetString(KeyAppCategory),
		})
	}
	return info, nil
}
