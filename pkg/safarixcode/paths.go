package safarixcode

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ScaffoldPaths holds the files of a converted project that get updated.
type ScaffoldPaths struct {
	ProjectDir  string   // <location>/<projectName>
	BuildConfig string   // <projectDir>/<projectName>.xcodeproj/project.pbxproj
	Metadata    []string // Info.plist of every target directory, sorted
}

const metadataGlob = "*/Info.plist"

// ResolvePaths locates the converter output for projectName. outputPath is
// joined to rootPath when relative. Nothing is written.
func ResolvePaths(rootPath, outputPath, projectName string) (*ScaffoldPaths, error) {
	location := outputPath
	if !filepath.IsAbs(location) {
		location = filepath.Join(rootPath, outputPath)
	}

	projectDir := filepath.Join(location, projectName)
	if !isDir(projectDir) {
		return nil, &ScaffoldNotFoundError{Path: projectDir, What: "project directory"}
	}

	buildConfig := filepath.Join(projectDir, projectName+".xcodeproj", "project.pbxproj")
	if !isFile(buildConfig) {
		return nil, &ScaffoldNotFoundError{Path: buildConfig, What: "build configuration"}
	}

	// DirFS keeps glob metacharacters in the project name from being
	// interpreted.
	matches, err := doublestar.Glob(os.DirFS(projectDir), metadataGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s for Info.plist files: %w", projectDir, err)
	}

	var metadata []string
	for _, m := range matches {
		dir := filepath.Dir(filepath.FromSlash(m))
		if strings.HasSuffix(dir, ".xcodeproj") {
			continue
		}
		path := filepath.Join(projectDir, filepath.FromSlash(m))
		if isFile(path) {
			metadata = append(metadata, path)
		}
	}
	if len(metadata) == 0 {
		return nil, &ScaffoldNotFoundError{Path: filepath.Join(projectDir, metadataGlob), What: "Info.plist files"}
	}
	sort.Strings(metadata)

	return &ScaffoldPaths{
		ProjectDir:  projectDir,
		BuildConfig: buildConfig,
		Metadata:    metadata,
	}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
