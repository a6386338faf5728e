package safarixcode

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testOutputPath = ".output/MyApp"

// newScaffold copies testdata/scaffold into a temp root laid out the way
// the converter leaves it: <root>/.output/MyApp/MyApp/...
func newScaffold(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, copyDir(filepath.Join("testdata", "scaffold"), filepath.Join(root, testOutputPath)))
	return root
}

func scaffoldFile(root string, parts ...string) string {
	return filepath.Join(append([]string{root, testOutputPath, "MyApp"}, parts...)...)
}

func testConfig(root string) Config {
	return Config{
		ProjectName:      "MyApp",
		AppCategory:      "public.app-category.productivity",
		BundleIdentifier: "com.example.myapp",
		RootPath:         root,
		OutputPath:       testOutputPath,
	}
}

func readTestFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func readFixture(t *testing.T, parts ...string) []byte {
	t.Helper()
	return readTestFile(t, filepath.Join(append([]string{"testdata", "scaffold", "MyApp"}, parts...)...))
}

// snapshot returns the content of every file under dir keyed by path.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
