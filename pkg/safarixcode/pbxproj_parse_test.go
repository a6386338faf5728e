package safarixcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePBXProj_Fixture(t *testing.T) {
	data := readFixture(t, "MyApp.xcodeproj", "project.pbxproj")

	root, err := parsePBXProj(data)
	require.NoError(t, err)

	assert.Equal(t, "1", root.getString("archiveVersion"))
	assert.Equal(t, "56", root.getString("objectVersion"))

	rootObject := root.get("rootObject")
	require.NotNil(t, rootObject)
	assert.Equal(t, "A5000000000000000000000A", rootObject.value)
	assert.Equal(t, "Project object", rootObject.comment)

	project := root.get("objects").get("A5000000000000000000000A")
	require.NotNil(t, project)
	targets := project.get("targets")
	require.Equal(t, pbxArray, targets.kind)
	require.Len(t, targets.items, 4)
	assert.Equal(t, "MyApp Extension (macOS)", targets.items[3].comment)
}

func TestParsePBXProj_Strings(t *testing.T) {
	src := []byte(`{
	a = bare.value/x:y;
	b = "quoted \"value\"\n";
	c = "";
	d = (one, "two", );
	"e f" = {};
}`)

	root, err := parsePBXProj(src)
	require.NoError(t, err)

	assert.Equal(t, "bare.value/x:y", root.getString("a"))
	assert.Equal(t, "quoted \"value\"\n", root.getString("b"))
	assert.Equal(t, "", root.getString("c"))
	require.Len(t, root.get("d").items, 2)
	assert.Equal(t, "two", root.get("d").items[1].value)
	assert.Equal(t, pbxDict, root.get("e f").kind)
}

func TestParsePBXProj_Comments(t *testing.T) {
	src := []byte(`// !$*UTF8*$!
{
	/* leading */
	key /* on key */ = value /* on value */; // trailing line comment
	list = (
		ID1 /* first */,
	);
}`)

	root, err := parsePBXProj(src)
	require.NoError(t, err)

	e := root.entry("key")
	require.NotNil(t, e)
	assert.Equal(t, "on key", e.keyComment)
	assert.Equal(t, "on value", e.value.comment)
	assert.Equal(t, "first", root.get("list").items[0].comment)
}

func TestParsePBXProj_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unbalanced dictionary", "{\n\ta = {\n\t\tb = c;\n}", 1},
		{"missing semicolon", "{\n\ta = b\n\tc = d;\n}", 3},
		{"missing equals", "{\n\ta b;\n}", 2},
		{"unterminated string", "{\n\ta = \"abc;\n}", 2},
		{"unterminated comment", "{\n\t/* a = b;\n}", 2},
		{"unbalanced array", "{\n\ta = (b, c;\n}", 2},
		{"unclosed array at end of file", "{\n\ta = (\n\t\tb,\n\t\tc", 2},
		{"unclosed nested dictionary", "{\n\ta = {\n\t\tb = c;\n", 2},
		{"extra closing brace", "{\n\ta = b;\n}\n}", 4},
		{"not a dictionary", "(a, b)", 1},
		{"empty", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePBXProj([]byte(tt.src))
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestParsePBXProj_UnterminatedNamesOpening(t *testing.T) {
	_, err := parsePBXProj([]byte("{\n\ta = {\n\t\tb = c;\n}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated dictionary")

	_, err = parsePBXProj([]byte("{\n\ta = (b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated array")
}

func TestQuotePBX(t *testing.T) {
	tests := map[string]string{
		"com.example.myapp":                "com.example.myapp",
		"ABCDE12345":                       "ABCDE12345",
		"MyApp":                            "MyApp",
		"1.0":                              "1.0",
		"$(inherited)":                     `"$(inherited)"`,
		"public.app-category.productivity": `"public.app-category.productivity"`,
		"My App":                           `"My App"`,
		"":                                 `""`,
		`say "hi"`:                         `"say \"hi\""`,
		"a//b":                             `"a//b"`,
		"___VAR___":                        `"___VAR___"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quotePBX(in), in)
	}
}
