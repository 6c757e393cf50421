package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignore_Rules(t *testing.T) {
	gi, err := parseGitignore(strings.NewReader(`
# build output
build/
*.log
!keep.log
/top-only.txt
docs/generated/**
`))
	require.NoError(t, err)
	require.Len(t, gi.rules, 5)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"build", true, true},
		{"src/build", true, true},
		{"build", false, false},
		{"app.log", false, true},
		{"logs/deep/app.log", false, true},
		{"keep.log", false, false},
		{"top-only.txt", false, true},
		{"sub/top-only.txt", false, false},
		{"docs/generated/api.html", false, true},
		{"docs/manual.html", false, false},
		{"main.go", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gi.ignored(tt.path, tt.isDir), "path %q dir=%v", tt.path, tt.isDir)
	}
}

func TestGitignore_SkipsBlankAndInvalid(t *testing.T) {
	for _, line := range []string{"", "   ", "# comment", "/", "!"} {
		_, ok := parseGitignoreLine(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestGitignore_Nil(t *testing.T) {
	var gi *gitignore
	assert.False(t, gi.ignored("anything", false))
}

func TestLoadGitignore_Missing(t *testing.T) {
	gi, err := loadGitignore(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, gi.rules)
}
