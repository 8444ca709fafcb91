package git

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS struct {
	files   map[string]string
	readErr error
}

func (m *memFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	body, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(body), nil
}

func TestIgnoreMatcher_RootFile(t *testing.T) {
	type probe struct {
		path    string
		isDir   bool
		ignored bool
	}
	cases := []struct {
		name      string
		gitignore string
		probes    []probe
	}{
		{
			name:      "globs",
			gitignore: "*.log\n*.tmp\n",
			probes: []probe{
				{path: "test.log", ignored: true},
				{path: "deep/file.tmp", ignored: true},
				{path: ".hidden.log", ignored: true},
				{path: "test.txt"},
				{path: ".keep"},
			},
		},
		{
			name:      "crlf",
			gitignore: "*.log\r\nnode_modules\r\n",
			probes: []probe{
				{path: "app.log", ignored: true},
				{path: "node_modules/foo", ignored: true},
			},
		},
		{
			name:      "unclean paths",
			gitignore: "*.log",
			probes: []probe{
				{path: "foo//bar.log", ignored: true},
				{path: "./baz.log", ignored: true},
			},
		},
		{
			name:      "directory only",
			gitignore: "# build output\nbuild/\n",
			probes: []probe{
				{path: "build", isDir: true, ignored: true},
				{path: "build"},
				{path: "# build output"},
			},
		},
		{
			name:      "trailing whitespace",
			gitignore: "secret.txt   \n",
			probes:    []probe{{path: "secret.txt", ignored: true}},
		},
		{
			name:      "root never ignored",
			gitignore: "*\n",
			probes: []probe{
				{path: ".", isDir: true},
				{path: "", isDir: true},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewIgnoreMatcher("/ws", &memFS{files: map[string]string{"/ws/.gitignore": tc.gitignore}})
			require.NoError(t, err)
			for _, p := range tc.probes {
				assert.Equal(t, p.ignored, m.ShouldIgnore(p.path, p.isDir), "%q dir=%v", p.path, p.isDir)
			}
		})
	}
}

func TestIgnoreMatcher_NoFiles(t *testing.T) {
	m, err := NewIgnoreMatcher("/ws", &memFS{})

	require.NoError(t, err)
	assert.False(t, m.ShouldIgnore("test.log", false))
}

func TestIgnoreMatcher_ReadError(t *testing.T) {
	fs := &memFS{files: map[string]string{"/ws/.gitignore": "*.log"}, readErr: errors.New("disk failure")}

	_, err := NewIgnoreMatcher("/ws", fs)

	var readErr *GitignoreReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "/ws/.gitignore", readErr.Path)
}

func TestIgnoreMatcher_Nested(t *testing.T) {
	fs := &memFS{files: map[string]string{
		"/ws/.gitignore":         "*.log\n",
		"/ws/.git/info/exclude":  "secret.txt\n",
		"/ws/web/.gitignore":     "dist/\n!keep.log\n",
		"/ws/web/api/.gitignore": "*.json\n",
		"/ws/other/.gitignore":   "\n# only comments\n",
	}}
	m, err := NewIgnoreMatcher("/ws", fs)
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore("secret.txt", false))
	assert.False(t, m.ShouldIgnore("web/dist", true), "nested file not loaded yet")

	require.NoError(t, m.Enter("web"))
	require.NoError(t, m.Enter("web/api"))
	require.NoError(t, m.Enter("other"))
	require.NoError(t, m.Enter("missing"))

	assert.True(t, m.ShouldIgnore("web/dist", true))
	assert.False(t, m.ShouldIgnore("dist", true), "scoped to web")
	assert.False(t, m.ShouldIgnore("web/keep.log", false), "negated in web")
	assert.True(t, m.ShouldIgnore("web/api/v1.json", false))
	assert.False(t, m.ShouldIgnore("web/v1.json", false))
	assert.True(t, m.ShouldIgnore("other/app.log", false))
}

func TestNoOpMatcher(t *testing.T) {
	var m NoOpMatcher

	assert.False(t, m.ShouldIgnore("anything.log", false))
	assert.NoError(t, m.Enter("dir"))
}
