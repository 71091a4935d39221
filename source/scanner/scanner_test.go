package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScanner_Scan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A")
	writeFile(t, dir, "sub/b.md", "# B")
	writeFile(t, dir, "sub/ignore.txt", "not markdown")
	writeFile(t, dir, "drafts/c.md", "# C")
	writeFile(t, dir, ".hidden/d.md", "# D")

	s := New(Config{
		Roots:   []string{dir},
		Exclude: []string{"drafts/**"},
	}, nil)

	files, err := s.Scan()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.Equal(t, []string{"a.md", "sub/b.md"}, rels)
}

func TestScanner_Scan_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.md", "# Z")
	writeFile(t, dir, "a.md", "# A")
	writeFile(t, dir, "m.md", "# M")

	s := New(Config{Roots: []string{dir}}, nil)

	first, err := s.Scan()
	require.NoError(t, err)
	second, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "a.md", first[0].RelPath)
	assert.Equal(t, "z.md", first[2].RelPath)
}

func TestScanner_Scan_MissingRootFatal(t *testing.T) {
	s := New(Config{Roots: []string{"/nonexistent/zettelforge-test"}}, nil)
	_, err := s.Scan()
	require.Error(t, err)
}

func TestScanner_Scan_NoRoots(t *testing.T) {
	s := New(Config{}, nil)
	_, err := s.Scan()
	require.Error(t, err)
}

func TestScanner_Read_RejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644))

	s := New(Config{Roots: []string{dir}}, nil)
	_, err := s.Read(File{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}
