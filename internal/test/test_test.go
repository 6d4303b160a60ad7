package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	diff := Diff("a\nb\nc", "a\nx\nc")
	assert.Equal(t, `--- expected
+++ actual
@@ -1,3 +1,3 @@
 a
-b
+x
 c
`, diff)
	assert.Empty(t, Diff("same\n", "same\n"))
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReadCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "a.wesl")
	source := "// features: {x: true, y: false}\n// strict: true\nconst a = 1;\n"
	write(t, path, source)

	c, err := ReadCase(dir, path)
	require.NoError(t, err)
	assert.Equal(t, "nested/a.wesl", c.Name)
	assert.Equal(t, source, c.Source)
	assert.Equal(t, map[string]bool{"x": true, "y": false}, c.Features)
	assert.True(t, c.Strict)
	assert.Equal(t, path+".golden", c.GoldenPath())
}

func TestReadCaseHeader(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.wesl")
	write(t, plain, "const a = 1;\n// trailing comment\n")
	c, err := ReadCase(dir, plain)
	require.NoError(t, err)
	assert.Nil(t, c.Features)
	assert.False(t, c.Strict)

	bad := filepath.Join(dir, "bad.wesl")
	write(t, bad, "// feature: {x: true}\nconst a = 1;\n")
	_, err = ReadCase(dir, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.wesl: header")
}

func TestCases(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.wesl"), "")
	write(t, filepath.Join(dir, "a.wesl"), "")
	write(t, filepath.Join(dir, "sub", "c.wesl"), "")
	write(t, filepath.Join(dir, "a.wesl.golden"), "")
	write(t, filepath.Join(dir, "notes.txt"), "")

	cases, err := Cases(dir)
	require.NoError(t, err)
	var names []string
	for _, c := range cases {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a.wesl", "b.wesl", "sub/c.wesl"}, names)
}

func TestCorpus(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "upper.wesl"), "// features: {loud: true}\nabc\n")
	write(t, filepath.Join(dir, "upper.wesl.golden"), "loud\n")

	var seen []string
	Corpus(t, dir, func(t *testing.T, c *Case) string {
		seen = append(seen, c.Name)
		if c.Features["loud"] {
			return "loud\n"
		}
		return "quiet\n"
	})
	assert.Equal(t, []string{"upper.wesl"}, seen)
}

func TestCorpusRefresh(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "keep", "a.wesl"), "")
	write(t, filepath.Join(dir, "keep", "a.wesl.golden"), "a\n")
	write(t, filepath.Join(dir, "new", "b.wesl"), "")

	t.Setenv(RefreshEnv, "new/*.wesl")
	Corpus(t, dir, func(t *testing.T, c *Case) string {
		return filepath.Base(c.Name)[:1] + "\n"
	})

	golden, err := os.ReadFile(filepath.Join(dir, "new", "b.wesl.golden"))
	require.NoError(t, err)
	assert.Equal(t, "b\n", string(golden))
}
