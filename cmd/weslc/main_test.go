package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const shader = "@if(a) const x = 1;\n@if(!a) const x = 2;\n"

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunStdin(t *testing.T) {
	out, _, err := runCLI(t, shader, "--no-config", "--feature", "a")
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", out)

	out, _, err = runCLI(t, shader, "--no-config", "--feature", "a=false", "--minify")
	require.NoError(t, err)
	assert.Equal(t, "const x=2;", out)
}

func TestRunOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "in.wesl"), shader)
	outPath := filepath.Join(dir, "out.wgsl")

	// Flags after the input are still parsed.
	_, stderr, err := runCLI(t, "", "--no-config", in, "-o", outPath, "--feature", "a")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Compiled "+in+":")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", string(data))
}

func TestRunGlobToDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.wesl"), shader)
	writeFile(t, filepath.Join(dir, "src", "nested", "b.wesl"), "@if(a) const y = 3;\n")
	writeFile(t, filepath.Join(dir, "src", "notes.txt"), "not a shader")
	outDir := filepath.Join(dir, "build")

	_, _, err := runCLI(t, "", "--no-config", "--feature", "a=true",
		filepath.Join(dir, "src", "**", "*.wesl"), "-o", outDir)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(outDir, "a.wgsl"))
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", string(a))

	b, err := os.ReadFile(filepath.Join(outDir, "b.wgsl"))
	require.NoError(t, err)
	assert.Equal(t, "const y = 3;\n", string(b))
}

func TestRunSeveralInputsNeedOutput(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.wesl"), shader)
	b := writeFile(t, filepath.Join(dir, "b.wesl"), shader)

	_, _, err := runCLI(t, "", "--no-config", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-o <directory>")
}

func TestRunNoMatches(t *testing.T) {
	_, _, err := runCLI(t, "", "--no-config", filepath.Join(t.TempDir(), "*.wesl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "weslc.yaml"), "features:\n  a: false\nminify: true\n")
	in := writeFile(t, filepath.Join(dir, "shaders", "in.wesl"), shader)

	out, _, err := runCLI(t, "", in)
	require.NoError(t, err)
	assert.Equal(t, "const x=2;", out)

	out, _, err = runCLI(t, "", "--feature", "a", in)
	require.NoError(t, err)
	assert.Equal(t, "const x=1;", out)

	out, _, err = runCLI(t, "", "--no-config", "--feature", "a", in)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", out)

	explicit := writeFile(t, filepath.Join(dir, "other.yaml"), "features: {a: true}\n")
	out, _, err = runCLI(t, "", "--config", explicit, in)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", out)

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "unknown: 1\n")
	_, _, err = runCLI(t, "", "--config", bad, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.wesl"), shader)
	bad := writeFile(t, filepath.Join(dir, "bad.wesl"), "struct S {\n    @if(a<b>) x: f32,\n}\n")
	worse := writeFile(t, filepath.Join(dir, "worse.wesl"), "@if(c) const z = 1;\n")
	outDir := filepath.Join(dir, "out")

	_, stderr, err := runCLI(t, "", "--no-config", "--strict", "--feature", "a", good, bad, worse, "-o", outDir)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), bad+": compilation failed with 1 error(s)")
	assert.Contains(t, errs[1].Error(), worse+": compilation failed with 1 error(s)")

	assert.Contains(t, stderr, bad+":2:9: error: invalid feature flag: `a<b>`")
	assert.Contains(t, stderr, "missing feature flag: `c`")

	// Failures do not stop the other inputs.
	_, statErr := os.Stat(filepath.Join(outDir, "good.wgsl"))
	assert.NoError(t, statErr)
}

func TestRunDiff(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "in.wesl"), shader)

	out, _, err := runCLI(t, "", "--no-config", "--diff", "--feature", "a", in)
	require.NoError(t, err)
	assert.Contains(t, out, "--- "+in+"\n")
	assert.Contains(t, out, "+++ "+in+" (compiled)\n")
	assert.Contains(t, out, "-@if(a) const x = 1;\n")
	assert.Contains(t, out, "-@if(!a) const x = 2;\n")
	assert.Contains(t, out, "+const x = 1;\n")
}

func TestRunListFeatures(t *testing.T) {
	out, _, err := runCLI(t, "@if(b || a) const x = 1;\n@if(!c) const y = 2;\n", "--no-config", "--list-features")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", out)
}

func TestRunVerbose(t *testing.T) {
	_, stderr, err := runCLI(t, shader, "--no-config", "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "stage=parse")
	assert.Contains(t, stderr, "level=DEBUG")

	_, stderr, err = runCLI(t, shader, "--no-config")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestRunBadFlags(t *testing.T) {
	_, _, err := runCLI(t, shader, "--no-config", "--feature", "a=perhaps")
	require.Error(t, err)

	_, _, err = runCLI(t, shader, "--unknown")
	require.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	out, _, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "weslc v"+version+" ("+commit+")\n", out)
}

func TestRunSourceMap(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "in.wesl"), shader)
	outPath := filepath.Join(dir, "out.wgsl")

	_, _, err := runCLI(t, "", "--no-config", "--feature", "a", "--source-map", in, "-o", outPath)
	require.NoError(t, err)

	code, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n//# sourceMappingURL=out.wgsl.map\n", string(code))

	data, err := os.ReadFile(outPath + ".map")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":"out.wgsl"`)
	assert.Contains(t, string(data), `"sources":["`+in+`"]`)

	out, _, err := runCLI(t, shader, "--no-config", "--feature", "a", "--minify", "--source-map")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "const x=1;\n//# sourceMappingURL=data:application/json;base64,"), out)
}
