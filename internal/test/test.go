// Package test provides testing utilities for the WESL compiler.
//
// Besides assertion helpers it runs golden corpora: directories of *.wesl
// sources, each with an expected *.wesl.golden output next to it.
package test

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// RefreshEnv names the environment variable holding a glob of corpus case
// names whose golden files are rewritten instead of compared.
const RefreshEnv = "WESL_REFRESH"

// AssertEqualWithDiff checks if two strings are equal and shows a diff if not.
func AssertEqualWithDiff(t testing.TB, actual, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("\n%s", Diff(expected, actual))
	}
}

// Diff produces a unified diff between two strings.
func Diff(expected, actual string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// Case is one source file of a golden corpus.
type Case struct {
	// Name is the path relative to the corpus directory, with forward slashes.
	Name   string
	Path   string
	Source string

	// Header fields, read from the leading comment block.
	Features map[string]bool
	Strict   bool
}

// GoldenPath is where the expected output of c lives.
func (c *Case) GoldenPath() string {
	return c.Path + ".golden"
}

// ReadCase loads a corpus source. Leading "//" comment lines are a YAML
// header; the whole file, header included, is the source.
func ReadCase(dir, path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	c := &Case{Name: filepath.ToSlash(rel), Path: path, Source: string(data)}

	var header strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(c.Source))
	for scanner.Scan() {
		line, ok := strings.CutPrefix(scanner.Text(), "//")
		if !ok {
			break
		}
		header.WriteString(strings.TrimPrefix(line, " "))
		header.WriteByte('\n')
	}
	if header.Len() == 0 {
		return c, nil
	}

	dec := yaml.NewDecoder(strings.NewReader(header.String()))
	dec.KnownFields(true)
	var h struct {
		Features map[string]bool `yaml:"features"`
		Strict   bool            `yaml:"strict"`
	}
	if err := dec.Decode(&h); err != nil {
		return nil, errors.Wrapf(err, "%s: header", c.Name)
	}
	c.Features, c.Strict = h.Features, h.Strict
	return c, nil
}

// Cases lists every *.wesl file under dir, sorted by name.
func Cases(dir string) ([]*Case, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.wesl")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	slices.Sort(matches)

	cases := make([]*Case, 0, len(matches))
	for _, m := range matches {
		c, err := ReadCase(dir, filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Corpus runs every case under dir as a subtest and compares the output of
// run with the case's golden file. Cases whose name matches the glob in
// WESL_REFRESH have their golden file rewritten instead.
func Corpus(t *testing.T, dir string, run func(t *testing.T, c *Case) string) {
	t.Helper()

	cases, err := Cases(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatalf("no corpus cases in %s", dir)
	}

	refresh := os.Getenv(RefreshEnv)
	if refresh != "" && !doublestar.ValidatePattern(refresh) {
		t.Fatalf("%s: invalid pattern %q", RefreshEnv, refresh)
	}

	for _, c := range cases {
		t.Run(strings.TrimSuffix(c.Name, ".wesl"), func(t *testing.T) {
			actual := run(t, c)

			if refresh != "" {
				if ok, _ := doublestar.Match(refresh, c.Name); ok {
					if err := os.WriteFile(c.GoldenPath(), []byte(actual), 0644); err != nil {
						t.Fatal(err)
					}
					t.Logf("refreshed %s", c.GoldenPath())
					return
				}
			}

			expected, err := os.ReadFile(c.GoldenPath())
			if err != nil {
				t.Fatalf("reading golden file (set %s=%s to create it): %v", RefreshEnv, c.Name, err)
			}
			AssertEqualWithDiff(t, actual, string(expected))
		})
	}
}
