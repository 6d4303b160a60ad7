// Package sourcemap generates version 3 source maps from the generated
// positions the printer reports.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"codeberg.org/saruga/weslc/internal/diagnostic"
)

// SourceMap is the JSON form of a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping links a generated position to a source position. Lines and
// columns are 0-based; columns count UTF-16 code units.
type Mapping struct {
	GenLine int
	GenCol  int
	SrcLine int
	SrcCol  int
	// Name is the original identifier, or "".
	Name string
}

// Options configures a Generator.
type Options struct {
	// File is the name of the generated file.
	File string
	// SourceName is the name of the original file in "sources".
	SourceName string
	// IncludeSource embeds the original source in "sourcesContent".
	IncludeSource bool
}

// Generator collects mappings for a single source file.
type Generator struct {
	source   string
	options  Options
	lines    *diagnostic.LineIndex
	mappings []Mapping
}

// NewGenerator creates a generator for mappings into source.
func NewGenerator(source string, options Options) *Generator {
	return &Generator{
		source:  source,
		options: options,
		lines:   diagnostic.NewLineIndex(source),
	}
}

// AddMapping records that the generated position genLine:genCol came from
// the byte offset srcOffset of the source. Mappings must be added in
// generated order.
func (g *Generator) AddMapping(genLine, genCol, srcOffset int, name string) {
	srcLine, srcCol := g.lines.PositionUTF16(srcOffset)
	g.mappings = append(g.mappings, Mapping{
		GenLine: genLine,
		GenCol:  genCol,
		SrcLine: srcLine,
		SrcCol:  srcCol,
		Name:    name,
	})
}

// Mappings returns the mappings added so far.
func (g *Generator) Mappings() []Mapping {
	return g.mappings
}

// Generate builds the source map.
func (g *Generator) Generate() *SourceMap {
	sm := &SourceMap{
		Version: 3,
		File:    g.options.File,
		Sources: []string{g.options.SourceName},
		Names:   []string{},
	}
	if g.options.IncludeSource {
		sm.SourcesContent = []string{g.source}
	}

	names := make(map[string]int)
	var sb strings.Builder
	var prevCol, prevSrcLine, prevSrcCol, prevName int
	line := 0
	for i, m := range g.mappings {
		switch {
		case m.GenLine > line:
			sb.WriteString(strings.Repeat(";", m.GenLine-line))
			line, prevCol = m.GenLine, 0
		case i > 0:
			sb.WriteByte(',')
		}

		appendVLQ(&sb, m.GenCol-prevCol)
		appendVLQ(&sb, 0) // single source
		appendVLQ(&sb, m.SrcLine-prevSrcLine)
		appendVLQ(&sb, m.SrcCol-prevSrcCol)
		prevCol, prevSrcLine, prevSrcCol = m.GenCol, m.SrcLine, m.SrcCol

		if m.Name != "" {
			idx, ok := names[m.Name]
			if !ok {
				idx = len(sm.Names)
				names[m.Name] = idx
				sm.Names = append(sm.Names, m.Name)
			}
			appendVLQ(&sb, idx-prevName)
			prevName = idx
		}
	}
	sm.Mappings = sb.String()
	return sm
}

// JSON returns the source map as JSON.
func (sm *SourceMap) JSON() string {
	data, err := json.Marshal(sm)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// DataURI returns the source map as a base64 data URI.
func (sm *SourceMap) DataURI() string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(sm.JSON()))
}

// Comment returns the line that links generated code to its map: an
// inline data URI, or url when it is not empty.
func (sm *SourceMap) Comment(url string) string {
	if url == "" {
		url = sm.DataURI()
	}
	return "//# sourceMappingURL=" + url
}

// Decode parses a source map's mappings back into Mapping values.
func Decode(sm *SourceMap) ([]Mapping, error) {
	var result []Mapping
	var srcLine, srcCol, name int
	for genLine, line := range strings.Split(sm.Mappings, ";") {
		genCol := 0
		for _, segment := range strings.Split(line, ",") {
			if segment == "" {
				continue
			}
			var fields []int
			for rest := segment; rest != ""; {
				v, n, err := DecodeVLQ(rest)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d segment %q", genLine, segment)
				}
				fields = append(fields, v)
				rest = rest[n:]
			}

			switch len(fields) {
			case 1, 4, 5:
			default:
				return nil, errors.Errorf("line %d segment %q: %d fields", genLine, segment, len(fields))
			}
			genCol += fields[0]
			m := Mapping{GenLine: genLine, GenCol: genCol}
			if len(fields) >= 4 {
				srcLine += fields[2]
				srcCol += fields[3]
				m.SrcLine, m.SrcCol = srcLine, srcCol
			}
			if len(fields) == 5 {
				name += fields[4]
				if name < 0 || name >= len(sm.Names) {
					return nil, errors.Errorf("line %d: name index %d out of range", genLine, name)
				}
				m.Name = sm.Names[name]
			}
			result = append(result, m)
		}
	}
	return result, nil
}
