package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	source := "const a = 1;\nfn f() { return a; }\n"
	g := NewGenerator(source, Options{File: "out.wgsl", SourceName: "in.wesl"})
	g.AddMapping(0, 6, 6, "a")  // a
	g.AddMapping(0, 10, 10, "") // 1
	g.AddMapping(2, 3, 16, "f")
	g.AddMapping(2, 20, 29, "a")

	sm := g.Generate()
	assert.Equal(t, 3, sm.Version)
	assert.Equal(t, "out.wgsl", sm.File)
	assert.Equal(t, []string{"in.wesl"}, sm.Sources)
	assert.Nil(t, sm.SourcesContent)
	assert.Equal(t, []string{"a", "f"}, sm.Names)
	assert.Equal(t, "MAAMA,IAAI;;GACPC,iBAAaD", sm.Mappings)

	decoded, err := Decode(sm)
	require.NoError(t, err)
	if diff := cmp.Diff([]Mapping{
		{GenLine: 0, GenCol: 6, SrcLine: 0, SrcCol: 6, Name: "a"},
		{GenLine: 0, GenCol: 10, SrcLine: 0, SrcCol: 10},
		{GenLine: 2, GenCol: 3, SrcLine: 1, SrcCol: 3, Name: "f"},
		{GenLine: 2, GenCol: 20, SrcLine: 1, SrcCol: 16, Name: "a"},
	}, decoded); diff != "" {
		t.Errorf("decoded mappings (-want +got):\n%s", diff)
	}
	assert.Equal(t, g.Mappings(), decoded)
}

func TestGenerateEmpty(t *testing.T) {
	sm := NewGenerator("", Options{IncludeSource: true}).Generate()
	assert.Equal(t, `{"version":3,"sources":[""],"sourcesContent":[""],"names":[],"mappings":""}`, sm.JSON())

	decoded, err := Decode(sm)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestGenerateUTF16Columns(t *testing.T) {
	source := "// 😀\nlet x = 1;"
	g := NewGenerator(source, Options{})
	g.AddMapping(0, 0, strings.Index(source, "x"), "x")

	decoded, err := Decode(g.Generate())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, 1, decoded[0].SrcLine)
	assert.Equal(t, 4, decoded[0].SrcCol)
}

func TestEncodings(t *testing.T) {
	g := NewGenerator("x", Options{File: "x.wgsl", SourceName: "x.wesl", IncludeSource: true})
	g.AddMapping(0, 0, 0, "x")
	sm := g.Generate()

	var back SourceMap
	require.NoError(t, json.Unmarshal([]byte(sm.JSON()), &back))
	assert.Equal(t, *sm, back)

	uri := sm.DataURI()
	payload, ok := strings.CutPrefix(uri, "data:application/json;base64,")
	require.True(t, ok)
	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, sm.JSON(), string(data))

	assert.Equal(t, "//# sourceMappingURL=x.wgsl.map", sm.Comment("x.wgsl.map"))
	assert.Equal(t, "//# sourceMappingURL="+uri, sm.Comment(""))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		mappings string
		names    []string
		err      string
	}{
		{"AA", nil, "2 fields"},
		{"AAAAC", nil, "name index 1 out of range"},
		{"A!", nil, "invalid base64 digit"},
		{"AAAg", nil, "unterminated"},
	}
	for _, tt := range tests {
		_, err := Decode(&SourceMap{Mappings: tt.mappings, Names: tt.names})
		assert.ErrorContains(t, err, tt.err, tt.mappings)
	}
}
