package parser

import "codeberg.org/saruga/weslc/internal/ast"

// attrSpec describes a known attribute and how many arguments it takes.
type attrSpec struct {
	kind     ast.AttrKind
	min, max int
}

// attributes lists the attributes the compiler understands. Any other name
// parses as ast.AttrCustom with whatever arguments it was given.
var attributes = map[string]attrSpec{
	"align":          {ast.AttrAlign, 1, 1},
	"binding":        {ast.AttrBinding, 1, 1},
	"blend_src":      {ast.AttrBlendSrc, 1, 1},
	"builtin":        {ast.AttrBuiltin, 1, 1},
	"const":          {ast.AttrConst, 0, 0},
	"diagnostic":     {ast.AttrDiagnostic, 2, 2},
	"group":          {ast.AttrGroup, 1, 1},
	"id":             {ast.AttrID, 1, 1},
	"interpolate":    {ast.AttrInterpolate, 1, 2},
	"invariant":      {ast.AttrInvariant, 0, 0},
	"location":       {ast.AttrLocation, 1, 1},
	"must_use":       {ast.AttrMustUse, 0, 0},
	"size":           {ast.AttrSize, 1, 1},
	"workgroup_size": {ast.AttrWorkgroupSize, 1, 3},
	"vertex":         {ast.AttrVertex, 0, 0},
	"fragment":       {ast.AttrFragment, 0, 0},
	"compute":        {ast.AttrCompute, 0, 0},
	"if":             {ast.AttrIf, 1, 1},
}

// lookupAttr classifies an attribute name.
func lookupAttr(name string) (attrSpec, bool) {
	spec, ok := attributes[name]
	if !ok {
		return attrSpec{kind: ast.AttrCustom, min: 0, max: -1}, false
	}
	return spec, true
}

// AttrName returns the source spelling for a known attribute kind.
func AttrName(kind ast.AttrKind) string {
	for name, spec := range attributes {
		if spec.kind == kind {
			return name
		}
	}
	return ""
}
