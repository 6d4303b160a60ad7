package condcomp

import (
	"maps"
	"slices"

	"codeberg.org/saruga/weslc/internal/ast"
)

// Flags returns the sorted names of every feature flag referenced by an
// @if attribute in the module.
func Flags(m *ast.Module) []string {
	seen := make(map[string]struct{})
	ast.VisitAttributes(m, func(attrs *[]ast.Attribute) {
		for _, attr := range *attrs {
			if attr.Kind != ast.AttrIf {
				continue
			}
			for _, arg := range attr.Args {
				collectFlags(arg, seen)
			}
		}
	})
	return slices.Sorted(maps.Keys(seen))
}

func collectFlags(expr ast.Expr, seen map[string]struct{}) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		if len(e.TemplateArgs) == 0 {
			seen[e.Name] = struct{}{}
		}
	case *ast.ParenExpr:
		collectFlags(e.Expr, seen)
	case *ast.UnaryExpr:
		collectFlags(e.Operand, seen)
	case *ast.BinaryExpr:
		collectFlags(e.Left, seen)
		collectFlags(e.Right, seen)
	}
}
