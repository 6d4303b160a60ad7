// Package lower rewrites a module after conditional compilation into a form
// that WGSL consumers accept: imports and @generic attributes are dropped,
// type aliases are inlined and unused @const functions are removed. Global
// type annotations are checked on the way.
package lower

import (
	"slices"
	"strings"

	"go.uber.org/multierr"

	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/consteval"
	"codeberg.org/saruga/weslc/internal/diagnostic"
)

// Options configures lowering.
type Options struct {
	// Keep lists @const functions that are kept even when unreferenced.
	Keep []string
}

// Stats counts what lowering removed.
type Stats struct {
	Imports        int
	Aliases        int
	ConstFunctions int
}

// Lower rewrites m in place. Type annotations that do not evaluate are
// reported together, one error per annotation, and leave m unchanged apart
// from the dropped imports and attributes.
func Lower(m *ast.Module, opts Options) (Stats, error) {
	var stats Stats

	stats.Imports = len(m.Imports)
	m.Imports = nil

	ast.VisitAttributes(m, func(attrs *[]ast.Attribute) {
		ast.RemoveAttrs(attrs, func(a *ast.Attribute) bool {
			return a.Kind == ast.AttrCustom && a.Name == "generic"
		})
	})

	if err := Validate(m); err != nil {
		return stats, err
	}

	stats.Aliases = inlineAliases(m)
	stats.ConstFunctions = removeConstFunctions(m, opts.Keep)
	return stats, nil
}

// ----------------------------------------------------------------------------
// Type Validation
// ----------------------------------------------------------------------------

// Validate evaluates the type annotation of every global declaration,
// struct member, function parameter and return type. Textures, samplers
// and names from other modules are not checked.
func Validate(m *ast.Module) error {
	ctx := consteval.NewModuleContext(m)
	var errs error
	check := func(t *ast.TypeExpr, decl string) {
		if t == nil || opaque(t) {
			return
		}
		if _, err := consteval.EvalTy(t, ctx); err != nil {
			errs = multierr.Append(errs, diagnostic.WithDeclaration(err, decl))
		}
	}

	for _, decl := range m.Declarations {
		switch d := decl.(type) {
		case *ast.ConstDecl:
			check(d.Type, d.Name)
		case *ast.OverrideDecl:
			check(d.Type, d.Name)
		case *ast.VarDecl:
			check(d.Type, d.Name)
		case *ast.LetDecl:
			check(d.Type, d.Name)
		case *ast.AliasDecl:
			check(d.Type, d.Name)
		case *ast.StructDecl:
			for _, member := range d.Members {
				check(member.Type, d.Name)
			}
		case *ast.FunctionDecl:
			for _, param := range d.Parameters {
				check(param.Type, d.Name)
			}
			check(d.ReturnType, d.Name)
		}
	}
	return errs
}

// opaque reports whether t mentions a texture, sampler or binding array,
// or a name qualified with a module path.
func opaque(t *ast.TypeExpr) bool {
	name := t.Name
	if strings.HasPrefix(name, "texture_") || strings.HasPrefix(name, "sampler") ||
		name == "binding_array" || strings.Contains(name, "::") {
		return true
	}
	for _, arg := range t.TemplateArgs {
		if id, ok := arg.(*ast.IdentExpr); ok && opaque(id) {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Aliases
// ----------------------------------------------------------------------------

// inlineAliases replaces every use of a type alias with a copy of the
// aliased type and removes the alias declarations. Aliases of aliases are
// followed to the end. Names that a parameter or local declaration
// shadows are left alone. It returns the number of aliases removed.
func inlineAliases(m *ast.Module) int {
	aliases := make(map[string]*ast.TypeExpr)
	m.Declarations = slices.DeleteFunc(m.Declarations, func(decl ast.Decl) bool {
		if a, ok := decl.(*ast.AliasDecl); ok {
			aliases[a.Name] = a.Type
			return true
		}
		return false
	})
	if len(aliases) == 0 {
		return 0
	}

	var scopes []map[string]bool
	shadowed := func(name string) bool {
		for _, scope := range scopes {
			if scope[name] {
				return true
			}
		}
		return false
	}

	ast.Walk(m, ast.Visitor{
		EnterScope: func() { scopes = append(scopes, nil) },
		ExitScope:  func() { scopes = scopes[:len(scopes)-1] },
		Declare: func(name string) {
			if _, ok := aliases[name]; !ok {
				return
			}
			top := len(scopes) - 1
			if scopes[top] == nil {
				scopes[top] = make(map[string]bool)
			}
			scopes[top][name] = true
		},
		Ident: func(id *ast.IdentExpr) {
			if shadowed(id.Name) {
				return
			}
			// Bounded, so an alias cycle cannot loop. Alias targets
			// resolve at module scope.
			for range len(aliases) {
				target, ok := aliases[id.Name]
				if !ok || len(id.TemplateArgs) > 0 {
					return
				}
				clone := ast.CloneIdent(target)
				id.Name, id.TemplateArgs = clone.Name, clone.TemplateArgs
			}
		},
	})
	return len(aliases)
}

// ----------------------------------------------------------------------------
// Const Functions
// ----------------------------------------------------------------------------

// removeConstFunctions removes @const functions that nothing references
// and that are not listed in keep, until no more can be removed, then
// strips @const from the functions that remain. It returns the number of
// functions removed.
func removeConstFunctions(m *ast.Module, keep []string) int {
	removed := 0
	for {
		uses := make(map[string]int)
		ast.VisitIdents(m, func(id *ast.IdentExpr) {
			uses[id.Name]++
		})

		n := len(m.Declarations)
		m.Declarations = slices.DeleteFunc(m.Declarations, func(decl ast.Decl) bool {
			fn, ok := decl.(*ast.FunctionDecl)
			return ok && ast.HasAttr(fn.Attributes, ast.AttrConst) &&
				uses[fn.Name] == 0 && !slices.Contains(keep, fn.Name)
		})
		if len(m.Declarations) == n {
			break
		}
		removed += n - len(m.Declarations)
	}

	for _, decl := range m.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			ast.RemoveAttrs(&fn.Attributes, func(a *ast.Attribute) bool {
				return a.Kind == ast.AttrConst
			})
		}
	}
	return removed
}
