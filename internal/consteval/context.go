package consteval

import "codeberg.org/saruga/weslc/internal/ast"

// Context is the compilation context type derivation resolves names in.
type Context interface {
	// ResolveAlias returns the type expression an alias stands for.
	ResolveAlias(name string) (*ast.TypeExpr, bool)
	// DeclStruct returns the struct declared under name.
	DeclStruct(name string) (*ast.StructDecl, bool)
}

// ConstResolver is an optional Context capability: it resolves an
// identifier to the initializer of a module-scope const declaration, so
// template arguments such as array<f32, N> can be evaluated.
type ConstResolver interface {
	ResolveConst(name string) (ast.Expr, bool)
}

// OverrideResolver is an optional Context capability: it reports whether a
// name is a module-scope override declaration. Array lengths that mention
// an override are accepted without being evaluated.
type OverrideResolver interface {
	IsOverride(name string) bool
}

// ModuleContext resolves names against the declarations of one module.
type ModuleContext struct {
	aliases   map[string]*ast.AliasDecl
	structs   map[string]*ast.StructDecl
	consts    map[string]*ast.ConstDecl
	overrides map[string]bool
}

var (
	_ Context          = (*ModuleContext)(nil)
	_ ConstResolver    = (*ModuleContext)(nil)
	_ OverrideResolver = (*ModuleContext)(nil)
)

// NewModuleContext indexes the global aliases, structs, consts and
// overrides of m. Later declarations of a name shadow earlier ones.
func NewModuleContext(m *ast.Module) *ModuleContext {
	ctx := &ModuleContext{
		aliases:   make(map[string]*ast.AliasDecl),
		structs:   make(map[string]*ast.StructDecl),
		consts:    make(map[string]*ast.ConstDecl),
		overrides: make(map[string]bool),
	}
	for _, decl := range m.Declarations {
		switch d := decl.(type) {
		case *ast.AliasDecl:
			ctx.aliases[d.Name] = d
		case *ast.StructDecl:
			ctx.structs[d.Name] = d
		case *ast.ConstDecl:
			ctx.consts[d.Name] = d
		case *ast.OverrideDecl:
			ctx.overrides[d.Name] = true
		}
	}
	return ctx
}

func (c *ModuleContext) ResolveAlias(name string) (*ast.TypeExpr, bool) {
	if d, ok := c.aliases[name]; ok {
		return d.Type, true
	}
	return nil, false
}

func (c *ModuleContext) DeclStruct(name string) (*ast.StructDecl, bool) {
	d, ok := c.structs[name]
	return d, ok
}

func (c *ModuleContext) ResolveConst(name string) (ast.Expr, bool) {
	if d, ok := c.consts[name]; ok && d.Initializer != nil {
		return d.Initializer, true
	}
	return nil, false
}

func (c *ModuleContext) IsOverride(name string) bool {
	return c.overrides[name]
}
