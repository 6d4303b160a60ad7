package condcomp

import (
	"codeberg.org/saruga/weslc/internal/ast"
	"codeberg.org/saruga/weslc/internal/diagnostic"
)

// Run applies conditional compilation to a whole module in place: imports,
// directives and global declarations first, then struct members, then
// function parameters and bodies. Finally every @if attribute left holding
// a literal true is removed. Conditions that are still unresolved stay.
//
// On error the module is partially rewritten and must not be used.
func Run(m *ast.Module, features Features) error {
	if err := EvalIfAttributes(&m.Imports, features); err != nil {
		return err
	}
	if err := EvalIfAttributes(&m.Directives, features); err != nil {
		return err
	}
	if err := EvalIfAttributes(&m.Declarations, features); err != nil {
		return err
	}

	for _, decl := range m.Declarations {
		if s, ok := decl.(*ast.StructDecl); ok {
			if err := EvalIfAttributes(&s.Members, features); err != nil {
				return diagnostic.WithDeclaration(err, s.Name)
			}
		}
	}
	for _, decl := range m.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			if err := runFunction(fn, features); err != nil {
				return diagnostic.WithDeclaration(err, fn.Name)
			}
		}
	}

	ast.VisitAttributes(m, func(attrs *[]ast.Attribute) {
		ast.RemoveAttrs(attrs, func(a *ast.Attribute) bool {
			return a.Kind == ast.AttrIf && len(a.Args) == 1 && isLiteral(a.Args[0], true)
		})
	})
	return nil
}

func runFunction(fn *ast.FunctionDecl, features Features) error {
	if err := EvalIfAttributes(&fn.Parameters, features); err != nil {
		return err
	}
	if fn.Body == nil {
		return nil
	}
	return runStmts(&fn.Body.Stmts, features)
}

func runStmts(stmts *[]ast.Stmt, features Features) error {
	if err := EvalIfAttributes(stmts, features); err != nil {
		return err
	}
	for _, stmt := range *stmts {
		if err := runStmt(stmt, features); err != nil {
			return err
		}
	}
	return nil
}

func runStmt(stmt ast.Stmt, features Features) error {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		return runStmts(&s.Stmts, features)

	case *ast.IfStmt:
		for s != nil {
			if err := runBlock(s.Body, features); err != nil {
				return err
			}
			switch e := s.Else.(type) {
			case *ast.IfStmt:
				s = e
			case *ast.CompoundStmt:
				return runBlock(e, features)
			default:
				s = nil
			}
		}

	case *ast.SwitchStmt:
		if err := EvalIfAttributes(&s.Cases, features); err != nil {
			return err
		}
		for _, c := range s.Cases {
			if err := runBlock(c.Body, features); err != nil {
				return err
			}
		}

	case *ast.LoopStmt:
		if err := runBlock(s.Body, features); err != nil {
			return err
		}
		if err := EvalIfAttr(&s.Continuing, features); err != nil {
			return err
		}
		if c := s.Continuing; c != nil {
			if err := runStmts(&c.Stmts, features); err != nil {
				return err
			}
			if err := EvalIfAttr(&c.BreakIf, features); err != nil {
				return err
			}
		}

	case *ast.ForStmt:
		for _, slot := range []*ast.Stmt{&s.Init, &s.Update} {
			if err := EvalIfAttr(slot, features); err != nil {
				return err
			}
			if *slot != nil {
				if err := runStmt(*slot, features); err != nil {
					return err
				}
			}
		}
		return runBlock(s.Body, features)

	case *ast.WhileStmt:
		return runBlock(s.Body, features)
	}
	return nil
}

func runBlock(block *ast.CompoundStmt, features Features) error {
	if block == nil {
		return nil
	}
	return runStmts(&block.Stmts, features)
}
