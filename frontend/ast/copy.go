package ast

import (
	"github.com/davecgh/go-spew/spew"
)

// CopyExpr deep-copies e. Attributed types are not copied, so the copy
// can be attributed again without observing the original's results.
func CopyExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *Ident:
		return &Ident{Range: e.Range, Name: e.Name}
	case *Literal:
		return &Literal{Range: e.Range, LitKind: e.LitKind, Value: e.Value}
	case *Parens:
		return &Parens{Range: e.Range, X: CopyExpr(e.X)}
	case *Conditional:
		return &Conditional{Range: e.Range, Cond: CopyExpr(e.Cond), Then: CopyExpr(e.Then), Else: CopyExpr(e.Else)}
	case *Lambda:
		params := make([]*LambdaParam, len(e.Params))
		for i, p := range e.Params {
			params[i] = &LambdaParam{Range: p.Range, Name: p.Name, Type: CopyTypeTree(p.Type)}
		}
		var body Node
		switch b := e.Body.(type) {
		case Expr:
			body = CopyExpr(b)
		case *Block:
			body = copyBlock(b)
		}
		return &Lambda{Range: e.Range, Params: params, Body: body}
	case *MethodRef:
		return &MethodRef{Range: e.Range, Qualifier: CopyExpr(e.Qualifier), Name: e.Name}
	case *Call:
		return &Call{Range: e.Range, Receiver: CopyExpr(e.Receiver), Name: e.Name, TypeArgs: copyTypeTrees(e.TypeArgs), Args: copyExprs(e.Args)}
	case *New:
		return &New{Range: e.Range, Class: CopyTypeTree(e.Class), Diamond: e.Diamond, Args: copyExprs(e.Args)}
	case *Cast:
		return &Cast{Range: e.Range, Target: CopyTypeTree(e.Target), X: CopyExpr(e.X)}
	case *Select:
		return &Select{Range: e.Range, X: CopyExpr(e.X), Name: e.Name}
	case *Binary:
		return &Binary{Range: e.Range, Op: e.Op, X: CopyExpr(e.X), Y: CopyExpr(e.Y)}
	case *Assign:
		return &Assign{Range: e.Range, Target: CopyExpr(e.Target), Value: CopyExpr(e.Value)}
	default:
		panic("unreachable: unknown expression " + spew.Sdump(e))
	}
}

// CopyStmt deep-copies s, see CopyExpr
func CopyStmt(s Stmt) Stmt {
	if s == nil {
		return nil
	}
	switch s := s.(type) {
	case *Block:
		return copyBlock(s)
	case *Return:
		return &Return{Range: s.Range, X: CopyExpr(s.X)}
	case *ExprStmt:
		return &ExprStmt{Range: s.Range, X: CopyExpr(s.X)}
	case *LocalVar:
		return copyLocalVar(s)
	case *If:
		return &If{Range: s.Range, Cond: CopyExpr(s.Cond), Then: CopyStmt(s.Then), Else: CopyStmt(s.Else)}
	case *While:
		return &While{Range: s.Range, Cond: CopyExpr(s.Cond), Body: CopyStmt(s.Body)}
	case *DoLoop:
		return &DoLoop{Range: s.Range, Body: CopyStmt(s.Body), Cond: CopyExpr(s.Cond)}
	case *For:
		init := make([]Stmt, len(s.Init))
		for i, st := range s.Init {
			init[i] = CopyStmt(st)
		}
		return &For{Range: s.Range, Init: init, Cond: CopyExpr(s.Cond), Step: copyExprs(s.Step), Body: CopyStmt(s.Body)}
	case *ForEach:
		return &ForEach{Range: s.Range, Var: copyLocalVar(s.Var), Iterable: CopyExpr(s.Iterable), Body: CopyStmt(s.Body)}
	case *Switch:
		cases := make([]*Case, len(s.Cases))
		for i, c := range s.Cases {
			cases[i] = CopyStmt(c).(*Case)
		}
		return &Switch{Range: s.Range, Selector: CopyExpr(s.Selector), Cases: cases}
	case *Case:
		body := make([]Stmt, len(s.Body))
		for i, st := range s.Body {
			body[i] = CopyStmt(st)
		}
		return &Case{Range: s.Range, Label: CopyExpr(s.Label), Body: body}
	case *Try:
		catches := make([]*Catch, len(s.Catches))
		for i, c := range s.Catches {
			catches[i] = CopyStmt(c).(*Catch)
		}
		return &Try{Range: s.Range, Body: copyBlock(s.Body), Catches: catches, Finally: copyBlock(s.Finally)}
	case *Catch:
		return &Catch{Range: s.Range, Param: copyLocalVar(s.Param), Body: copyBlock(s.Body)}
	case *Synchronized:
		return &Synchronized{Range: s.Range, Lock: CopyExpr(s.Lock), Body: copyBlock(s.Body)}
	case *Throw:
		return &Throw{Range: s.Range, X: CopyExpr(s.X)}
	case *ClassDecl:
		return &ClassDecl{Range: s.Range, Header: s.Header, Name: s.Name, Members: append([]string(nil), s.Members...)}
	default:
		panic("unreachable: unknown statement " + spew.Sdump(s))
	}
}

func copyBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	stmts := make([]Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = CopyStmt(s)
	}
	return &Block{Range: b.Range, Stmts: stmts}
}

func copyLocalVar(v *LocalVar) *LocalVar {
	if v == nil {
		return nil
	}
	return &LocalVar{Range: v.Range, Type: CopyTypeTree(v.Type), Name: v.Name, Init: CopyExpr(v.Init)}
}

func copyExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	copied := make([]Expr, len(es))
	for i, e := range es {
		copied[i] = CopyExpr(e)
	}
	return copied
}

func CopyTypeTree(t *TypeTree) *TypeTree {
	if t == nil {
		return nil
	}
	return &TypeTree{Range: t.Range, Name: t.Name, Args: copyTypeTrees(t.Args), Dims: t.Dims}
}

func copyTypeTrees(ts []*TypeTree) []*TypeTree {
	if ts == nil {
		return nil
	}
	copied := make([]*TypeTree, len(ts))
	for i, t := range ts {
		copied[i] = CopyTypeTree(t)
	}
	return copied
}
