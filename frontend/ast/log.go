package ast

import (
	"log/slog"
)

// Slog wraps an Expr as a slog.LogValuer to not render expression strings
// unless they definitely need to be logged
func Slog(expr Expr) slog.LogValuer {
	return exprLogValuer{expr}
}

type exprLogValuer struct{ Expr }

func (l exprLogValuer) LogValue() slog.Value {
	return slog.StringValue(ExprString(l.Expr))
}

// SlogNode is Slog for statements and expressions alike
func SlogNode(node Node) slog.LogValuer {
	return nodeLogValuer{node}
}

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	switch n := l.Node.(type) {
	case Expr:
		return slog.StringValue(ExprString(n))
	case Stmt:
		return slog.StringValue(StmtString(n))
	default:
		return slog.AnyValue(n)
	}
}
