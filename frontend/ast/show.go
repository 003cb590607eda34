package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString renders e back to source form
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

// StmtString renders s back to source form, on a single line
func StmtString(s Stmt) string {
	var sb strings.Builder
	writeStmt(&sb, s)
	return sb.String()
}

func writeExprs(sb *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, e)
	}
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Ident:
		sb.WriteString(e.Name)
	case *Literal:
		switch e.LitKind {
		case LitString:
			sb.WriteString(strconv.Quote(e.Value))
		case LitChar:
			sb.WriteString(strconv.QuoteRune([]rune(e.Value)[0]))
		case LitLong:
			sb.WriteString(e.Value + "L")
		default:
			sb.WriteString(e.Value)
		}
	case *Parens:
		sb.WriteString("(")
		writeExpr(sb, e.X)
		sb.WriteString(")")
	case *Conditional:
		writeExpr(sb, e.Cond)
		sb.WriteString(" ? ")
		writeExpr(sb, e.Then)
		sb.WriteString(" : ")
		writeExpr(sb, e.Else)
	case *Lambda:
		if len(e.Params) == 1 && e.Params[0].Type == nil {
			sb.WriteString(e.Params[0].Name)
		} else {
			sb.WriteString("(")
			for i, p := range e.Params {
				if i > 0 {
					sb.WriteString(", ")
				}
				if p.Type != nil {
					sb.WriteString(p.Type.String() + " ")
				}
				sb.WriteString(p.Name)
			}
			sb.WriteString(")")
		}
		sb.WriteString(" -> ")
		switch body := e.Body.(type) {
		case Expr:
			writeExpr(sb, body)
		case *Block:
			writeStmt(sb, body)
		}
	case *MethodRef:
		writeExpr(sb, e.Qualifier)
		sb.WriteString("::" + e.Name)
	case *Call:
		if e.Receiver != nil {
			writeExpr(sb, e.Receiver)
			sb.WriteString(".")
		}
		if len(e.TypeArgs) > 0 {
			sb.WriteString("<")
			for i, t := range e.TypeArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(t.String())
			}
			sb.WriteString(">")
		}
		sb.WriteString(e.Name + "(")
		writeExprs(sb, e.Args)
		sb.WriteString(")")
	case *New:
		sb.WriteString("new " + e.Class.String())
		if e.Diamond {
			sb.WriteString("<>")
		}
		sb.WriteString("(")
		writeExprs(sb, e.Args)
		sb.WriteString(")")
	case *Cast:
		sb.WriteString("(" + e.Target.String() + ") ")
		writeExpr(sb, e.X)
	case *Select:
		writeExpr(sb, e.X)
		sb.WriteString("." + e.Name)
	case *Binary:
		writeExpr(sb, e.X)
		sb.WriteString(" " + e.Op + " ")
		writeExpr(sb, e.Y)
	case *Assign:
		writeExpr(sb, e.Target)
		sb.WriteString(" = ")
		writeExpr(sb, e.Value)
	default:
		sb.WriteString(fmt.Sprintf("<%T>", e))
	}
}

func writeStmt(sb *strings.Builder, s Stmt) {
	switch s := s.(type) {
	case nil:
	case *Block:
		sb.WriteString("{ ")
		for _, st := range s.Stmts {
			writeStmt(sb, st)
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	case *Return:
		sb.WriteString("return")
		if s.X != nil {
			sb.WriteString(" ")
			writeExpr(sb, s.X)
		}
		sb.WriteString(";")
	case *ExprStmt:
		writeExpr(sb, s.X)
		sb.WriteString(";")
	case *LocalVar:
		writeLocalVar(sb, s)
		sb.WriteString(";")
	case *If:
		sb.WriteString("if (")
		writeExpr(sb, s.Cond)
		sb.WriteString(") ")
		writeStmt(sb, s.Then)
		if s.Else != nil {
			sb.WriteString(" else ")
			writeStmt(sb, s.Else)
		}
	case *While:
		sb.WriteString("while (")
		writeExpr(sb, s.Cond)
		sb.WriteString(") ")
		writeStmt(sb, s.Body)
	case *DoLoop:
		sb.WriteString("do ")
		writeStmt(sb, s.Body)
		sb.WriteString(" while (")
		writeExpr(sb, s.Cond)
		sb.WriteString(");")
	case *For:
		sb.WriteString("for (")
		for i, st := range s.Init {
			if i > 0 {
				sb.WriteString(", ")
			}
			if lv, ok := st.(*LocalVar); ok {
				writeLocalVar(sb, lv)
			} else if es, ok := st.(*ExprStmt); ok {
				writeExpr(sb, es.X)
			}
		}
		sb.WriteString("; ")
		if s.Cond != nil {
			writeExpr(sb, s.Cond)
		}
		sb.WriteString("; ")
		writeExprs(sb, s.Step)
		sb.WriteString(") ")
		writeStmt(sb, s.Body)
	case *ForEach:
		sb.WriteString("for (")
		writeLocalVar(sb, s.Var)
		sb.WriteString(" : ")
		writeExpr(sb, s.Iterable)
		sb.WriteString(") ")
		writeStmt(sb, s.Body)
	case *Switch:
		sb.WriteString("switch (")
		writeExpr(sb, s.Selector)
		sb.WriteString(") { ")
		for _, c := range s.Cases {
			writeStmt(sb, c)
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	case *Case:
		if s.Label == nil {
			sb.WriteString("default:")
		} else {
			sb.WriteString("case ")
			writeExpr(sb, s.Label)
			sb.WriteString(":")
		}
		for _, st := range s.Body {
			sb.WriteString(" ")
			writeStmt(sb, st)
		}
	case *Try:
		sb.WriteString("try ")
		writeStmt(sb, s.Body)
		for _, c := range s.Catches {
			sb.WriteString(" ")
			writeStmt(sb, c)
		}
		if s.Finally != nil {
			sb.WriteString(" finally ")
			writeStmt(sb, s.Finally)
		}
	case *Catch:
		sb.WriteString("catch (")
		writeLocalVar(sb, s.Param)
		sb.WriteString(") ")
		writeStmt(sb, s.Body)
	case *Synchronized:
		sb.WriteString("synchronized (")
		writeExpr(sb, s.Lock)
		sb.WriteString(") ")
		writeStmt(sb, s.Body)
	case *Throw:
		sb.WriteString("throw ")
		writeExpr(sb, s.X)
		sb.WriteString(";")
	case *ClassDecl:
		sb.WriteString(s.Header + " { ")
		for _, m := range s.Members {
			sb.WriteString(m + "; ")
		}
		sb.WriteString("}")
	default:
		sb.WriteString(fmt.Sprintf("<%T>", s))
	}
}

func writeLocalVar(sb *strings.Builder, v *LocalVar) {
	sb.WriteString(v.Type.String() + " " + v.Name)
	if v.Init != nil {
		sb.WriteString(" = ")
		writeExpr(sb, v.Init)
	}
}
