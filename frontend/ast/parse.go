package ast

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/cottand/polyinfer/frontend/syntax"
	"github.com/cottand/polyinfer/frontend/types"
)

// ParseExpr reads a single expression in Java-like syntax.
//
// The reader covers the forms the inference engine cares about: lambdas with
// expression or block bodies, method references, (generic) method calls,
// instance creation with the diamond, casts, conditionals and a few binary operators.
func ParseExpr(src string) (Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.s.Peek(); tok.Kind != syntax.EOF {
		return nil, p.errorf(tok, "unexpected %v after expression", tok)
	}
	return e, nil
}

// ParseBlock reads a brace-delimited block of statements
func ParseBlock(src string) (*Block, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	b, err := p.block()
	if err != nil {
		return nil, err
	}
	if tok := p.s.Peek(); tok.Kind != syntax.EOF {
		return nil, p.errorf(tok, "unexpected %v after block", tok)
	}
	return b, nil
}

const parseBase token.Pos = 1

type parser struct {
	src string
	s   *syntax.Stream
}

func newParser(src string) (*parser, error) {
	tokens, err := syntax.Tokenize(src, parseBase)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, s: syntax.NewStream(tokens)}, nil
}

func (p *parser) errorf(tok syntax.Token, format string, args ...any) error {
	return &syntax.Error{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(text string) (syntax.Token, error) {
	return p.s.Expect(text)
}

func (p *parser) rangeFrom(start syntax.Token) Range {
	return Range{PosStart: start.Pos, PosEnd: p.s.Prev().End}
}

func (p *parser) text(from, to token.Pos) string {
	return p.src[from-parseBase : to-parseBase]
}

var keywords = map[string]bool{
	"return": true, "if": true, "else": true, "while": true, "do": true, "for": true,
	"switch": true, "case": true, "default": true, "try": true, "catch": true, "finally": true,
	"synchronized": true, "throw": true, "class": true, "interface": true, "new": true,
}

func (p *parser) expr() (Expr, error) {
	if p.atLambda() {
		return p.lambda()
	}
	return p.assignment()
}

func (p *parser) assignment() (Expr, error) {
	start := p.s.Peek()
	lhs, err := p.conditional()
	if err != nil {
		return nil, err
	}
	if p.s.Accept("=") {
		switch lhs.(type) {
		case *Ident, *Select:
		default:
			return nil, p.errorf(start, "cannot assign to %s", lhs.Describe())
		}
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &Assign{Range: p.rangeFrom(start), Target: lhs, Value: rhs}, nil
	}
	return lhs, nil
}

func (p *parser) conditional() (Expr, error) {
	start := p.s.Peek()
	cond, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	if !p.s.Accept("?") {
		return cond, nil
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	var els Expr
	if p.atLambda() {
		els, err = p.lambda()
	} else {
		els, err = p.conditional()
	}
	if err != nil {
		return nil, err
	}
	return &Conditional{Range: p.rangeFrom(start), Cond: cond, Then: then, Else: els}, nil
}

var binaryPrecedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/"},
}

func (p *parser) binary(level int) (Expr, error) {
	if level == len(binaryPrecedence) {
		return p.unary()
	}
	start := p.s.Peek()
	lhs, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op := p.s.Peek()
		matched := false
		for _, candidate := range binaryPrecedence[level] {
			matched = matched || (op.Kind == syntax.Punct && op.Text == candidate)
		}
		if !matched {
			return lhs, nil
		}
		p.s.Next()
		rhs, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Range: p.rangeFrom(start), Op: op.Text, X: lhs, Y: rhs}
	}
}

func (p *parser) unary() (Expr, error) {
	start := p.s.Peek()
	if start.Is("-") && (p.s.PeekN(1).Kind == syntax.Int || p.s.PeekN(1).Kind == syntax.Long || p.s.PeekN(1).Kind == syntax.Double) {
		p.s.Next()
		lit := p.literal(p.s.Next())
		lit.Value = "-" + lit.Value
		lit.Range = p.rangeFrom(start)
		return p.postfix(lit, start)
	}
	if start.Is("!") {
		p.s.Next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Binary{Range: p.rangeFrom(start), Op: "==", X: operand, Y: &Literal{Range: p.rangeFrom(start), LitKind: LitBool, Value: "false"}}, nil
	}
	if start.Is("(") {
		if cast, ok, err := p.tryCast(); ok || err != nil {
			return cast, err
		}
	}
	return p.primary()
}

// tryCast reads "(Type) operand" when the parenthesized text looks like a type
func (p *parser) tryCast() (Expr, bool, error) {
	mark := p.s.Mark()
	start := p.s.Next()
	target, err := p.typeTree()
	if err != nil || !p.s.Accept(")") || !looksLikeType(target) || !startsOperand(p.s.Peek()) {
		p.s.Reset(mark)
		return nil, false, nil
	}
	var operand Expr
	if p.atLambda() {
		operand, err = p.lambda()
	} else {
		operand, err = p.unary()
	}
	if err != nil {
		return nil, true, err
	}
	return &Cast{Range: p.rangeFrom(start), Target: target, X: operand}, true, nil
}

func looksLikeType(t *TypeTree) bool {
	if _, ok := types.PrimitiveNamed(t.Name); ok {
		return true
	}
	first := []rune(t.Name)[0]
	return unicode.IsUpper(first) || len(t.Args) > 0 || t.Dims > 0
}

func startsOperand(tok syntax.Token) bool {
	switch tok.Kind {
	case syntax.Ident:
		return !keywords[tok.Text] || tok.Text == "new"
	case syntax.Int, syntax.Long, syntax.Double, syntax.Char, syntax.String:
		return true
	default:
		return tok.Is("(") || tok.Is("!")
	}
}

func (p *parser) primary() (Expr, error) {
	start := p.s.Peek()
	var e Expr
	switch {
	case start.Kind == syntax.Int || start.Kind == syntax.Long || start.Kind == syntax.Double ||
		start.Kind == syntax.Char || start.Kind == syntax.String:
		e = p.literal(p.s.Next())
	case start.Is("true") || start.Is("false"):
		p.s.Next()
		e = &Literal{Range: p.rangeFrom(start), LitKind: LitBool, Value: start.Text}
	case start.Is("null"):
		p.s.Next()
		e = &Literal{Range: p.rangeFrom(start), LitKind: LitNull, Value: "null"}
	case start.Is("new"):
		n, err := p.newExpr()
		if err != nil {
			return nil, err
		}
		e = n
	case start.Is("("):
		p.s.Next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		e = &Parens{Range: p.rangeFrom(start), X: inner}
	case start.Kind == syntax.Ident && !keywords[start.Text]:
		p.s.Next()
		if p.s.Peek().Is("(") {
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			e = &Call{Range: p.rangeFrom(start), Name: start.Text, Args: args}
		} else {
			e = &Ident{Range: p.rangeFrom(start), Name: start.Text}
		}
	default:
		return nil, p.errorf(start, "expected expression, found %v", start)
	}
	return p.postfix(e, start)
}

func (p *parser) postfix(e Expr, start syntax.Token) (Expr, error) {
	for {
		switch {
		case p.s.Accept("."):
			var typeArgs []*TypeTree
			if p.s.Peek().Is("<") {
				var err error
				if typeArgs, err = p.typeArgs(); err != nil {
					return nil, err
				}
			}
			name, err := p.s.ExpectIdent()
			if err != nil {
				return nil, err
			}
			if p.s.Peek().Is("(") {
				args, err := p.args()
				if err != nil {
					return nil, err
				}
				e = &Call{Range: p.rangeFrom(start), Receiver: e, Name: name.Text, TypeArgs: typeArgs, Args: args}
			} else if typeArgs != nil {
				return nil, p.errorf(name, "type arguments without a method call")
			} else {
				e = &Select{Range: p.rangeFrom(start), X: e, Name: name.Text}
			}
		case p.s.Accept("::"):
			name, err := p.s.ExpectIdent()
			if err != nil {
				return nil, err
			}
			e = &MethodRef{Range: p.rangeFrom(start), Qualifier: e, Name: name.Text}
		default:
			return e, nil
		}
	}
}

func (p *parser) literal(tok syntax.Token) *Literal {
	kind := map[syntax.Kind]LitKind{
		syntax.Int:    LitInt,
		syntax.Long:   LitLong,
		syntax.Double: LitDouble,
		syntax.Char:   LitChar,
		syntax.String: LitString,
	}[tok.Kind]
	return &Literal{Range: Range{tok.Pos, tok.End}, LitKind: kind, Value: tok.Text}
}

func (p *parser) newExpr() (Expr, error) {
	start := p.s.Next()
	name, err := p.s.ExpectIdent()
	if err != nil {
		return nil, err
	}
	class := &TypeTree{Name: name.Text}
	diamond := false
	if p.s.Peek().Is("<") && p.s.PeekN(1).Is(">") {
		p.s.Next()
		p.s.Next()
		diamond = true
	} else if p.s.Peek().Is("<") {
		if class.Args, err = p.typeArgs(); err != nil {
			return nil, err
		}
	}
	class.Range = p.rangeFrom(name)
	args, err := p.args()
	if err != nil {
		return nil, err
	}
	return &New{Range: p.rangeFrom(start), Class: class, Diamond: diamond, Args: args}, nil
}

func (p *parser) args() ([]Expr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	args := []Expr{}
	if p.s.Accept(")") {
		return args, nil
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.s.Accept(",") {
			break
		}
	}
	_, err := p.expect(")")
	return args, err
}

func (p *parser) typeArgs() ([]*TypeTree, error) {
	if _, err := p.expect("<"); err != nil {
		return nil, err
	}
	var args []*TypeTree
	for {
		arg, err := p.typeTree()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.s.Accept(",") {
			break
		}
	}
	_, err := p.expect(">")
	return args, err
}

func (p *parser) typeTree() (*TypeTree, error) {
	start, err := p.s.ExpectIdent()
	if err != nil {
		return nil, err
	}
	if keywords[start.Text] {
		return nil, p.errorf(start, "expected type, found %v", start)
	}
	t := &TypeTree{Name: start.Text}
	if p.s.Peek().Is("<") {
		if t.Args, err = p.typeArgs(); err != nil {
			return nil, err
		}
	}
	for p.s.Peek().Is("[") && p.s.PeekN(1).Is("]") {
		p.s.Next()
		p.s.Next()
		t.Dims++
	}
	t.Range = p.rangeFrom(start)
	return t, nil
}

// atLambda looks ahead for "x ->" or "(...) ->"
func (p *parser) atLambda() bool {
	tok := p.s.Peek()
	if tok.Kind == syntax.Ident && !keywords[tok.Text] && p.s.PeekN(1).Is("->") {
		return true
	}
	if !tok.Is("(") {
		return false
	}
	depth := 0
	for i := 0; ; i++ {
		t := p.s.PeekN(i)
		switch {
		case t.Kind == syntax.EOF:
			return false
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
			if depth == 0 {
				return p.s.PeekN(i + 1).Is("->")
			}
		}
	}
}

func (p *parser) lambda() (Expr, error) {
	start := p.s.Peek()
	var params []*LambdaParam
	if start.Kind == syntax.Ident {
		p.s.Next()
		params = append(params, &LambdaParam{Range: p.rangeFrom(start), Name: start.Text})
	} else {
		p.s.Next()
		for !p.s.Peek().Is(")") {
			paramStart := p.s.Peek()
			param := &LambdaParam{}
			if p.s.PeekN(1).Is(",") || p.s.PeekN(1).Is(")") {
				name, err := p.s.ExpectIdent()
				if err != nil {
					return nil, err
				}
				param.Name = name.Text
			} else {
				typ, err := p.typeTree()
				if err != nil {
					return nil, err
				}
				name, err := p.s.ExpectIdent()
				if err != nil {
					return nil, err
				}
				param.Type, param.Name = typ, name.Text
			}
			param.Range = p.rangeFrom(paramStart)
			params = append(params, param)
			if !p.s.Accept(",") {
				break
			}
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		explicit := 0
		for _, param := range params {
			if param.Type != nil {
				explicit++
			}
		}
		if explicit != 0 && explicit != len(params) {
			return nil, p.errorf(start, "cannot mix implicit and explicit lambda parameters")
		}
	}
	if _, err := p.expect("->"); err != nil {
		return nil, err
	}
	var body Node
	var err error
	if p.s.Peek().Is("{") {
		body, err = p.block()
	} else {
		body, err = p.expr()
	}
	if err != nil {
		return nil, err
	}
	return &Lambda{Range: p.rangeFrom(start), Params: params, Body: body}, nil
}

func (p *parser) block() (*Block, error) {
	start, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.s.Peek().Is("}") {
		if p.s.Peek().Kind == syntax.EOF {
			return nil, p.errorf(p.s.Peek(), "unterminated block")
		}
		stmt, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.s.Next()
	return &Block{Range: p.rangeFrom(start), Stmts: stmts}, nil
}

func (p *parser) stmt() (Stmt, error) {
	start := p.s.Peek()
	switch {
	case start.Is("{"):
		return p.block()
	case start.Is("return"):
		p.s.Next()
		var x Expr
		if !p.s.Peek().Is(";") {
			var err error
			if x, err = p.expr(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &Return{Range: p.rangeFrom(start), X: x}, nil
	case start.Is("if"):
		p.s.Next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.stmt()
		if err != nil {
			return nil, err
		}
		var els Stmt
		if p.s.Accept("else") {
			if els, err = p.stmt(); err != nil {
				return nil, err
			}
		}
		return &If{Range: p.rangeFrom(start), Cond: cond, Then: then, Else: els}, nil
	case start.Is("while"):
		p.s.Next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.stmt()
		if err != nil {
			return nil, err
		}
		return &While{Range: p.rangeFrom(start), Cond: cond, Body: body}, nil
	case start.Is("do"):
		p.s.Next()
		body, err := p.stmt()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("while"); err != nil {
			return nil, err
		}
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &DoLoop{Range: p.rangeFrom(start), Body: body, Cond: cond}, nil
	case start.Is("for"):
		return p.forStmt()
	case start.Is("switch"):
		return p.switchStmt()
	case start.Is("try"):
		return p.tryStmt()
	case start.Is("synchronized"):
		p.s.Next()
		lock, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &Synchronized{Range: p.rangeFrom(start), Lock: lock, Body: body}, nil
	case start.Is("throw"):
		p.s.Next()
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &Throw{Range: p.rangeFrom(start), X: x}, nil
	case start.Is("class") || start.Is("interface") || start.Is("abstract") || start.Is("final"):
		return p.classDecl()
	}
	if local, ok, err := p.tryLocalVar(); ok || err != nil {
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		local.Range = p.rangeFrom(start)
		return local, nil
	}
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ExprStmt{Range: p.rangeFrom(start), X: x}, nil
}

func (p *parser) parenExpr() (Expr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	_, err = p.expect(")")
	return x, err
}

// tryLocalVar reads "Type name [= init]" without the terminator, backtracking
// when the input is not a declaration
func (p *parser) tryLocalVar() (*LocalVar, bool, error) {
	mark := p.s.Mark()
	start := p.s.Peek()
	typ, err := p.typeTree()
	if err != nil || p.s.Peek().Kind != syntax.Ident || keywords[p.s.Peek().Text] {
		p.s.Reset(mark)
		return nil, false, nil
	}
	name := p.s.Next()
	if next := p.s.Peek(); !next.Is("=") && !next.Is(";") && !next.Is(":") {
		p.s.Reset(mark)
		return nil, false, nil
	}
	local := &LocalVar{Type: typ, Name: name.Text}
	if typ.Name == "var" && len(typ.Args) == 0 && typ.Dims == 0 {
		local.Type = nil
	}
	if p.s.Accept("=") {
		if local.Init, err = p.expr(); err != nil {
			return nil, true, err
		}
	} else if local.Type == nil {
		return nil, true, p.errorf(start, "cannot infer the type of %s without an initializer", name.Text)
	}
	local.Range = p.rangeFrom(start)
	return local, true, nil
}

func (p *parser) forStmt() (Stmt, error) {
	start := p.s.Next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var init []Stmt
	if !p.s.Peek().Is(";") {
		local, ok, err := p.tryLocalVar()
		if err != nil {
			return nil, err
		}
		if ok && p.s.Accept(":") {
			iterable, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			body, err := p.stmt()
			if err != nil {
				return nil, err
			}
			return &ForEach{Range: p.rangeFrom(start), Var: local, Iterable: iterable, Body: body}, nil
		}
		if ok {
			init = append(init, local)
		} else {
			for {
				exprStart := p.s.Peek()
				x, err := p.expr()
				if err != nil {
					return nil, err
				}
				init = append(init, &ExprStmt{Range: p.rangeFrom(exprStart), X: x})
				if !p.s.Accept(",") {
					break
				}
			}
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	var cond Expr
	if !p.s.Peek().Is(";") {
		var err error
		if cond, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	var step []Expr
	for !p.s.Peek().Is(")") {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		step = append(step, x)
		if !p.s.Accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	return &For{Range: p.rangeFrom(start), Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *parser) switchStmt() (Stmt, error) {
	start := p.s.Next()
	selector, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var cases []*Case
	for !p.s.Accept("}") {
		caseStart := p.s.Peek()
		c := &Case{}
		switch {
		case p.s.Accept("case"):
			if c.Label, err = p.expr(); err != nil {
				return nil, err
			}
		case p.s.Accept("default"):
		default:
			return nil, p.errorf(caseStart, "expected case or default, found %v", caseStart)
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		for next := p.s.Peek(); !next.Is("case") && !next.Is("default") && !next.Is("}"); next = p.s.Peek() {
			if next.Kind == syntax.EOF {
				return nil, p.errorf(next, "unterminated switch")
			}
			stmt, err := p.stmt()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, stmt)
		}
		c.Range = p.rangeFrom(caseStart)
		cases = append(cases, c)
	}
	return &Switch{Range: p.rangeFrom(start), Selector: selector, Cases: cases}, nil
}

func (p *parser) tryStmt() (Stmt, error) {
	start := p.s.Next()
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	t := &Try{Body: body}
	for p.s.Peek().Is("catch") {
		catchStart := p.s.Next()
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		paramStart := p.s.Peek()
		typ, err := p.typeTree()
		if err != nil {
			return nil, err
		}
		name, err := p.s.ExpectIdent()
		if err != nil {
			return nil, err
		}
		param := &LocalVar{Range: p.rangeFrom(paramStart), Type: typ, Name: name.Text}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		catchBody, err := p.block()
		if err != nil {
			return nil, err
		}
		t.Catches = append(t.Catches, &Catch{Range: p.rangeFrom(catchStart), Param: param, Body: catchBody})
	}
	if p.s.Accept("finally") {
		if t.Finally, err = p.block(); err != nil {
			return nil, err
		}
	}
	if len(t.Catches) == 0 && t.Finally == nil {
		return nil, p.errorf(start, "try without catch or finally")
	}
	t.Range = p.rangeFrom(start)
	return t, nil
}

// classDecl reads a local class; members are signatures without bodies
func (p *parser) classDecl() (Stmt, error) {
	start := p.s.Peek()
	var name string
	for !p.s.Peek().Is("{") {
		tok := p.s.Next()
		if tok.Kind == syntax.EOF {
			return nil, p.errorf(tok, "expected class body")
		}
		if (tok.Is("class") || tok.Is("interface")) && p.s.Peek().Kind == syntax.Ident {
			name = p.s.Peek().Text
		}
	}
	if name == "" {
		return nil, p.errorf(start, "expected class name")
	}
	header := p.text(start.Pos, p.s.Peek().Pos)
	open := p.s.Next()
	for !p.s.Peek().Is("}") {
		if p.s.Peek().Kind == syntax.EOF {
			return nil, p.errorf(open, "unterminated class body")
		}
		p.s.Next()
	}
	closing := p.s.Next()
	var members []string
	for _, m := range strings.Split(p.text(open.End, closing.Pos), ";") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	return &ClassDecl{Range: p.rangeFrom(start), Header: strings.TrimSpace(header), Name: name, Members: members}, nil
}
