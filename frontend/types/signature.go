package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/polyinfer/frontend/syntax"
	"github.com/cottand/polyinfer/util"
)

// ClassSource is the textual declaration of a class: a header such as
// "final class Integer extends Number implements Comparable<Integer>"
// and member signatures such as "<T extends Comparable<T>> static T max(T a, T b)".
type ClassSource struct {
	Header  string
	Members []string
}

// DeclareUnit reads a sequence of "header { member; member; }" class declarations
func (a *Arena) DeclareUnit(src string) ([]*ClassSymbol, error) {
	var sources []ClassSource
	rest := src
	for strings.TrimSpace(rest) != "" {
		if !strings.ContainsRune(rest, '{') {
			return nil, fmt.Errorf("expected '{' after class header %q", strings.TrimSpace(rest))
		}
		header, body := util.StringTakeUntil(rest, '{')
		members, remainder := util.StringTakeUntil(body, '}')
		var memberSigs []string
		for _, m := range strings.Split(members, ";") {
			if m = strings.TrimSpace(m); m != "" {
				memberSigs = append(memberSigs, m)
			}
		}
		sources = append(sources, ClassSource{Header: strings.TrimSpace(header), Members: memberSigs})
		rest = remainder
	}
	return a.Declare(sources...)
}

// Declare enters the given classes into a. Declaration happens in three passes
// (names and type parameters, then headers, then members) so that classes may
// refer to each other in any order.
func (a *Arena) Declare(sources ...ClassSource) ([]*ClassSymbol, error) {
	declared := make([]*ClassSymbol, len(sources))
	readers := make([]*sigReader, len(sources))
	for i, src := range sources {
		r, err := newSigReader(a, src.Header)
		if err != nil {
			return nil, err
		}
		readers[i] = r
		c, err := r.classStub()
		if err != nil {
			return nil, fmt.Errorf("class header %q: %w", src.Header, err)
		}
		declared[i] = c
		a.Enter(c)
	}
	for i, src := range sources {
		if err := readers[i].classHeader(declared[i]); err != nil {
			return nil, fmt.Errorf("class header %q: %w", src.Header, err)
		}
	}
	for _, c := range declared {
		if err := checkAcyclic(c, nil); err != nil {
			return nil, err
		}
	}
	for i, src := range sources {
		for _, member := range src.Members {
			if err := a.DeclareMember(declared[i], member); err != nil {
				return nil, err
			}
		}
		if c := declared[i]; !c.IsInterface() && len(c.Ctors) == 0 {
			c.Ctors = append(c.Ctors, &MethodSymbol{Name: CtorName, Owner: c, Type: &MethodType{Return: c.Type()}})
		}
	}
	return declared, nil
}

// DeclareMember reads a method, constructor or field signature and adds it to c
func (a *Arena) DeclareMember(c *ClassSymbol, sig string) error {
	r, err := newSigReader(a, sig)
	if err != nil {
		return err
	}
	r.scope = append(r.scope, c.TypeParams...)
	if err := r.member(c); err != nil {
		return fmt.Errorf("member %q of %s: %w", sig, c.Name, err)
	}
	return nil
}

// ParseType reads a type such as "List<String>[]", resolving type variable
// names against tvars before looking up classes
func (a *Arena) ParseType(text string, tvars ...*TypeVar) (Type, error) {
	r, err := newSigReader(a, text)
	if err != nil {
		return nil, err
	}
	r.scope = tvars
	t, err := r.typ()
	if err != nil {
		return nil, err
	}
	if r.s.Peek().Kind != syntax.EOF {
		return nil, r.s.Errorf("unexpected %v after type", r.s.Peek())
	}
	return t, nil
}

// ParseMethod reads a method signature that is not a member of any class
func (a *Arena) ParseMethod(sig string) (*MethodSymbol, error) {
	r, err := newSigReader(a, sig)
	if err != nil {
		return nil, err
	}
	holder := &ClassSymbol{Name: "<toplevel>", Super: a.syms.ObjectType}
	if err := r.member(holder); err != nil {
		return nil, err
	}
	if len(holder.Methods) != 1 {
		return nil, fmt.Errorf("%q is not a method signature", sig)
	}
	m := holder.Methods[0]
	m.Owner = nil
	return m, nil
}

func checkAcyclic(c *ClassSymbol, path []*ClassSymbol) error {
	if slices.Contains(path, c) {
		return fmt.Errorf("cyclic inheritance involving %s", c.Name)
	}
	path = append(path, c)
	supers := c.Interfaces
	if c.Super != nil {
		supers = append([]Type{c.Super}, supers...)
	}
	for _, sup := range supers {
		if ct, ok := sup.(*ClassType); ok {
			if err := checkAcyclic(ct.Sym, path); err != nil {
				return err
			}
		}
	}
	return nil
}

type sigReader struct {
	arena *Arena
	s     *syntax.Stream
	scope []*TypeVar
}

func newSigReader(a *Arena, text string) (*sigReader, error) {
	tokens, err := syntax.Tokenize(text, 1)
	if err != nil {
		return nil, err
	}
	return &sigReader{arena: a, s: syntax.NewStream(tokens)}, nil
}

var classModifiers = map[string]Flags{
	"public":   0,
	"abstract": FlagAbstract,
	"final":    FlagFinal,
	"static":   FlagStatic,
}

var memberModifiers = map[string]Flags{
	"public":   0,
	"native":   0,
	"default":  0,
	"abstract": FlagAbstract,
	"final":    FlagFinal,
	"static":   FlagStatic,
}

func (r *sigReader) modifiers(allowed map[string]Flags) (Flags, bool) {
	var flags Flags
	isDefault := false
	for {
		tok := r.s.Peek()
		if tok.Is("@") && r.s.PeekN(1).Is("PolymorphicSignature") {
			r.s.Next()
			r.s.Next()
			flags |= FlagSignaturePolymorphic
			continue
		}
		f, ok := allowed[tok.Text]
		if tok.Kind != syntax.Ident || !ok {
			return flags, isDefault
		}
		isDefault = isDefault || tok.Text == "default"
		flags |= f
		r.s.Next()
	}
}

// classStub reads modifiers, kind, name and type parameter names, leaving bounds unset
func (r *sigReader) classStub() (*ClassSymbol, error) {
	flags, _ := r.modifiers(classModifiers)
	kind, err := r.s.ExpectIdent()
	if err != nil {
		return nil, err
	}
	switch kind.Text {
	case "class":
	case "interface":
		flags |= FlagInterface | FlagAbstract
	default:
		return nil, fmt.Errorf("expected class or interface, found %v", kind)
	}
	name, err := r.s.ExpectIdent()
	if err != nil {
		return nil, err
	}
	c := &ClassSymbol{Name: name.Text, Flags: flags}
	mark := r.s.Mark()
	if r.s.Accept("<") {
		for {
			tv, err := r.s.ExpectIdent()
			if err != nil {
				return nil, err
			}
			c.TypeParams = append(c.TypeParams, NewTypeVar(tv.Text, nil))
			r.skipBound()
			if !r.s.Accept(",") {
				break
			}
		}
		if _, err := r.s.Expect(">"); err != nil {
			return nil, err
		}
	}
	r.s.Reset(mark)
	return c, nil
}

// skipBound skips "extends A<B<C>> & D" up to the next top-level ',' or '>'
func (r *sigReader) skipBound() {
	depth := 0
	for {
		tok := r.s.Peek()
		switch {
		case tok.Kind == syntax.EOF:
			return
		case tok.Is("<"):
			depth++
		case tok.Is(">"):
			if depth == 0 {
				return
			}
			depth--
		case tok.Is(","):
			if depth == 0 {
				return
			}
		}
		r.s.Next()
	}
}

func (r *sigReader) classHeader(c *ClassSymbol) error {
	r.scope = c.TypeParams
	if r.s.Accept("<") {
		if err := r.typeParamBounds(c.TypeParams); err != nil {
			return err
		}
	}
	if r.s.Accept("extends") {
		supers, err := r.typeList()
		if err != nil {
			return err
		}
		if c.IsInterface() {
			c.Interfaces = supers
		} else {
			if len(supers) != 1 {
				return fmt.Errorf("a class extends exactly one class")
			}
			c.Super = supers[0]
		}
	}
	if r.s.Accept("implements") {
		ifaces, err := r.typeList()
		if err != nil {
			return err
		}
		c.Interfaces = append(c.Interfaces, ifaces...)
	}
	if c.Super == nil && !c.IsInterface() && c.Name != "Object" {
		obj, ok := r.arena.Lookup("Object")
		if !ok {
			return fmt.Errorf("class Object is not declared")
		}
		c.Super = obj.Type()
	}
	if tok := r.s.Peek(); tok.Kind != syntax.EOF {
		return fmt.Errorf("unexpected %v", tok)
	}
	return nil
}

// typeParamBounds reads bounds for already created type variables, after the opening '<'
func (r *sigReader) typeParamBounds(tvars []*TypeVar) error {
	for i := 0; ; i++ {
		name, err := r.s.ExpectIdent()
		if err != nil {
			return err
		}
		if i >= len(tvars) || tvars[i].Name != name.Text {
			return fmt.Errorf("unexpected type parameter %v", name)
		}
		if r.s.Accept("extends") {
			var bounds []Type
			for {
				b, err := r.typ()
				if err != nil {
					return err
				}
				bounds = append(bounds, b)
				if !r.s.Accept("&") {
					break
				}
			}
			if len(bounds) == 1 {
				tvars[i].Bound = bounds[0]
			} else {
				tvars[i].Bound = &IntersectionType{Components: bounds}
			}
		}
		if !r.s.Accept(",") {
			break
		}
	}
	_, err := r.s.Expect(">")
	return err
}

func (r *sigReader) typeList() ([]Type, error) {
	var ts []Type
	for {
		t, err := r.typ()
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
		if !r.s.Accept(",") {
			return ts, nil
		}
	}
}

func (r *sigReader) typ() (Type, error) {
	name, err := r.s.ExpectIdent()
	if err != nil {
		return nil, err
	}
	var t Type
	if prim, ok := PrimitiveNamed(name.Text); ok {
		t = prim
	} else if tv := r.lookupTypeVar(name.Text); tv != nil {
		t = tv
	} else {
		c, ok := r.arena.Lookup(name.Text)
		if !ok {
			return nil, fmt.Errorf("cannot find class %s", name.Text)
		}
		ct := &ClassType{Sym: c}
		if r.s.Accept("<") {
			args, err := r.typeList()
			if err != nil {
				return nil, err
			}
			if _, err := r.s.Expect(">"); err != nil {
				return nil, err
			}
			ct.Args = args
		}
		t = ct
	}
	for r.s.Peek().Is("[") && r.s.PeekN(1).Is("]") {
		r.s.Next()
		r.s.Next()
		t = &ArrayType{Elem: t}
	}
	return t, nil
}

func (r *sigReader) lookupTypeVar(name string) *TypeVar {
	// innermost declarations are appended last
	for i := len(r.scope) - 1; i >= 0; i-- {
		if r.scope[i].Name == name {
			return r.scope[i]
		}
	}
	return nil
}

func (r *sigReader) member(c *ClassSymbol) error {
	flags, isDefault := r.modifiers(memberModifiers)
	var tparams []*TypeVar
	if r.s.Peek().Is("<") {
		mark := r.s.Mark()
		r.s.Next()
		for {
			tv, err := r.s.ExpectIdent()
			if err != nil {
				return err
			}
			tparams = append(tparams, NewTypeVar(tv.Text, nil))
			r.skipBound()
			if !r.s.Accept(",") {
				break
			}
		}
		r.s.Reset(mark)
		r.s.Next()
		r.scope = append(r.scope, tparams...)
		if err := r.typeParamBounds(tparams); err != nil {
			return err
		}
	}
	more, moreDefault := r.modifiers(memberModifiers)
	flags |= more
	isDefault = isDefault || moreDefault

	// constructor: the class name directly followed by '('
	if r.s.Peek().Is(c.Name) && r.s.PeekN(1).Is("(") {
		r.s.Next()
		params, varargs, err := r.params()
		if err != nil {
			return err
		}
		m := &MethodSymbol{Name: CtorName, Owner: c, Flags: flags, TypeParams: tparams, Type: &MethodType{Params: params, Return: c.Type()}}
		if varargs {
			m.Flags |= FlagVarargs
		}
		c.Ctors = append(c.Ctors, m)
		return r.expectEnd()
	}

	ret, err := r.typ()
	if err != nil {
		return err
	}
	name, err := r.s.ExpectIdent()
	if err != nil {
		return err
	}
	if !r.s.Peek().Is("(") {
		c.Fields = append(c.Fields, &FieldSymbol{Name: name.Text, Owner: c, Flags: flags, Type: ret})
		return r.expectEnd()
	}
	params, varargs, err := r.params()
	if err != nil {
		return err
	}
	var thrown []Type
	if r.s.Accept("throws") {
		if thrown, err = r.typeList(); err != nil {
			return err
		}
	}
	if c.IsInterface() && !flags.Has(FlagStatic) && !isDefault {
		flags |= FlagAbstract
	}
	if varargs {
		flags |= FlagVarargs
	}
	c.Methods = append(c.Methods, &MethodSymbol{
		Name:       name.Text,
		Owner:      c,
		Flags:      flags,
		TypeParams: tparams,
		Type:       &MethodType{Params: params, Return: ret, Thrown: thrown},
	})
	return r.expectEnd()
}

// params reads "(T a, U... rest)", the trailing varargs parameter becoming an array
func (r *sigReader) params() (params []Type, varargs bool, err error) {
	if _, err := r.s.Expect("("); err != nil {
		return nil, false, err
	}
	params = []Type{}
	if r.s.Accept(")") {
		return params, false, nil
	}
	for {
		t, err := r.typ()
		if err != nil {
			return nil, false, err
		}
		if r.s.Accept("...") {
			t = &ArrayType{Elem: t}
			varargs = true
		}
		// parameter names are optional
		if r.s.Peek().Kind == syntax.Ident {
			r.s.Next()
		}
		params = append(params, t)
		if !r.s.Accept(",") {
			break
		}
		if varargs {
			return nil, false, fmt.Errorf("varargs parameter must be last")
		}
	}
	_, err = r.s.Expect(")")
	return params, varargs, err
}

func (r *sigReader) expectEnd() error {
	if tok := r.s.Peek(); tok.Kind != syntax.EOF {
		return fmt.Errorf("unexpected %v", tok)
	}
	return nil
}
