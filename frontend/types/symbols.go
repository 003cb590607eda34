package types

import (
	"fmt"
	"strings"

	"github.com/cottand/polyinfer/util"
)

type Flags uint32

const (
	FlagInterface Flags = 1 << iota
	FlagAbstract
	FlagFinal
	FlagStatic
	FlagVarargs
	FlagSynthetic
	// FlagSignaturePolymorphic marks methods whose signature is decided at each call site
	FlagSignaturePolymorphic
	// FlagLocal marks classes declared inside a method or lambda body
	FlagLocal
)

func (f Flags) Has(other Flags) bool { return f&other == other }

func (f Flags) String() string {
	var names []string
	for flag, name := range map[Flags]string{
		FlagInterface:            "interface",
		FlagAbstract:             "abstract",
		FlagFinal:                "final",
		FlagStatic:               "static",
		FlagVarargs:              "varargs",
		FlagSynthetic:            "synthetic",
		FlagSignaturePolymorphic: "polymorphic-signature",
		FlagLocal:                "local",
	} {
		if f.Has(flag) {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

// ClassSymbol declares a class or an interface.
//
// Super is nil only for Object and for interfaces.
type ClassSymbol struct {
	Name       string
	Flags      Flags
	TypeParams []*TypeVar
	Super      Type
	Interfaces []Type
	Methods    []*MethodSymbol
	Fields     []*FieldSymbol
	// Ctors are the constructors. Their TypeParams are their own, not the class'
	Ctors []*MethodSymbol
}

func (c *ClassSymbol) IsInterface() bool { return c.Flags.Has(FlagInterface) }

func (c *ClassSymbol) String() string { return c.Name }

// Type returns the generic type of the class, parameterized by its own type parameters
func (c *ClassSymbol) Type() *ClassType {
	return &ClassType{Sym: c, Args: TypeVarsOf(c.TypeParams)}
}

// Erasure returns the raw type of c
func (c *ClassSymbol) Erasure() *ClassType {
	return &ClassType{Sym: c}
}

// MethodsNamed returns the methods of c, not of its supertypes, with the given name
func (c *ClassSymbol) MethodsNamed(name string) []*MethodSymbol {
	var found []*MethodSymbol
	for _, m := range c.Methods {
		if m.Name == name {
			found = append(found, m)
		}
	}
	return found
}

func (c *ClassSymbol) Field(name string) (*FieldSymbol, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// MethodSymbol declares a method or a constructor. Constructors are named "<init>".
type MethodSymbol struct {
	Name       string
	Owner      *ClassSymbol
	Flags      Flags
	TypeParams []*TypeVar
	Type       *MethodType
}

const CtorName = "<init>"

func (m *MethodSymbol) IsVarargs() bool { return m.Flags.Has(FlagVarargs) }
func (m *MethodSymbol) IsStatic() bool  { return m.Flags.Has(FlagStatic) }
func (m *MethodSymbol) IsAbstract() bool {
	return m.Flags.Has(FlagAbstract)
}
func (m *MethodSymbol) IsGeneric() bool { return len(m.TypeParams) > 0 }

func (m *MethodSymbol) String() string {
	var sb strings.Builder
	if len(m.TypeParams) > 0 {
		sb.WriteString("<")
		sb.WriteString(util.JoinString(m.TypeParams, ","))
		sb.WriteString(">")
	}
	name := m.Name
	if name == CtorName && m.Owner != nil {
		name = m.Owner.Name
	}
	params := make([]string, len(m.Type.Params))
	for i, p := range m.Type.Params {
		params[i] = p.String()
		if i == len(params)-1 && m.IsVarargs() {
			if arr, ok := p.(*ArrayType); ok {
				params[i] = arr.Elem.String() + "..."
			}
		}
	}
	sb.WriteString(fmt.Sprintf("%s(%s)", name, strings.Join(params, ",")))
	return sb.String()
}

// Location describes where m is declared, for diagnostics
func (m *MethodSymbol) Location() string {
	if m.Owner == nil {
		return m.String()
	}
	return fmt.Sprintf("%s in %s %s", m, Describe(m.Owner.Type()), m.Owner.Name)
}

type FieldSymbol struct {
	Name  string
	Owner *ClassSymbol
	Flags Flags
	Type  Type
}

func (f *FieldSymbol) String() string { return f.Name }
