package types

import (
	"slices"

	"github.com/cottand/polyinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "types")

// BoundKind is the relation between an inference variable and one of its bounds
type BoundKind int

const (
	BoundEq BoundKind = iota
	BoundUpper
	BoundLower
)

func (k BoundKind) String() string {
	switch k {
	case BoundEq:
		return "eq"
	case BoundUpper:
		return "upper"
	default:
		return "lower"
	}
}

// Constraints is told about every relation met between an inference variable
// and some other type while checking subtyping or type equality.
// Relate returns whether the relation can hold.
//
// Without Constraints, inference variables are opaque and only equal to themselves.
type Constraints interface {
	Relate(uv *UndetVar, kind BoundKind, t Type) bool
}

// Types is the type algebra: subtyping, conversions, supertypes, lub and glb
type Types struct {
	Syms *Symtab
}

func NewTypes(syms *Symtab) *Types {
	return &Types{Syms: syms}
}

func (ts *Types) IsObject(t Type) bool {
	ct, ok := t.(*ClassType)
	return ok && ct.Sym == ts.Syms.Object
}

// UpperBound is the declared bound of tv, Object when it has none
func (ts *Types) UpperBound(tv *TypeVar) Type {
	if tv.Bound == nil {
		return ts.Syms.ObjectType
	}
	return tv.Bound
}

// GetBounds returns the components of the declared bound of tv
func (ts *Types) GetBounds(tv *TypeVar) []Type {
	if inter, ok := ts.UpperBound(tv).(*IntersectionType); ok {
		return inter.Components
	}
	return []Type{ts.UpperBound(tv)}
}

func (ts *Types) IsSubtype(t, s Type) bool {
	return ts.isSubtype(t, s, nil)
}

// IsSubtypeWith checks t <: s, reporting relations between inference variables and other types to c
func (ts *Types) IsSubtypeWith(t, s Type, c Constraints) bool {
	return ts.isSubtype(t, s, c)
}

func (ts *Types) isSubtype(t, s Type, c Constraints) bool {
	if t == s {
		return true
	}
	if t.Tag() == TagError || s.Tag() == TagError {
		return true
	}
	if t.Tag() == TagNone || s.Tag() == TagNone {
		return false
	}
	if uv, ok := s.(*UndetVar); ok && c != nil {
		if IsPrimitiveOrVoid(t) {
			return false
		}
		return c.Relate(uv, BoundLower, t)
	}
	if inter, ok := s.(*IntersectionType); ok {
		for _, component := range inter.Components {
			if !ts.isSubtype(t, component, c) {
				return false
			}
		}
		return true
	}
	switch t := t.(type) {
	case *PrimType:
		sp, ok := s.(*PrimType)
		return ok && primitiveWidens(t, sp)
	case *UndetVar:
		if c != nil {
			if s.Tag() == TagBot || IsPrimitiveOrVoid(s) {
				return false
			}
			return c.Relate(t, BoundUpper, s)
		}
		return ts.IsSameType(t, s) || ts.IsObject(s)
	case *TypeVar:
		return ts.isSubtype(ts.UpperBound(t), s, c)
	case *IntersectionType:
		for _, component := range t.Components {
			if ts.isSubtype(component, s, c) {
				return true
			}
		}
		return false
	case *ClassType:
		sc, ok := s.(*ClassType)
		if !ok {
			return false
		}
		sup, ok := ts.AsSuper(t, sc.Sym).(*ClassType)
		if !ok {
			return false
		}
		if len(sc.Args) == 0 {
			return true
		}
		if len(sup.Args) != len(sc.Args) {
			// raw to parameterized only holds as an unchecked conversion
			return false
		}
		for i := range sc.Args {
			if !ts.isSameType(sup.Args[i], sc.Args[i], c) {
				return false
			}
		}
		return true
	case *ArrayType:
		switch s := s.(type) {
		case *ArrayType:
			if IsPrimitive(t.Elem) || IsPrimitive(s.Elem) {
				return ts.IsSameType(t.Elem, s.Elem)
			}
			return ts.isSubtype(t.Elem, s.Elem, c)
		case *ClassType:
			return s.Sym == ts.Syms.Object || s.Sym == ts.Syms.Serializable || s.Sym == ts.Syms.Cloneable
		}
		return false
	}
	if t.Tag() == TagBot {
		return IsReference(s)
	}
	return false
}

// IsSubtypeUnchecked is IsSubtype where a raw type also converts to any parameterization of it
func (ts *Types) IsSubtypeUnchecked(t, s Type) bool {
	return ts.isSubtypeUnchecked(t, s, nil)
}

func (ts *Types) IsSubtypeUncheckedWith(t, s Type, c Constraints) bool {
	return ts.isSubtypeUnchecked(t, s, c)
}

func (ts *Types) isSubtypeUnchecked(t, s Type, c Constraints) bool {
	if ta, ok := t.(*ArrayType); ok {
		if sa, ok := s.(*ArrayType); ok {
			if IsPrimitive(ta.Elem) || IsPrimitive(sa.Elem) {
				return ts.IsSameType(ta.Elem, sa.Elem)
			}
			return ts.isSubtypeUnchecked(ta.Elem, sa.Elem, c)
		}
	}
	if ts.isSubtype(t, s, c) {
		return true
	}
	if tv, ok := t.(*TypeVar); ok {
		return ts.isSubtypeUnchecked(ts.UpperBound(tv), s, c)
	}
	if sc, ok := s.(*ClassType); ok && len(sc.Args) > 0 {
		if sup, ok := ts.AsSuper(t, sc.Sym).(*ClassType); ok && sup.IsRaw() {
			return true
		}
	}
	return false
}

func (ts *Types) IsSameType(t, s Type) bool {
	return ts.isSameType(t, s, nil)
}

func (ts *Types) IsSameTypeWith(t, s Type, c Constraints) bool {
	return ts.isSameType(t, s, c)
}

func (ts *Types) isSameType(t, s Type, c Constraints) bool {
	if t == s {
		return true
	}
	if t.Tag() == TagError || s.Tag() == TagError {
		return true
	}
	if c != nil {
		if uv, ok := t.(*UndetVar); ok {
			return !IsPrimitiveOrVoid(s) && c.Relate(uv, BoundEq, s)
		}
		if uv, ok := s.(*UndetVar); ok {
			return !IsPrimitiveOrVoid(t) && c.Relate(uv, BoundEq, t)
		}
	}
	switch t := t.(type) {
	case *ClassType:
		s, ok := s.(*ClassType)
		if !ok || s.Sym != t.Sym || len(s.Args) != len(t.Args) {
			return false
		}
		for i := range t.Args {
			if !ts.isSameType(t.Args[i], s.Args[i], c) {
				return false
			}
		}
		return true
	case *ArrayType:
		s, ok := s.(*ArrayType)
		return ok && ts.isSameType(t.Elem, s.Elem, c)
	case *UndetVar:
		s, ok := s.(*UndetVar)
		return ok && s.Ctx == t.Ctx && s.Index == t.Index
	case *IntersectionType:
		s, ok := s.(*IntersectionType)
		if !ok || len(s.Components) != len(t.Components) {
			return false
		}
		for _, tc := range t.Components {
			if !slices.ContainsFunc(s.Components, func(sc Type) bool { return ts.isSameType(tc, sc, c) }) {
				return false
			}
		}
		return true
	case *MethodType:
		s, ok := s.(*MethodType)
		if !ok || len(s.Params) != len(t.Params) {
			return false
		}
		for i := range t.Params {
			if !ts.isSameType(t.Params[i], s.Params[i], c) {
				return false
			}
		}
		return ts.isSameType(t.Return, s.Return, c)
	default:
		// primitives, type variables and the extreme types have identity
		return false
	}
}

func primitiveWidens(from, to *PrimType) bool {
	if from == to {
		return true
	}
	f, t := from.Tag(), to.Tag()
	switch {
	case f == TagBoolean || t == TagBoolean || f == TagVoid || t == TagVoid:
		return false
	case t == TagChar:
		return false
	case f == TagChar:
		return t >= TagInt
	default:
		return f <= t
	}
}

// IsConvertible checks assignment conversion from t to s, boxing and unboxing only when allowBoxing
func (ts *Types) IsConvertible(t, s Type, allowBoxing bool) bool {
	return ts.isConvertible(t, s, allowBoxing, nil)
}

func (ts *Types) IsConvertibleWith(t, s Type, allowBoxing bool, c Constraints) bool {
	return ts.isConvertible(t, s, allowBoxing, c)
}

func (ts *Types) isConvertible(t, s Type, allowBoxing bool, c Constraints) bool {
	if t.Tag() == TagError || s.Tag() == TagError {
		return true
	}
	tPrim, sPrim := IsPrimitive(t), IsPrimitive(s)
	if tPrim == sPrim {
		return ts.isSubtypeUnchecked(t, s, c)
	}
	if !allowBoxing {
		return false
	}
	if tPrim {
		return ts.isSubtype(ts.Boxed(t.(*PrimType)), s, c)
	}
	unboxed := ts.Unboxed(t)
	return unboxed != nil && ts.isSubtype(unboxed, s, c)
}

func (ts *Types) boxes() map[*PrimType]*ClassSymbol {
	return map[*PrimType]*ClassSymbol{
		Byte:    ts.Syms.Byte,
		Short:   ts.Syms.Short,
		Char:    ts.Syms.Character,
		Int:     ts.Syms.Integer,
		Long:    ts.Syms.Long,
		Float:   ts.Syms.Float,
		Double:  ts.Syms.Double,
		Boolean: ts.Syms.Boolean,
		Void:    ts.Syms.Void,
	}
}

// Boxed returns the wrapper class type of a primitive
func (ts *Types) Boxed(p *PrimType) *ClassType {
	return ts.boxes()[p].Type()
}

// Unboxed returns the primitive that t unboxes to, or nil
func (ts *Types) Unboxed(t Type) *PrimType {
	for prim, box := range ts.boxes() {
		if prim == Void {
			continue
		}
		if ts.AsSuper(t, box) != nil {
			return prim
		}
	}
	return nil
}

func (ts *Types) BoxedTypeOrType(t Type) Type {
	if p, ok := t.(*PrimType); ok && IsPrimitive(p) {
		return ts.Boxed(p)
	}
	return t
}

// AsSuper returns the supertype of t whose class is sym, with type arguments as seen from t,
// or nil when t is not a subtype of sym
func (ts *Types) AsSuper(t Type, sym *ClassSymbol) Type {
	switch t := t.(type) {
	case *ClassType:
		if t.Sym == sym {
			return t
		}
		for _, sup := range ts.Supertypes(t) {
			if found := ts.AsSuper(sup, sym); found != nil {
				return found
			}
		}
		return nil
	case *ArrayType:
		if sym == ts.Syms.Object || sym == ts.Syms.Serializable || sym == ts.Syms.Cloneable {
			return sym.Type()
		}
		return nil
	case *TypeVar:
		return ts.AsSuper(ts.UpperBound(t), sym)
	case *IntersectionType:
		for _, component := range t.Components {
			if found := ts.AsSuper(component, sym); found != nil {
				return found
			}
		}
		return nil
	case *UndetVar:
		if sym == ts.Syms.Object {
			return ts.Syms.ObjectType
		}
		return nil
	default:
		return nil
	}
}

// Supertypes returns the direct supertypes of t: its superclass first, then its interfaces.
// The supertype of an interface is Object.
func (ts *Types) Supertypes(t *ClassType) []Type {
	sym := t.Sym
	var direct []Type
	if sym.Super != nil {
		direct = append(direct, sym.Super)
	} else if sym.IsInterface() {
		direct = append(direct, ts.Syms.ObjectType)
	}
	direct = append(direct, sym.Interfaces...)
	switch {
	case t.IsRaw():
		return MapList(direct, func(t Type) (Type, bool) { return ts.Erasure(t), true })
	case len(sym.TypeParams) > 0:
		return SubstList(direct, sym.TypeParams, t.Args)
	default:
		return direct
	}
}

// Subst replaces every occurrence of from[i] in t with to[i]
func Subst(t Type, from []*TypeVar, to []Type) Type {
	if len(from) == 0 || t == nil {
		return t
	}
	return Map(t, func(t Type) (Type, bool) {
		if tv, ok := t.(*TypeVar); ok {
			if i := slices.Index(from, tv); i >= 0 && i < len(to) {
				return to[i], true
			}
		}
		return nil, false
	})
}

func SubstList(ts []Type, from []*TypeVar, to []Type) []Type {
	if len(from) == 0 {
		return ts
	}
	return MapList(ts, func(t Type) (Type, bool) { return Subst(t, from, to), true })
}

func SubstMethod(mt *MethodType, from []*TypeVar, to []Type) *MethodType {
	if len(from) == 0 {
		return mt
	}
	return Subst(mt, from, to).(*MethodType)
}

// SubstUndetVars replaces every occurrence of the inference variable from[i] in t with to[i]
func SubstUndetVars(t Type, from []*UndetVar, to []Type) Type {
	if len(from) == 0 || t == nil {
		return t
	}
	return Map(t, func(t Type) (Type, bool) {
		if uv, ok := t.(*UndetVar); ok {
			if i := slices.Index(from, uv); i >= 0 && i < len(to) {
				return to[i], true
			}
		}
		return nil, false
	})
}

// ContainsAnyUndetVar reports whether t mentions any of uvs
func ContainsAnyUndetVar(t Type, uvs []*UndetVar) bool {
	if len(uvs) == 0 {
		return false
	}
	return Any(t, func(t Type) bool {
		uv, ok := t.(*UndetVar)
		return ok && slices.Contains(uvs, uv)
	})
}

// Erasure removes type arguments, replacing type variables with the erasure of their bound
func (ts *Types) Erasure(t Type) Type {
	switch t := t.(type) {
	case *ClassType:
		if len(t.Args) == 0 {
			return t
		}
		return t.Sym.Erasure()
	case *ArrayType:
		elem := ts.Erasure(t.Elem)
		if elem == t.Elem {
			return t
		}
		return &ArrayType{Elem: elem}
	case *TypeVar:
		return ts.Erasure(ts.UpperBound(t))
	case *IntersectionType:
		return ts.Erasure(t.Components[0])
	case *UndetVar:
		return ts.Erasure(t.QType)
	case *MethodType:
		return &MethodType{
			Params: MapList(t.Params, func(p Type) (Type, bool) { return ts.Erasure(p), true }),
			Return: ts.Erasure(t.Return),
			Thrown: MapList(t.Thrown, func(p Type) (Type, bool) { return ts.Erasure(p), true }),
		}
	default:
		return t
	}
}

// IsCastable is a permissive check used for cast expressions: either direction of
// conversion, or any two interfaces and non-final classes
func (ts *Types) IsCastable(t, s Type) bool {
	if ts.IsConvertible(t, s, true) || ts.IsConvertible(s, t, true) {
		return true
	}
	if IsPrimitive(t) || IsPrimitive(s) {
		return IsPrimitive(t) && IsPrimitive(s) && t != Boolean && s != Boolean
	}
	tc, tok := ts.Erasure(t).(*ClassType)
	sc, sok := ts.Erasure(s).(*ClassType)
	if !tok || !sok {
		return false
	}
	if tc.Sym.IsInterface() || sc.Sym.IsInterface() {
		return !tc.Sym.Flags.Has(FlagFinal) && !sc.Sym.Flags.Has(FlagFinal)
	}
	return false
}
