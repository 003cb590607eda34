package types

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/cottand/polyinfer/util"
)

// Tag classifies a Type. Primitive tags come first and are ordered by
// widening rank, so that tag <= TagVoid means "primitive or void".
type Tag int

const (
	TagByte Tag = iota
	TagShort
	TagChar
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagBoolean
	TagVoid

	TagClass
	TagArray
	TagTypeVar
	TagUndetVar
	TagIntersection
	TagBot
	TagError
	TagNone
	TagMethod
	// TagDeferred is used by types defined outside this package
	// which wrap a not-yet-attributed expression
	TagDeferred
)

var tagNames = map[Tag]string{
	TagByte:    "byte",
	TagShort:   "short",
	TagChar:    "char",
	TagInt:     "int",
	TagLong:    "long",
	TagFloat:   "float",
	TagDouble:  "double",
	TagBoolean: "boolean",
	TagVoid:    "void",
}

// Type is implemented by every type the engine manipulates.
//
// Types are compared structurally with Types.IsSameType, never with ==,
// except for type variables and inference variables which have identity.
type Type interface {
	fmt.Stringer
	Tag() Tag
	Hash() uint64
}

var (
	_ Type = (*PrimType)(nil)
	_ Type = (*ClassType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*TypeVar)(nil)
	_ Type = (*UndetVar)(nil)
	_ Type = (*IntersectionType)(nil)
	_ Type = (*MethodType)(nil)
	_ Type = (*extremeType)(nil)
)

type PrimType struct {
	tag Tag
}

var (
	Byte    = &PrimType{TagByte}
	Short   = &PrimType{TagShort}
	Char    = &PrimType{TagChar}
	Int     = &PrimType{TagInt}
	Long    = &PrimType{TagLong}
	Float   = &PrimType{TagFloat}
	Double  = &PrimType{TagDouble}
	Boolean = &PrimType{TagBoolean}
	Void    = &PrimType{TagVoid}
)

// PrimitiveNamed returns the primitive type with the given keyword, if any
func PrimitiveNamed(name string) (*PrimType, bool) {
	for _, p := range []*PrimType{Byte, Short, Char, Int, Long, Float, Double, Boolean, Void} {
		if p.String() == name {
			return p, true
		}
	}
	return nil, false
}

func (t *PrimType) Tag() Tag       { return t.tag }
func (t *PrimType) String() string { return tagNames[t.tag] }
func (t *PrimType) Hash() uint64   { return 1099511628211 * uint64(t.tag+1) }

// extremeType covers the types without structure: the null type, the
// erroneous type and the absence of a type
type extremeType struct {
	tag Tag
}

var (
	// Bot is the type of null, a subtype of every reference type
	Bot Type = &extremeType{TagBot}
	// Err is the erroneous type, compatible with everything so that one error does not cascade
	Err Type = &extremeType{TagError}
	// None means "no type yet" or "no expected type"
	None Type = &extremeType{TagNone}
)

func (t *extremeType) Tag() Tag { return t.tag }
func (t *extremeType) String() string {
	switch t.tag {
	case TagBot:
		return "<nulltype>"
	case TagError:
		return "<any>"
	default:
		return "<none>"
	}
}
func (t *extremeType) Hash() uint64 { return 16777619 * uint64(t.tag+1) }

// ClassType is a (possibly parameterized) class or interface type.
// A ClassType of a generic class with no Args is a raw type.
type ClassType struct {
	Sym  *ClassSymbol
	Args []Type
}

func (t *ClassType) Tag() Tag { return TagClass }
func (t *ClassType) String() string {
	if len(t.Args) == 0 {
		return t.Sym.Name
	}
	return fmt.Sprintf("%s<%s>", t.Sym.Name, util.JoinString(t.Args, ","))
}
func (t *ClassType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Sym.Name))
	hash := h.Sum64()
	for _, arg := range t.Args {
		hash = hash*31 + arg.Hash()
	}
	return hash
}

// IsRaw reports whether t is the raw form of a generic class
func (t *ClassType) IsRaw() bool {
	return len(t.Args) == 0 && len(t.Sym.TypeParams) > 0
}

type ArrayType struct {
	Elem Type
}

func (t *ArrayType) Tag() Tag       { return TagArray }
func (t *ArrayType) String() string { return t.Elem.String() + "[]" }
func (t *ArrayType) Hash() uint64   { return 2166136261*16777619 ^ t.Elem.Hash() }

var typeVarIDs atomic.Uint64

// TypeVar is a declared type parameter, or a synthetic one created while
// breaking a cycle in the bounds of inference variables.
//
// Bound is assigned after construction, as it may refer to the variable itself.
type TypeVar struct {
	Name      string
	Bound     Type
	Synthetic bool
	id        uint64
}

// NewTypeVar returns a fresh type variable, bounded by Object when bound is nil
func NewTypeVar(name string, bound Type) *TypeVar {
	return &TypeVar{Name: name, Bound: bound, id: typeVarIDs.Add(1)}
}

// NewSyntheticTypeVar returns a fresh type variable standing for a captured instantiation
func NewSyntheticTypeVar(name string, bound Type) *TypeVar {
	tv := NewTypeVar(name, bound)
	tv.Synthetic = true
	return tv
}

func (t *TypeVar) Tag() Tag { return TagTypeVar }
func (t *TypeVar) String() string {
	if t.Synthetic {
		return fmt.Sprintf("CAP#%d of %s", t.id, t.Name)
	}
	return t.Name
}
func (t *TypeVar) Hash() uint64 { return 31 * 7919 * t.id }
func (t *TypeVar) ID() uint64   { return t.id }

// UndetVar is a reference to an inference variable.
// The bounds themselves live in the inference context identified by Ctx,
// in the slot Index; this type only carries identity.
type UndetVar struct {
	Ctx   uint64
	Index int
	QType *TypeVar
}

func (t *UndetVar) Tag() Tag       { return TagUndetVar }
func (t *UndetVar) String() string { return fmt.Sprintf("?%s", t.QType.Name) }
func (t *UndetVar) Hash() uint64 {
	return 433*t.Ctx ^ 9973*uint64(t.Index+1) ^ t.QType.Hash()
}

// IntersectionType is the compound type of several bounds.
// By construction a class component, if any, comes first.
type IntersectionType struct {
	Components []Type
}

func (t *IntersectionType) Tag() Tag       { return TagIntersection }
func (t *IntersectionType) String() string { return util.JoinString(t.Components, "&") }
func (t *IntersectionType) Hash() uint64 {
	var hash uint64 = 15487469
	for _, c := range t.Components {
		hash = hash*32452843 ^ c.Hash()
	}
	return hash
}

type MethodType struct {
	Params []Type
	Return Type
	Thrown []Type
}

func (t *MethodType) Tag() Tag { return TagMethod }
func (t *MethodType) String() string {
	return fmt.Sprintf("(%s)%s", util.JoinString(t.Params, ","), t.Return)
}
func (t *MethodType) Hash() uint64 {
	var hash uint64 = 2166136261
	for _, p := range t.Params {
		hash = hash*16777619 ^ p.Hash()
	}
	return hash*16777619 ^ t.Return.Hash()
}

// WithParams returns a copy of t with different parameter types
func (t *MethodType) WithParams(params []Type) *MethodType {
	return &MethodType{Params: params, Return: t.Return, Thrown: t.Thrown}
}

// IsPrimitive is true for primitive types other than void
func IsPrimitive(t Type) bool {
	return t != nil && t.Tag() < TagVoid
}

// IsPrimitiveOrVoid is true when t.Tag() <= TagVoid
func IsPrimitiveOrVoid(t Type) bool {
	return t != nil && t.Tag() <= TagVoid
}

// IsReference reports whether values of t are references
func IsReference(t Type) bool {
	switch t.Tag() {
	case TagClass, TagArray, TagTypeVar, TagUndetVar, TagIntersection, TagBot:
		return true
	default:
		return false
	}
}

// IsErroneous is true when t is, or mentions, the erroneous type
func IsErroneous(t Type) bool {
	return t != nil && Any(t, func(t Type) bool { return t.Tag() == TagError })
}

func IsNone(t Type) bool {
	return t == nil || t.Tag() == TagNone
}

// Map rebuilds t bottom-up. f is called on every node before its children:
// when it returns ok, the node is replaced by the result and its children are not visited.
func Map(t Type, f func(Type) (Type, bool)) Type {
	if t == nil {
		return nil
	}
	if replaced, ok := f(t); ok {
		return replaced
	}
	switch t := t.(type) {
	case *ClassType:
		if len(t.Args) == 0 {
			return t
		}
		args, changed := mapList(t.Args, f)
		if !changed {
			return t
		}
		return &ClassType{Sym: t.Sym, Args: args}
	case *ArrayType:
		elem := Map(t.Elem, f)
		if elem == t.Elem {
			return t
		}
		return &ArrayType{Elem: elem}
	case *IntersectionType:
		components, changed := mapList(t.Components, f)
		if !changed {
			return t
		}
		return &IntersectionType{Components: components}
	case *MethodType:
		params, changedParams := mapList(t.Params, f)
		thrown, changedThrown := mapList(t.Thrown, f)
		ret := Map(t.Return, f)
		if !changedParams && !changedThrown && ret == t.Return {
			return t
		}
		return &MethodType{Params: params, Return: ret, Thrown: thrown}
	default:
		return t
	}
}

// MapList applies Map to every element of ts
func MapList(ts []Type, f func(Type) (Type, bool)) []Type {
	mapped, _ := mapList(ts, f)
	return mapped
}

func mapList(ts []Type, f func(Type) (Type, bool)) ([]Type, bool) {
	if ts == nil {
		return nil, false
	}
	changed := false
	mapped := make([]Type, len(ts))
	for i, t := range ts {
		mapped[i] = Map(t, f)
		changed = changed || mapped[i] != t
	}
	return mapped, changed
}

// Any reports whether pred holds for t or any type nested in it.
// The bounds of type variables are not visited.
func Any(t Type, pred func(Type) bool) bool {
	if t == nil {
		return false
	}
	if pred(t) {
		return true
	}
	switch t := t.(type) {
	case *ClassType:
		return slices.ContainsFunc(t.Args, func(arg Type) bool { return Any(arg, pred) })
	case *ArrayType:
		return Any(t.Elem, pred)
	case *IntersectionType:
		return slices.ContainsFunc(t.Components, func(c Type) bool { return Any(c, pred) })
	case *MethodType:
		return Any(t.Return, pred) || slices.ContainsFunc(t.Params, func(p Type) bool { return Any(p, pred) })
	default:
		return false
	}
}

// ContainsAny reports whether t mentions any of tvars
func ContainsAny(t Type, tvars []*TypeVar) bool {
	if len(tvars) == 0 {
		return false
	}
	return Any(t, func(t Type) bool {
		tv, ok := t.(*TypeVar)
		return ok && slices.Contains(tvars, tv)
	})
}

// ContainsAnyOf reports whether any of ts mentions any of tvars
func ContainsAnyOf(ts []Type, tvars []*TypeVar) bool {
	return slices.ContainsFunc(ts, func(t Type) bool { return ContainsAny(t, tvars) })
}

// UndetVarsIn returns the inference variables mentioned in ts, in order of first occurrence
func UndetVarsIn(ts ...Type) []*UndetVar {
	var found []*UndetVar
	for _, t := range ts {
		Any(t, func(t Type) bool {
			if uv, ok := t.(*UndetVar); ok && !slices.Contains(found, uv) {
				found = append(found, uv)
			}
			return false
		})
	}
	return found
}

// TypeVarsOf returns tvars as a []Type, which is what substitution targets look like
func TypeVarsOf(tvars []*TypeVar) []Type {
	ts := make([]Type, len(tvars))
	for i, tv := range tvars {
		ts[i] = tv
	}
	return ts
}

// Describe is a short name for t's kind, used in diagnostics
func Describe(t Type) string {
	switch t.Tag() {
	case TagClass:
		if t.(*ClassType).Sym.IsInterface() {
			return "interface"
		}
		return "class"
	case TagArray:
		return "array"
	case TagTypeVar:
		return "type variable"
	case TagUndetVar:
		return "inference variable"
	case TagIntersection:
		return "intersection type"
	case TagMethod:
		return "method type"
	case TagDeferred:
		return "poly expression"
	default:
		if IsPrimitiveOrVoid(t) {
			return "primitive"
		}
		return strings.TrimSuffix(strings.TrimPrefix(t.String(), "<"), ">")
	}
}
