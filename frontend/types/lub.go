package types

import (
	"slices"
)

// Lub computes the least upper bound of ts.
//
// The null type is ignored. Mixing primitives with references, or distinct
// primitives, has no upper bound and yields Err. Classes whose parameterizations
// differ contribute their erasure, since there are no wildcards to express the join.
func (ts *Types) Lub(types ...Type) Type {
	var candidates []Type
	for _, t := range types {
		if t.Tag() == TagBot {
			continue
		}
		if t.Tag() == TagError {
			return Err
		}
		if !slices.ContainsFunc(candidates, func(c Type) bool { return ts.IsSameType(c, t) }) {
			candidates = append(candidates, t)
		}
	}
	switch len(candidates) {
	case 0:
		return Bot
	case 1:
		return candidates[0]
	}

	primitives := 0
	arrays := 0
	for _, t := range candidates {
		if IsPrimitiveOrVoid(t) {
			primitives++
		}
		if t.Tag() == TagArray {
			arrays++
		}
	}
	if primitives > 0 {
		logger.Debug("no lub between primitives", "types", candidates)
		return Err
	}
	if arrays == len(candidates) {
		elems := make([]Type, len(candidates))
		primElems := false
		for i, t := range candidates {
			elems[i] = t.(*ArrayType).Elem
			primElems = primElems || IsPrimitive(elems[i])
		}
		if !primElems {
			elem := ts.Lub(elems...)
			if elem.Tag() == TagError {
				return Err
			}
			return &ArrayType{Elem: elem}
		}
	}

	closures := make([][]*ClassSymbol, len(candidates))
	for i, t := range candidates {
		closures[i] = ts.erasedClosure(t)
	}
	var common []*ClassSymbol
	for _, sym := range closures[0] {
		inAll := true
		for _, other := range closures[1:] {
			inAll = inAll && slices.Contains(other, sym)
		}
		if inAll {
			common = append(common, sym)
		}
	}
	var minimal []*ClassSymbol
	for _, sym := range common {
		dominated := slices.ContainsFunc(common, func(other *ClassSymbol) bool {
			return other != sym && ts.isSubClass(other, sym)
		})
		if !dominated {
			minimal = append(minimal, sym)
		}
	}
	var result []Type
	for _, sym := range minimal {
		var parameterization Type
		for _, t := range candidates {
			sup := ts.AsSuper(t, sym)
			switch {
			case parameterization == nil:
				parameterization = sup
			case !ts.IsSameType(parameterization, sup):
				parameterization = sym.Erasure()
			}
		}
		result = append(result, parameterization)
	}
	return ts.MakeCompoundType(result)
}

// erasedClosure lists the classes t is a subtype of, t's own class first
func (ts *Types) erasedClosure(t Type) []*ClassSymbol {
	var closure []*ClassSymbol
	var visit func(t Type)
	visit = func(t Type) {
		switch t := t.(type) {
		case *ClassType:
			if slices.Contains(closure, t.Sym) {
				return
			}
			closure = append(closure, t.Sym)
			for _, sup := range ts.Supertypes(t.Sym.Erasure()) {
				visit(sup)
			}
		case *ArrayType:
			visit(ts.Syms.ObjectType)
			visit(ts.Syms.Serializable.Type())
			visit(ts.Syms.Cloneable.Type())
		case *TypeVar:
			visit(ts.UpperBound(t))
		case *IntersectionType:
			for _, component := range t.Components {
				visit(component)
			}
		default:
			visit(ts.Syms.ObjectType)
		}
	}
	visit(t)
	return closure
}

func (ts *Types) isSubClass(sub, sup *ClassSymbol) bool {
	return ts.AsSuper(sub.Erasure(), sup) != nil
}

// Glb computes the greatest lower bound of ts.
//
// Object is the identity. The result is Err when some type is primitive, or
// when more than one unrelated class (as opposed to interface) remains.
func (ts *Types) Glb(types ...Type) Type {
	var flat []Type
	for _, t := range types {
		if inter, ok := t.(*IntersectionType); ok {
			flat = append(flat, inter.Components...)
			continue
		}
		flat = append(flat, t)
	}
	var candidates []Type
	for _, t := range flat {
		if t.Tag() == TagError {
			return Err
		}
		if IsPrimitiveOrVoid(t) {
			logger.Debug("no glb with a primitive", "types", flat)
			return Err
		}
		if ts.IsObject(t) {
			continue
		}
		if !slices.ContainsFunc(candidates, func(c Type) bool { return ts.IsSameType(c, t) }) {
			candidates = append(candidates, t)
		}
	}
	var minimal []Type
	for _, t := range candidates {
		dominated := slices.ContainsFunc(candidates, func(other Type) bool {
			return other != t && ts.IsSubtype(other, t)
		})
		if !dominated {
			minimal = append(minimal, t)
		}
	}
	switch len(minimal) {
	case 0:
		return ts.Syms.ObjectType
	case 1:
		return minimal[0]
	}
	classLike := 0
	for _, t := range minimal {
		if isClassLike(t) {
			classLike++
		}
	}
	if classLike > 1 {
		logger.Debug("no glb between unrelated classes", "types", minimal)
		return Err
	}
	return ts.MakeCompoundType(minimal)
}

func isClassLike(t Type) bool {
	switch t := t.(type) {
	case *ClassType:
		return !t.Sym.IsInterface()
	case *ArrayType, *TypeVar:
		return true
	default:
		return false
	}
}

// MakeCompoundType returns the intersection of ts, with class-like components first
func (ts *Types) MakeCompoundType(types []Type) Type {
	switch len(types) {
	case 0:
		return ts.Syms.ObjectType
	case 1:
		return types[0]
	}
	components := slices.Clone(types)
	slices.SortStableFunc(components, func(a, b Type) int {
		switch ac, bc := isClassLike(a), isClassLike(b); {
		case ac && !bc:
			return -1
		case bc && !ac:
			return 1
		default:
			return 0
		}
	})
	return &IntersectionType{Components: components}
}
