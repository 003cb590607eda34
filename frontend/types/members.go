package types

import (
	"slices"
)

// MemberType returns the type of m as a member of site, with the type
// parameters of m's owner replaced by site's type arguments.
// Members of raw types are erased.
func (ts *Types) MemberType(site Type, m *MethodSymbol) *MethodType {
	if m.Owner == nil || len(m.Owner.TypeParams) == 0 {
		return m.Type
	}
	sup, ok := ts.AsSuper(site, m.Owner).(*ClassType)
	if !ok {
		return m.Type
	}
	if sup.IsRaw() {
		return ts.Erasure(m.Type).(*MethodType)
	}
	return SubstMethod(m.Type, m.Owner.TypeParams, sup.Args)
}

// FieldType is like MemberType, for fields
func (ts *Types) FieldType(site Type, f *FieldSymbol) Type {
	if len(f.Owner.TypeParams) == 0 {
		return f.Type
	}
	sup, ok := ts.AsSuper(site, f.Owner).(*ClassType)
	if !ok {
		return f.Type
	}
	if sup.IsRaw() {
		return ts.Erasure(f.Type)
	}
	return Subst(f.Type, f.Owner.TypeParams, sup.Args)
}

// Members returns the methods of site and of its supertypes, without the
// methods overridden along the way. Methods of subclasses come first.
func (ts *Types) Members(site Type) []*MethodSymbol {
	var members []*MethodSymbol
	var visited []*ClassSymbol
	var visit func(t Type)
	visit = func(t Type) {
		switch t := t.(type) {
		case *ClassType:
			if slices.Contains(visited, t.Sym) {
				return
			}
			visited = append(visited, t.Sym)
			for _, m := range t.Sym.Methods {
				if !slices.ContainsFunc(members, func(sub *MethodSymbol) bool { return ts.Overrides(site, sub, m) }) {
					members = append(members, m)
				}
			}
			for _, sup := range ts.Supertypes(t) {
				visit(sup)
			}
		case *TypeVar:
			visit(ts.UpperBound(t))
		case *IntersectionType:
			for _, component := range t.Components {
				visit(component)
			}
		case *ArrayType, *UndetVar:
			visit(ts.Syms.ObjectType)
		}
	}
	visit(site)
	return members
}

// FindMethods returns the methods named name that are members of site
func (ts *Types) FindMethods(site Type, name string) []*MethodSymbol {
	var found []*MethodSymbol
	for _, m := range ts.Members(site) {
		if m.Name == name {
			found = append(found, m)
		}
	}
	return found
}

// FindField looks for a field in site's class and superclasses
func (ts *Types) FindField(site Type, name string) (*FieldSymbol, bool) {
	switch t := site.(type) {
	case *ClassType:
		if f, ok := t.Sym.Field(name); ok {
			return f, true
		}
		for _, sup := range ts.Supertypes(t) {
			if f, ok := ts.FindField(sup, name); ok {
				return f, true
			}
		}
	case *TypeVar:
		return ts.FindField(ts.UpperBound(t), name)
	}
	return nil, false
}

// Overrides reports whether sub overrides sup when both are seen as members of site
func (ts *Types) Overrides(site Type, sub, sup *MethodSymbol) bool {
	if sub == sup || sub.Name != sup.Name || len(sub.Type.Params) != len(sup.Type.Params) || len(sub.TypeParams) != len(sup.TypeParams) {
		return false
	}
	if sub.Owner != nil && sup.Owner != nil && !ts.isSubClass(sub.Owner, sup.Owner) {
		return false
	}
	subType := ts.MemberType(site, sub)
	supType := SubstMethod(ts.MemberType(site, sup), sup.TypeParams, TypeVarsOf(sub.TypeParams))
	for i := range subType.Params {
		if !ts.IsSameType(subType.Params[i], supType.Params[i]) &&
			!ts.IsSameType(ts.Erasure(subType.Params[i]), ts.Erasure(supType.Params[i])) {
			return false
		}
	}
	return true
}

// isObjectMember reports whether m has the signature of one of Object's methods
func (ts *Types) isObjectMember(m *MethodSymbol) bool {
	for _, om := range ts.Syms.Object.MethodsNamed(m.Name) {
		if len(om.Type.Params) != len(m.Type.Params) {
			continue
		}
		same := true
		for i, p := range om.Type.Params {
			same = same && ts.IsSameType(ts.Erasure(p), ts.Erasure(m.Type.Params[i]))
		}
		if same {
			return true
		}
	}
	return false
}

// FindDescriptorSymbol returns the single abstract method of a functional
// interface, or nil when c is not one. Abstract redeclarations of Object's
// methods do not count.
func (ts *Types) FindDescriptorSymbol(c *ClassSymbol) *MethodSymbol {
	if !c.IsInterface() {
		return nil
	}
	var abstracts []*MethodSymbol
	for _, m := range ts.Members(c.Type()) {
		if m.IsAbstract() && !m.IsStatic() && !ts.isObjectMember(m) {
			abstracts = append(abstracts, m)
		}
	}
	if len(abstracts) != 1 {
		return nil
	}
	return abstracts[0]
}

// FindDescriptorType returns the type of the function described by the
// functional interface t, as a member of t. Generic descriptors are not
// supported and yield nil.
func (ts *Types) FindDescriptorType(t Type) *MethodType {
	ct, ok := t.(*ClassType)
	if !ok {
		return nil
	}
	sym := ts.FindDescriptorSymbol(ct.Sym)
	if sym == nil || sym.IsGeneric() {
		return nil
	}
	return ts.MemberType(ct, sym)
}

func (ts *Types) IsFunctionalInterface(t Type) bool {
	return ts.FindDescriptorType(t) != nil
}
