package types

import (
	"github.com/hashicorp/go-set/v3"
)

// TypeSet is a set of types keyed by Hash, which is structural for
// classes and arrays and by identity for type and inference variables
type TypeSet = set.HashSet[Type, uint64]

func NewTypeSet(types ...Type) *TypeSet {
	s := set.NewHashSet[Type, uint64](len(types))
	s.InsertSlice(types)
	return s
}

// UndetVarSet is a set of inference variables
type UndetVarSet = set.HashSet[*UndetVar, uint64]

func NewUndetVarSet(uvs ...*UndetVar) *UndetVarSet {
	s := set.NewHashSet[*UndetVar, uint64](len(uvs))
	s.InsertSlice(uvs)
	return s
}
