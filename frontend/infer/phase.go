package infer

// Phase is one step of method resolution. Each phase admits more conversions
// than the previous one, and a later phase is only tried when no candidate is
// applicable in the earlier ones.
type Phase int

const (
	// PhaseBasic allows neither boxing nor varargs
	PhaseBasic Phase = iota
	// PhaseBox allows boxing and unboxing
	PhaseBox
	// PhaseVarArity allows boxing and variable arity invocation
	PhaseVarArity
)

// Phases lists every phase in the order they are tried
var Phases = []Phase{PhaseBasic, PhaseBox, PhaseVarArity}

func (p Phase) AllowsBoxing() bool { return p != PhaseBasic }
func (p Phase) IsVarargs() bool    { return p == PhaseVarArity }

func (p Phase) String() string {
	switch p {
	case PhaseBasic:
		return "BASIC"
	case PhaseBox:
		return "BOX"
	default:
		return "VARARITY"
	}
}
