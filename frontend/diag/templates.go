package diag

// templates maps diagnostic keys to messages; {n} is replaced by the n-th argument
var templates = map[string]string{
	// inference
	"infer.no.conforming.instance.exists":     "no instance(s) of type variable(s) {0} exist so that {1} conforms to {2}",
	"no.unique.maximal.instance.exists":       "no unique maximal instance exists for type variable {0} with upper bounds {1}",
	"no.unique.minimal.instance.exists":       "no unique minimal instance exists for type variable {0} with lower bounds {1}",
	"incompatible.upper.bounds":               "inference variable {0} has incompatible upper bounds {1}",
	"inferred.do.not.conform.to.upper.bounds": "inferred type does not conform to upper bound(s); inferred: {0}; upper bound(s): {1}",
	"inferred.do.not.conform.to.lower.bounds": "inferred type does not conform to lower bound(s); inferred: {0}; lower bound(s): {1}",
	"inferred.do.not.conform.to.eq.bounds":    "inferred type does not conform to equality constraint(s); inferred: {0}; equality constraints(s): {1}",
	"infer.arg.length.mismatch":               "cannot infer type-variable(s) {0}; actual and formal argument lists differ in length",
	"infer.no.conforming.assignment.exists":   "cannot infer type-variable(s) {0}; argument mismatch; {1}",
	"infer.varargs.argument.mismatch":         "cannot infer type-variable(s) {0}; varargs mismatch; {1}",
	"inaccessible.varargs.type":               "formal varargs element type {0} is not accessible from {1} {2}",
	"infer.stalled":                           "cannot infer type-variable(s) {0}; every pending argument is stuck and no variable can be instantiated",
	"infer.fixpoint.limit":                    "cannot infer type-variable(s) {0}; gave up after {1} passes",
	"deferred.method.inst":                    "deferred instantiation of method {0}; instantiated signature: {1}; target-type: {2}",
	"applicable.method.found":                 "applicable method found: {0} in phase {1}",
	"inferred.method.inst":                    "instantiated signature of {0}: {1} with {2}",

	// resolution
	"arg.length.mismatch":                     "actual and formal argument lists differ in length",
	"no.conforming.assignment.exists":         "argument mismatch; {0}",
	"varargs.argument.mismatch":               "varargs mismatch; {0}",
	"inconvertible.types":                     "{0} cannot be converted to {1}",
	"cant.apply.symbol":                       "method {0} in {1} cannot be applied to given types; required: {2}; found: {3}; reason: {4}",
	"cant.apply.symbols":                      "no suitable method found for {0}({1})",
	"ref.ambiguous":                           "reference to {0} is ambiguous; both {1} in {2} and {3} in {4} match",
	"cant.resolve":                            "cannot find symbol: {0} {1}",
	"cant.resolve.location":                   "cannot find symbol: {0} {1} in {2}",
	"cant.deref":                              "{0} cannot be dereferenced",
	"abstract.cant.be.instantiated":           "{0} is abstract; cannot be instantiated",
	"cant.apply.diamond":                      "cannot infer type arguments for {0}; reason: {1}",
	"wrong.number.type.args":                  "wrong number of type arguments; required {0}",
	"explicit.param.do.not.conform.to.bounds": "explicit type argument {0} does not conform to declared bound(s) {1}",

	// attribution
	"prob.found.req":                   "incompatible types: {0}",
	"unexpected.lambda":                "lambda expression not expected here",
	"unexpected.mref":                  "method reference not expected here",
	"not.a.functional.intf":            "{0} is not a functional interface",
	"incompatible.ret.type.in.lambda":  "bad return type in lambda expression; {0}",
	"incompatible.ret.type.in.mref":    "bad return type in method reference; {0}",
	"incompatible.arg.types.in.lambda": "incompatible parameter types in lambda expression",
	"incompatible.arg.types.in.mref":   "incompatible parameter types in method reference",
	"lambda.arity.mismatch":            "incompatible parameter count in lambda expression; expected {0}, found {1}",
	"missing.ret.val":                  "missing return value",
	"unexpected.ret.val":               "unexpected return value",
	"invalid.mref":                     "invalid method reference; {0}",
	"operator.cant.be.applied":         "bad operand types for binary operator '{0}'; first type: {1}; second type: {2}",
	"neither.conditional.subtype":      "incompatible types in conditional expression; {0} and {1}",
	"void.not.allowed":                 "'void' type not allowed here",
	"already.defined":                  "{0} {1} is already defined",
	"cant.assign.val.to.final.var":     "cannot assign a value to {0}",
	"cant.infer.local.var.type":        "cannot infer type for local variable {0}; {1}",
	"local.cant.infer.null":            "variable initializer is 'null'",
	"local.lambda.missing.target":      "lambda expression needs an explicit target-type",
	"local.mref.missing.target":        "method reference needs an explicit target-type",
	"local.cant.infer.void":            "variable initializer is 'void'",
	"ret.outside.meth":                 "return outside method",
	"type.found.req":                   "unexpected type; required: {1}; found: {0}",
	"illegal.start.of.type":            "illegal start of type {0}",
	"class.decl":                       "invalid local class declaration: {0}",
	"incompatible.type.in.conditional": "bad type in conditional expression; {0}",
	"foreach.not.applicable.to.type":   "for-each not applicable to expression type; required: array or Iterable; found: {0}",
}
