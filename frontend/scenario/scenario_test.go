package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/polyinfer/frontend/deferred"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/ilerr"
	"github.com/cottand/polyinfer/frontend/types"
)

const simpleInference = `
name: simple inference
classes: |
  class Host {
    static <T> List<T> singleton(T t);
  }
locals:
  s: String
expr: singleton(s)
expect:
  type: List<String>
`

const targetDrivenLambda = `
name: target driven lambda
classes: |
  class Host {
    static <T> T choose(Supplier<T> s);
  }
expr: choose(() -> "x")
expect:
  type: String
`

const unsatisfiableBounds = `
name: unsatisfiable bounds
classes: |
  class Host {
    static <T extends Integer> T pick(T t);
  }
expr: pick("x")
expect:
  errors: [cant.apply.symbol]
`

const arityMismatch = `
name: arity mismatch
classes: |
  class Host {
    static <T> T pair(T a, T b);
  }
expr: pair(1, 2, 3)
expect:
  errors: [cant.apply.symbol]
`

func run(t *testing.T, src string) *Result {
	t.Helper()
	s, err := Parse([]byte(src), "")
	require.NoError(t, err)
	res, err := Run(s, nil)
	require.NoError(t, err)
	return res
}

// reasonKey is the key of the fragment explaining why the first error was reported
func reasonKey(t *testing.T, res *Result) string {
	t.Helper()
	require.NotEmpty(t, res.Diagnostics)
	d := res.Diagnostics[0]
	reason, ok := d.Args[len(d.Args)-1].(*diag.Diagnostic)
	require.True(t, ok, "%v has no reason", d)
	return reason.Key
}

func TestScenarios(t *testing.T) {
	t.Run("simple inference", func(t *testing.T) {
		res := run(t, simpleInference)
		assert.Empty(t, res.Mismatches())
		require.Len(t, res.Instantiations, 1)
		assert.Equal(t, []string{"T=String"}, res.Instantiations[0].Vars)
		assert.Equal(t, "<T>singleton(T) [T=String]", res.Instantiations[0].String())
	})
	t.Run("target driven lambda", func(t *testing.T) {
		res := run(t, targetDrivenLambda)
		assert.Empty(t, res.Mismatches())
		require.Len(t, res.Instantiations, 1)
		assert.Equal(t, []string{"T=String"}, res.Instantiations[0].Vars)
	})
	t.Run("unsatisfiable bounds", func(t *testing.T) {
		res := run(t, unsatisfiableBounds)
		assert.Empty(t, res.Mismatches())
		assert.True(t, types.IsErroneous(res.Type))
		assert.Equal(t, "inferred.do.not.conform.to.upper.bounds", reasonKey(t, res))
		require.True(t, res.Errors.HasError())
		assert.Equal(t, ilerr.Diagnosed, res.Errors.Errors()[0].Code())
	})
	t.Run("arity mismatch", func(t *testing.T) {
		res := run(t, arityMismatch)
		assert.Empty(t, res.Mismatches())
		assert.Equal(t, "infer.arg.length.mismatch", reasonKey(t, res))
	})
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   string
		errors []string
	}{
		{
			name: "owner",
			src: `
classes: |
  class A { static int f(); }
  class B { static String f(); }
owner: B
expr: f()
`,
			want: "String",
		},
		{
			name: "target",
			src: `
expr: Collections.emptyList()
target: List<Integer>
`,
			want: "List<Integer>",
		},
		{
			name: "locals",
			src: `
locals:
  xs: List<String>
  i: int
expr: xs.get(i).length()
`,
			want: "int",
		},
		{
			name: "type error",
			src: `
locals:
  s: String
expr: s
target: Integer
`,
			want:   "<error>",
			errors: []string{"prob.found.req"},
		},
		{
			name: "fixpoint limit",
			src: `
classes: |
  class Host { static <T, R> R map(T t, Function<T, R> f); }
expr: map("a", v -> v.length())
max_fixpoint_passes: 1
`,
			want:   "<error>",
			errors: []string{"cant.apply.symbol"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := run(t, test.src)
			if test.want == "<error>" {
				assert.True(t, types.IsErroneous(res.Type))
			} else {
				assert.Equal(t, test.want, res.Type.String())
			}
			assert.Equal(t, test.errors, res.ErrorKeys())
		})
	}
}

func TestVerbose(t *testing.T) {
	quiet := run(t, simpleInference)
	assert.Empty(t, quiet.Diagnostics)

	s, err := Parse([]byte(simpleInference), "")
	require.NoError(t, err)
	s.Verbose = true
	res, err := Run(s, nil)
	require.NoError(t, err)
	var keys []string
	for _, d := range res.Diagnostics {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"applicable.method.found", "inferred.method.inst"}, keys)
	assert.Empty(t, res.ErrorKeys())
}

func TestMismatches(t *testing.T) {
	s, err := Parse([]byte(simpleInference), "")
	require.NoError(t, err)
	s.Expect = &Expect{Type: "List<Integer>", Errors: []string{"cant.apply.symbol"}}
	res, err := Run(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"type: expected List<Integer>, found List<String>",
		"errors: expected [cant.apply.symbol], found []",
	}, res.Mismatches())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no expression", `verbose: true`},
		{"negative passes", "expr: x\nmax_fixpoint_passes: -1"},
		{"owner without classes", "expr: x\nowner: Host"},
		{"untyped local", "expr: x\nlocals:\n  x: ''"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.src), "bad.yaml")
			require.Error(t, err)
			var scenarioErr ilerr.NewScenario
			require.True(t, errors.As(err, &scenarioErr), "%v", err)
			assert.Equal(t, ilerr.Scenario, scenarioErr.Code())
			assert.Equal(t, "bad", scenarioErr.Name)
		})
	}

	_, err := Parse([]byte("expr: [unclosed"), "broken.yaml")
	assert.ErrorContains(t, err, "parsing scenario broken.yaml")
}

func TestRunSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad classes", "classes: 'class {'\nexpr: x"},
		{"unknown owner", "classes: 'class A { }'\nowner: B\nexpr: x"},
		{"bad local type", "locals:\n  x: 'List<'\nexpr: x"},
		{"bad expression", "expr: 'a +'"},
		{"bad target", "expr: x\ntarget: '<'"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := Parse([]byte(test.src), "setup.yaml")
			require.NoError(t, err)
			_, err = Run(s, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "choose.yaml")
	require.NoError(t, os.WriteFile(path, []byte(targetDrivenLambda), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "target driven lambda", s.Name)

	unnamed := filepath.Join(t.TempDir(), "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("expr: 1"), 0o644))
	s, err = Load(unnamed)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading scenario")
}

type recorder struct {
	stuck  [][]*types.UndetVar
	passes []int
}

func (r *recorder) Stuck(_ *deferred.DeferredType, vars []*types.UndetVar) {
	r.stuck = append(r.stuck, vars)
}

func (r *recorder) Pass(_ *deferred.AttrContext, _, processed int, _ []*types.UndetVar) {
	r.passes = append(r.passes, processed)
}

func TestObserver(t *testing.T) {
	s, err := Parse([]byte(`
classes: |
  class Host { static <T, R> R map(T t, Function<T, R> f); }
expr: map("a", v -> v.length())
`), "")
	require.NoError(t, err)
	rec := &recorder{}
	res, err := Run(s, rec)
	require.NoError(t, err)
	assert.Equal(t, "Integer", res.Type.String())

	require.NotEmpty(t, rec.stuck)
	assert.Equal(t, "T", rec.stuck[0][0].QType.String())
	assert.NotEmpty(t, rec.passes)
}
