package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		src   string
		kinds []Kind
		texts []string
	}{
		{`x -> x.f()`, []Kind{Ident, Punct, Ident, Punct, Ident, Punct, Punct}, []string{"x", "->", "x", ".", "f", "(", ")"}},
		{`String::length`, []Kind{Ident, Punct, Ident}, []string{"String", "::", "length"}},
		{`1 2L 3.5 4d`, []Kind{Int, Long, Double, Double}, []string{"1", "2", "3.5", "4"}},
		{`"a\"b" 'c'`, []Kind{String, Char}, []string{`a"b`, "c"}},
		{`int... xs`, []Kind{Ident, Punct, Ident}, []string{"int", "...", "xs"}},
		{"a // comment\nb", []Kind{Ident, Ident}, []string{"a", "b"}},
		{`1.length`, []Kind{Int, Punct, Ident}, []string{"1", ".", "length"}},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			tokens, err := Tokenize(test.src, 1)
			require.NoError(t, err)
			require.Equal(t, EOF, tokens[len(tokens)-1].Kind)
			var kinds []Kind
			var texts []string
			for _, tok := range tokens[:len(tokens)-1] {
				kinds = append(kinds, tok.Kind)
				texts = append(texts, tok.Text)
			}
			assert.Equal(t, test.kinds, kinds)
			assert.Equal(t, test.texts, texts)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{`"open`, `'ab'`, "a # b"} {
		t.Run(src, func(t *testing.T) {
			_, err := Tokenize(src, 1)
			assert.Error(t, err)
		})
	}
}

func TestPositions(t *testing.T) {
	tokens, err := Tokenize("ab  cd", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 10, tokens[0].Pos)
	assert.EqualValues(t, 12, tokens[0].End)
	assert.EqualValues(t, 14, tokens[1].Pos)
}

func TestStream(t *testing.T) {
	tokens, err := Tokenize("f ( x )", 1)
	require.NoError(t, err)
	s := NewStream(tokens)

	name, err := s.ExpectIdent()
	require.NoError(t, err)
	assert.Equal(t, "f", name.Text)

	mark := s.Mark()
	assert.True(t, s.Accept("("))
	assert.Equal(t, "x", s.PeekN(0).Text)
	assert.Equal(t, ")", s.PeekN(1).Text)
	assert.Equal(t, EOF, s.PeekN(5).Kind)
	s.Reset(mark)

	_, err = s.Expect(")")
	assert.ErrorContains(t, err, `expected ")", found "("`)
	_, err = s.Expect("(")
	require.NoError(t, err)
	assert.Equal(t, "(", s.Prev().Text)
}
