// Package syntax tokenizes the small Java-like surface used for declaring
// classes and methods and for writing expressions in scenarios.
package syntax

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
)

type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Long
	Double
	Char
	String
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Int, Long, Double:
		return "number"
	case Char:
		return "char literal"
	case String:
		return "string literal"
	default:
		return "punctuation"
	}
}

type Token struct {
	Kind Kind
	// Text is the literal source text, except for Char and String where it is the unquoted value
	Text string
	Pos  token.Pos
	End  token.Pos
}

func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == text
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}

// longest first, so that "..." wins over "."
var puncts = []string{
	"...", "::", "->", "==", "!=", "<=", ">=", "&&", "||",
	"(", ")", "{", "}", "[", "]", "<", ">", ",", ".", ";", ":", "?", "&", "=", "+", "-", "*", "/", "!", "@",
}

// Error is a lexical or syntax error at Pos
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Pos, e.Msg) }

// Tokenize splits src into tokens. Positions start at base, which must be at least 1
// so that every valid position differs from token.NoPos.
func Tokenize(src string, base token.Pos) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(src) {
		r := rune(src[i])
		start := base + token.Pos(i)
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case r == '_' || r == '$' || unicode.IsLetter(r):
			j := i
			for j < len(src) && isIdentPart(rune(src[j])) {
				j++
			}
			tokens = append(tokens, Token{Kind: Ident, Text: src[i:j], Pos: start, End: base + token.Pos(j)})
			i = j
		case unicode.IsDigit(r):
			tok, j := scanNumber(src, i)
			tok.Pos, tok.End = start, base+token.Pos(j)
			tokens = append(tokens, tok)
			i = j
		case r == '"' || r == '\'':
			j := i + 1
			var sb strings.Builder
			for j < len(src) && rune(src[j]) != r {
				if src[j] == '\\' && j+1 < len(src) {
					j++
					sb.WriteByte(unescape(src[j]))
				} else {
					sb.WriteByte(src[j])
				}
				j++
			}
			if j >= len(src) {
				return nil, &Error{Pos: start, Msg: "unterminated literal"}
			}
			kind := String
			if r == '\'' {
				kind = Char
				if sb.Len() != 1 {
					return nil, &Error{Pos: start, Msg: "bad char literal"}
				}
			}
			tokens = append(tokens, Token{Kind: kind, Text: sb.String(), Pos: start, End: base + token.Pos(j+1)})
			i = j + 1
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(src[i:], p) {
					tokens = append(tokens, Token{Kind: Punct, Text: p, Pos: start, End: start + token.Pos(len(p))})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &Error{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
		}
	}
	end := base + token.Pos(len(src))
	return append(tokens, Token{Kind: EOF, Pos: end, End: end}), nil
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func scanNumber(src string, i int) (Token, int) {
	j := i
	kind := Int
	for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
		if src[j] == '.' {
			// "1..." or "1.foo" are not decimals
			if j+1 >= len(src) || !unicode.IsDigit(rune(src[j+1])) {
				break
			}
			kind = Double
		}
		j++
	}
	text := src[i:j]
	if j < len(src) {
		switch src[j] {
		case 'L', 'l':
			kind = Long
			j++
		case 'd', 'D':
			kind = Double
			j++
		}
	}
	return Token{Kind: kind, Text: text}, j
}

func unescape(b byte) byte {
	switch b {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '0':
		return 0
	default:
		return b
	}
}

// Stream is a cursor over a token slice, used by the recursive-descent readers
type Stream struct {
	tokens []Token
	pos    int
}

func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

func (s *Stream) Peek() Token { return s.PeekN(0) }

// PeekN looks n tokens ahead, returning EOF past the end
func (s *Stream) PeekN(n int) Token {
	if s.pos+n >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[s.pos+n]
}

func (s *Stream) Next() Token {
	tok := s.Peek()
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return tok
}

// Accept consumes the next token if it is text
func (s *Stream) Accept(text string) bool {
	if s.Peek().Is(text) {
		s.Next()
		return true
	}
	return false
}

func (s *Stream) Expect(text string) (Token, error) {
	tok := s.Peek()
	if !tok.Is(text) {
		return tok, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("expected %q, found %v", text, tok)}
	}
	return s.Next(), nil
}

func (s *Stream) ExpectIdent() (Token, error) {
	tok := s.Peek()
	if tok.Kind != Ident {
		return tok, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("expected identifier, found %v", tok)}
	}
	return s.Next(), nil
}

// Mark and Reset allow bounded backtracking
func (s *Stream) Mark() int      { return s.pos }
func (s *Stream) Reset(mark int) { s.pos = mark }

// Prev returns the last consumed token
func (s *Stream) Prev() Token {
	if s.pos == 0 {
		return s.tokens[0]
	}
	return s.tokens[s.pos-1]
}

func (s *Stream) Errorf(format string, args ...any) error {
	return &Error{Pos: s.Peek().Pos, Msg: fmt.Sprintf(format, args...)}
}
