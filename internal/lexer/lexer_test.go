package lexer

import "testing"

func typesOf(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, got []TokenType, want []TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %v, want %v\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}

func TestTokenizeSimpleAssignment(t *testing.T) {
	toks := Tokenize("x = 1 + 2\n")
	assertTypes(t, typesOf(toks), []TokenType{IDENT, ASSIGN, INT, PLUS, INT, NEWLINE, EOF})
}

func TestTokenizeIndentDedent(t *testing.T) {
	src := "def f():\n    return 1\nx = 2\n"
	toks := Tokenize(src)
	want := []TokenType{
		DEF, IDENT, LPAREN, RPAREN, COLON, NEWLINE,
		INDENT, RETURN, INT, NEWLINE,
		DEDENT, IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	}
	assertTypes(t, typesOf(toks), want)
}

func TestTokenizeNestedDedentMultiple(t *testing.T) {
	src := "if a:\n    if b:\n        pass\nx = 1\n"
	toks := Tokenize(src)
	want := []TokenType{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IF, IDENT, COLON, NEWLINE,
		INDENT, PASS, NEWLINE,
		DEDENT, DEDENT, IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	}
	assertTypes(t, typesOf(toks), want)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks := Tokenize(`s = "a\nb"` + "\n")
	if toks[2].Type != STRING || toks[2].Literal != "a\nb" {
		t.Fatalf("expected escaped string literal, got %q", toks[2].Literal)
	}
}

func TestTokenizeParenSuppressesNewline(t *testing.T) {
	src := "x = (1 +\n2)\n"
	toks := Tokenize(src)
	want := []TokenType{IDENT, ASSIGN, LPAREN, INT, PLUS, INT, RPAREN, NEWLINE, EOF}
	assertTypes(t, typesOf(toks), want)
}

func TestTokenizeFloatAndComment(t *testing.T) {
	toks := Tokenize("y = 3.14 # pi\n")
	assertTypes(t, typesOf(toks), []TokenType{IDENT, ASSIGN, FLOAT, NEWLINE, EOF})
}

func TestTokenizeKeywords(t *testing.T) {
	toks := Tokenize("if x and not y or True: pass\n")
	want := []TokenType{IF, IDENT, AND, NOT, IDENT, OR, TRUE, COLON, PASS, NEWLINE, EOF}
	assertTypes(t, typesOf(toks), want)
}
