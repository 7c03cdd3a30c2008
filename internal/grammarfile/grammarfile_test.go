package grammarfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/sym"
)

const parenGrammarFile = `
format = "opg"
type = "grammar"

[symbols]
terminals = ["(", ")"]
nonterminals = ["S"]

[[prec]]
left = "("
right = "("
rel = "gives"

[[prec]]
left = "("
right = ")"
rel = "equals"

[[prec]]
left = ")"
right = "("
rel = "takes"

[[prec]]
left = ")"
right = ")"
rel = "takes"

[[rule]]
lhs = "S"
rhs = ["(", ")"]

[[rule]]
lhs = "S"
rhs = ["(", "S", ")"]

[[rule]]
lhs = "S"
rhs = ["S", "(", ")"]

[[rule]]
lhs = "S"
rhs = ["S", "(", "S", ")"]
`

func Test_Parse_parenGrammar(t *testing.T) {
	assert := assert.New(t)

	g, err := Parse([]byte(parenGrammarFile))
	require.NoError(t, err)

	assert.Equal(uint32(3), g.TermThresh())
	assert.Equal(sym.Sym(1), g.EncodeTerminal("("))
	assert.Equal(sym.Sym(2), g.EncodeTerminal(")"))
	assert.Equal(sym.Sym(3), g.EncodeNonTerminal("S"))

	mat := g.EncodeOpMatrix()
	require.Len(t, mat, 9)

	view := func(l, r sym.Sym) sym.Prec {
		return sym.DecodePrec(mat[uint32(l)*g.TermThresh()+uint32(r)])
	}
	assert.Equal(sym.Gives, view(1, 1), "( vs (")
	assert.Equal(sym.Equals, view(1, 2), "( vs )")
	assert.Equal(sym.Takes, view(2, 1), ") vs (")
	assert.Equal(sym.Takes, view(2, 2), ") vs )")

	rules := g.EncodeRules()
	require.NotEmpty(t, rules)
	assert.Equal(uint32(4), rules[0])
	// first rule: S -> ( )
	assert.Equal([]uint32{3, 2, 1, 2}, rules[1:5])
}

func Test_Parse_errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "not TOML at all",
			input: `{"json": true}`,
		},
		{
			name: "wrong file type",
			input: `
type = "world"
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[rule]]
lhs = "S"
rhs = ["a"]
`,
		},
		{
			name: "no terminals",
			input: `
[symbols]
nonterminals = ["S"]
[[rule]]
lhs = "S"
rhs = ["S"]
`,
		},
		{
			name: "no nonterminals",
			input: `
[symbols]
terminals = ["a"]
`,
		},
		{
			name: "duplicate terminal",
			input: `
[symbols]
terminals = ["a", "a"]
nonterminals = ["S"]
[[rule]]
lhs = "S"
rhs = ["a"]
`,
		},
		{
			name: "symbol in both alphabets",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["a"]
[[rule]]
lhs = "a"
rhs = ["a"]
`,
		},
		{
			name: "prec references unknown terminal",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[prec]]
left = "b"
right = "a"
rel = "gives"
[[rule]]
lhs = "S"
rhs = ["a"]
`,
		},
		{
			name: "bad relation name",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[prec]]
left = "a"
right = "a"
rel = "yields-wrongly"
[[rule]]
lhs = "S"
rhs = ["a"]
`,
		},
		{
			name: "duplicate prec entry",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[prec]]
left = "a"
right = "a"
rel = "gives"
[[prec]]
left = "a"
right = "a"
rel = "takes"
[[rule]]
lhs = "S"
rhs = ["a"]
`,
		},
		{
			name: "no rules",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
`,
		},
		{
			name: "rule lhs is a terminal",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[rule]]
lhs = "a"
rhs = ["a"]
`,
		},
		{
			name: "rule rhs references unknown symbol",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[rule]]
lhs = "S"
rhs = ["b"]
`,
		},
		{
			name: "empty rhs",
			input: `
[symbols]
terminals = ["a"]
nonterminals = ["S"]
[[rule]]
lhs = "S"
rhs = []
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			assert.ErrorIs(t, err, apperr.ErrBadGrammar)
		})
	}
}

func Test_ParseRel(t *testing.T) {
	testCases := []struct {
		input     string
		expect    sym.Prec
		expectErr bool
	}{
		{input: "gives", expect: sym.Gives},
		{input: "GIVES", expect: sym.Gives},
		{input: "<.", expect: sym.Gives},
		{input: "equals", expect: sym.Equals},
		{input: "=.", expect: sym.Equals},
		{input: "takes", expect: sym.Takes},
		{input: ".>", expect: sym.Takes},
		{input: " takes ", expect: sym.Takes},
		{input: "undef", expectErr: true},
		{input: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			actual, err := ParseRel(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func Test_ScanFileInfo(t *testing.T) {
	info, err := ScanFileInfo([]byte(parenGrammarFile))
	require.NoError(t, err)
	assert.Equal(t, "opg", info.Format)
	assert.Equal(t, "grammar", info.Type)
}
