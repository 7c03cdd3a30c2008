package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/sym"
)

// parenGrammar is the balanced-parenthesis grammar used across this
// repository's tests: S -> (), S -> (S), S -> S(), S -> S(S).
func parenGrammar() *OPGrammar[rune, string] {
	open, close := sym.NewTerminal[rune, string]('('), sym.NewTerminal[rune, string](')')
	s := sym.NewNonTerminal[rune, string]("S")

	rules := []Rule[rune, string]{
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{open, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{open, s, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{s, open, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{s, open, s, close}},
	}

	return NewWithPrecFunc([]rune{'(', ')'}, []string{"S"}, rules, func(a, b rune) sym.Prec {
		switch {
		case a == '(' && b == '(':
			return sym.Gives
		case a == '(' && b == ')':
			return sym.Equals
		case a == ')' && b == '(':
			return sym.Takes
		case a == ')' && b == ')':
			return sym.Takes
		default:
			return sym.Undef
		}
	})
}

func Test_EncodeOpMatrix_cellsRoundTrip(t *testing.T) {
	assert := assert.New(t)
	g := parenGrammar()

	raw := g.EncodeOpMatrix()
	require.Len(t, raw, int(g.TermThresh()*g.TermThresh()))

	view := PrecMatrixView{Raw: raw, TermThresh: g.TermThresh()}

	open := g.EncodeTerminal('(')
	close := g.EncodeTerminal(')')

	// the user-supplied relation for every true terminal pair
	assert.Equal(sym.Gives, view.Get(open, open))
	assert.Equal(sym.Equals, view.Get(open, close))
	assert.Equal(sym.Takes, view.Get(close, open))
	assert.Equal(sym.Takes, view.Get(close, close))

	// sentinel row and column always carry the fixed border policy
	assert.Equal(sym.Equals, view.Get(sym.Border, sym.Border))
	assert.Equal(sym.Gives, view.Get(sym.Border, open))
	assert.Equal(sym.Gives, view.Get(sym.Border, close))
	assert.Equal(sym.Takes, view.Get(open, sym.Border))
	assert.Equal(sym.Takes, view.Get(close, sym.Border))
}

func Test_EncodeOpMatrix_sentinelPolicyOverridesPrecFunc(t *testing.T) {
	// the precedence function is only ever consulted for true terminal
	// pairs; even a function claiming a relation for everything cannot
	// disturb row/column 0
	g := NewWithPrecFunc([]rune{'a'}, []string{"S"},
		[]Rule[rune, string]{{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{sym.NewTerminal[rune, string]('a')}}},
		func(a, b rune) sym.Prec { return sym.Takes },
	)

	view := PrecMatrixView{Raw: g.EncodeOpMatrix(), TermThresh: g.TermThresh()}
	assert.Equal(t, sym.Equals, view.Get(sym.Border, sym.Border))
	assert.Equal(t, sym.Gives, view.Get(sym.Border, g.EncodeTerminal('a')))
	assert.Equal(t, sym.Takes, view.Get(g.EncodeTerminal('a'), sym.Border))
}

func Test_EncodeOpMatrix_missingPairsAreUndef(t *testing.T) {
	g := New([]rune{'a', 'b'}, []string{"S"},
		[]Rule[rune, string]{{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{sym.NewTerminal[rune, string]('a')}}},
		map[[2]rune]sym.Prec{
			{'a', 'b'}: sym.Gives,
		},
	)

	view := PrecMatrixView{Raw: g.EncodeOpMatrix(), TermThresh: g.TermThresh()}
	a, b := g.EncodeTerminal('a'), g.EncodeTerminal('b')
	assert.Equal(t, sym.Gives, view.Get(a, b))
	assert.Equal(t, sym.Undef, view.Get(b, a))
	assert.Equal(t, sym.Undef, view.Get(a, a))
}

func Test_EncodeRules_layoutRoundTrip(t *testing.T) {
	assert := assert.New(t)
	g := parenGrammar()

	raw := g.EncodeRules()
	require.NotEmpty(t, raw)

	ruleCount := raw[0]
	assert.Equal(uint32(4), ruleCount)

	// walk the flat layout back out and compare against the declared rules
	type decodedRule struct {
		lhs sym.Sym
		rhs []sym.Sym
	}
	var decoded []decodedRule

	offset := 1
	for i := uint32(0); i < ruleCount; i++ {
		require.Less(t, offset+1, len(raw), "rule %d header truncated", i)
		lhs := sym.Sym(raw[offset])
		length := int(raw[offset+1])
		offset += 2

		require.LessOrEqual(t, offset+length, len(raw), "rule %d body truncated", i)
		rhs := make([]sym.Sym, length)
		for j := 0; j < length; j++ {
			rhs[j] = sym.Sym(raw[offset+j])
		}
		offset += length

		decoded = append(decoded, decodedRule{lhs: lhs, rhs: rhs})
	}
	assert.Equal(len(raw), offset, "rule table has trailing words")

	s := g.EncodeNonTerminal("S")
	open := g.EncodeTerminal('(')
	close := g.EncodeTerminal(')')

	expect := []decodedRule{
		{lhs: s, rhs: []sym.Sym{open, close}},
		{lhs: s, rhs: []sym.Sym{open, s, close}},
		{lhs: s, rhs: []sym.Sym{s, open, close}},
		{lhs: s, rhs: []sym.Sym{s, open, s, close}},
	}
	assert.Equal(expect, decoded, "rules must come back in priority order")
}

func Test_EncodeString(t *testing.T) {
	g := parenGrammar()

	encoded := g.EncodeString([]rune("(())"))
	assert.Equal(t, []sym.Sym{1, 1, 2, 2}, encoded)
}

func Test_EncodeStringWithBorder(t *testing.T) {
	g := parenGrammar()

	encoded := g.EncodeStringWithBorder([]rune("()"))
	require.Len(t, encoded, 4)
	assert.Equal(t, sym.Border, encoded[0])
	assert.Equal(t, sym.Border, encoded[3])
	assert.Equal(t, g.EncodeTerminal('('), encoded[1])
	assert.Equal(t, g.EncodeTerminal(')'), encoded[2])
}

func Test_DecodeMixed(t *testing.T) {
	g := parenGrammar()

	testCases := []struct {
		name      string
		input     sym.Sym
		expectOK  bool
		expectStr string
	}{
		{name: "border", input: sym.Border, expectOK: true, expectStr: "#"},
		{name: "first terminal", input: 1, expectOK: true, expectStr: "40"}, // '(' as a rune formats numerically
		{name: "nonterminal", input: 3, expectOK: true, expectStr: "S"},
		{name: "out of range", input: 4, expectOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := g.DecodeMixed(tc.input)
			if !tc.expectOK {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.expectStr, m.String())
		})
	}
}

func Test_HasTerminal(t *testing.T) {
	g := parenGrammar()

	assert.True(t, g.HasTerminal('('))
	assert.True(t, g.HasTerminal(')'))
	assert.False(t, g.HasTerminal('x'))
}

func Test_PrecMatrixView_outOfRangeIsUndef(t *testing.T) {
	g := parenGrammar()
	view := PrecMatrixView{Raw: g.EncodeOpMatrix(), TermThresh: g.TermThresh()}

	assert.Equal(t, sym.Undef, view.Get(sym.Sym(999), sym.Sym(999)))
}
