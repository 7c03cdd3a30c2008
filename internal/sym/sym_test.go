package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DecodePrec(t *testing.T) {
	testCases := []struct {
		name   string
		input  uint32
		expect Prec
	}{
		{name: "undef raw 0", input: 0, expect: Undef},
		{name: "gives raw 1", input: 1, expect: Gives},
		{name: "equals raw 2", input: 2, expect: Equals},
		{name: "takes raw 3", input: 3, expect: Takes},
		{name: "out of range decodes to undef", input: 99, expect: Undef},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := DecodePrec(tc.input)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Prec_Encode_roundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, p := range []Prec{Undef, Gives, Equals, Takes} {
		assert.Equal(p, DecodePrec(p.Encode()))
	}
}

func Test_IsNonTerminal(t *testing.T) {
	testCases := []struct {
		name       string
		sym        Sym
		termThresh uint32
		expect     bool
	}{
		{name: "border is not a non-terminal", sym: 0, termThresh: 3, expect: false},
		{name: "terminal below thresh", sym: 2, termThresh: 3, expect: false},
		{name: "symbol at thresh is non-terminal", sym: 3, termThresh: 3, expect: true},
		{name: "symbol above thresh is non-terminal", sym: 10, termThresh: 3, expect: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := IsNonTerminal(tc.sym, tc.termThresh)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_MixedSymbol_accessors(t *testing.T) {
	assert := assert.New(t)

	border := NewBorder[rune, string]()
	assert.True(border.IsBorder())
	_, ok := border.Terminal()
	assert.False(ok)

	term := NewTerminal[rune, string]('(')
	assert.False(term.IsBorder())
	tv, ok := term.Terminal()
	assert.True(ok)
	assert.Equal('(', tv)
	_, ok = term.NonTerminal()
	assert.False(ok)

	nt := NewNonTerminal[rune, string]("S")
	ntv, ok := nt.NonTerminal()
	assert.True(ok)
	assert.Equal("S", ntv)
	_, ok = nt.Terminal()
	assert.False(ok)
}
