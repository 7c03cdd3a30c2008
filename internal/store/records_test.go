package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/sym"
)

func Test_ResultSet_roundTrip(t *testing.T) {
	assert := assert.New(t)

	original := ResultSet{
		Residuals: []WorkerResidual{
			{
				Stack: []automaton.StackSym{
					{Sym: 0, Prec: sym.Undef},
					{Sym: 1, Prec: sym.Gives},
					{Sym: 3, Prec: sym.Undef},
				},
				TopGives: 1,
				Err:      automaton.ParseError{},
			},
			{
				Stack:    []automaton.StackSym{{Sym: 2, Prec: sym.Takes}},
				TopGives: -1,
				Err:      automaton.ParseError{Error: 1, Location: 7},
			},
			{
				Stack:    nil,
				TopGives: -1,
				Err:      automaton.ParseError{},
			},
		},
	}

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	var decoded ResultSet
	require.NoError(t, decoded.UnmarshalBinary(data))

	require.Len(t, decoded.Residuals, 3)
	assert.Equal(original.Residuals[0].Stack, decoded.Residuals[0].Stack)
	assert.Equal(1, decoded.Residuals[0].TopGives)
	assert.False(decoded.Residuals[0].Err.Failed())
	assert.Equal(-1, decoded.Residuals[1].TopGives, "negative TopGives must survive the round trip")
	assert.True(decoded.Residuals[1].Err.Failed())
	assert.Equal(uint32(7), decoded.Residuals[1].Err.Location)
	assert.Empty(decoded.Residuals[2].Stack)
}

func Test_ResultSet_truncated(t *testing.T) {
	original := ResultSet{
		Residuals: []WorkerResidual{
			{Stack: []automaton.StackSym{{Sym: 1, Prec: sym.Gives}}, TopGives: 0},
		},
	}
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	var decoded ResultSet
	assert.Error(t, decoded.UnmarshalBinary(data[:len(data)-3]))
}

func Test_StringList_roundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		input StringList
	}{
		{name: "empty list", input: StringList{}},
		{name: "single-char symbols", input: StringList{"(", ")"}},
		{name: "multi-char and empty entries", input: StringList{"if", "", "then"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.input.MarshalBinary()
			require.NoError(t, err)

			var decoded StringList
			require.NoError(t, decoded.UnmarshalBinary(data))
			assert.Equal(t, []string(tc.input), []string(decoded))
		})
	}
}
