package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New_errorsIsCause(t *testing.T) {
	assert := assert.New(t)

	err := New("grammar has an unknown symbol", ErrBadGrammar)
	assert.True(errors.Is(err, ErrBadGrammar))
	assert.False(errors.Is(err, ErrNotFound))
}

func Test_WrapStore_errorsIsBoth(t *testing.T) {
	assert := assert.New(t)

	underlying := errors.New("constraint violation")
	err := WrapStore("could not save grammar", underlying)

	assert.True(errors.Is(err, ErrStore))
	assert.True(errors.Is(err, underlying))
}

func Test_Error_messageFormatting(t *testing.T) {
	testCases := []struct {
		name   string
		err    Error
		expect string
	}{
		{name: "message only", err: New("bad input"), expect: "bad input"},
		{name: "message and cause", err: New("bad input", ErrBadArgument), expect: "bad input: " + ErrBadArgument.Error()},
		{name: "cause only", err: Error{cause: []error{ErrNotFound}}, expect: ErrNotFound.Error()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tc.expect, tc.err.Error())
		})
	}
}
