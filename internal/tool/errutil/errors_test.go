package errutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type missingErr struct{}

func (missingErr) Error() string     { return "missing" }
func (missingErr) FileMissing() bool { return true }

type notReallyTooLarge struct{}

func (notReallyTooLarge) Error() string  { return "fits" }
func (notReallyTooLarge) TooLarge() bool { return false }

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("read: %w", missingErr{})

	assert.True(t, IsFileMissing(missingErr{}))
	assert.True(t, IsFileMissing(wrapped))
	assert.False(t, IsTraversal(wrapped))
	assert.False(t, IsFileMissing(errors.New("plain")))
	assert.False(t, IsFileMissing(nil))
	assert.False(t, IsTooLarge(notReallyTooLarge{}))
}

var errSentinel = errors.New("path is required")

func TestInvalid(t *testing.T) {
	err := Invalid(errSentinel)
	assert.True(t, IsInvalidInput(err))
	assert.ErrorIs(t, err, errSentinel)
	assert.Equal(t, "path is required", err.Error())
	assert.NoError(t, Invalid(nil))

	err = Invalidf("bad type %q", "socket")
	assert.True(t, IsInvalidInput(err))
	assert.Contains(t, err.Error(), `"socket"`)
}
