package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := newError("delete_listing", ErrNotFoundOrForbidden)

	assert.True(t, errors.Is(err, ErrNotFoundOrForbidden))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("cli: %w", newError("login", ErrInvalidCredentials))

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))
}

func TestError_Message(t *testing.T) {
	err := newError("login", ErrInvalidCredentials)
	assert.Equal(t, "login: INVALID_CREDENTIALS: invalid email or secret", err.Error())

	wrapped := wrapError("add_listing", ErrCoverUploadFailed, errBoom)
	assert.Equal(t, "add_listing: COVER_UPLOAD_FAILED: cover upload failed: boom", wrapped.Error())
	assert.True(t, errors.Is(wrapped, errBoom), "cause is reachable through Unwrap")
}

func TestCodeOf_NonEngineError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errBoom))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestIsCoverFailure(t *testing.T) {
	assert.True(t, IsCoverFailure(wrapError("add_listing", ErrCoverUploadFailed, errBoom)))
	assert.False(t, IsCoverFailure(newError("add_listing", ErrForbidden)))
	assert.False(t, IsCoverFailure(nil))
}
