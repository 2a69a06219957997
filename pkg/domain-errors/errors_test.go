package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeValidation, "missing invoice number")
	assert.True(t, HasCode(err, CodeValidation))
	assert.False(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeValidation))
	assert.False(t, HasCode(nil, CodeValidation))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeCertificate, "certificate has expired")
	outer := fmt.Errorf("processing invoice: %w", inner)
	assert.True(t, HasCode(outer, CodeCertificate))
	assert.Equal(t, CodeCertificate, GetCode(outer))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "regulator unreachable")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, GetCode(err))
	assert.Equal(t, "regulator unreachable", Message(err))
}

func TestGetCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(errors.New("anything")))
}
