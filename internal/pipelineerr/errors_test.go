package pipelineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesNonRetryableErrorWithMessage(t *testing.T) {
	err := New(KindValidation, "Op", "bad input")
	assert.Equal(t, KindValidation, err.Kind)
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Error(), "bad input")
	assert.NotEmpty(t, err.ID)
}

func TestWrapPreservesCauseAndUnwraps(t *testing.T) {
	cause := errors.New("network down")
	err := Wrap(KindConnectorUnreachable, "Op", "unreachable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network down")
}

func TestAsRetryableMarksFlag(t *testing.T) {
	err := New(KindConnectorUnreachable, "Op", "x").AsRetryable()
	assert.True(t, err.Retryable)
}

func TestWithContextAttachesDiagnostics(t *testing.T) {
	err := New(KindValidation, "Op", "x").WithContext(map[string]interface{}{"row": 3})
	assert.Equal(t, 3, err.Context["row"])
}

func TestIsComparesByKind(t *testing.T) {
	a := New(KindValidation, "OpA", "x")
	b := New(KindValidation, "OpB", "y")
	c := New(KindInternal, "OpC", "z")
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindOfExtractsKindFromPipelineError(t *testing.T) {
	err := New(KindFileNotFound, "Op", "missing")
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindFileNotFound, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	_, ok = KindOf(nil)
	assert.False(t, ok)
}
