package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a   b\tc  "))
}

func TestNormalizeEmailLowercasesAndStripsSpaces(t *testing.T) {
	assert.Equal(t, "a@b.com", normalizeEmail(" A @ B.COM "))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("a@b.com"))
	assert.False(t, validEmail("not-an-email"))
}

func TestValidPostalCode(t *testing.T) {
	assert.True(t, validPostalCode("75001"))
	assert.True(t, validPostalCode("SW1A-1AA"))
	assert.False(t, validPostalCode("*"))
}

func TestNormalizeDateAcceptsBothFormats(t *testing.T) {
	iso, err := normalizeDate("2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, iso.Year())

	eu, err := normalizeDate("15/01/2026")
	require.NoError(t, err)
	assert.Equal(t, iso, eu)

	_, err = normalizeDate("not-a-date")
	assert.Error(t, err)
}

func TestNormalizeDecimalAcceptsCommaOrDot(t *testing.T) {
	v, err := normalizeDecimal("12,50")
	require.NoError(t, err)
	assert.InDelta(t, 12.50, v, 1e-9)

	v, err = normalizeDecimal("12.50")
	require.NoError(t, err)
	assert.InDelta(t, 12.50, v, 1e-9)

	_, err = normalizeDecimal("")
	assert.Error(t, err)
}

func TestNormalizeProductLabel(t *testing.T) {
	assert.Equal(t, "chateau margaux", normalizeProductLabel("  Chateau   MARGAUX "))
}
