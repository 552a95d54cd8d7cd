package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerContactableDefaultsFromBouncedAndOptedOut(t *testing.T) {
	assert.True(t, Customer{}.Contactable())
	assert.False(t, Customer{Bounced: true}.Contactable())
	assert.False(t, Customer{OptedOut: true}.Contactable())
}

func TestCustomerContactableOverrideWins(t *testing.T) {
	truth := true
	assert.True(t, Customer{Bounced: true, ContactableOverride: &truth}.Contactable())

	lie := false
	assert.False(t, Customer{ContactableOverride: &lie}.Contactable())
}
