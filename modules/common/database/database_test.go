package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "key")
	assert.Error(t, err)

	_, err = NewClient("https://example.supabase.co", "")
	assert.Error(t, err)
}
