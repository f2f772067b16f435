package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hashed, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEmpty(t, hashed)
	assert.NotEqual(t, "password123", hashed)

	again, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "each hash uses its own salt")
}

func TestCompare(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	hashed, _ := h.Hash("password123")

	assert.True(t, h.Compare(hashed, "password123"))
	assert.False(t, h.Compare(hashed, "wrongpassword"))
	assert.False(t, h.Compare("invalidhash", "password123"))
}

func TestHash_Empty(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Hash("")
	assert.Error(t, err)
}

func TestNewBcrypt_OutOfRangeCost(t *testing.T) {
	h := NewBcrypt(99).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestHash_LongPassword(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	long := strings.Repeat("a", 80)

	hashed, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Compare(hashed, long))
	assert.False(t, h.Compare(hashed, strings.Repeat("a", 71)))

	// Multi-byte input longer than the limit is cut by bytes, not runes.
	multi := strings.Repeat("é", 40)
	hashed, err = h.Hash(multi)
	require.NoError(t, err)
	assert.True(t, h.Compare(hashed, multi))
}
