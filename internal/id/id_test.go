package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		v, err := Generate(PrefixCheckIn)
		require.NoError(t, err)
		assert.False(t, ids[v], "ID should be unique: %s", v)
		ids[v] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixTag, PrefixAction, PrefixCheckIn, PrefixUser} {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			// NanoID default is 21 characters.
			assert.Len(t, v, len(prefix)+1+21)
			assert.True(t, HasPrefix(v, prefix))
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("tag-abc", PrefixTag))
	assert.False(t, HasPrefix("tag-", PrefixTag))
	assert.False(t, HasPrefix("walking", PrefixAction))
	assert.False(t, HasPrefix("act-x", PrefixTag))
}

func TestMustGenerate(t *testing.T) {
	v := MustGenerate(PrefixTag)
	assert.True(t, strings.HasPrefix(v, "tag-"))
}
