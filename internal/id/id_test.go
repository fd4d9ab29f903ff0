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
		v, err := Generate(PrefixVote)
		require.NoError(t, err)
		assert.False(t, ids[v], "ID should be unique: %s", v)
		ids[v] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	prefixes := []string{
		PrefixWorkplace, PrefixUser, PrefixCredential, PrefixWager, PrefixOption,
		PrefixWagerTag, PrefixTagOption, PrefixVote, PrefixTransaction,
	}

	for _, prefix := range prefixes {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			// NanoID default is 21 characters.
			assert.Len(t, strings.TrimPrefix(v, prefix+"-"), 21)
			assert.True(t, HasPrefix(v, prefix))
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("wgr-abc", PrefixWager))
	assert.False(t, HasPrefix("opt-abc", PrefixWager))
	assert.False(t, HasPrefix("wgr-", PrefixWager))
	assert.False(t, HasPrefix("wgrabc", PrefixWager))
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		v := MustGenerate(PrefixUser)
		assert.True(t, HasPrefix(v, PrefixUser))
	})
}
