package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWatermarkID(t *testing.T) {
	wmID, err := ParseWatermarkID("7777")
	require.NoError(t, err)
	assert.Equal(t, WatermarkID(7777), wmID)
	assert.Equal(t, "7777", wmID.String())

	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		_, err := ParseWatermarkID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseCertificateID(t *testing.T) {
	certID, err := ParseCertificateID("42")
	require.NoError(t, err)
	assert.Equal(t, CertificateID(42), certID)
	assert.False(t, certID.IsNil())
	assert.True(t, CertificateID(0).IsNil())

	_, err = ParseCertificateID("not-a-number")
	assert.Error(t, err)
}

func TestParseContentHash(t *testing.T) {
	hexDigest := strings.Repeat("ab", ContentHashSize)

	t.Run("plain hex", func(t *testing.T) {
		hash, err := ParseContentHash(hexDigest)
		require.NoError(t, err)
		assert.Equal(t, hexDigest, hash.String())
		assert.False(t, hash.IsZero())
	})

	t.Run("0x prefix is accepted", func(t *testing.T) {
		hash, err := ParseContentHash("0x" + hexDigest)
		require.NoError(t, err)
		assert.Equal(t, hexDigest, hash.String())
	})

	t.Run("empty string is the zero hash", func(t *testing.T) {
		hash, err := ParseContentHash("")
		require.NoError(t, err)
		assert.True(t, hash.IsZero())
	})

	t.Run("wrong length is rejected", func(t *testing.T) {
		_, err := ParseContentHash("abcd")
		assert.Error(t, err)
	})

	t.Run("non-hex is rejected", func(t *testing.T) {
		_, err := ParseContentHash(strings.Repeat("zz", ContentHashSize))
		assert.Error(t, err)
	})
}

func TestContentHashJSON(t *testing.T) {
	hexDigest := strings.Repeat("0f", ContentHashSize)
	hash, err := ParseContentHash(hexDigest)
	require.NoError(t, err)

	data, err := json.Marshal(hash)
	require.NoError(t, err)
	assert.Equal(t, `"`+hexDigest+`"`, string(data))

	var decoded ContentHash
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, hash, decoded)
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity("").IsNil())
	assert.False(t, Identity("alice").IsNil())
	assert.Equal(t, "alice", Identity("alice").String())
}
