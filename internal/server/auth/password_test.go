package auth

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastParams() Argon2idParams {
	return Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1}
}

func TestNewHasher_FillsDefaults(t *testing.T) {
	h := NewHasher(Argon2idParams{Iterations: 5})

	p := h.Params()
	def := DefaultArgon2idParams()
	assert.Equal(t, uint32(5), p.Iterations)
	assert.Equal(t, def.MemoryKiB, p.MemoryKiB)
	assert.Equal(t, def.Parallelism, p.Parallelism)
	assert.Equal(t, def.SaltLength, p.SaltLength)
	assert.Equal(t, def.KeyLength, p.KeyLength)
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(fastParams())

	first, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	second, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotEqual(t, first, second, "salt must differ between calls")

	assert.True(t, h.Verify("correct horse battery staple", first))
	assert.True(t, h.Verify("correct horse battery staple", second))
	assert.False(t, h.Verify("correct horse battery stapler", first))
	assert.False(t, h.Verify("", first))
}

func TestHasher_EmptyPassword(t *testing.T) {
	h := NewHasher(fastParams())

	enc, err := h.Hash("")
	require.NoError(t, err)
	assert.True(t, h.Verify("", enc))
	assert.False(t, h.Verify(" ", enc))
}

func TestHasher_TooLong(t *testing.T) {
	h := NewHasher(fastParams())

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	enc, err := h.Hash(strings.Repeat("a", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("a", MaxPasswordBytes), enc))
	assert.False(t, h.Verify(strings.Repeat("a", MaxPasswordBytes+1), enc))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := NewHasher(fastParams())
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-hash",
		"wrong algo":     strings.Replace(good, "argon2id", "argon2i", 1),
		"wrong version":  strings.Replace(good, "v=19", "v=16", 1),
		"missing field":  strings.Join(parts[:5], "$"),
		"extra field":    good + "$extra",
		"bad params":     strings.Join([]string{"", parts[1], parts[2], "m=x,t=1,p=1", parts[4], parts[5]}, "$"),
		"params junk":    strings.Join([]string{"", parts[1], parts[2], parts[3] + "xyz", parts[4], parts[5]}, "$"),
		"leading zero":   strings.Join([]string{"", parts[1], parts[2], "m=08192,t=1,p=1", parts[4], parts[5]}, "$"),
		"zero memory":    strings.Join([]string{"", parts[1], parts[2], "m=0,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt b64":   strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!!", parts[5]}, "$"),
		"bad key b64":    strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], "@@@@"}, "$"),
		"short key":      strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], "AAAA"}, "$"),
		"bcrypt garbage": "$2b$10$tooshort",
	}

	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("pw", enc))
			})
		})
	}
}

func TestHasher_RejectsExcessiveParams(t *testing.T) {
	h := NewHasher(fastParams())
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	for _, params := range []string{
		fmt.Sprintf("m=%d,t=1,p=1", 4*1024*1024),
		"m=8192,t=1000,p=1",
		"m=8192,t=1,p=64",
	} {
		enc := strings.Join([]string{"", parts[1], parts[2], params, parts[4], parts[5]}, "$")
		assert.False(t, h.Verify("pw", enc), params)
	}
}

func TestHasher_LegacyBcrypt(t *testing.T) {
	h := NewHasher(fastParams())

	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Verify("hunter22", string(legacy)))
	assert.False(t, h.Verify("hunter23", string(legacy)))
	assert.True(t, h.NeedsRehash(string(legacy)))
}

func TestHasher_NeedsRehash(t *testing.T) {
	weak := NewHasher(fastParams())
	strong := NewHasher(Argon2idParams{MemoryKiB: 16 * 1024, Iterations: 2, Parallelism: 1})

	enc, err := weak.Hash("pw")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(enc))
	assert.True(t, strong.NeedsRehash(enc))
	assert.True(t, strong.Verify("pw", enc), "weaker hashes still verify")
	assert.False(t, strong.NeedsRehash("garbage"))

	moreLanes := NewHasher(Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 2})
	assert.True(t, moreLanes.NeedsRehash(enc), "parallelism is part of the cost")
}
