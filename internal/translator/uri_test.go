// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package translator

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	assert.Equal(t, "dleyna://media1", Compose("media1", ""))
	assert.Equal(t, "dleyna://uuid:0001-aa/12/34", Compose("uuid:0001-aa", "12/34"))
	assert.Equal(t, "dleyna://odd%2Fudn%3F/a%20b", Compose("odd/udn?", "a b"))
	assert.Equal(t, "dleyna:", URI{}.String())
}

func TestDecomposeComposeRoundTrip(t *testing.T) {
	udns := []string{"media1", "uuid:4d696e69-444c-164e-9d41-b827eb2cbd1c", "a b/c?d#e%f", "ünïcode"}
	paths := []string{"", "0", "12/34/56", "a b", "odd?/x#y", "%41", "x//y", "ü/ß"}
	for _, udn := range udns {
		for _, p := range paths {
			u, err := Decompose(Compose(udn, p))
			require.NoError(t, err, "%q %q", udn, p)
			assert.Equal(t, udn, u.UDN)
			assert.Equal(t, p, u.Path)
			assert.Empty(t, u.RawQuery)
		}
	}
}

func TestDecompose_Root(t *testing.T) {
	u, err := Decompose(RootURI)
	require.NoError(t, err)
	assert.True(t, u.IsRoot())
	assert.True(t, IsRoot("dleyna:"))
	assert.False(t, IsRoot("dleyna://media1"))
	assert.False(t, IsRoot("dleyna:?any=foo"))

	u, err = Decompose(SearchURI(url.Values{"any": {"foo"}}))
	require.NoError(t, err)
	assert.True(t, u.IsRoot())
	assert.Equal(t, "any=foo", u.RawQuery)
}

func TestDecompose_Invalid(t *testing.T) {
	for _, s := range []string{"", "http://x", "dleyna:/x", "dleyna://", "dleyna://%zz/a", "dleyna://h/%zz"} {
		_, err := Decompose(s)
		assert.ErrorIs(t, err, ErrInvalidURI, s)
	}
}

func TestComposeFilter(t *testing.T) {
	s := ComposeFilter("media1", "7", `Album = "A & B?"`)
	u, err := Decompose(s)
	require.NoError(t, err)
	assert.Equal(t, "media1", u.UDN)
	assert.Equal(t, "7", u.Path)
	f, err := u.Filter()
	require.NoError(t, err)
	assert.Equal(t, `Album = "A & B?"`, f)

	f, err = URI{UDN: "x"}.Filter()
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestRelPath(t *testing.T) {
	const root = "/com/intel/dLeynaServer/server/0"
	for _, rel := range []string{"", "1", "1/2/3"} {
		got, err := RelPath(root, JoinPath(root, rel))
		require.NoError(t, err)
		assert.Equal(t, rel, got)
	}
	_, err := RelPath(root, "/com/intel/dLeynaServer/server/01/5")
	assert.ErrorIs(t, err, ErrPathOutsideRoot)
	_, err = RelPath(root, "/elsewhere")
	assert.ErrorIs(t, err, ErrPathOutsideRoot)
}
