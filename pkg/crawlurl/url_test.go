package crawlurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"root", "ftp://example.com/", "ftp://example.com/"},
		{"root no slash", "ftp://example.com", "ftp://example.com/"},
		{"deep path", "ftp://example.com/pub/linux/", "ftp://example.com/pub/linux"},
		{"deep path no trailing slash", "ftp://example.com/pub/linux", "ftp://example.com/pub/linux"},
		{"file scheme", "file:///var/ftp/pub/", "file:///var/ftp/pub"},
		{"auth and port", "ftp://anon:pw@example.com:2121/pub", "ftp://anon:pw@example.com:2121/pub"},
		{"non-ascii", "ftp://example.com/espa%C3%B1ol", "ftp://example.com/espa%C3%B1ol"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u, err := Parse(c.raw, false)
			require.NoError(t, err)
			assert.Equal(t, c.want, u.String())

			again, err := Parse(u.String(), u.IsRoot)
			require.NoError(t, err)
			assert.Equal(t, u.String(), again.String())
		})
	}
}

func TestParseCP1252Fallback(t *testing.T) {
	// 0xE9 is not valid standalone UTF-8 but decodes as 'é' under CP1252.
	raw := "ftp://example.com/caf\xe9"
	u, err := Parse(raw, false)
	require.NoError(t, err)
	assert.Contains(t, u.Path, "é")
}

func TestJoinIndependentOfTrailingSlash(t *testing.T) {
	withSlash, err := Parse("ftp://example.com/pub/", false)
	require.NoError(t, err)
	withoutSlash, err := Parse("ftp://example.com/pub", false)
	require.NoError(t, err)

	assert.Equal(t, withSlash.Join("linux").String(), withoutSlash.Join("linux").String())
	assert.Equal(t, "ftp://example.com/pub/linux", withSlash.Join("linux").String())
	assert.False(t, withSlash.Join("linux").IsRoot)
}

func TestJoinFromRoot(t *testing.T) {
	root, err := Parse("ftp://example.com/", true)
	require.NoError(t, err)
	child := root.Join("pub")
	assert.Equal(t, "ftp://example.com/pub", child.String())
}

func TestDirnameBasename(t *testing.T) {
	u, err := Parse("ftp://example.com/pub/linux", false)
	require.NoError(t, err)
	assert.Equal(t, "/pub", u.Dirname())
	assert.Equal(t, "linux", u.Basename())

	root, err := Parse("ftp://example.com/", true)
	require.NoError(t, err)
	assert.Equal(t, "/", root.Dirname())
	assert.Equal(t, "/", root.Basename())
}

func TestParseRejectsMissingScheme(t *testing.T) {
	_, err := Parse("example.com/pub", false)
	assert.Error(t, err)
}
