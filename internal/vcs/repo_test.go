package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRepoURL(t *testing.T) {
	t.Run("success - path and host are split", func(t *testing.T) {
		resolved, err := ResolveRepoURL("https://hg.mozilla.org/integration/b2g-inbound")

		assert.NoError(t, err)
		assert.Equal(t, "/integration/b2g-inbound", resolved.Path)
		assert.Equal(t, "https://hg.mozilla.org", resolved.Host)
	})

	t.Run("success - trailing slash is dropped", func(t *testing.T) {
		resolved, err := ResolveRepoURL("https://hg.mozilla.org/try/")

		assert.NoError(t, err)
		assert.Equal(t, "/try", resolved.Path)
		assert.Equal(t, "https://hg.mozilla.org", resolved.Host)
	})

	t.Run("success - root path resolves to empty string", func(t *testing.T) {
		resolved, err := ResolveRepoURL("https://hg.mozilla.org/")

		assert.NoError(t, err)
		assert.Equal(t, "", resolved.Path)
		assert.Equal(t, "https://hg.mozilla.org", resolved.Host)
	})

	t.Run("success - scheme defaults to http", func(t *testing.T) {
		resolved, err := ResolveRepoURL("hg.mozilla.org/try")

		assert.NoError(t, err)
		assert.Equal(t, "/try", resolved.Path)
		assert.Equal(t, "http://hg.mozilla.org", resolved.Host)
	})

	t.Run("success - port is kept on the host", func(t *testing.T) {
		resolved, err := ResolveRepoURL("http://localhost:8000/repo")

		assert.NoError(t, err)
		assert.Equal(t, "/repo", resolved.Path)
		assert.Equal(t, "http://localhost:8000", resolved.Host)
	})

	t.Run("success - resolving twice yields identical results", func(t *testing.T) {
		first, err1 := ResolveRepoURL("https://hg.mozilla.org/mozilla-central")
		second, err2 := ResolveRepoURL("https://hg.mozilla.org/mozilla-central")

		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.Equal(t, first, second)
	})
}
