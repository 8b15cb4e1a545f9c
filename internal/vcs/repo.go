package vcs

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolvedRepo holds the pieces of a repository URL that template URL
// patterns are built from.
type ResolvedRepo struct {
	Path string
	Host string
}

// ResolveRepoURL splits a repository URL into its path and host. Host
// keeps the scheme, defaulting to http when the URL carries none. Path is
// the path component without a trailing slash, empty for the repository
// root.
func ResolveRepoURL(rawURL string) (ResolvedRepo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ResolvedRepo{}, fmt.Errorf("unparsable repository url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		// scheme-less URLs parse as a bare path
		u, err = url.Parse("http://" + rawURL)
		if err != nil {
			return ResolvedRepo{}, fmt.Errorf("unparsable repository url %q: %w", rawURL, err)
		}
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	return ResolvedRepo{
		Path: strings.TrimSuffix(u.Path, "/"),
		Host: scheme + "://" + u.Host,
	}, nil
}
