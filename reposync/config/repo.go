package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

const (
	// DefaultHost is the host of "user/name" locators
	// when the forge does not name another one.
	DefaultHost = "github.com"

	// DefaultBranch marks a locator without an explicit
	// branch: the clone follows the remote HEAD.
	DefaultBranch = "default"
)

// ErrInvalidRepo is returned for locators missing a
// user or a repository name.
var ErrInvalidRepo = errors.New("invalid repository locator")

// Repo identifies a target repository and branch.
type Repo struct {
	Host   string
	User   string
	Name   string
	Branch string
}

// FullName returns "host/user/name".
func (r Repo) FullName() string {
	return r.Host + "/" + r.User + "/" + r.Name
}

// UniqueName returns "host/user/name@branch", the key
// used to merge config entries.
func (r Repo) UniqueName() string {
	return r.FullName() + "@" + r.Branch
}

// HasBranch reports whether the locator pins a branch.
func (r Repo) HasBranch() bool {
	return r.Branch != DefaultBranch
}

// ParseRepo parses a locator. Accepted forms are
// "user/name", "host/user/name" and a full URL such as
// "https://git.example.com/user/name", each with an
// optional "@branch" suffix. defaultHost applies to the
// "user/name" form; empty means DefaultHost.
func ParseRepo(locator string, defaultHost string) (Repo, error) {
	const errCtx = "parsing repository"

	locator = strings.TrimSpace(locator)

	host := defaultHost
	if host == "" {
		host = DefaultHost
	}
	path := locator
	isURL := strings.HasPrefix(locator, "http")

	if isURL {
		u, err := url.Parse(locator)
		if err != nil {
			return Repo{}, fmt.Errorf(
				"%s: %q: %w", errCtx, locator, err,
			)
		}

		host = u.Host
		path = strings.Trim(u.Path, "/")

		slog.Info("using custom host", "host", host)
	}

	// The branch may itself contain slashes.
	path, branch, _ := strings.Cut(path, "@")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 3 && !isURL:
		host = parts[0]
		parts = parts[1:]
	case len(parts) != 2:
		return Repo{}, fmt.Errorf(
			"%s: %q: %w", errCtx, locator, ErrInvalidRepo,
		)
	}

	if parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf(
			"%s: %q: %w", errCtx, locator, ErrInvalidRepo,
		)
	}

	if branch == "" {
		branch = DefaultBranch
	}

	return Repo{
		Host:   host,
		User:   parts[0],
		Name:   parts[1],
		Branch: branch,
	}, nil
}
