package git

import "context"

// Pattern: Strategy -- swap the hosting platform without
// changing the sync workflow.

// User is the account behind the forge token.
type User struct {
	Login string
	Email string
}

// PullRequest is an open pull (or merge) request.
type PullRequest struct {
	Number int
	URL    string
	Body   string
}

// NewPR describes a pull request to open.
type NewPR struct {
	Title string
	Body  string
	// Head is the branch carrying the changes.
	Head string
	// Base is the branch the changes target.
	Base string
}

// Forge talks to a git hosting platform. One Forge is
// shared by every target repository; calls are scoped by
// owner and name.
type Forge interface {
	// RemoteURL returns the credentialed clone and push
	// URL for a repository.
	RemoteURL(host string, owner string, name string) string

	// AuthenticatedUser returns the token owner.
	AuthenticatedUser(ctx context.Context) (User, error)

	// FindOpenPR returns the first open pull request
	// whose head is branch, or nil when there is none.
	FindOpenPR(
		ctx context.Context,
		owner string,
		name string,
		branch string,
	) (*PullRequest, error)

	CreatePR(
		ctx context.Context,
		owner string,
		name string,
		pr NewPR,
	) (*PullRequest, error)

	UpdatePRBody(
		ctx context.Context,
		owner string,
		name string,
		number int,
		body string,
	) (*PullRequest, error)

	AddLabels(
		ctx context.Context,
		owner string,
		name string,
		number int,
		labels []string,
	) error

	AddAssignees(
		ctx context.Context,
		owner string,
		name string,
		number int,
		assignees []string,
	) error
}
