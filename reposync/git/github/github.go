package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/repo_sync/reposync/git"
)

// ErrMissingToken is returned by NewProvider when no
// access token is configured.
var ErrMissingToken = errors.New("access token must be set")

// Config holds the settings needed to create a GitHub
// provider.
type Config struct {
	// AccessToken is a personal access token or
	// workflow token used for API calls and pushes.
	AccessToken string
	// APIURL is an optional GitHub Enterprise API base
	// URL (e.g. "https://git.corp.example.com/api/v3/").
	// Leave empty for github.com.
	APIURL string
}

// Provider talks to the GitHub REST API.
//
// Pattern: Strategy -- implements git.Forge.
type Provider struct {
	client *gh.Client
	token  string
}

var _ git.Forge = (*Provider)(nil)

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", errCtx, ErrMissingToken)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.APIURL != "" {
		var err error

		client, err = client.WithEnterpriseURLs(
			cfg.APIURL, cfg.APIURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client: client,
		token:  cfg.AccessToken,
	}, nil
}

// RemoteURL returns an HTTPS URL carrying the token.
func (p *Provider) RemoteURL(
	host string,
	owner string,
	name string,
) string {
	return "https://" + p.token + "@" +
		host + "/" + owner + "/" + name + ".git"
}

// AuthenticatedUser returns the login and public email
// of the token owner.
func (p *Provider) AuthenticatedUser(
	ctx context.Context,
) (git.User, error) {
	const errCtx = "getting authenticated user"

	user, err := guard(
		ctx, "get user",
		func() (*gh.User, *gh.Response, error) {
			return p.client.Users.Get(ctx, "")
		},
	)
	if err != nil {
		return git.User{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return git.User{
		Login: user.GetLogin(),
		Email: user.GetEmail(),
	}, nil
}

// FindOpenPR returns the first open pull request whose
// head is owner:branch.
func (p *Provider) FindOpenPR(
	ctx context.Context,
	owner string,
	name string,
	branch string,
) (*git.PullRequest, error) {
	const errCtx = "finding open pull request"

	opts := &gh.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + branch,
	}

	prs, err := guard(
		ctx, "list pull requests",
		func() ([]*gh.PullRequest, *gh.Response, error) {
			return p.client.PullRequests.List(
				ctx, owner, name, opts,
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(prs) == 0 {
		return nil, nil //nolint:nilnil // none open
	}

	return toPullRequest(prs[0]), nil
}

// CreatePR opens a pull request.
func (p *Provider) CreatePR(
	ctx context.Context,
	owner string,
	name string,
	pr git.NewPR,
) (*git.PullRequest, error) {
	const errCtx = "creating github pull request"

	newPR := &gh.NewPullRequest{
		Title: gh.Ptr(pr.Title),
		Head:  gh.Ptr(pr.Head),
		Base:  gh.Ptr(pr.Base),
		Body:  gh.Ptr(pr.Body),
	}

	created, err := guard(
		ctx, "create pull request",
		func() (*gh.PullRequest, *gh.Response, error) {
			return p.client.PullRequests.Create(
				ctx, owner, name, newPR,
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return toPullRequest(created), nil
}

// UpdatePRBody replaces the body of pull request number.
func (p *Provider) UpdatePRBody(
	ctx context.Context,
	owner string,
	name string,
	number int,
	body string,
) (*git.PullRequest, error) {
	const errCtx = "updating github pull request"

	edit := &gh.PullRequest{Body: gh.Ptr(body)}

	updated, err := guard(
		ctx, "update pull request",
		func() (*gh.PullRequest, *gh.Response, error) {
			return p.client.PullRequests.Edit(
				ctx, owner, name, number, edit,
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %d: %w", errCtx, number, err)
	}

	return toPullRequest(updated), nil
}

// AddLabels attaches labels to pull request number.
func (p *Provider) AddLabels(
	ctx context.Context,
	owner string,
	name string,
	number int,
	labels []string,
) error {
	const errCtx = "adding labels"

	_, err := guard(
		ctx, "add labels",
		func() ([]*gh.Label, *gh.Response, error) {
			return p.client.Issues.AddLabelsToIssue(
				ctx, owner, name, number, labels,
			)
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %d: %w", errCtx, number, err)
	}

	return nil
}

// AddAssignees assigns users to pull request number.
func (p *Provider) AddAssignees(
	ctx context.Context,
	owner string,
	name string,
	number int,
	assignees []string,
) error {
	const errCtx = "adding assignees"

	_, err := guard(
		ctx, "add assignees",
		func() (*gh.Issue, *gh.Response, error) {
			return p.client.Issues.AddAssignees(
				ctx, owner, name, number, assignees,
			)
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %d: %w", errCtx, number, err)
	}

	return nil
}

func toPullRequest(pr *gh.PullRequest) *git.PullRequest {
	return &git.PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Body:   pr.GetBody(),
	}
}
