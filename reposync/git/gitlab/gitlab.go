package gitlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/repo_sync/reposync/git"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "https://gitlab.com"

// ErrMissingToken is returned by NewProvider when no
// access token is configured.
var ErrMissingToken = errors.New("access token must be set")

// Config holds the settings needed to create a GitLab
// merge request provider.
type Config struct {
	// BaseURL is the URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	BaseURL string
	// AccessToken is a personal or project access
	// token used for API calls and pushes.
	AccessToken string
}

// Provider talks to the GitLab REST API.
//
// Pattern: Strategy -- implements git.Forge.
type Provider struct {
	client *gl.Client
	token  string
}

var _ git.Forge = (*Provider)(nil)

// NewProvider validates cfg and returns a Provider. A
// 429 answer is retried once by the client.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", errCtx, ErrMissingToken)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(baseURL),
		gl.WithCustomRetryMax(1),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		token:  cfg.AccessToken,
	}, nil
}

// RemoteURL returns an HTTPS URL carrying the token as
// oauth2 credentials.
func (p *Provider) RemoteURL(
	host string,
	owner string,
	name string,
) string {
	return "https://oauth2:" + p.token + "@" +
		host + "/" + owner + "/" + name + ".git"
}

// AuthenticatedUser returns the username and email of
// the token owner.
func (p *Provider) AuthenticatedUser(
	ctx context.Context,
) (git.User, error) {
	const errCtx = "getting authenticated user"

	user, _, err := p.client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return git.User{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	email := user.Email
	if email == "" {
		email = user.PublicEmail
	}

	return git.User{
		Login: user.Username,
		Email: email,
	}, nil
}

// FindOpenPR returns the first opened merge request from
// branch.
func (p *Provider) FindOpenPR(
	ctx context.Context,
	owner string,
	name string,
	branch string,
) (*git.PullRequest, error) {
	const errCtx = "finding open merge request"

	mrs, _, err := p.client.MergeRequests.ListProjectMergeRequests(
		projectID(owner, name),
		&gl.ListProjectMergeRequestsOptions{
			State:        gl.Ptr("opened"),
			SourceBranch: gl.Ptr(branch),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(mrs) == 0 {
		return nil, nil //nolint:nilnil // none open
	}

	return toPullRequest(mrs[0]), nil
}

// CreatePR opens a merge request.
func (p *Provider) CreatePR(
	ctx context.Context,
	owner string,
	name string,
	pr git.NewPR,
) (*git.PullRequest, error) {
	const errCtx = "creating gitlab merge request"

	created, _, err := p.client.MergeRequests.CreateMergeRequest(
		projectID(owner, name),
		&gl.CreateMergeRequestOptions{
			Title:        gl.Ptr(pr.Title),
			Description:  gl.Ptr(pr.Body),
			SourceBranch: gl.Ptr(pr.Head),
			TargetBranch: gl.Ptr(pr.Base),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Debug("created merge request", "url", created.WebURL)

	return toPullRequest(&created.BasicMergeRequest), nil
}

// UpdatePRBody replaces the description of merge request
// number.
func (p *Provider) UpdatePRBody(
	ctx context.Context,
	owner string,
	name string,
	number int,
	body string,
) (*git.PullRequest, error) {
	const errCtx = "updating gitlab merge request"

	updated, err := p.update(
		ctx, owner, name, number,
		&gl.UpdateMergeRequestOptions{Description: gl.Ptr(body)},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return toPullRequest(&updated.BasicMergeRequest), nil
}

// AddLabels adds labels to merge request number, keeping
// the ones already set.
func (p *Provider) AddLabels(
	ctx context.Context,
	owner string,
	name string,
	number int,
	labels []string,
) error {
	const errCtx = "adding labels"

	add := gl.LabelOptions(labels)

	if _, err := p.update(
		ctx, owner, name, number,
		&gl.UpdateMergeRequestOptions{AddLabels: &add},
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// AddAssignees resolves usernames to user IDs and adds
// them to the current assignees of merge request number.
// Unknown usernames are logged and skipped.
func (p *Provider) AddAssignees(
	ctx context.Context,
	owner string,
	name string,
	number int,
	assignees []string,
) error {
	const errCtx = "adding assignees"

	mr, _, err := p.client.MergeRequests.GetMergeRequest(
		projectID(owner, name), int64(number), nil,
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ids := make([]int64, 0, len(mr.Assignees)+len(assignees))

	for _, u := range mr.Assignees {
		ids = append(ids, u.ID)
	}

	for _, username := range assignees {
		id, err := p.userID(ctx, username)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if id == 0 {
			slog.Warn("unknown assignee", "username", username)

			continue
		}

		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	if _, err := p.update(
		ctx, owner, name, number,
		&gl.UpdateMergeRequestOptions{AssigneeIDs: &ids},
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func (p *Provider) update(
	ctx context.Context,
	owner string,
	name string,
	number int,
	opts *gl.UpdateMergeRequestOptions,
) (*gl.MergeRequest, error) {
	mr, _, err := p.client.MergeRequests.UpdateMergeRequest(
		projectID(owner, name), int64(number), opts,
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("merge request %d: %w", number, err)
	}

	return mr, nil
}

// userID returns the ID of username, or 0 when no such
// user exists.
func (p *Provider) userID(
	ctx context.Context,
	username string,
) (int64, error) {
	users, _, err := p.client.Users.ListUsers(
		&gl.ListUsersOptions{Username: gl.Ptr(username)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("looking up user %s: %w", username, err)
	}

	if len(users) == 0 {
		return 0, nil
	}

	return users[0].ID, nil
}

func projectID(owner string, name string) string {
	return owner + "/" + name
}

func toPullRequest(mr *gl.BasicMergeRequest) *git.PullRequest {
	return &git.PullRequest{
		Number: int(mr.IID),
		URL:    mr.WebURL,
		Body:   mr.Description,
	}
}
