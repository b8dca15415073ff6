package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/byte4ever/repo_sync/reposync/git"
)

var errUnknownPR = errors.New("unknown pull request")

// fakeForge serves bare repositories from the local
// filesystem and keeps pull requests in memory.
type fakeForge struct {
	mu sync.Mutex

	// remotes maps "owner/name" to a bare repository
	// path.
	remotes map[string]string
	user    git.User

	// prs maps head branches to open pull requests.
	prs       map[string]*git.PullRequest
	created   []git.NewPR
	updates   []string
	labels    map[int][]string
	assignees map[int][]string
	nextID    int
}

var _ git.Forge = (*fakeForge)(nil)

func newFakeForge() *fakeForge {
	return &fakeForge{
		remotes:   map[string]string{},
		user:      git.User{Login: "sync-bot", Email: "bot@example.com"},
		prs:       map[string]*git.PullRequest{},
		labels:    map[int][]string{},
		assignees: map[int][]string{},
		nextID:    1,
	}
}

func (f *fakeForge) RemoteURL(_ string, owner string, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, ok := f.remotes[owner+"/"+name]
	if !ok {
		return "file:///nonexistent/" + owner + "/" + name
	}

	return "file://" + path
}

func (f *fakeForge) AuthenticatedUser(context.Context) (git.User, error) {
	return f.user, nil
}

func (f *fakeForge) FindOpenPR(
	_ context.Context,
	_ string,
	_ string,
	branch string,
) (*git.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr, ok := f.prs[branch]
	if !ok {
		return nil, nil //nolint:nilnil // none open
	}

	cp := *pr

	return &cp, nil
}

func (f *fakeForge) CreatePR(
	_ context.Context,
	_ string,
	_ string,
	pr git.NewPR,
) (*git.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, pr)

	created := &git.PullRequest{
		Number: f.nextID,
		URL:    fmt.Sprintf("https://forge.test/pull/%d", f.nextID),
		Body:   pr.Body,
	}
	f.nextID++
	f.prs[pr.Head] = created

	cp := *created

	return &cp, nil
}

func (f *fakeForge) UpdatePRBody(
	_ context.Context,
	_ string,
	_ string,
	number int,
	body string,
) (*git.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, pr := range f.prs {
		if pr.Number == number {
			pr.Body = body
			f.updates = append(f.updates, body)

			cp := *pr

			return &cp, nil
		}
	}

	return nil, errUnknownPR
}

func (f *fakeForge) AddLabels(
	_ context.Context,
	_ string,
	_ string,
	number int,
	labels []string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.labels[number] = append(f.labels[number], labels...)

	return nil
}

func (f *fakeForge) AddAssignees(
	_ context.Context,
	_ string,
	_ string,
	number int,
	assignees []string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.assignees[number] = append(f.assignees[number], assignees...)

	return nil
}

func (f *fakeForge) pr(branch string) *git.PullRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.prs[branch]
}

// recorder collects step outputs. onSet, when set, runs
// before each output is stored.
type recorder struct {
	mu      sync.Mutex
	outputs map[string]string
	onSet   func(name string, value string)
}

func (r *recorder) SetOutput(name string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.onSet != nil {
		r.onSet(name, value)
	}

	if r.outputs == nil {
		r.outputs = map[string]string{}
	}

	r.outputs[name] = value

	return nil
}
