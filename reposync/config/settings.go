package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by the entry point.
const (
	DefaultConfigPath   = ".github/sync.yml"
	DefaultBranchPrefix = "repo-sync/SOURCE_REPO_NAME"
	DefaultLabel        = "sync"
	DefaultForge        = ForgeGitHub

	// Supported Forge values.
	ForgeGitHub = "github"
	ForgeGitLab = "gitlab"

	// GitLabHost is the public GitLab service.
	GitLabHost = "gitlab.com"

	// SourceRepoPlaceholder is substituted in the branch
	// prefix with the invoking repository's name.
	SourceRepoPlaceholder = "SOURCE_REPO_NAME"
)

var (
	// ErrMissingToken is returned when no forge token
	// is configured.
	ErrMissingToken = errors.New("GITHUB_TOKEN must be set")

	// ErrMissingSourceRepository is returned when the
	// invoking repository is unknown.
	ErrMissingSourceRepository = errors.New(
		"GITHUB_REPOSITORY must be set as owner/name",
	)

	// ErrMissingTmpDir is returned when no working
	// directory root can be chosen.
	ErrMissingTmpDir = errors.New("TMP_DIR must be set")
)

// Token is a forge access token. It has its own type so
// the log handler can redact it wherever it appears.
type Token string

// Settings holds the process inputs. Build it once at
// startup and pass it down; nothing reads the
// environment after that.
type Settings struct {
	Token       Token  `json:"token"`
	GitEmail    string `json:"git_email,omitempty"`
	GitUsername string `json:"git_username,omitempty"`
	ConfigPath  string `json:"config_path"`
	CommitBody  string `json:"commit_body,omitempty"`
	PRTitle     string `json:"pr_title,omitempty"`

	CommitEachFile bool     `json:"commit_each_file"`
	PRLabels       []string `json:"pr_labels,omitempty"`
	TargetBranch   string   `json:"target_branch,omitempty"`
	Assignees      []string `json:"assignees,omitempty"`
	TmpDir         string   `json:"tmp_dir"`

	DryRun              bool `json:"dry_run"`
	SkipCleanup         bool `json:"skip_cleanup"`
	OverwriteExistingPR bool `json:"overwrite_existing_pr"`
	SkipPR              bool `json:"skip_pr"`

	// SourceRepository is "owner/name" of the
	// repository running the sync.
	SourceRepository string `json:"source_repository"`
	BranchPrefix     string `json:"branch_prefix"`

	// Forge selects the API flavour: "github" or
	// "gitlab".
	Forge string `json:"forge"`
	// ForgeURL is the API base URL. Empty selects the
	// public service of the chosen forge.
	ForgeURL string `json:"forge_url,omitempty"`
	// RunID is the workflow run linked from PR bodies.
	RunID string `json:"run_id"`
}

// Validate reports missing required inputs.
func (s *Settings) Validate() error {
	const errCtx = "validating settings"

	if s.Token == "" {
		return fmt.Errorf("%s: %w", errCtx, ErrMissingToken)
	}

	if owner, name, ok := strings.Cut(
		s.SourceRepository, "/",
	); !ok || owner == "" || name == "" {
		return fmt.Errorf(
			"%s: %q: %w",
			errCtx, s.SourceRepository,
			ErrMissingSourceRepository,
		)
	}

	if s.TmpDir == "" {
		return fmt.Errorf("%s: %w", errCtx, ErrMissingTmpDir)
	}

	return nil
}

// SourceRepoName returns the name part of
// SourceRepository.
func (s *Settings) SourceRepoName() string {
	_, name, _ := strings.Cut(s.SourceRepository, "/")

	return name
}

// RepoHost returns the host "user/name" locators resolve
// to: the ForgeURL host when set, else the public service
// of the selected forge.
func (s *Settings) RepoHost() string {
	if s.ForgeURL != "" {
		if u, err := url.Parse(s.ForgeURL); err == nil && u.Host != "" {
			return u.Host
		}
	}

	if s.Forge == ForgeGitLab {
		return GitLabHost
	}

	return DefaultHost
}

// Title returns the configured PR title or the default
// one derived from the source repository.
func (s *Settings) Title() string {
	if s.PRTitle != "" {
		return s.PRTitle
	}

	return "Synced file(s) with " + s.SourceRepository
}

// DefaultTmpDir returns a timestamp based directory
// name.
func DefaultTmpDir(now time.Time) string {
	return "tmp-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// ResolveTmpDir returns dir, or a fresh timestamp based
// name while dir already exists.
func ResolveTmpDir(dir string, now func() time.Time) string {
	// The offset keeps the loop moving when the clock
	// has not ticked since the previous attempt.
	for i := 0; exists(dir); i++ {
		dir = DefaultTmpDir(
			now().Add(time.Duration(i) * time.Millisecond),
		)

		slog.Warn(
			"TMP_DIR already exists, using a new one",
			"tmp_dir", dir,
		)
	}

	return dir
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// ParseList splits a list input on newlines and commas,
// trimming blanks. The single value "false" disables
// the list and yields nil.
func ParseList(raw string) []string {
	if strings.EqualFold(strings.TrimSpace(raw), "false") {
		return nil
	}

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ','
	})

	var out []string

	for _, fl := range fields {
		if fl = strings.TrimSpace(fl); fl != "" {
			out = append(out, fl)
		}
	}

	return out
}
