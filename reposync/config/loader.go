package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	groupKey       = "group"
	replaceDefault = true
)

// ErrInvalidGroup is returned for a "group" entry that is
// neither an object nor a list of objects.
var ErrInvalidGroup = errors.New("invalid group entry")

// File is one source to destination copy rule.
type File struct {
	// Source is the path in the invoking repository.
	Source string
	// Dest is the path inside the target repository.
	Dest string
	// Replace allows overwriting an existing Dest.
	Replace bool
	// Exclude lists source paths (already joined with
	// Source) that must not be copied.
	Exclude []string
}

// Target is a repository with the files to sync into it.
type Target struct {
	Repo  Repo
	Files []File
}

// Load reads and parses the sync configuration at path.
// defaultHost is passed to ParseRepo.
func Load(path string, defaultHost string) ([]Target, error) {
	const errCtx = "loading sync config"

	data, err := os.ReadFile(path) //nolint:gosec // path comes from settings
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	targets, err := Parse(data, defaultHost)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return targets, nil
}

// Parse decodes a sync configuration document. Targets
// come out in first-seen order; entries sharing a
// UniqueName have their file lists concatenated.
// "user/name" locators resolve to defaultHost.
func Parse(data []byte, defaultHost string) ([]Target, error) {
	const errCtx = "parsing sync config"

	var doc yaml.MapSlice

	if err := yaml.UnmarshalWithOptions(
		data, &doc, yaml.UseOrderedMap(),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var mg merger

	for _, item := range doc {
		key := fmt.Sprint(item.Key)

		if key != groupKey {
			repo, err := ParseRepo(key, defaultHost)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", errCtx, err)
			}

			mg.add(repo, parseFiles(item.Value))

			continue
		}

		groups, err := parseGroups(item.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		for _, grp := range groups {
			for _, name := range grp.repos {
				repo, err := ParseRepo(name, defaultHost)
				if err != nil {
					return nil, fmt.Errorf(
						"%s: group: %w", errCtx, err,
					)
				}

				mg.add(repo, parseFiles(grp.files))
			}
		}
	}

	return mg.targets, nil
}

// merger accumulates targets keyed by UniqueName while
// keeping insertion order.
type merger struct {
	targets []Target
	index   map[string]int
}

func (m *merger) add(repo Repo, files []File) {
	if m.index == nil {
		m.index = make(map[string]int)
	}

	key := repo.UniqueName()

	if i, ok := m.index[key]; ok {
		m.targets[i].Files = append(m.targets[i].Files, files...)

		return
	}

	m.index[key] = len(m.targets)
	m.targets = append(m.targets, Target{
		Repo:  repo,
		Files: slices.Clone(files),
	})
}

type group struct {
	repos []string
	files any
}

// parseGroups accepts a single group object or a list of
// them.
func parseGroups(raw any) ([]group, error) {
	var items []any

	switch val := raw.(type) {
	case yaml.MapSlice:
		items = []any{val}
	case []any:
		items = val
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidGroup, raw)
	}

	groups := make([]group, 0, len(items))

	for _, it := range items {
		obj, ok := it.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrInvalidGroup, it)
		}

		repos, _ := lookup(obj, "repos")
		files, _ := lookup(obj, "files")

		groups = append(groups, group{
			repos: stringList(repos),
			files: files,
		})
	}

	return groups, nil
}

// parseFiles normalizes a file list. Malformed entries
// are skipped with a warning.
func parseFiles(raw any) []File {
	list, ok := raw.([]any)
	if !ok {
		if raw != nil {
			slog.Warn("file list is not a sequence", "value", raw)
		}

		return nil
	}

	files := make([]File, 0, len(list))

	for _, item := range list {
		switch val := item.(type) {
		case string:
			files = append(files, File{
				Source:  val,
				Dest:    val,
				Replace: replaceDefault,
			})
		case yaml.MapSlice:
			fl, ok := parseFileObject(val)
			if !ok {
				slog.Warn("no source files specified")

				continue
			}

			files = append(files, fl)
		default:
			slog.Warn("unsupported file entry", "value", item)
		}
	}

	return files
}

func parseFileObject(obj yaml.MapSlice) (File, bool) {
	src, _ := lookup(obj, "source")

	source, ok := src.(string)
	if !ok || source == "" {
		return File{}, false
	}

	fl := File{
		Source:  source,
		Dest:    source,
		Replace: replaceDefault,
	}

	if dst, ok := lookup(obj, "dest"); ok {
		if dest, isStr := dst.(string); isStr && dest != "" {
			fl.Dest = dest
		}
	}

	if rep, ok := lookup(obj, "replace"); ok {
		if replace, isBool := rep.(bool); isBool {
			fl.Replace = replace
		}
	}

	if exc, ok := lookup(obj, "exclude"); ok {
		for _, name := range stringList(exc) {
			fl.Exclude = append(
				fl.Exclude, filepath.Join(source, name),
			)
		}
	}

	return fl, true
}

// stringList reads a newline-delimited string or a
// sequence of scalars. Blank entries are dropped.
func stringList(raw any) []string {
	var out []string

	switch val := raw.(type) {
	case string:
		for _, line := range strings.Split(val, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case []any:
		for _, it := range val {
			if it == nil {
				continue
			}

			if s := strings.TrimSpace(fmt.Sprint(it)); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}

func lookup(obj yaml.MapSlice, key string) (any, bool) {
	for _, item := range obj {
		if fmt.Sprint(item.Key) == key {
			return item.Value, true
		}
	}

	return nil, false
}
