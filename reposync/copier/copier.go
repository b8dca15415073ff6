package copier

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	gitDir  = ".git"
	dirPerm = 0o755
)

// Copy copies src to dest. When isDir is true src is
// copied recursively and files present only under dest
// are removed afterwards. Paths listed in exclude (and
// anything below them) are never copied.
//
// A missing src is an error; callers check existence
// first.
func Copy(
	src string,
	dest string,
	isDir bool,
	exclude []string,
) error {
	const errCtx = "copying"

	slog.Debug("copy", "src", src, "dest", dest)

	ex := newExcluder(exclude)

	if !isDir {
		if ex.match(src) {
			slog.Debug("excluding file", "path", src)

			return nil
		}

		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		return nil
	}

	if err := copyTree(src, dest, ex); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := mirrorDeletions(src, dest); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// copyTree merges the src tree into dest.
func copyTree(src string, dest string, ex excluder) error {
	const errCtx = "copying tree"

	err := filepath.WalkDir(
		src,
		func(path string, de fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if path != src && ex.match(path) {
				slog.Debug("excluding file", "path", path)

				if de.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}

			target := filepath.Join(dest, rel)

			switch {
			case de.IsDir():
				if err := unlinkSpecial(target); err != nil {
					return err
				}

				return os.MkdirAll(target, dirPerm)
			case de.Type()&fs.ModeSymlink != 0:
				return copySymlink(path, target)
			default:
				return copyFile(path, target)
			}
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// copyFile writes src over dest, creating parents. An
// identical dest is left untouched.
func copyFile(src string, dest string) (retErr error) {
	const errCtx = "copying file"

	same, err := sameContent(src, dest)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if same {
		slog.Debug("file unchanged", "path", dest)

		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := unlinkSpecial(dest); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	in, err := os.Open(src) //nolint:gosec // paths come from the sync config
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer in.Close() //nolint:errcheck

	//nolint:gosec // mode mirrors the source file
	out, err := os.OpenFile(
		dest,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		info.Mode().Perm(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, dest, err)
	}

	// OpenFile only applies the mode on creation.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// unlinkSpecial removes path when it is neither a regular
// file nor a directory, so writes never follow a symlink
// out of the destination tree.
func unlinkSpecial(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if info.Mode().IsRegular() || info.IsDir() {
		return nil
	}

	slog.Debug("removing non regular destination", "path", path)

	return os.Remove(path)
}

func copySymlink(src string, dest string) error {
	const errCtx = "copying symlink"

	link, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if current, err := os.Readlink(dest); err == nil && current == link {
		return nil
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.Symlink(link, dest); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// mirrorDeletions removes files under dest that have no
// counterpart under src. The comparison runs on the full
// source listing, so excluded files already present on
// the destination side are kept.
func mirrorDeletions(src string, dest string) error {
	const errCtx = "mirroring deletions"

	srcFiles, err := listFiles(src)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	destFiles, err := listFiles(dest)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, rel := range destFiles {
		if _, found := slices.BinarySearch(srcFiles, rel); found {
			continue
		}

		path := filepath.Join(dest, rel)

		slog.Debug(
			"found a deleted file in the source repo",
			"path", path,
		)

		if err := os.Remove(path); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// listFiles returns the sorted non-directory paths under
// root, relative to root. The .git directory is skipped.
func listFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(
		root,
		func(path string, de fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if de.IsDir() {
				if de.Name() == gitDir && path != root {
					return filepath.SkipDir
				}

				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			files = append(files, rel)

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	slices.Sort(files)

	return files, nil
}

// excluder matches paths against an exclusion list.
type excluder []string

func newExcluder(paths []string) excluder {
	ex := make(excluder, 0, len(paths))

	for _, p := range paths {
		ex = append(ex, filepath.Clean(p))
	}

	return ex
}

func (ex excluder) match(path string) bool {
	path = filepath.Clean(path)

	for _, p := range ex {
		if path == p ||
			strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
