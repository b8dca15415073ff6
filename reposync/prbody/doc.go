// Package prbody renders the text the sync writes to a
// target repository: commit messages, the per-file lines of
// the pull request body, the body itself and the warning
// banner shown while an open pull request is being resynced.
package prbody
