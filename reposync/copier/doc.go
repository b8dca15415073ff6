// Package copier copies files and directories from the source repository
// into a target working copy. Directory copies mirror deletions: files that
// only exist on the destination side are removed so the destination tree
// matches the source tree. Exclusion lists skip source paths entirely.
package copier
