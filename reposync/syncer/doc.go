// Package syncer drives a sync run. For every target
// repository it clones the repository, copies the configured
// files from the source checkout, commits, force pushes a
// pull request branch and creates or updates the pull
// request through a git.Forge.
//
// Targets are processed one at a time in config order. A
// failure is logged and the run moves on to the next
// target; Run reports the tally in a Result.
package syncer
