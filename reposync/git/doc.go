// Package git drives a local git clone through the git
// binary and defines the Forge strategy interface used to
// open pull requests on a hosting platform.
//
// Repo wraps a shallow clone with the handful of commands
// the sync needs: identity, branching, staging, commits
// and force pushes. Every command goes through an
// exec.Runner so the credentialed remote URL never
// reaches the logs.
//
// Forge implementations live in the github and gitlab
// sub-packages.
package git
