// Package github implements git.Forge on GitHub and GitHub
// Enterprise with go-github. Every API call runs through
// a guard that retries once after a primary rate limit
// resets and logs, without retrying, secondary (abuse)
// limits.
package github
