// Package actions talks to the GitHub Actions runner
// through go-githubactions: it reads step inputs, writes
// step outputs and registers log masks. Outside a runner
// outputs are logged and masks printed to stdout.
package actions
