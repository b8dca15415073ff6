// Package gitlab implements git.Forge on GitLab with the
// official client-go SDK. Merge requests stand in for pull
// requests: the MR IID is the number, the description is
// the body.
package gitlab
