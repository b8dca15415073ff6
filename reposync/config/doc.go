// Package config loads the sync configuration and the process settings.
//
// The sync configuration is a YAML document whose top-level keys are either
// repository locators ("host/user/name@branch" or a full URL) mapped to file
// lists, or the literal key "group" holding one or more {repos, files}
// objects. Parse resolves every entry shape once into Target values, merging
// entries that point at the same repository and branch.
//
// Settings carries the process inputs (token, identity, PR options) and is
// built by the entry point, then passed explicitly to the other packages.
package config
