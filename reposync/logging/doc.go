// Package logging builds the process slog handler: a
// colored console handler (clog) or a JSON handler, both
// filtered through masq so tokens never reach the log.
package logging
