package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"

	"github.com/byte4ever/repo_sync/reposync/config"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidOption is returned for an unknown format or
// level.
var ErrInvalidOption = errors.New("invalid logging option")

// Options selects the handler.
type Options struct {
	// Format is FormatText or FormatJSON.
	Format string
	// Level is debug, info, warn or error.
	Level string
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// Secrets are redacted from any attribute or
	// message containing them.
	Secrets []string
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New returns a logger configured by opts.
func New(opts Options) (*slog.Logger, error) {
	const errCtx = "configuring logging"

	level, ok := levels[strings.ToLower(opts.Level)]
	if !ok {
		return nil, fmt.Errorf(
			"%s: level %q: %w", errCtx, opts.Level, ErrInvalidOption,
		)
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	filter := newFilter(opts.Secrets)

	var handler slog.Handler

	switch opts.Format {
	case FormatText, "":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgGreen, color.Bold),
					slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgBlue, color.Bold),
				Time:         color.New(color.FgWhite),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
			clog.WithReplaceAttr(filter),
		)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		return nil, fmt.Errorf(
			"%s: format %q: %w", errCtx, opts.Format, ErrInvalidOption,
		)
	}

	return slog.New(handler), nil
}

// newFilter redacts config.Token values wherever they
// appear and any string containing one of secrets.
func newFilter(
	secrets []string,
) func(groups []string, a slog.Attr) slog.Attr {
	masqOpts := []masq.Option{
		masq.WithType[config.Token](masq.MaskWithSymbol('*', 8)),
	}

	for _, s := range secrets {
		if s == "" {
			continue
		}

		masqOpts = append(masqOpts, masq.WithContain(s))
	}

	return masq.New(masqOpts...)
}
