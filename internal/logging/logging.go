// Package logging builds the process logger: JSON for servers, colored text for terminals.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// New returns a logger writing to w. format is "json" or "text".
func New(format, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(NewColorHandler(w, lvl))
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ColorHandler prints one human-readable line per record.
type ColorHandler struct {
	mu    *sync.Mutex
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
	group string
}

func NewColorHandler(out io.Writer, level slog.Level) *ColorHandler {
	return &ColorHandler{
		mu:    &sync.Mutex{},
		l:     log.New(out, "", 0),
		level: level,
	}
}

func (c *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level
}

func (c *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch {
	case r.Level >= slog.LevelError:
		level = color.RedString(level)
	case r.Level >= slog.LevelWarn:
		level = color.YellowString(level)
	case r.Level >= slog.LevelInfo:
		level = color.HiBlueString(level)
	default:
		level = color.MagentaString(level)
	}

	var b strings.Builder
	write := func(a slog.Attr) {
		fmt.Fprintf(&b, " %s=%v", color.GreenString(a.Key), a.Value.Resolve().Any())
	}
	for _, a := range c.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(c.qualify(a))
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.l.Println(r.Time.Format("15:04:05.000"), level, r.Message+b.String())
	return nil
}

// qualify prefixes the key with the open group.
func (c *ColorHandler) qualify(a slog.Attr) slog.Attr {
	if c.group != "" {
		a.Key = c.group + "." + a.Key
	}
	return a
}

func (c *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *c
	cp.attrs = append([]slog.Attr(nil), c.attrs...)
	for _, a := range attrs {
		cp.attrs = append(cp.attrs, c.qualify(a))
	}
	return &cp
}

func (c *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	cp := *c
	if cp.group != "" {
		name = cp.group + "." + name
	}
	cp.group = name
	return &cp
}
