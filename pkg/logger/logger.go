// Package logger hands out named slog loggers whose level can be tuned per
// component at runtime. Component names are dotted; a name without its own
// level inherits the level of the closest configured parent.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var levelNames = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

// Log is the unnamed root logger.
var Log *slog.Logger

type registry struct {
	mu       sync.RWMutex
	fallback slog.Level
	levels   map[string]slog.Level
	json     bool
	out      io.Writer
	loggers  map[string]*slog.Logger
}

var reg = &registry{
	fallback: slog.LevelInfo,
	levels:   make(map[string]slog.Level),
	out:      os.Stdout,
	loggers:  make(map[string]*slog.Logger),
}

var pid = os.Getpid()

func init() {
	Log = reg.build("")
}

func (r *registry) level(component string) slog.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name := component; name != ""; {
		if lvl, ok := r.levels[name]; ok {
			return lvl
		}
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			break
		}
		name = name[:idx]
	}
	return r.fallback
}

// build must not be called with r.mu held.
func (r *registry) build(component string) *slog.Logger {
	r.mu.RLock()
	out, asJSON := r.out, r.json
	r.mu.RUnlock()

	var inner slog.Handler
	if asJSON {
		inner = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
		if component != "" {
			inner = inner.WithAttrs([]slog.Attr{slog.String("component", component)})
		}
	} else {
		inner = &lineHandler{w: out, mu: &sync.Mutex{}, component: component}
	}
	return slog.New(&levelHandler{component: component, reg: r, inner: inner})
}

func (r *registry) reset() {
	r.mu.Lock()
	r.loggers = make(map[string]*slog.Logger)
	r.mu.Unlock()
	Log = r.build("")
}

// SetOutput redirects every logger created afterwards to w.
func SetOutput(w io.Writer) {
	reg.mu.Lock()
	reg.out = w
	reg.mu.Unlock()
	reg.reset()
}

// Configure replaces the output format and every level.
func Configure(format string, level LogLevel, components map[string]LogLevel) {
	reg.mu.Lock()
	reg.json = strings.EqualFold(format, "json")
	reg.fallback = parseLevel(level)
	reg.levels = make(map[string]slog.Level, len(components))
	for name, lvl := range components {
		reg.levels[name] = parseLevel(lvl)
	}
	reg.mu.Unlock()
	reg.reset()
}

// Get returns the logger for a component, creating it on first use.
func Get(name string) *slog.Logger {
	reg.mu.RLock()
	l, ok := reg.loggers[name]
	reg.mu.RUnlock()
	if ok {
		return l
	}

	l = reg.build(name)
	reg.mu.Lock()
	if existing, ok := reg.loggers[name]; ok {
		l = existing
	} else {
		reg.loggers[name] = l
	}
	reg.mu.Unlock()
	return l
}

func SetComponentLevel(name string, level LogLevel) {
	reg.mu.Lock()
	reg.levels[name] = parseLevel(level)
	reg.mu.Unlock()
}

func ClearComponentLevel(name string) {
	reg.mu.Lock()
	delete(reg.levels, name)
	reg.mu.Unlock()
}

func GetComponentLevels() map[string]LogLevel {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make(map[string]LogLevel, len(reg.levels))
	for name, lvl := range reg.levels {
		out[name] = toLogLevel(lvl)
	}
	return out
}

func GetDefaultLevel() LogLevel {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return toLogLevel(reg.fallback)
}

func parseLevel(level LogLevel) slog.Level {
	if l, ok := levelNames[LogLevel(strings.ToLower(string(level)))]; ok {
		return l
	}
	if strings.EqualFold(string(level), "warning") {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func toLogLevel(level slog.Level) LogLevel {
	for name, l := range levelNames {
		if l == level {
			return name
		}
	}
	return LogLevelInfo
}

// levelHandler gates records on the live level of its component.
type levelHandler struct {
	component string
	reg       *registry
	inner     slog.Handler
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.reg.level(h.component)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{component: h.component, reg: h.reg, inner: h.inner.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{component: h.component, reg: h.reg, inner: h.inner.WithGroup(name)}
}

// lineHandler writes one human readable line per record:
//
//	2006/01/02 15:04:05.000 [pid] [component] LEVEL message key=value ...
type lineHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	component string
	prefix    string
	attrs     []slog.Attr
}

func (h *lineHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006/01/02 15:04:05.000"))
	fmt.Fprintf(&b, " [%d]", pid)
	if h.component != "" {
		fmt.Fprintf(&b, " [%s]", h.component)
	}
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, v.Any())
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// WithVlan returns l annotated with the VLAN being operated on.
func WithVlan(l *slog.Logger, vlan uint16) *slog.Logger {
	return l.With("vlan", vlan)
}

// WithRequest returns l annotated with a northbound request id.
func WithRequest(l *slog.Logger, requestID string) *slog.Logger {
	if requestID == "" {
		return l
	}
	return l.With("request_id", requestID)
}
