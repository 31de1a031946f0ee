package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// PrettyJSONHandler prints one indented JSON object per record. Groups
// become nested objects. Multi-line string attributes (board renders) are
// split into arrays of lines so they stay readable.
//
// It is not optimized for throughput.
type PrettyJSONHandler struct {
	out  *prettyOutput
	opts slog.HandlerOptions

	attrs  []slog.Attr
	groups []string
}

type prettyOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	h := &PrettyJSONHandler{out: &prettyOutput{w: w}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *PrettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *PrettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}

	record := map[string]any{
		slog.TimeKey:    when.Format(time.RFC3339Nano),
		slog.LevelKey:   r.Level.String(),
		slog.MessageKey: r.Message,
	}
	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			record[slog.SourceKey] = filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
	}

	// Handler attrs were captured with their groups already applied.
	for _, a := range h.attrs {
		putAttr(record, a)
	}
	dst := record
	for _, g := range h.groups {
		dst = subMap(dst, g)
	}
	r.Attrs(func(a slog.Attr) bool {
		putAttr(dst, a)
		return true
	})

	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		b, _ = json.Marshal(map[string]string{
			slog.TimeKey:    record[slog.TimeKey].(string),
			slog.LevelKey:   r.Level.String(),
			slog.MessageKey: r.Message,
			"error":         err.Error(),
		})
	}

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err = h.out.w.Write(append(b, '\n'))
	return err
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		// Nest under the currently open groups so later WithGroup calls
		// do not move them.
		for i := len(h.groups) - 1; i >= 0; i-- {
			a = slog.Group(h.groups[i], a)
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func subMap(dst map[string]any, key string) map[string]any {
	m, ok := dst[key].(map[string]any)
	if !ok {
		m = map[string]any{}
		dst[key] = m
	}
	return m
}

func putAttr(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		members := v.Group()
		if len(members) == 0 {
			return
		}
		target := dst
		if a.Key != "" {
			target = subMap(dst, a.Key)
		}
		for _, m := range members {
			putAttr(target, m)
		}
		return
	}
	if a.Key == "" {
		return
	}

	dst[a.Key] = jsonValue(v)
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return splitLines(v.String())
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		if s, ok := v.Any().(interface{ String() string }); ok {
			return splitLines(s.String())
		}
		return v.Any()
	default:
		return v.String()
	}
}

func splitLines(s string) any {
	lines := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start == 0 {
		return s
	}
	return append(lines, s[start:])
}
