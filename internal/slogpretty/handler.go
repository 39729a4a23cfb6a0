// The code in this package is derivative of https://gitlab.com/greyxor/slogor.
// Mount of this source code is governed by a MIT license that can be found
// at https://gitlab.com/greyxor/slogor/-/blob/main/LICENSE?ref_type=heads.

package slogpretty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

const (
	maxBufferSize     = 16 << 10
	initialBufferSize = 1024
	prefix            = "[HROUTER] "
)

var _ slog.Handler = (*Handler)(nil)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

var (
	DefaultHandler = &Handler{
		We:  &lockedWriter{w: os.Stderr},
		Wo:  &lockedWriter{w: os.Stdout},
		Lvl: slog.LevelDebug,
		Goa: make([]GroupOrAttrs, 0),
	}
	timeFormat = time.DateOnly + " " + time.TimeOnly
)

// levelLabels holds the colored, right padded label of each standard level.
var levelLabels = map[slog.Level]string{
	slog.LevelDebug: fgMagenta + "DEBUG",
	slog.LevelInfo:  fgGreen + "INFO ",
	slog.LevelWarn:  fgYellow + "WARN ",
	slog.LevelError: fgRed + "ERROR",
}

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

// GroupOrAttrs is either a group name opened with [Handler.WithGroup], or an attribute added with
// [Handler.WithAttrs].
type GroupOrAttrs struct {
	attr  slog.Attr
	group string
}

// Handler writes human-readable, colorized records. Records at error level and above go to We, the others to Wo.
type Handler struct {
	We  io.Writer
	Wo  io.Writer
	Lvl slog.Leveler
	Goa []GroupOrAttrs
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = appendHeader(buf, record)

	var groups string
	for _, goa := range h.Goa {
		if goa.group != "" {
			groups += goa.group + "."
			continue
		}
		buf = appendAttr(record.Level, buf, groups, goa.attr)
	}

	record.Attrs(func(attr slog.Attr) bool {
		buf = appendAttr(record.Level, buf, groups, attr)
		return true
	})

	// The last byte is always a separator space.
	buf[len(buf)-1] = '\n'

	w := h.Wo
	if record.Level >= slog.LevelError {
		w = h.We
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	goa := slices.Clip(h.Goa)
	for _, attr := range attrs {
		goa = append(goa, GroupOrAttrs{attr: attr})
	}
	return &Handler{We: h.We, Wo: h.Wo, Lvl: h.Lvl, Goa: goa}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{We: h.We, Wo: h.Wo, Lvl: h.Lvl, Goa: append(slices.Clip(h.Goa), GroupOrAttrs{group: name})}
}

// appendHeader writes the prefix, time, level and message of record.
func appendHeader(buf []byte, record slog.Record) []byte {
	buf = append(buf, prefix...)

	if !record.Time.IsZero() {
		buf = append(buf, faint...)
		buf = record.Time.AppendFormat(buf, timeFormat)
		buf = append(buf, normalIntensity...)
		buf = append(buf, ' ')
	}

	buf = append(buf, "| "...)
	if label, ok := levelLabels[record.Level]; ok {
		buf = append(buf, label...)
	} else {
		buf = append(buf, record.Level.String()...)
	}
	buf = append(buf, reset...)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, " | "...)
	return buf
}

// appendAttr appends the attribute to the buffer, with its key qualified by groups. Group attributes are
// flattened.
func appendAttr(level slog.Level, buf []byte, groups string, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			buf = appendAttr(level, buf, groups, a)
		}
		return buf
	}

	buf = append(buf, faint...)
	buf = append(buf, bold...)
	buf = append(buf, groups...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	buf = append(buf, normalIntensity...)

	switch attr.Key {
	case "method":
		buf = append(buf, bgBlue...)
		buf = append(buf, " "+attr.Value.String()+" "...)
	case "status":
		buf = append(buf, levelColor(level)...)
		buf = append(buf, " "+attr.Value.String()+" "...)
	default:
		buf = append(buf, valueColor(attr)...)
		buf = append(buf, attr.Value.String()...)
	}
	buf = append(buf, reset...)
	buf = append(buf, ' ')
	return buf
}

func valueColor(attr slog.Attr) string {
	switch attr.Key {
	case "location", "prefix":
		return fgYellow
	case "pattern", "path", "name":
		return fgBlue
	case "routes", "variants", "nodes":
		return bold
	case "latency", "duration":
		if attr.Value.Kind() == slog.KindDuration {
			return latencyColor(attr.Value.Duration())
		}
		return ""
	case "error":
		return fgRed
	default:
		return fgCyan
	}
}

type lockedWriter struct {
	w io.Writer
	sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	n, err = w.w.Write(p)
	w.Unlock()
	return
}

func levelColor(level slog.Level) string {
	switch level {
	case slog.LevelInfo:
		return bgBlue
	case slog.LevelWarn:
		return bgYellow
	case slog.LevelError:
		return bgRed
	default:
		return bgMagenta
	}
}

func latencyColor(d time.Duration) string {
	switch {
	case d < 100*time.Millisecond:
		return fgGreen
	case d < 500*time.Millisecond:
		return fgYellow
	default:
		return fgRed
	}
}
