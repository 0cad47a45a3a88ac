package logfields

import (
	"log/slog"
	"time"
)

// Canonical attribute keys shared by every package that logs.
const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeyVariant    = "variant"
	KeyContext    = "context"
	KeyEvent      = "event"
	KeyURL        = "url"
	KeyTemplate   = "template"
	KeyProvider   = "provider"
	KeyPlugin     = "plugin"
	KeyStage      = "stage"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func File(f string) slog.Attr     { return slog.String(KeyFile, f) }
func Variant(v string) slog.Attr  { return slog.String(KeyVariant, v) }
func Context(c string) slog.Attr  { return slog.String(KeyContext, c) }
func Event(e string) slog.Attr    { return slog.String(KeyEvent, e) }
func URL(u string) slog.Attr      { return slog.String(KeyURL, u) }
func Template(t string) slog.Attr { return slog.String(KeyTemplate, t) }
func Provider(p string) slog.Attr { return slog.String(KeyProvider, p) }
func Plugin(p string) slog.Attr   { return slog.String(KeyPlugin, p) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr       { return slog.Int(KeyCount, n) }

// Duration records d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
