// Package debug sets up the console logging used by the command line tools.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	Level zerolog.Level
	Color bool
	// RunID, when set, is attached to every line.
	RunID string
}

// NewLogger returns a console logger writing to w with millisecond times and
// the calling package, file and line on every event.
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !opts.Color,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, "caller", zerolog.MessageFieldName},
		// the hooks below add these as plain fields
		FieldsExclude: []string{"caller", zerolog.TimestampFieldName},
	}
	out.FormatTimestamp = func(i any) string { return fmt.Sprint(i) }
	out.FormatCaller = func(i any) string { return fmt.Sprint(i) }

	ctx := zerolog.New(out).Level(opts.Level).With()
	if opts.RunID != "" {
		ctx = ctx.Str("run", opts.RunID)
	}
	return ctx.Logger().
		Hook(TimeHook{}).
		Hook(CallerHook{Color: opts.Color})
}

// TimeHook stamps events with the current time.
type TimeHook struct {
	// Format defaults to millisecond precision without a zone.
	Format string
}

func (h TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := h.Format
	if format == "" {
		format = "15:04:05.000"
	}
	e.Str(zerolog.TimestampFieldName, time.Now().Format(format))
}

// CallerHook records where the event was logged from.
type CallerHook struct {
	Color bool
}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	// the hook itself, zerolog's dispatch and Msg sit between us and the caller
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	pkg, _ := SplitFuncName(runtime.FuncForPC(pc).Name())
	e.Str("caller", FormatCaller(pkg, file, line, h.Color))
}

// skipFrames reads the frame count an event was told to skip with
// CallerSkipFrame. zerolog keeps it unexported.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if !field.IsValid() {
		return 0
	}
	return int(field.Int())
}

// SplitFuncName splits a fully qualified function name, as reported by
// runtime.FuncForPC, into its package path and the rest. Method receivers
// stay with the function: "a/b.(*T).M" gives "a/b" and "(*T).M".
func SplitFuncName(name string) (pkg, fn string) {
	slash := strings.LastIndexByte(name, '/')
	if slash < 0 {
		slash = 0
	}
	dot := strings.IndexByte(name[slash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += slash
	return name[:dot], name[dot+1:]
}

// FormatCaller renders pkg:file:line, with the file in bold and the line in
// red when colorize is set.
func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := filepath.Base(path)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep +
		color.New(color.Bold).Sprint(file) + sep +
		color.New(color.FgHiRed, color.Bold).Sprint(line)
}
