// Package render draws page views as plain text. Renderers read a view and
// write to w; they never call the backend or change page state.
package render

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/pages"
	"github.com/ehr/hms/internal/viewmodel"
)

// ErrRenderPanic is returned by Boundary when the wrapped renderer panicked.
var ErrRenderPanic = errors.New("render: renderer panicked")

const (
	loadingText = "Loading…"
	emptyText   = "No records found."
	timeLayout  = "15:04"
	stampLayout = "2006-01-02 15:04"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	headColor    = color.New(color.Bold)
)

// Boundary runs fn and converts a panic into a recovery screen. It is the
// only place a rendering failure is caught.
func Boundary(w io.Writer, logger zerolog.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("render panic")
			errorColor.Fprintln(w, "Something went wrong while drawing this page.")
			fmt.Fprintln(w, "  try again: run the same command")
			fmt.Fprintln(w, "  go home:   hms home")
			err = ErrRenderPanic
		}
	}()
	return fn()
}

// State draws the lifecycle part of a view. It reports whether the caller
// should go on to draw the data: false while the first load runs, after a
// failed first load, and when empty is true.
func State(w io.Writer, s pages.Status, empty bool) bool {
	switch {
	case s.State == controller.StateLoading && !s.Loaded:
		fmt.Fprintln(w, loadingText)
		return false
	case s.State == controller.StateError && s.Err != nil:
		Error(w, s.Err)
		if !s.Loaded {
			return false
		}
		warnColor.Fprintln(w, "Showing the last data loaded.")
	case s.State == controller.StateIdle:
		fmt.Fprintln(w, "Not loaded.")
		return false
	}
	if s.MutationErr != nil {
		Error(w, s.MutationErr)
	}
	if empty {
		fmt.Fprintln(w, emptyText)
		return false
	}
	return true
}

// Error draws err with a recovery hint chosen by its kind.
func Error(w io.Writer, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindForbidden:
		errorColor.Fprintln(w, "Access denied")
		fmt.Fprintln(w, "  Your role does not permit this page. Ask an administrator for access.")
	case apperr.KindNetwork, apperr.KindServer:
		errorColor.Fprintln(w, apperr.UserMessage(err))
		fmt.Fprintln(w, "  Please check your connection and retry.")
	case apperr.KindAuthentication, apperr.KindTwoFactorRequired:
		errorColor.Fprintln(w, apperr.UserMessage(err))
		fmt.Fprintln(w, "  Run `hms login` to sign in.")
	case apperr.KindCanceled:
		warnColor.Fprintln(w, apperr.UserMessage(err))
	default:
		errorColor.Fprintln(w, apperr.UserMessage(err))
	}
}

// Form draws the inline state of a form.
func Form(w io.Writer, f pages.FormState) {
	if f.Success != "" {
		successColor.Fprintln(w, f.Success)
	}
	if len(f.FieldErrors) > 0 {
		fields := make([]string, 0, len(f.FieldErrors))
		for k := range f.FieldErrors {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			errorColor.Fprintf(w, "  %s: ", k)
			fmt.Fprintln(w, f.FieldErrors[k])
		}
	}
	if f.SubmitErr != nil {
		Error(w, f.SubmitErr)
	}
}

// Notice draws a one-line confirmation of the last action.
func Notice(w io.Writer, notice string) {
	if notice != "" {
		successColor.Fprintln(w, notice)
	}
}

func heading(w io.Writer, title string) {
	headColor.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(title))))
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func row(tw io.Writer, cols ...interface{}) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}

// Counts draws "key n" pairs on one line. Zero counts are kept.
func Counts(w io.Writer, label string, counts []viewmodel.Count) {
	if len(counts) == 0 {
		return
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %d", c.Key, c.Count)
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(parts, " · "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(stampLayout)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortRef(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return short(id.String())
}
