package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, a...))
}

func warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! %s\n", fmt.Sprintf(format, a...))
}

// failure prints title and hint to w and returns a plain error for cobra, which runs
// with SilenceErrors.
func failure(w io.Writer, title string, err error, hint string) error {
	red.Fprintf(w, "%s\n", title)
	if err != nil {
		fmt.Fprintf(w, "%v\n", err)
	}
	if hint != "" {
		fmt.Fprintf(w, "\n%s\n", hint)
	}
	return fmt.Errorf("%s: %w", title, err)
}
