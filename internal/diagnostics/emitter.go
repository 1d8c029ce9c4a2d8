package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphamorim/jam/colors"
)

// Emitter handles the rendering and output of diagnostics
type Emitter struct {
	writer io.Writer
	bag    *DiagnosticBag
}

// NewEmitter creates an emitter that writes to a specific writer
func NewEmitter(w io.Writer, bag *DiagnosticBag) *Emitter {
	return &Emitter{writer: w, bag: bag}
}

func severityColor(s Severity) colors.COLOR {
	switch s {
	case Error:
		return colors.BOLD_RED
	case Warning:
		return colors.BOLD_YELLOW
	default:
		return colors.BOLD_CYAN
	}
}

// Emit renders a single diagnostic:
//
//	error[E_PARSE_UNEXPECTED_TOKEN]: unexpected token '}'
//	 --> demo.jam:3
//	  |
//	3 | fn main() -> u32 }
//	  | note: ...
func (e *Emitter) Emit(diag *Diagnostic) {
	color := severityColor(diag.Severity)

	header := diag.Severity.String()
	if diag.Code != "" {
		header += fmt.Sprintf("[%s]", diag.Code)
	}
	color.Fprintf(e.writer, "%s", header)
	fmt.Fprintf(e.writer, ": %s\n", diag.Message)

	for _, label := range diag.Labels {
		loc := label.Location
		colors.BLUE.Fprintf(e.writer, " --> ")
		fmt.Fprintf(e.writer, "%s\n", loc.String())

		if line, ok := e.bag.sourceLine(loc.File, loc.Line); ok {
			gutter := fmt.Sprintf("%d", loc.Line)
			pad := strings.Repeat(" ", len(gutter))
			colors.GREY.Fprintf(e.writer, "%s |\n", pad)
			colors.GREY.Fprintf(e.writer, "%s | ", gutter)
			fmt.Fprintf(e.writer, "%s\n", line)
			if label.Message != "" {
				colors.GREY.Fprintf(e.writer, "%s | ", pad)
				color.Fprintf(e.writer, "%s\n", label.Message)
			}
		} else if label.Message != "" {
			fmt.Fprintf(e.writer, "     %s\n", label.Message)
		}
	}

	for _, note := range diag.Notes {
		colors.CYAN.Fprintf(e.writer, "note")
		fmt.Fprintf(e.writer, ": %s\n", note)
	}
	if diag.Help != "" {
		colors.GREEN.Fprintf(e.writer, "help")
		fmt.Fprintf(e.writer, ": %s\n", diag.Help)
	}
	fmt.Fprintln(e.writer)
}

// Summary prints the compilation outcome line.
func (e *Emitter) Summary(errorCount, warnCount int) {
	if errorCount > 0 {
		msg := fmt.Sprintf(compileFailedMsg, errorCount)
		if warnCount > 0 {
			msg += fmt.Sprintf(andWarningMsg, warnCount)
		}
		colors.BOLD_RED.Fprintln(e.writer, msg)
	} else if warnCount > 0 {
		colors.BOLD_YELLOW.Fprintf(e.writer, compileSuccessWithWarning, warnCount)
	}
}
