package msg

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

func report(label string, format string, a ...any) {
	fmt.Print(label, ": ")
	fmt.Printf(format, a...)
	fmt.Print("\n")
}

func Error(format string, a ...any) {
	report(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	report(color.YellowString("warn"), format, a...)
}

func Info(format string, a ...any) {
	report(color.HiGreenString("info"), format, a...)
}

// Fatal reports an error and terminates the process.
func Fatal(format string, a ...any) {
	report(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

// IndentWriter prefixes every line written through it with Indent.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if !w.didIndent {
			w.W.Write([]byte(w.Indent))
			w.didIndent = true
		}
		w.W.Write([]byte{c})
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	return len(p), nil
}
