package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/httprun/packages/core/runner"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) { f.writer = w }
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) { f.verbose = v }
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) { f.noColor = nc }
}

// FormatResult renders one pipeline run: a line per request, its test
// outcomes indented beneath (plus full headers, bodies and handler logs
// under verbose), and a trailing summary.
func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+result.File))

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s (%s)\n", yellow("-"), requestLabel(r), r.SkipReason)
			continue
		}

		if r.Err != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), requestLabel(r), red(fmt.Sprintf("(%v)", r.Err)))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		status := ""
		if r.DryRun {
			status = yellow(" (dry-run)")
		} else if r.Response != nil {
			status = cyan(fmt.Sprintf(" %d", r.Response.StatusCode))
		}

		fmt.Fprintf(f.writer, "  %s %s%s %s\n", symbol, requestLabel(r), status, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose {
			f.printRequest(r)
			f.printResponse(r)
		}

		for _, test := range r.Tests {
			if test.Passed {
				fmt.Fprintf(f.writer, "      %s %s\n", green("✓"), test.Name)
			} else {
				fmt.Fprintf(f.writer, "      %s %s — %s\n", red("✗"), test.Name, test.Message)
			}
		}

		if f.verbose {
			for _, line := range r.Logs {
				fmt.Fprintf(f.writer, "      %s %s\n", cyan("log:"), line)
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:  %dms\n\n", result.Duration.Milliseconds())
}

// printRequest renders the method/URL line's full headers and body
// under -v/--verbose, the way it was actually sent (or would have
// been, for a dry run).
func (f *ConsoleFormatter) printRequest(r *runner.RequestResult) {
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "      %s %s %s\n", cyan(">"), r.Method, r.URL)
	for _, h := range r.RequestHeaders {
		fmt.Fprintf(f.writer, "      %s %s: %s\n", cyan(">"), h.Name, h.Value)
	}
	if r.RequestBody != "" {
		fmt.Fprintf(f.writer, "      %s\n", cyan(">"))
		for _, line := range strings.Split(r.RequestBody, "\n") {
			fmt.Fprintf(f.writer, "      %s %s\n", cyan(">"), line)
		}
	}
}

// printResponse renders the full response headers and body under
// -v/--verbose. A dry run or a request that errored before a response
// was read has nothing to show.
func (f *ConsoleFormatter) printResponse(r *runner.RequestResult) {
	if r.Response == nil || r.Response.NotExecuted {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()

	for name, values := range r.Response.Headers {
		for _, v := range values {
			fmt.Fprintf(f.writer, "      %s %s: %s\n", cyan("<"), name, v)
		}
	}
	if body := r.Response.BodyString(); body != "" {
		fmt.Fprintf(f.writer, "      %s\n", cyan("<"))
		for _, line := range strings.Split(body, "\n") {
			fmt.Fprintf(f.writer, "      %s %s\n", cyan("<"), line)
		}
	}
}

func requestLabel(r *runner.RequestResult) string {
	if r.Name != "" {
		return r.Name
	}
	if r.Method != "" {
		return fmt.Sprintf("%s %s", r.Method, r.URL)
	}
	return fmt.Sprintf("#%d", r.Index)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("httprun"), version)
}
