package golden

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-golden/runner"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

// Diff snippets wider than this are cut; the full diff is in the logs.
const maxDetailWidth = 80

// ResultFormatter is responsible for formatting and displaying batch results.
type ResultFormatter interface {
	FormatResults(report *runner.BatchReport) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to
// stdout.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    os.Stdout,
	}
}

// WithOutput redirects the rendered table, for tests.
func (f *ConsoleResultFormatter) WithOutput(out io.Writer) *ConsoleResultFormatter {
	f.out = out
	return f
}

// FormatResults formats and displays the batch results.
func (f *ConsoleResultFormatter) FormatResults(report *runner.BatchReport) error {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Golden Output Results (%s)", formatDuration(report.Duration)))

	t.AppendHeader(table.Row{
		"File", "Status", "Result", "Duration", "Details",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Details", WidthMax: maxDetailWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, res := range report.Results {
		t.AppendRow(table.Row{
			res.File,
			res.Outcome.Status.String(),
			string(res.Comparison.Kind),
			formatDuration(res.Outcome.Duration),
			detailFor(res),
		})
	}
	for _, file := range report.Missing {
		t.AppendRow(table.Row{
			file,
			"-",
			string(types.ComparisonMissing),
			"-",
			"recorded in the database but absent from this run",
		})
	}

	if report.Failed() {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		overallResult(report),
		formatDuration(report.Duration),
		fmt.Sprintf("%d unchanged, %d new, %d changed, %d missing",
			report.Count(types.ComparisonUnchanged),
			report.Count(types.ComparisonNew),
			report.Count(types.ComparisonChanged),
			len(report.Missing)),
	})

	t.Render()
	return nil
}

// detailFor picks the one-line explanation for a row. Diff text can carry
// output snippets from the program under test, so ANSI escapes are stripped
// before they reach the table.
func detailFor(res runner.TaskResult) string {
	if res.Comparison.Diff == "" {
		return ""
	}
	detail := stripansi.Strip(res.Comparison.Diff)
	if i := strings.IndexByte(detail, '\n'); i >= 0 {
		detail = detail[:i]
	}
	return detail
}

func overallResult(report *runner.BatchReport) string {
	if report.Failed() {
		return "fail"
	}
	return "pass"
}
