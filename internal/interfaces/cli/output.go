package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// report is what every command prints. Each output format picks one view.
type report interface {
	fmt.Stringer
	JSONValue() interface{}
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes r to stdout in the --output format; text when the
// command runs without a CLIContext.
func PrintResult(cmd *cobra.Command, r report) error {
	format := OutputText
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	return render(cmd.OutOrStdout(), format, r)
}

func render(w io.Writer, format string, r report) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.JSONValue())
	case OutputTable:
		return writeTable(w, r.TableHeaders(), r.TableRows())
	default:
		_, err := fmt.Fprintln(w, r.String())
		return err
	}
}

// writeTable aligns columns two spaces apart under a dashed header rule.
// Short rows are padded with empty cells.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	if len(headers) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(cells []string) {
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	line(headers)
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	line(rule)
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		line(cells)
	}
	return tw.Flush()
}

// PrintError writes err to w. Application errors lead with their code and
// put the detail on an indented second line.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", ae.Code, ae.Message)
	if ae.Detail != "" {
		fmt.Fprintf(w, "  %s\n", ae.Detail)
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("sentry %s (commit: %s, built: %s)", v.Version, v.Commit, v.BuildDate)
}

func (v versionInfo) JSONValue() interface{} { return v }

func (v versionInfo) TableHeaders() []string { return []string{"VERSION", "COMMIT", "BUILT"} }

func (v versionInfo) TableRows() [][]string {
	return [][]string{{v.Version, v.Commit, v.BuildDate}}
}
