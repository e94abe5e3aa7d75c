package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
)

// NewAnalyzeCmd returns `sentry analyze`, which fetches a granted patent from
// PatentsView and reports its term and fee status.
func NewAnalyzeCmd() *cobra.Command {
	var forceRefresh bool

	cmd := &cobra.Command{
		Use:     "analyze PATENT_NUMBER",
		Short:   "Analyse a granted US patent",
		Example: `  sentry analyze US10000000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			svc, err := cliCtx.Service()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cliCtx.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
				defer cancel()
			}

			res, err := svc.Analyze(ctx, analysis.AnalyzeInput{PatentID: args[0], ForceRefresh: forceRefresh})
			if err != nil {
				return err
			}
			return PrintResult(cmd, analysisReport{res})
		},
	}

	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "bypass the result cache")
	return cmd
}

type analysisReport struct {
	res *analysis.AnalysisResult
}

func (r analysisReport) JSONValue() interface{} { return r.res }

func (r analysisReport) String() string {
	res := r.res
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", res.PatentID, res.Title)
	fmt.Fprintf(&sb, "Kind:       %s (%s)\n", res.Kind, res.PatentType)
	if len(res.Assignees) > 0 && res.Assignees[0].Organization != "" {
		fmt.Fprintf(&sb, "Assignee:   %s\n", res.Assignees[0].Organization)
	}
	fmt.Fprintf(&sb, "Filed:      %s\n", res.Dates.Filed)
	if res.Dates.Granted != "" {
		fmt.Fprintf(&sb, "Granted:    %s\n", res.Dates.Granted)
	}
	fmt.Fprintf(&sb, "Expiry:     %s (%s)\n", res.Expiration.Expiry, res.Expiration.Reason)
	fmt.Fprintf(&sb, "Active:     %t\n", res.IsActive)
	if res.NextFee != nil {
		fmt.Fprintf(&sb, "Next fee:   %s due %s [%s]\n", res.NextFee.Milestone, res.NextFee.Window.DueDate, res.NextFee.Status)
	}
	if res.Warnings.Reason != "" {
		fmt.Fprintf(&sb, "Note:       %s\n", res.Warnings.Reason)
	}
	fmt.Fprintf(&sb, "URL:        %s", res.URL)
	if res.FromCache {
		sb.WriteString("\n(cached)")
	}
	return sb.String()
}

func (r analysisReport) TableHeaders() []string {
	return []string{"PATENT", "KIND", "FILED", "EXPIRY", "ACTIVE", "NEXT FEE"}
}

func (r analysisReport) TableRows() [][]string {
	next := "-"
	if r.res.NextFee != nil {
		next = r.res.NextFee.Milestone + " " + r.res.NextFee.Window.DueDate.String()
	}
	return [][]string{{
		r.res.PatentID,
		string(r.res.Kind),
		r.res.Dates.Filed,
		r.res.Expiration.Expiry.String(),
		strconv.FormatBool(r.res.IsActive),
		next,
	}}
}
