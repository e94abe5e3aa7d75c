package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentry/internal/domain/term"
)

// NewExpiryCmd returns `sentry expiry`, which runs the term engine on dates
// supplied as flags.
func NewExpiryCmd() *cobra.Command {
	var raw term.RawTermInput

	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Calculate a patent's expiration date",
		Long: `Calculate the expiration date of a US patent.

Utility and plant patents expire 20 years after filing plus any PTA and PTE
days, capped by a terminal disclaimer. Design patents run 14 years from grant
(15 years for applications filed on or after 2015-05-13).`,
		Example: `  sentry expiry --kind utility --filing 2001-02-03 --grant 2004-05-06 --pta 120
  sentry expiry --kind design --filing 2016-01-01 --grant 2017-03-14 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := term.ParseTermInput(raw)
			if err != nil {
				return err
			}
			det, err := term.Calculate(in, time.Now())
			if err != nil {
				return err
			}
			return PrintResult(cmd, expiryReport{det: det, asOf: civil.DateOf(time.Now())})
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw.Kind, "kind", string(term.KindUtility), "patent kind (utility, plant, design)")
	f.StringVar(&raw.FilingDate, "filing", "", "filing date, YYYY-MM-DD [REQUIRED]")
	f.StringVar(&raw.GrantDate, "grant", "", "grant date, YYYY-MM-DD (required for design patents)")
	f.IntVar(&raw.PTADays, "pta", 0, "patent term adjustment days")
	f.IntVar(&raw.PTEDays, "pte", 0, "patent term extension days")
	f.StringVar(&raw.TerminalDisclaimerDate, "td", "", "terminal disclaimer date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("filing")

	return cmd
}

// NewFeesCmd returns `sentry fees`, which prints the maintenance-fee windows
// for a grant date.
func NewFeesCmd() *cobra.Command {
	var grant, asOf string

	cmd := &cobra.Command{
		Use:     "fees",
		Short:   "List maintenance-fee windows for a utility or plant patent",
		Example: `  sentry fees --grant 2020-01-31 --as-of 2023-09-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grantDate, err := term.ParseDate("grant_date", grant)
			if err != nil {
				return err
			}
			at := civil.DateOf(time.Now())
			if asOf != "" {
				if at, err = term.ParseDate("as_of", asOf); err != nil {
					return err
				}
			}
			return PrintResult(cmd, feeReport{schedule: term.ComputeMaintenanceFees(grantDate), asOf: at})
		},
	}

	cmd.Flags().StringVar(&grant, "grant", "", "grant date, YYYY-MM-DD [REQUIRED]")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate window status on this date (default: today)")
	_ = cmd.MarkFlagRequired("grant")

	return cmd
}

type expiryReport struct {
	det  *term.TermDetermination
	asOf civil.Date
}

func (r expiryReport) JSONValue() interface{} { return r.det }

func (r expiryReport) String() string {
	e := r.det.Expiration
	var sb strings.Builder
	fmt.Fprintf(&sb, "Kind:              %s\n", r.det.Kind)
	fmt.Fprintf(&sb, "Expiry:            %s\n", e.Expiry)
	fmt.Fprintf(&sb, "Reason:            %s\n", e.Reason)
	fmt.Fprintf(&sb, "Active:            %t\n", e.IsActive)
	if r.det.Kind != term.KindDesign {
		fmt.Fprintf(&sb, "Baseline expiry:   %s\n", e.BaselineExpiry)
		fmt.Fprintf(&sb, "PTA/PTE days:      %d/%d\n", e.PTADays, e.PTEDays)
		fmt.Fprintf(&sb, "Calculated expiry: %s\n", e.CalculatedExpiry)
	}
	if r.det.MaintenanceFees != nil {
		sb.WriteString("\nMaintenance fees:\n")
		sb.WriteString(feeReport{schedule: *r.det.MaintenanceFees, asOf: r.asOf}.String())
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r expiryReport) TableHeaders() []string {
	return []string{"KIND", "EXPIRY", "ACTIVE", "PTA", "PTE", "REASON"}
}

func (r expiryReport) TableRows() [][]string {
	e := r.det.Expiration
	return [][]string{{
		string(r.det.Kind),
		e.Expiry.String(),
		strconv.FormatBool(e.IsActive),
		strconv.Itoa(e.PTADays),
		strconv.Itoa(e.PTEDays),
		e.Reason,
	}}
}

type feeReport struct {
	schedule term.MaintenanceFeeSchedule
	asOf     civil.Date
}

type feeRow struct {
	Milestone    string               `json:"milestone"`
	DueDate      civil.Date           `json:"due_date"`
	WindowStart  civil.Date           `json:"window_start"`
	SurchargeEnd civil.Date           `json:"surcharge_end"`
	Status       term.FeeWindowStatus `json:"status"`
}

func (r feeReport) rows() []feeRow {
	windows := r.schedule.Windows()
	out := make([]feeRow, len(windows))
	for i, w := range windows {
		out[i] = feeRow{
			Milestone:    term.Milestones[i].Key,
			DueDate:      w.DueDate,
			WindowStart:  w.WindowStart,
			SurchargeEnd: w.SurchargeEnd,
			Status:       w.StatusAt(r.asOf),
		}
	}
	return out
}

func (r feeReport) JSONValue() interface{} {
	return struct {
		AsOf    civil.Date         `json:"as_of"`
		Windows []feeRow           `json:"windows"`
		Next    *term.ScheduledFee `json:"next"`
	}{r.asOf, r.rows(), r.schedule.Next(r.asOf)}
}

func (r feeReport) String() string {
	var sb strings.Builder
	for _, row := range r.rows() {
		fmt.Fprintf(&sb, "  %-9s  due %s  window %s..%s  surcharge until %s  [%s]\n",
			row.Milestone, row.DueDate, row.WindowStart, row.DueDate, row.SurchargeEnd, row.Status)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r feeReport) TableHeaders() []string {
	return []string{"MILESTONE", "WINDOW START", "DUE", "SURCHARGE END", "STATUS"}
}

func (r feeReport) TableRows() [][]string {
	rows := r.rows()
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = []string{row.Milestone, row.WindowStart.String(), row.DueDate.String(), row.SurchargeEnd.String(), string(row.Status)}
	}
	return out
}
