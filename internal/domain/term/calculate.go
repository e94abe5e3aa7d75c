package term

import (
	"time"

	"github.com/golang-sql/civil"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// RawTermInput is the string form of a term calculation request as it
// arrives from HTTP bodies and CLI flags.
type RawTermInput struct {
	Kind                   string `json:"kind"`
	FilingDate             string `json:"filing_date"`
	GrantDate              string `json:"grant_date,omitempty"`
	PTADays                int    `json:"pta_days"`
	PTEDays                int    `json:"pte_days"`
	TerminalDisclaimerDate string `json:"terminal_disclaimer_date,omitempty"`
}

// PatentTermInput is a validated calculation request.
type PatentTermInput struct {
	Kind                   Kind
	FilingDate             civil.Date
	GrantDate              *civil.Date
	PTADays                int
	PTEDays                int
	TerminalDisclaimerDate *civil.Date
}

// TermDetermination is the combined output of Calculate. MaintenanceFees is
// nil for design patents and whenever no grant date is known.
type TermDetermination struct {
	Kind            Kind                    `json:"kind"`
	Expiration      ExpirationResult        `json:"expiration"`
	MaintenanceFees *MaintenanceFeeSchedule `json:"maintenance_fees"`
}

// ParseTermInput validates raw input. Dates must be YYYY-MM-DD; the filing
// date is always required and design patents also need a grant date.
// Ordering between dates and the size of adjustment days are not checked.
func ParseTermInput(raw RawTermInput) (PatentTermInput, error) {
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return PatentTermInput{}, err
	}
	if raw.FilingDate == "" {
		return PatentTermInput{}, errors.New(errors.ErrCodeMissingFilingDate, "filing date is required")
	}
	filing, err := ParseDate("filing_date", raw.FilingDate)
	if err != nil {
		return PatentTermInput{}, err
	}
	grant, err := ParseOptionalDate("grant_date", raw.GrantDate)
	if err != nil {
		return PatentTermInput{}, err
	}
	td, err := ParseOptionalDate("terminal_disclaimer_date", raw.TerminalDisclaimerDate)
	if err != nil {
		return PatentTermInput{}, err
	}

	in := PatentTermInput{
		Kind:                   kind,
		FilingDate:             filing,
		GrantDate:              grant,
		PTADays:                raw.PTADays,
		PTEDays:                raw.PTEDays,
		TerminalDisclaimerDate: td,
	}
	return in, in.Validate()
}

// Validate checks the presence rules that depend on the kind.
func (in PatentTermInput) Validate() error {
	if !in.Kind.IsValid() {
		return errors.Newf(errors.ErrCodeUnknownPatentKind, "unknown patent kind %q", in.Kind)
	}
	if in.Kind == KindDesign && in.GrantDate == nil {
		return errors.New(errors.ErrCodeMissingGrantDate, "design patents require a grant date")
	}
	return nil
}

// Calculate dispatches to the calculator for in.Kind. now is evaluated once
// for the whole determination. Design patents ignore PTA, PTE and terminal
// disclaimer inputs.
func Calculate(in PatentTermInput, now time.Time) (*TermDetermination, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	det := &TermDetermination{Kind: in.Kind}
	switch in.Kind {
	case KindDesign:
		det.Expiration = ComputeDesignExpiry(*in.GrantDate, in.FilingDate, now)
	default:
		det.Expiration = ComputeUtilityExpiry(in.FilingDate, in.PTADays, in.PTEDays, in.TerminalDisclaimerDate, now)
	}

	if in.Kind.HasMaintenanceFees() && in.GrantDate != nil {
		fees := ComputeMaintenanceFees(*in.GrantDate)
		det.MaintenanceFees = &fees
	}
	return det, nil
}
