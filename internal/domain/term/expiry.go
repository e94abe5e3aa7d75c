package term

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

const (
	utilityTermYears = 20

	designTermYearsPre  = 14
	designTermYearsPost = 15

	terminalDisclaimerReason = "Terminal Disclaimer (expires with linked patent)"
)

// designTermCutoff is the first filing date that earns the 15-year design term.
var designTermCutoff = civil.Date{Year: 2015, Month: time.May, Day: 13}

// ExpirationResult is the expiry determination for a single patent.
// Expiry and CalculatedExpiry always hold the same date.
type ExpirationResult struct {
	Expiry           civil.Date `json:"expiry"`
	Reason           string     `json:"reason"`
	IsActive         bool       `json:"is_active"`
	BaselineExpiry   civil.Date `json:"baseline_expiry"`
	PTADays          int        `json:"pta_days"`
	PTEDays          int        `json:"pte_days"`
	CalculatedExpiry civil.Date `json:"calculated_expiry"`
}

// TerminalDisclaimerApplied reports whether the expiry was capped by a
// terminal disclaimer.
func (r ExpirationResult) TerminalDisclaimerApplied() bool {
	return r.Reason == terminalDisclaimerReason
}

// ActiveAt re-evaluates IsActive for a later instant.
func (r ExpirationResult) ActiveAt(now time.Time) bool {
	return isActive(r.Expiry, now)
}

// ComputeUtilityExpiry returns the expiry of a utility or plant patent:
// 20 calendar years from filing, plus PTA and PTE as plain days, capped by
// a terminal disclaimer date that falls strictly before the adjusted date.
// Adjustment days are used as given, including negative values.
func ComputeUtilityExpiry(filing civil.Date, ptaDays, pteDays int, terminalDisclaimer *civil.Date, now time.Time) ExpirationResult {
	baseline := AddCalendarMonths(filing, utilityTermYears, 0)
	adjusted := baseline.AddDays(ptaDays + pteDays)

	reason := fmt.Sprintf("%d years from filing", utilityTermYears)
	if ptaDays != 0 {
		reason += fmt.Sprintf(" + %d days PTA", ptaDays)
	}
	if pteDays != 0 {
		reason += fmt.Sprintf(" + %d days PTE", pteDays)
	}

	final := adjusted
	if terminalDisclaimer != nil && terminalDisclaimer.Before(adjusted) {
		final = *terminalDisclaimer
		reason = terminalDisclaimerReason
	}

	return ExpirationResult{
		Expiry:           final,
		Reason:           reason,
		IsActive:         isActive(final, now),
		BaselineExpiry:   baseline,
		PTADays:          ptaDays,
		PTEDays:          pteDays,
		CalculatedExpiry: final,
	}
}

// ComputeDesignExpiry returns the expiry of a design patent: 15 years from
// grant when filed on or after 2015-05-13, otherwise 14 years from grant.
func ComputeDesignExpiry(grant, filing civil.Date, now time.Time) ExpirationResult {
	years := DesignTermYears(filing)
	expiry := AddCalendarMonths(grant, years, 0)

	return ExpirationResult{
		Expiry:           expiry,
		Reason:           fmt.Sprintf("%d years from grant date", years),
		IsActive:         isActive(expiry, now),
		BaselineExpiry:   expiry,
		CalculatedExpiry: expiry,
	}
}

// DesignTermYears is the design term length selected by the filing date.
func DesignTermYears(filing civil.Date) int {
	if filing.Before(designTermCutoff) {
		return designTermYearsPre
	}
	return designTermYearsPost
}

// isActive is true while now precedes the first instant of the expiry day in
// now's location. A patent is inactive on its expiry date.
func isActive(expiry civil.Date, now time.Time) bool {
	return now.Before(startOfDay(expiry, now.Location()))
}
