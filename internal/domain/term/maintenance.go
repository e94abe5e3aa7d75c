package term

import (
	"github.com/golang-sql/civil"
)

// Milestone is a maintenance-fee due offset measured from the grant date.
type Milestone struct {
	Key    string
	Years  int
	Months int
}

// Milestones are the three USPTO maintenance-fee due points: 3.5, 7.5 and
// 11.5 years after grant.
var Milestones = []Milestone{
	{Key: "year_3_5", Years: 3, Months: 6},
	{Key: "year_7_5", Years: 7, Months: 6},
	{Key: "year_11_5", Years: 11, Months: 6},
}

const windowMonths = 6

// FeeWindow is one maintenance-fee payment window. The fee may be paid
// without surcharge from WindowStart through WindowEnd (the due date) and
// with surcharge until SurchargeEnd.
type FeeWindow struct {
	DueDate      civil.Date `json:"due_date"`
	WindowStart  civil.Date `json:"window_start"`
	WindowEnd    civil.Date `json:"window_end"`
	SurchargeEnd civil.Date `json:"surcharge_end"`
}

// FeeWindowStatus describes where a date falls relative to a FeeWindow.
type FeeWindowStatus string

const (
	FeeWindowUpcoming  FeeWindowStatus = "upcoming"
	FeeWindowOpen      FeeWindowStatus = "open"
	FeeWindowSurcharge FeeWindowStatus = "surcharge"
	FeeWindowLapsed    FeeWindowStatus = "lapsed"
)

// StatusAt classifies asOf against the window. All bounds are inclusive.
func (w FeeWindow) StatusAt(asOf civil.Date) FeeWindowStatus {
	switch {
	case asOf.Before(w.WindowStart):
		return FeeWindowUpcoming
	case !asOf.After(w.WindowEnd):
		return FeeWindowOpen
	case !asOf.After(w.SurchargeEnd):
		return FeeWindowSurcharge
	default:
		return FeeWindowLapsed
	}
}

// MaintenanceFeeSchedule holds the three fee windows of a utility or plant
// patent.
type MaintenanceFeeSchedule struct {
	Year3_5  FeeWindow `json:"year_3_5"`
	Year7_5  FeeWindow `json:"year_7_5"`
	Year11_5 FeeWindow `json:"year_11_5"`
}

// ScheduledFee pairs a milestone key with its window.
type ScheduledFee struct {
	Milestone string          `json:"milestone"`
	Window    FeeWindow       `json:"window"`
	Status    FeeWindowStatus `json:"status"`
}

// Windows returns the windows in milestone order.
func (s MaintenanceFeeSchedule) Windows() []FeeWindow {
	return []FeeWindow{s.Year3_5, s.Year7_5, s.Year11_5}
}

// Next returns the earliest window whose surcharge period has not ended on
// asOf, or nil once every window has lapsed.
func (s MaintenanceFeeSchedule) Next(asOf civil.Date) *ScheduledFee {
	for i, w := range s.Windows() {
		status := w.StatusAt(asOf)
		if status == FeeWindowLapsed {
			continue
		}
		return &ScheduledFee{Milestone: Milestones[i].Key, Window: w, Status: status}
	}
	return nil
}

// ComputeMaintenanceFees derives the fee schedule from the grant date. It
// does not look at the patent kind; callers skip it for design patents.
func ComputeMaintenanceFees(grant civil.Date) MaintenanceFeeSchedule {
	windows := make([]FeeWindow, len(Milestones))
	for i, m := range Milestones {
		windows[i] = feeWindow(AddCalendarMonths(grant, m.Years, m.Months))
	}
	return MaintenanceFeeSchedule{
		Year3_5:  windows[0],
		Year7_5:  windows[1],
		Year11_5: windows[2],
	}
}

func feeWindow(due civil.Date) FeeWindow {
	return FeeWindow{
		DueDate:      due,
		WindowStart:  AddCalendarMonths(due, 0, -windowMonths),
		WindowEnd:    due,
		SurchargeEnd: AddCalendarMonths(due, 0, windowMonths),
	}
}
