package model

import (
	"sort"
	"time"
)

// PeriodDays is the length of a timesheet period in calendar days,
// inclusive. Periods run Sunday through the Saturday of the following week.
const PeriodDays = 14

// TimesheetEntry records the hours worked on one day of the period.
type TimesheetEntry struct {
	Date time.Time `json:"date" validate:"required"`
	Time float64   `json:"time"`
}

// TimesheetLine books hours against a (project, phase, activity)
// combination, one entry per day of the period.
type TimesheetLine struct {
	Project  string           `json:"project" validate:"required"`
	Phase    string           `json:"phase" validate:"required"`
	Activity string           `json:"activity" validate:"required"`
	Divers   string           `json:"divers,omitempty"`
	Entries  []TimesheetEntry `json:"entries" validate:"len=14,dive"`
}

// Expense is one reimbursable cost attached to a travel.
type Expense struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount" validate:"gte=0"`
}

// Travel is one trip on the roadsheet.
type Travel struct {
	Date     time.Time `json:"date" validate:"required"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Distance float64   `json:"distance" validate:"gte=0"`
	Expenses []Expense `json:"expenses" validate:"dive"`
}

// RoadsheetLine groups the travels charged to one project of the timesheet.
type RoadsheetLine struct {
	Project string   `json:"project" validate:"required"`
	Travels []Travel `json:"travels" validate:"dive"`
}

// Timesheet is one user's two-week period of booked hours and travels.
type Timesheet struct {
	Base
	User           string          `json:"user" validate:"required"`
	Begin          time.Time       `json:"begin" validate:"required"`
	End            time.Time       `json:"end" validate:"required"`
	Lines          []TimesheetLine `json:"lines" validate:"min=1,dive"`
	RoadsheetLines []RoadsheetLine `json:"roadsheetLines" validate:"dive"`
}

// Normalize snaps the period bounds (begin to start of day, end to end of
// day), snaps entry and travel dates to start of day, and sorts entry and
// travel lists by date so validators can assume ascending order.
func (t *Timesheet) Normalize() {
	if !t.Begin.IsZero() {
		t.Begin = StartOfDay(t.Begin)
	}
	if !t.End.IsZero() {
		t.End = EndOfDay(t.End)
	}
	for l := range t.Lines {
		entries := t.Lines[l].Entries
		for i := range entries {
			if !entries[i].Date.IsZero() {
				entries[i].Date = StartOfDay(entries[i].Date)
			}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Date.Before(entries[j].Date)
		})
	}
	for r := range t.RoadsheetLines {
		travels := t.RoadsheetLines[r].Travels
		for i := range travels {
			if !travels[i].Date.IsZero() {
				travels[i].Date = StartOfDay(travels[i].Date)
			}
		}
		sort.SliceStable(travels, func(i, j int) bool {
			return travels[i].Date.Before(travels[j].Date)
		})
	}
}
