package model

import (
	"sort"
	"time"
)

// BillingRate is one step of a billing timeline. The last rate of a
// timeline leaves End nil, meaning open-ended.
type BillingRate struct {
	Begin    time.Time  `json:"begin" validate:"required"`
	End      *time.Time `json:"end,omitempty"`
	Rate     float64    `json:"rate"`
	JobTitle string     `json:"jobTitle"`
}

// BillingGroup attaches a rate timeline to one project type.
type BillingGroup struct {
	ProjectType ProjectType   `json:"projectType" validate:"oneof='Privé' 'Public'"`
	Timeline    []BillingRate `json:"timeline" validate:"min=1,dive"`
}

// User is an account and principal. Password is only present on creation
// and on password changes; reads strip it.
type User struct {
	Base
	Username      string         `json:"username" validate:"required"`
	FirstName     string         `json:"firstName" validate:"required"`
	LastName      string         `json:"lastName" validate:"required"`
	Role          UserRole       `json:"role" validate:"oneof=1 2 4 8"`
	Email         string         `json:"email" validate:"required,email"`
	Password      string         `json:"password,omitempty"`
	BillingGroups []BillingGroup `json:"billingGroups" validate:"len=2,dive"`
	IsActive      bool           `json:"isActive"`
}

// Normalize sorts each billing timeline by begin date and snaps rate bounds
// to day boundaries (begin to start of day, end to end of day).
func (u *User) Normalize() {
	for g := range u.BillingGroups {
		timeline := u.BillingGroups[g].Timeline
		sort.SliceStable(timeline, func(i, j int) bool {
			return timeline[i].Begin.Before(timeline[j].Begin)
		})
		for i := range timeline {
			if !timeline[i].Begin.IsZero() {
				timeline[i].Begin = StartOfDay(timeline[i].Begin)
			}
			if timeline[i].End != nil {
				end := EndOfDay(*timeline[i].End)
				timeline[i].End = &end
			}
		}
	}
}
