package model

// Project is a billable engagement timesheet lines point at.
type Project struct {
	Base
	Code     string      `json:"code" validate:"required,project_code"`
	Name     string      `json:"name" validate:"required"`
	Client   string      `json:"client" validate:"required"`
	Type     ProjectType `json:"type" validate:"oneof='Privé' 'Public'"`
	IsActive bool        `json:"isActive"`
}

// Phase is a work breakdown bucket. Its activity list constrains which
// activities a timesheet line referencing the phase may use.
type Phase struct {
	Base
	Code       string   `json:"code" validate:"required,phase_code"`
	Name       string   `json:"name" validate:"required"`
	Activities []string `json:"activities" validate:"dive,required"`
}

// Activity is a coded unit of work.
type Activity struct {
	Base
	Code string `json:"code" validate:"required,activity_code"`
	Name string `json:"name" validate:"required"`
}
