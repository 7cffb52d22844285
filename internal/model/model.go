// Package model holds the business entities of the timesheet system. Field
// names follow the wire format of the document store (camelCase JSON, id
// kept under _id outside the stored payload).
package model

// Base carries the document id shared by every entity.
type Base struct {
	ID string `json:"_id,omitempty"`
}

// DocumentID returns the assigned document id, empty for new documents.
func (b *Base) DocumentID() string { return b.ID }

// SetDocumentID records the assigned document id.
func (b *Base) SetDocumentID(id string) { b.ID = id }

// UserRole is the totally ordered role hierarchy. Higher values outrank
// lower ones.
type UserRole int

const (
	RoleUser       UserRole = 1
	RoleSubadmin   UserRole = 2
	RoleAdmin      UserRole = 4
	RoleSuperadmin UserRole = 8
)

func (r UserRole) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleSubadmin:
		return "SUBADMIN"
	case RoleAdmin:
		return "ADMIN"
	case RoleSuperadmin:
		return "SUPERADMIN"
	}
	return "UNKNOWN"
}

// ProjectType distinguishes the two billing regimes. Every user carries one
// billing group per project type.
type ProjectType string

const (
	ProjectTypePrive  ProjectType = "Privé"
	ProjectTypePublic ProjectType = "Public"
)

// ProjectTypes lists all project types.
func ProjectTypes() []ProjectType {
	return []ProjectType{ProjectTypePrive, ProjectTypePublic}
}
