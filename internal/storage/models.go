package storage

import "time"

// Collection and table names shared by every backend.
const (
	CollectionFAQs        = "faqs"
	CollectionDepartments = "departments"
	CollectionContacts    = "contacts"
	CollectionFAQBackup   = "faqs_duplicates_backup"
)

// Defaults applied when a dataset entry leaves the field empty.
const (
	DefaultCategory = "general"
	DefaultSource   = "seed"
)

// RoleAdmin marks the contact quoted in the fallback answer.
const RoleAdmin = "admin"

// FAQ is one stored question/answer document.
// ListFAQs only fills Question and Answer.
type FAQ struct {
	ID        string    `json:"id,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	QNorm     string    `json:"q_norm,omitempty"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Person is a named contact attached to a department.
type Person struct {
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email,omitempty" yaml:"email"`
	Phone      string `json:"phone,omitempty" yaml:"phone"`
	ProfileURL string `json:"profile_url,omitempty" yaml:"profile_url"`
}

// Department is an academic department keyed by DeptID.
type Department struct {
	DeptID  string   `json:"dept_id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	HOD     Person   `json:"hod"`
	Address string   `json:"address,omitempty"`
	MapsURL string   `json:"maps_url,omitempty"`
	Notes   string   `json:"notes,omitempty"`
	Source  string   `json:"source,omitempty"`
}

// Contact is a role-keyed contact such as the admissions admin.
type Contact struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// DuplicateGroup is a set of FAQs sharing one q_norm.
type DuplicateGroup struct {
	QNorm string
	Count int
	IDs   []string
}

// UpsertResult counts what a bulk upsert did.
type UpsertResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Upserted int `json:"upserted"`
}
