package models

import "time"

// Department is a top-level organizational unit. Names are unique.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Section belongs to exactly one department. (name, department) is unique.
type Section struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"departmentId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	DepartmentName *string `db:"department_name" json:"-"`
}
