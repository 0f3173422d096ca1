// Package model holds the Student entity as it is stored and the
// request/response payloads the HTTP layer exchanges with clients.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the only accepted and rendered date format.
const DateLayout = "2006-01-02"

// Student is one row of the students table.
//
// Field names follow the storage convention; the external (JSON) names live
// on the payload types and in StudentFields.
type Student struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName      string          `gorm:"column:first_name;size:100;not null"`
	LastName       string          `gorm:"column:last_name;size:100;not null"`
	Email          string          `gorm:"column:email;size:255;not null;uniqueIndex"`
	EnrollmentYear int             `gorm:"column:enrollment_year;not null"`
	DOB            *datatypes.Date `gorm:"column:dob"`
	Major          *string         `gorm:"column:major;size:100"`
	ClassName      string          `gorm:"column:class_name;size:10;not null"`
	Year           string          `gorm:"column:year;size:50;not null"`
	Photo          *string         `gorm:"column:photo"`
	Documents      *string         `gorm:"column:documents"`
}

func (Student) TableName() string {
	return "students"
}

// ParseDate parses a YYYY-MM-DD string.
// Empty or unparseable input yields nil instead of an error.
func ParseDate(value string) *datatypes.Date {
	if value == "" {
		return nil
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil
	}

	date := datatypes.Date(t)
	return &date
}

// FormatDate renders a stored date as YYYY-MM-DD, or nil when absent.
func FormatDate(date *datatypes.Date) *string {
	if date == nil {
		return nil
	}

	formatted := time.Time(*date).Format(DateLayout)
	return &formatted
}
