// Package repository handles all interactions with the database.
//
// It contains the gorm queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
package repository

import (
	"github.com/deppfellow/student-records/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Student *StudentRepository
}

// NewRepositories constructs the repository container.
//
// Parameter:
// - s: application container (the gorm handle lives on s.DB)
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Student: NewStudentRepository(s),
	}
}
