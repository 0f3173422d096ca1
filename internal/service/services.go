// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data
package service

import (
	"github.com/deppfellow/student-records/internal/repository"
	"github.com/deppfellow/student-records/internal/server"
)

type Services struct {
	Student *StudentService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Student: NewStudentService(s, repos.Student),
	}, nil
}
