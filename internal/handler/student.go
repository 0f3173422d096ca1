package handler

import (
	"net/http"

	"github.com/deppfellow/student-records/internal/model"
	"github.com/deppfellow/student-records/internal/server"
	"github.com/deppfellow/student-records/internal/service"
	"github.com/labstack/echo/v4"
)

// StudentHandler binds the student CRUD operations to HTTP.
//
// Every method builds a fresh payload value per request and runs it through
// the shared Handle pipeline (bind, validate, log, trace, respond).
type StudentHandler struct {
	Handler
	studentService *service.StudentService
}

func NewStudentHandler(s *server.Server, studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{
		Handler:        NewHandler(s),
		studentService: studentService,
	}
}

func (h *StudentHandler) CreateStudent(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, payload *model.CreateStudentRequest) (*model.StudentResponse, error) {
			return h.studentService.CreateStudent(c.Request().Context(), payload)
		},
		http.StatusCreated,
		&model.CreateStudentRequest{},
	)(c)
}

func (h *StudentHandler) ListStudents(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, query *model.ListStudentsQuery) ([]model.StudentResponse, error) {
			return h.studentService.ListStudents(c.Request().Context(), query)
		},
		http.StatusOK,
		&model.ListStudentsQuery{},
	)(c)
}

func (h *StudentHandler) GetStudent(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, payload *model.GetStudentRequest) (*model.StudentResponse, error) {
			return h.studentService.GetStudent(c.Request().Context(), payload.ID)
		},
		http.StatusOK,
		&model.GetStudentRequest{},
	)(c)
}

func (h *StudentHandler) UpdateStudent(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, payload *model.UpdateStudentRequest) (*model.StudentResponse, error) {
			return h.studentService.UpdateStudent(c.Request().Context(), payload)
		},
		http.StatusOK,
		&model.UpdateStudentRequest{},
	)(c)
}

func (h *StudentHandler) DeleteStudent(c echo.Context) error {
	return HandleNoContent(
		h.Handler,
		func(c echo.Context, payload *model.DeleteStudentRequest) error {
			return h.studentService.DeleteStudent(c.Request().Context(), payload.ID)
		},
		http.StatusNoContent,
		&model.DeleteStudentRequest{},
	)(c)
}
