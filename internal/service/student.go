package service

import (
	"context"
	"errors"

	"github.com/deppfellow/student-records/internal/errs"
	"github.com/deppfellow/student-records/internal/lib/utils"
	"github.com/deppfellow/student-records/internal/model"
	"github.com/deppfellow/student-records/internal/repository"
	"github.com/deppfellow/student-records/internal/server"
	"github.com/deppfellow/student-records/internal/sqlerr"
	"github.com/rs/zerolog"
)

const (
	ErrCodeStudentNotFound      = "STUDENT_NOT_FOUND"
	ErrCodeStudentAlreadyExists = "STUDENT_ALREADY_EXISTS"
)

func newStudentNotFoundError() *errs.HTTPError {
	code := ErrCodeStudentNotFound
	return errs.NewNotFoundError("Student not found", true, &code)
}

func newEmailRegisteredError() *errs.HTTPError {
	code := ErrCodeStudentAlreadyExists
	return errs.NewBadRequestError("Email already registered", true, &code, nil, nil)
}

type StudentService struct {
	server      *server.Server
	studentRepo *repository.StudentRepository
}

func NewStudentService(s *server.Server, studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{
		server:      s,
		studentRepo: studentRepo,
	}
}

// log returns the request-scoped logger when ctx carries one.
func (s *StudentService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.server.Logger
}

// logAttachments adds photo and document sizes to event instead of their payloads.
func logAttachments(event *zerolog.Event, photo *string, docs []model.DocumentPayload) *zerolog.Event {
	if photo != nil {
		summary := utils.SummarizeDataURL(*photo)
		event = event.Str("photo_type", summary.MediaType).Int("photo_bytes", summary.Bytes)
	}

	data := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Data != nil {
			data = append(data, *doc.Data)
		}
	}

	return event.Int("documents", len(docs)).Int("document_bytes", utils.TotalBytes(data...))
}

// storageError maps repository failures onto client errors.
func storageError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		return newStudentNotFoundError()
	case sqlerr.IsUniqueViolation(err):
		// Lost a race with a concurrent write of the same email.
		return newEmailRegisteredError()
	default:
		return err
	}
}

func (s *StudentService) CreateStudent(ctx context.Context, payload *model.CreateStudentRequest) (*model.StudentResponse, error) {
	logger := s.log(ctx)

	existing, err := s.studentRepo.GetByEmail(ctx, payload.Email)
	if err != nil {
		logger.Error().Err(err).Msg("failed to check email uniqueness")
		return nil, err
	}
	if existing != nil {
		logger.Warn().Int64("existing_id", existing.ID).Msg("email already registered")
		return nil, newEmailRegisteredError()
	}

	student, err := payload.ToStudent()
	if err != nil {
		return nil, err
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		logger.Error().Err(err).Msg("failed to create student")
		return nil, storageError(err)
	}

	event := logger.Info().Int64("student_id", student.ID)
	logAttachments(event, payload.Photo, payload.Documents).Msg("student created")

	return model.NewStudentResponse(student)
}

func (s *StudentService) ListStudents(ctx context.Context, query *model.ListStudentsQuery) ([]model.StudentResponse, error) {
	logger := s.log(ctx)

	students, err := s.studentRepo.List(ctx, query.Filter())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list students")
		return nil, err
	}

	responses := make([]model.StudentResponse, 0, len(students))
	for i := range students {
		response, err := model.NewStudentResponse(&students[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}

	logger.Info().
		Int("skip", query.Skip).
		Int("limit", query.Limit).
		Str("year", query.Year).
		Str("class_name", query.ClassName).
		Int("count", len(responses)).
		Msg("students listed")

	return responses, nil
}

func (s *StudentService) GetStudent(ctx context.Context, id int64) (*model.StudentResponse, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}

	return model.NewStudentResponse(student)
}

// UpdateStudent applies a partial update. Only supplied fields change.
func (s *StudentService) UpdateStudent(ctx context.Context, payload *model.UpdateStudentRequest) (*model.StudentResponse, error) {
	logger := s.log(ctx).With().Int64("student_id", payload.ID).Logger()

	current, err := s.studentRepo.GetByID(ctx, payload.ID)
	if err != nil {
		return nil, storageError(err)
	}

	if email, err := payload.Email.Get(); err == nil && email != current.Email {
		existing, err := s.studentRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != current.ID {
			logger.Warn().Int64("existing_id", existing.ID).Msg("email already registered")
			return nil, newEmailRegisteredError()
		}
	}

	columns, err := payload.Columns()
	if err != nil {
		return nil, err
	}

	if err := s.studentRepo.Update(ctx, payload.ID, columns); err != nil {
		logger.Error().Err(err).Msg("failed to update student")
		return nil, storageError(err)
	}

	updated, err := s.studentRepo.GetByID(ctx, payload.ID)
	if err != nil {
		return nil, storageError(err)
	}

	fields := make([]string, 0, len(columns))
	for column := range columns {
		if field, ok := model.StudentFields.Field(column); ok {
			fields = append(fields, field)
		}
	}
	event := logger.Info().Strs("fields", fields)
	if payload.Photo.IsSpecified() || payload.Documents.IsSpecified() {
		photo, _ := payload.Photo.Get()
		docs, _ := payload.Documents.Get()

		var photoPtr *string
		if photo != "" {
			photoPtr = &photo
		}
		event = logAttachments(event, photoPtr, docs)
	}
	event.Msg("student updated")

	return model.NewStudentResponse(updated)
}

func (s *StudentService) DeleteStudent(ctx context.Context, id int64) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return storageError(err)
	}

	s.log(ctx).Info().Int64("student_id", id).Msg("student deleted")
	return nil
}
