package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/student-records/internal/model"
	"github.com/deppfellow/student-records/internal/server"
	"gorm.io/gorm"
)

// ErrStudentNotFound is returned when no row has the requested id.
var ErrStudentNotFound = errors.New("student not found")

type StudentRepository struct {
	server *server.Server
}

func NewStudentRepository(s *server.Server) *StudentRepository {
	return &StudentRepository{server: s}
}

func (r *StudentRepository) db(ctx context.Context) *gorm.DB {
	return r.server.DB.DB.WithContext(ctx)
}

// Create inserts the student and fills in its id.
// A duplicate email surfaces as the driver's unique violation.
func (r *StudentRepository) Create(ctx context.Context, student *model.Student) error {
	if err := r.db(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student

	err := r.db(ctx).Where("id = ?", id).Take(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by id=%d: %w", id, err)
	}

	return &student, nil
}

// GetByEmail returns nil, nil when no student uses the email.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student

	err := r.db(ctx).Where("email = ?", email).Take(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}

	return &student, nil
}

// List returns students matching the filter ordered by id.
func (r *StudentRepository) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	query := r.db(ctx).Model(&model.Student{})

	if filter.Year != "" {
		query = query.Where(model.StudentFields.MustColumn("year")+" = ?", filter.Year)
	}
	if filter.Class != "" {
		query = query.Where(model.StudentFields.MustColumn("class")+" = ?", filter.Class)
	}

	students := make([]model.Student, 0)
	err := query.
		Order("id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return students, nil
}

// Update writes only the given columns. An empty column set only checks
// that the student exists.
func (r *StudentRepository) Update(ctx context.Context, id int64, columns map[string]any) error {
	if len(columns) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	result := r.db(ctx).Model(&model.Student{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update student id=%d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db(ctx).Where("id = ?", id).Delete(&model.Student{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete student id=%d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}
