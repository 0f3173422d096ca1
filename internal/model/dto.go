package model

import (
	"github.com/deppfellow/student-records/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/nullable"
)

// DefaultListLimit is the page size used when the limit query parameter is absent.
const DefaultListLimit = 100

// ------------------------------------------------------------

// DocumentPayload is a document as submitted by clients.
// Pointers tell "missing" apart from an empty string.
type DocumentPayload struct {
	Name *string `json:"name" validate:"required"`
	Data *string `json:"data" validate:"required"`
	Type *string `json:"type" validate:"required"`
}

func toDocuments(payload []DocumentPayload) []Document {
	if payload == nil {
		return nil
	}

	docs := make([]Document, len(payload))
	for i, p := range payload {
		docs[i] = Document{Name: deref(p.Name), Data: deref(p.Data), Type: deref(p.Type)}
	}
	return docs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ------------------------------------------------------------

type CreateStudentRequest struct {
	FirstName      string            `json:"firstName" validate:"required,min=1,max=100"`
	LastName       string            `json:"lastName" validate:"required,min=1,max=100"`
	Email          string            `json:"email" validate:"required,email,mailbox"`
	EnrollmentYear int               `json:"enrollmentYear" validate:"required,min=1900,max=2100"`
	DOB            *string           `json:"dob"`
	Major          *string           `json:"major" validate:"omitempty,max=100"`
	Class          string            `json:"class" validate:"required,max=10"`
	Year           string            `json:"year" validate:"required,max=50"`
	Photo          *string           `json:"photo"`
	Documents      []DocumentPayload `json:"documents" validate:"omitempty,dive"`
}

func (r *CreateStudentRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// ToStudent builds the row to insert. The date of birth is normalized and
// documents are encoded for storage.
func (r *CreateStudentRequest) ToStudent() (*Student, error) {
	documents, err := EncodeDocuments(toDocuments(r.Documents))
	if err != nil {
		return nil, err
	}

	student := &Student{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		EnrollmentYear: r.EnrollmentYear,
		Major:          r.Major,
		ClassName:      r.Class,
		Year:           r.Year,
		Photo:          r.Photo,
		Documents:      documents,
	}
	if r.DOB != nil {
		student.DOB = ParseDate(*r.DOB)
	}

	return student, nil
}

// ------------------------------------------------------------

// UpdateStudentRequest is a partial update.
//
// Every field distinguishes three states: absent (left untouched), explicit
// null (cleared, only allowed on optional fields) and a value.
type UpdateStudentRequest struct {
	ID             int64                                `param:"id" json:"-"`
	FirstName      nullable.Nullable[string]            `json:"firstName"`
	LastName       nullable.Nullable[string]            `json:"lastName"`
	Email          nullable.Nullable[string]            `json:"email"`
	EnrollmentYear nullable.Nullable[int]               `json:"enrollmentYear"`
	DOB            nullable.Nullable[string]            `json:"dob"`
	Major          nullable.Nullable[string]            `json:"major"`
	Class          nullable.Nullable[string]            `json:"class"`
	Year           nullable.Nullable[string]            `json:"year"`
	Photo          nullable.Nullable[string]            `json:"photo"`
	Documents      nullable.Nullable[[]DocumentPayload] `json:"documents"`
}

// Bind reads the id path parameter, then the JSON body.
func (r *UpdateStudentRequest) Bind(c echo.Context) error {
	if err := bindStudentID(c, &r.ID); err != nil {
		return err
	}
	return (&echo.DefaultBinder{}).BindBody(c, r)
}

func (r *UpdateStudentRequest) Validate() error {
	var problems validation.CustomValidationErrors

	problems = append(problems, validation.ValidateNullable("firstName", r.FirstName, false, "required,min=1,max=100")...)
	problems = append(problems, validation.ValidateNullable("lastName", r.LastName, false, "required,min=1,max=100")...)
	problems = append(problems, validation.ValidateNullable("email", r.Email, false, "required,email,mailbox")...)
	problems = append(problems, validation.ValidateNullable("enrollmentYear", r.EnrollmentYear, false, "min=1900,max=2100")...)
	problems = append(problems, validation.ValidateNullable("dob", r.DOB, true, "")...)
	problems = append(problems, validation.ValidateNullable("major", r.Major, true, "max=100")...)
	problems = append(problems, validation.ValidateNullable("class", r.Class, false, "required,max=10")...)
	problems = append(problems, validation.ValidateNullable("year", r.Year, false, "required,max=50")...)
	problems = append(problems, validation.ValidateNullable("photo", r.Photo, true, "")...)

	if docs, err := r.Documents.Get(); err == nil {
		problems = append(problems, validation.ValidateEach("documents", docs)...)
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

// Columns returns the storage columns to write, keyed by column name.
// Only supplied fields appear; explicit nulls map to nil.
func (r *UpdateStudentRequest) Columns() (map[string]any, error) {
	columns := make(map[string]any)

	setColumn(columns, "firstName", r.FirstName)
	setColumn(columns, "lastName", r.LastName)
	setColumn(columns, "email", r.Email)
	setColumn(columns, "enrollmentYear", r.EnrollmentYear)
	setColumn(columns, "major", r.Major)
	setColumn(columns, "class", r.Class)
	setColumn(columns, "year", r.Year)
	setColumn(columns, "photo", r.Photo)

	if r.DOB.IsSpecified() {
		column := StudentFields.MustColumn("dob")
		columns[column] = nil
		if value, err := r.DOB.Get(); err == nil {
			if date := ParseDate(value); date != nil {
				columns[column] = date
			}
		}
	}

	if r.Documents.IsSpecified() {
		column := StudentFields.MustColumn("documents")
		columns[column] = nil
		if payload, err := r.Documents.Get(); err == nil {
			encoded, err := EncodeDocuments(toDocuments(payload))
			if err != nil {
				return nil, err
			}
			if encoded != nil {
				columns[column] = *encoded
			}
		}
	}

	return columns, nil
}

func setColumn[T any](columns map[string]any, field string, value nullable.Nullable[T]) {
	if !value.IsSpecified() {
		return
	}

	column := StudentFields.MustColumn(field)
	if value.IsNull() {
		columns[column] = nil
		return
	}
	columns[column] = value.MustGet()
}

// ------------------------------------------------------------

// bindStudentID parses the :id path parameter so overflow and non-numeric
// values surface as an *echo.BindingError naming the parameter.
func bindStudentID(c echo.Context, id *int64) error {
	return echo.PathParamsBinder(c).Int64("id", id).BindError()
}

type GetStudentRequest struct {
	ID int64 `param:"id"`
}

func (r *GetStudentRequest) Bind(c echo.Context) error {
	return bindStudentID(c, &r.ID)
}

func (r *GetStudentRequest) Validate() error {
	return nil
}

type DeleteStudentRequest struct {
	ID int64 `param:"id"`
}

func (r *DeleteStudentRequest) Bind(c echo.Context) error {
	return bindStudentID(c, &r.ID)
}

func (r *DeleteStudentRequest) Validate() error {
	return nil
}

// ------------------------------------------------------------

type ListStudentsQuery struct {
	Skip      int    `query:"skip" validate:"min=0"`
	Limit     int    `query:"limit" validate:"min=0"`
	Year      string `query:"year"`
	ClassName string `query:"class_name"`
}

// Bind reads the query string, keeping defaults for absent parameters.
func (q *ListStudentsQuery) Bind(c echo.Context) error {
	q.Skip = 0
	q.Limit = DefaultListLimit

	return echo.QueryParamsBinder(c).
		Int("skip", &q.Skip).
		Int("limit", &q.Limit).
		String("year", &q.Year).
		String("class_name", &q.ClassName).
		BindError()
}

func (q *ListStudentsQuery) Validate() error {
	return validation.Validator().Struct(q)
}

// Filter converts the query into a store filter. Empty strings do not filter.
func (q *ListStudentsQuery) Filter() StudentFilter {
	return StudentFilter{
		Year:   q.Year,
		Class:  q.ClassName,
		Offset: q.Skip,
		Limit:  q.Limit,
	}
}

// StudentFilter selects rows for listing.
type StudentFilter struct {
	Year   string
	Class  string
	Offset int
	Limit  int
}

// ------------------------------------------------------------

// StudentResponse is a student as rendered to clients.
type StudentResponse struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	EnrollmentYear int        `json:"enrollmentYear"`
	DOB            *string    `json:"dob"`
	Major          *string    `json:"major"`
	Class          string     `json:"class"`
	Year           string     `json:"year"`
	Photo          *string    `json:"photo"`
	Documents      []Document `json:"documents"`
}

func NewStudentResponse(s *Student) (*StudentResponse, error) {
	documents, err := DecodeDocuments(s.Documents)
	if err != nil {
		return nil, err
	}

	return &StudentResponse{
		ID:             s.ID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		EnrollmentYear: s.EnrollmentYear,
		DOB:            FormatDate(s.DOB),
		Major:          s.Major,
		Class:          s.ClassName,
		Year:           s.Year,
		Photo:          s.Photo,
		Documents:      documents,
	}, nil
}
