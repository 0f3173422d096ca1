package validation_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/student-records/internal/errs"
	"github.com/deppfellow/student-records/internal/model"
	"github.com/deppfellow/student-records/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	require.Error(t, err)
	httpErr, ok := err.(*errs.HTTPError)
	require.True(t, ok, "expected *errs.HTTPError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	return httpErr
}

func fieldMessages(httpErr *errs.HTTPError) map[string]string {
	out := make(map[string]string, len(httpErr.Errors))
	for _, fe := range httpErr.Errors {
		out[fe.Field] = fe.Error
	}
	return out
}

const validCreateBody = `{
	"firstName": "Ada",
	"lastName": "Lovelace",
	"email": "ada@example.com",
	"enrollmentYear": 2024,
	"class": "10A",
	"year": "Freshman"
}`

func TestBindAndValidate_Create(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload := &model.CreateStudentRequest{}
		err := validation.BindAndValidate(newContext(http.MethodPost, "/api/students", validCreateBody), payload)
		require.NoError(t, err)
		assert.Equal(t, "10A", payload.Class)
	})

	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name:   "empty body",
			body:   `{}`,
			fields: map[string]string{"firstName": "is required", "email": "is required", "class": "is required"},
		},
		{
			name: "bad email",
			body: strings.Replace(validCreateBody, "ada@example.com", "ada@example", 1),
			fields: map[string]string{
				"email": "must be a valid email address",
			},
		},
		{
			name:   "enrollment year out of range",
			body:   strings.Replace(validCreateBody, "2024", "1800", 1),
			fields: map[string]string{"enrollmentYear": "must be at least 1900"},
		},
		{
			name:   "class too long",
			body:   strings.Replace(validCreateBody, `"10A"`, `"ABCDEFGHIJK"`, 1),
			fields: map[string]string{"class": "must not exceed 10 characters"},
		},
		{
			name: "document missing name",
			body: strings.Replace(validCreateBody, `"year": "Freshman"`,
				`"year": "Freshman", "documents": [{"data": "x", "type": "text/plain"}]`, 1),
			fields: map[string]string{"documents[0].name": "is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.BindAndValidate(newContext(http.MethodPost, "/api/students", tt.body), &model.CreateStudentRequest{})
			httpErr := requireHTTPError(t, err)
			assert.Equal(t, "Validation failed", httpErr.Message)

			got := fieldMessages(httpErr)
			for field, msg := range tt.fields {
				assert.Equal(t, msg, got[field], "field %s", field)
			}
		})
	}
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	err := validation.BindAndValidate(newContext(http.MethodPost, "/api/students", `{"firstName": `), &model.CreateStudentRequest{})
	httpErr := requireHTTPError(t, err)
	assert.Empty(t, httpErr.Errors)
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestBindAndValidate_PathID(t *testing.T) {
	payloads := map[string]func() validation.Validatable{
		"get":    func() validation.Validatable { return &model.GetStudentRequest{} },
		"delete": func() validation.Validatable { return &model.DeleteStudentRequest{} },
		"update": func() validation.Validatable { return &model.UpdateStudentRequest{} },
	}

	for name, newPayload := range payloads {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"abc", "99999999999999999999", "1.5"} {
				c := withID(newContext(http.MethodPut, "/api/students/"+id, `{}`), id)
				httpErr := requireHTTPError(t, validation.BindAndValidate(c, newPayload()))
				assert.Equal(t, "invalid value for id", httpErr.Message)
				assert.NotContains(t, httpErr.Detail, "strconv")
			}
		})
	}

	t.Run("valid id with body", func(t *testing.T) {
		payload := &model.UpdateStudentRequest{}
		c := withID(newContext(http.MethodPut, "/api/students/42", `{"major": null}`), "42")
		require.NoError(t, validation.BindAndValidate(c, payload))
		assert.Equal(t, int64(42), payload.ID)
		assert.True(t, payload.Major.IsNull())
	})
}

type defaultBoundRequest struct {
	ID int64 `param:"id"`
}

func (r *defaultBoundRequest) Validate() error { return nil }

func TestBindAndValidate_DefaultBinderParamError(t *testing.T) {
	c := withID(newContext(http.MethodGet, "/things/99999999999999999999", ""), "99999999999999999999")
	httpErr := requireHTTPError(t, validation.BindAndValidate(c, &defaultBoundRequest{}))
	assert.Equal(t, "Invalid request", httpErr.Message)
}

func TestBindAndValidate_ListQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		query := &model.ListStudentsQuery{}
		require.NoError(t, validation.BindAndValidate(newContext(http.MethodGet, "/api/students", ""), query))
		assert.Equal(t, 0, query.Skip)
		assert.Equal(t, model.DefaultListLimit, query.Limit)
	})

	t.Run("filters", func(t *testing.T) {
		query := &model.ListStudentsQuery{}
		c := newContext(http.MethodGet, "/api/students?skip=5&limit=2&year=Senior&class_name=12C", "")
		require.NoError(t, validation.BindAndValidate(c, query))
		assert.Equal(t, model.StudentFilter{Year: "Senior", Class: "12C", Offset: 5, Limit: 2}, query.Filter())
	})

	t.Run("non numeric skip", func(t *testing.T) {
		err := validation.BindAndValidate(newContext(http.MethodGet, "/api/students?skip=abc", ""), &model.ListStudentsQuery{})
		httpErr := requireHTTPError(t, err)
		assert.Contains(t, httpErr.Message, "skip")
	})

	t.Run("negative limit", func(t *testing.T) {
		err := validation.BindAndValidate(newContext(http.MethodGet, "/api/students?limit=-1", ""), &model.ListStudentsQuery{})
		httpErr := requireHTTPError(t, err)
		assert.Equal(t, "must be at least 0", fieldMessages(httpErr)["limit"])
	})
}

func TestBindAndValidate_Update(t *testing.T) {
	t.Run("partial payload", func(t *testing.T) {
		payload := &model.UpdateStudentRequest{}
		require.NoError(t, validation.BindAndValidate(newContext(http.MethodPut, "/api/students/1", `{"major": null}`), payload))
		assert.True(t, payload.Major.IsNull())
		assert.False(t, payload.FirstName.IsSpecified())
	})

	t.Run("null on required field", func(t *testing.T) {
		err := validation.BindAndValidate(newContext(http.MethodPut, "/api/students/1", `{"firstName": null}`), &model.UpdateStudentRequest{})
		httpErr := requireHTTPError(t, err)
		assert.Equal(t, "cannot be null", fieldMessages(httpErr)["firstName"])
	})

	t.Run("invalid values", func(t *testing.T) {
		body := `{"email": "nope", "firstName": "", "documents": [{"name": "a"}]}`
		err := validation.BindAndValidate(newContext(http.MethodPut, "/api/students/1", body), &model.UpdateStudentRequest{})
		httpErr := requireHTTPError(t, err)

		got := fieldMessages(httpErr)
		assert.Equal(t, "must be a valid email address", got["email"])
		assert.Equal(t, "is required", got["firstName"])
		assert.Equal(t, "is required", got["documents[0].data"])
		assert.Equal(t, "is required", got["documents[0].type"])
	})
}

func TestValidateNullable(t *testing.T) {
	assert.Empty(t, validation.ValidateNullable("major", nullable.Nullable[string]{}, false, "max=3"))
	assert.Empty(t, validation.ValidateNullable("major", nullable.NewNullNullable[string](), true, "max=3"))
	assert.Empty(t, validation.ValidateNullable("major", nullable.NewNullableWithValue("abc"), false, "max=3"))

	problems := validation.ValidateNullable("major", nullable.NewNullableWithValue("abcd"), false, "max=3")
	require.Len(t, problems, 1)
	assert.Equal(t, validation.CustomValidationError{Field: "major", Message: "must not exceed 3 characters"}, problems[0])
}

func TestMailbox(t *testing.T) {
	v := validation.Validator()

	for _, email := range []string{"a@b.co", "first.last+tag@uni.example.edu"} {
		assert.NoError(t, v.Var(email, "mailbox"), email)
	}
	for _, email := range []string{"a@b", "a b@c.de", "@c.de", "plain"} {
		assert.Error(t, v.Var(email, "mailbox"), email)
	}
}
