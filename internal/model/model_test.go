package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func ptr[T any](v T) *T {
	return &v
}

func TestEncodeDocuments(t *testing.T) {
	t.Run("nil list is stored as NULL", func(t *testing.T) {
		encoded, err := EncodeDocuments(nil)
		require.NoError(t, err)
		assert.Nil(t, encoded)
	})

	t.Run("empty list is stored as an empty array", func(t *testing.T) {
		encoded, err := EncodeDocuments([]Document{})
		require.NoError(t, err)
		require.NotNil(t, encoded)
		assert.Equal(t, "[]", *encoded)
	})

	t.Run("order and content survive a round trip", func(t *testing.T) {
		docs := []Document{
			{Name: "transcript.pdf", Data: "data:application/pdf;base64,AAA", Type: "application/pdf"},
			{Name: "id.png", Data: "data:image/png;base64,BBB", Type: "image/png"},
		}

		encoded, err := EncodeDocuments(docs)
		require.NoError(t, err)

		decoded, err := DecodeDocuments(encoded)
		require.NoError(t, err)
		assert.Equal(t, docs, decoded)
	})
}

func TestDecodeDocuments(t *testing.T) {
	decoded, err := DecodeDocuments(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	decoded, err = DecodeDocuments(ptr(""))
	require.NoError(t, err)
	assert.Nil(t, decoded)

	_, err = DecodeDocuments(ptr("{not json"))
	assert.Error(t, err)
}

func TestStudentFields(t *testing.T) {
	column, ok := StudentFields.Column("class")
	require.True(t, ok)
	assert.Equal(t, "class_name", column)

	field, ok := StudentFields.Field("enrollment_year")
	require.True(t, ok)
	assert.Equal(t, "enrollmentYear", field)

	_, ok = StudentFields.Column("className")
	assert.False(t, ok)

	assert.Panics(t, func() { StudentFields.MustColumn("nope") })
}

func TestParseDate(t *testing.T) {
	date := ParseDate("2001-02-03")
	require.NotNil(t, date)
	assert.Equal(t, "2001-02-03", *FormatDate(date))

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("03/02/2001"))
	assert.Nil(t, ParseDate("2001-13-40"))
	assert.Nil(t, FormatDate(nil))
}

func TestCreateStudentRequest_ToStudent(t *testing.T) {
	req := &CreateStudentRequest{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		EnrollmentYear: 2024,
		DOB:            ptr("not-a-date"),
		Class:          "10A",
		Year:           "Freshman",
		Documents: []DocumentPayload{
			{Name: ptr("a.txt"), Data: ptr("data:text/plain;base64,YQ=="), Type: ptr("text/plain")},
		},
	}

	student, err := req.ToStudent()
	require.NoError(t, err)

	assert.Equal(t, "10A", student.ClassName)
	assert.Nil(t, student.DOB, "unparseable dob is stored as absent")
	require.NotNil(t, student.Documents)

	docs, err := DecodeDocuments(student.Documents)
	require.NoError(t, err)
	assert.Equal(t, []Document{{Name: "a.txt", Data: "data:text/plain;base64,YQ==", Type: "text/plain"}}, docs)
}

func TestUpdateStudentRequest_Columns(t *testing.T) {
	var req UpdateStudentRequest
	body := `{"major": null, "class": "11B", "dob": "bad", "documents": [], "enrollmentYear": 2023}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	columns, err := req.Columns()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"major":           nil,
		"class_name":      "11B",
		"dob":             nil,
		"documents":       "[]",
		"enrollment_year": 2023,
	}, columns)
}

func TestUpdateStudentRequest_ColumnsEmpty(t *testing.T) {
	var req UpdateStudentRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))

	columns, err := req.Columns()
	require.NoError(t, err)
	assert.Empty(t, columns)
}

func TestUpdateStudentRequest_ColumnsDate(t *testing.T) {
	var req UpdateStudentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dob": "1999-12-31"}`), &req))

	columns, err := req.Columns()
	require.NoError(t, err)

	date, ok := columns["dob"].(*datatypes.Date)
	require.True(t, ok)
	assert.Equal(t, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), time.Time(*date))
}

func TestNewStudentResponse(t *testing.T) {
	student := &Student{
		ID:             7,
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@example.com",
		EnrollmentYear: 2020,
		DOB:            ParseDate("1990-01-02"),
		ClassName:      "12C",
		Year:           "Senior",
		Documents:      ptr(`[{"name":"cv.pdf","data":"x","type":"application/pdf"}]`),
	}

	resp, err := NewStudentResponse(student)
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "12C", resp.Class)
	require.NotNil(t, resp.DOB)
	assert.Equal(t, "1990-01-02", *resp.DOB)
	assert.Nil(t, resp.Major)
	assert.Equal(t, []Document{{Name: "cv.pdf", Data: "x", Type: "application/pdf"}}, resp.Documents)

	student.Documents = ptr("broken")
	_, err = NewStudentResponse(student)
	assert.Error(t, err)
}
