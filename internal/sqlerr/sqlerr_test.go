package sqlerr

import (
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/deppfellow/student-records/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapCode(t *testing.T) {
	tests := map[string]Code{
		"23505": UniqueViolation,
		"23503": ForeignKeyViolation,
		"23502": NotNullViolation,
		"23514": CheckViolation,
		"42P01": Other,
	}
	for sqlstate, want := range tests {
		assert.Equal(t, want, MapCode(sqlstate), sqlstate)
	}
}

// duplicateInsert returns the error a real SQLite database reports for a
// second row with the same email.
func duplicateInsert(t *testing.T) error {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "dup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE students (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO students (email) VALUES ('a@b.co')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO students (email) VALUES ('a@b.co')`)
	require.Error(t, err)
	return err
}

func TestConvertSQLiteError(t *testing.T) {
	err := duplicateInsert(t)

	sqlErr := Convert(fmt.Errorf("insert student: %w", err))
	require.NotNil(t, sqlErr)

	assert.Equal(t, UniqueViolation, sqlErr.Code)
	assert.Equal(t, "students", sqlErr.TableName)
	assert.Equal(t, "email", sqlErr.ColumnName)
	assert.Equal(t, "students_email_key", sqlErr.ConstraintName)
	assert.ErrorIs(t, sqlErr, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(duplicateInsert(t)))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, IsUniqueViolation(sql.ErrConnDone))
	assert.False(t, IsUniqueViolation(nil))
}

func TestHandleError(t *testing.T) {
	t.Run("sqlite unique violation", func(t *testing.T) {
		var httpErr *errs.HTTPError
		require.ErrorAs(t, HandleError(duplicateInsert(t)), &httpErr)

		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "STUDENT_ALREADY_EXISTS", httpErr.Code)
		assert.Equal(t, "A Student with this Email already exists", httpErr.Message)
	})

	t.Run("postgres unique violation", func(t *testing.T) {
		var httpErr *errs.HTTPError
		pgErr := &pgconn.PgError{Code: "23505", TableName: "students", ConstraintName: "students_email_key"}
		require.ErrorAs(t, HandleError(pgErr), &httpErr)

		assert.Equal(t, "STUDENT_ALREADY_EXISTS", httpErr.Code)
		assert.Equal(t, "A Student with this Email already exists", httpErr.Message)
	})

	t.Run("postgres not null violation", func(t *testing.T) {
		var httpErr *errs.HTTPError
		pgErr := &pgconn.PgError{Code: "23502", TableName: "students", ColumnName: "first_name"}
		require.ErrorAs(t, HandleError(pgErr), &httpErr)

		assert.Equal(t, "STUDENT_REQUIRED", httpErr.Code)
		assert.Equal(t, "The First Name is required", httpErr.Message)
		assert.Equal(t, []errs.FieldError{{Field: "first_name", Error: "is required"}}, httpErr.Errors)
	})

	t.Run("not found sentinels", func(t *testing.T) {
		for _, err := range []error{pgx.ErrNoRows, sql.ErrNoRows, gorm.ErrRecordNotFound} {
			var httpErr *errs.HTTPError
			require.ErrorAs(t, HandleError(err), &httpErr)
			assert.Equal(t, http.StatusNotFound, httpErr.Status)
		}
	})

	t.Run("http errors pass through", func(t *testing.T) {
		original := errs.NewNotFoundError("Student not found", false, nil)
		assert.Same(t, original, HandleError(original))
	})

	t.Run("unknown errors become 500", func(t *testing.T) {
		var httpErr *errs.HTTPError
		require.ErrorAs(t, HandleError(fmt.Errorf("boom")), &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	})
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("students_email_key"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_students_email"))
	assert.Equal(t, "", extractColumnForUniqueViolation(""))
}
