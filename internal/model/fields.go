package model

// FieldMap is a bidirectional mapping between external field names
// (camelCase, as seen by clients) and storage column names.
type FieldMap struct {
	toColumn map[string]string
	toField  map[string]string
}

// NewFieldMap builds a FieldMap from external-name -> column pairs.
func NewFieldMap(pairs map[string]string) FieldMap {
	m := FieldMap{
		toColumn: make(map[string]string, len(pairs)),
		toField:  make(map[string]string, len(pairs)),
	}
	for field, column := range pairs {
		m.toColumn[field] = column
		m.toField[column] = field
	}
	return m
}

// Column returns the storage column for an external field name.
func (m FieldMap) Column(field string) (string, bool) {
	column, ok := m.toColumn[field]
	return column, ok
}

// Field returns the external field name for a storage column.
func (m FieldMap) Field(column string) (string, bool) {
	field, ok := m.toField[column]
	return field, ok
}

// MustColumn is Column for names known at compile time.
func (m FieldMap) MustColumn(field string) string {
	column, ok := m.toColumn[field]
	if !ok {
		panic("model: unknown student field " + field)
	}
	return column
}

// StudentFields maps the external student contract onto the students table.
// "class" is stored as class_name.
var StudentFields = NewFieldMap(map[string]string{
	"id":             "id",
	"firstName":      "first_name",
	"lastName":       "last_name",
	"email":          "email",
	"enrollmentYear": "enrollment_year",
	"dob":            "dob",
	"major":          "major",
	"class":          "class_name",
	"year":           "year",
	"photo":          "photo",
	"documents":      "documents",
})
