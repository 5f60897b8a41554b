// Package models defines the typed row structures for every table the
// pipeline produces: the seven raw tables written by the generators and
// the seven warehouse tables produced by the star-schema transform.
//
// Each table has a Schema describing its columns and a row struct whose
// Values method yields column values in schema order. Downstream code
// (dataset files, warehouse destinations) renders rows from these value
// slices and never inspects row types reflectively.
package models

// FieldType identifies the data type of a column
type FieldType string

const (
	// TypeString represents text data
	TypeString FieldType = "string"
	// TypeInt represents integer data
	TypeInt FieldType = "int"
	// TypeFloat represents floating-point data
	TypeFloat FieldType = "float"
	// TypeBool represents boolean data
	TypeBool FieldType = "bool"
	// TypeTimestamp represents date+time data, stored UTC at second precision
	TypeTimestamp FieldType = "timestamp"
	// TypeDate represents date-only data
	TypeDate FieldType = "date"
	// TypeDecimal represents fixed-point monetary data
	TypeDecimal FieldType = "decimal"
)

// Column describes a single table column
type Column struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema describes a table: its name, ordered columns, and the column
// rows are keyed on (natural id for raw tables, surrogate key for
// warehouse tables).
type Schema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Key     string   `json:"key"`
}

// ColumnNames returns the column names in schema order
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyIndex returns the position of the key column, or -1
func (s Schema) KeyIndex() int {
	for i, c := range s.Columns {
		if c.Name == s.Key {
			return i
		}
	}
	return -1
}

// TableData is a schema plus rows rendered to column-ordered values.
// It is the shape handed to dataset writers and warehouse destinations.
type TableData struct {
	Schema Schema
	Rows   [][]interface{}
}

// RowCount returns the number of rows
func (t TableData) RowCount() int {
	return len(t.Rows)
}
