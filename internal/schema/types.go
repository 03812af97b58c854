package schema

// Schema is the normalized result of one introspection call. Name is the
// namespace that was actually queried.
type Schema struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

// Table describes a table and its columns in declaration order.
type Table struct {
	Name        string   `json:"name"`
	RowCount    int64    `json:"rowCount"`
	Description *string  `json:"description"` // nil when the engine has no table comments
	Columns     []Column `json:"columns"`
}

// Column describes one column. Type is the engine's native type name.
// IsPrimaryKey and IsForeignKey are membership flags only; composite key
// ordering is not represented.
type Column struct {
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Nullable         bool    `json:"nullable"`
	Default          *string `json:"default"`
	IsPrimaryKey     bool    `json:"isPrimaryKey"`
	IsForeignKey     bool    `json:"isForeignKey"`
	ForeignKeyTable  *string `json:"foreignKeyTable"`
	ForeignKeyColumn *string `json:"foreignKeyColumn"`
}

// Counts returns the number of tables and the sum of their row counts.
func (s *Schema) Counts() (tables int, rows int64) {
	for _, t := range s.Tables {
		rows += t.RowCount
	}
	return len(s.Tables), rows
}
