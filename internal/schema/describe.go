package schema

import (
	"fmt"
	"strings"
)

// Describe renders s as plain text for use as prompt context. Each table
// becomes a block of the form
//
//	Table: users
//	Description: None
//	Columns:
//	  - id (integer, NOT NULL, PRIMARY KEY, )
//	  - team_id (integer, NULLABLE, , FOREIGN KEY -> teams.id)
//
// and blocks are joined by a newline.
func Describe(s *Schema) string {
	blocks := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		var sb strings.Builder

		desc := "None"
		if t.Description != nil && *t.Description != "" {
			desc = *t.Description
		}
		fmt.Fprintf(&sb, "Table: %s\nDescription: %s\nColumns:\n", t.Name, desc)

		lines := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			lines = append(lines, describeColumn(c))
		}
		sb.WriteString(strings.Join(lines, "\n"))
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

func describeColumn(c Column) string {
	null := "NOT NULL"
	if c.Nullable {
		null = "NULLABLE"
	}

	pk := ""
	if c.IsPrimaryKey {
		pk = "PRIMARY KEY"
	}

	fk := ""
	if c.IsForeignKey {
		fk = fmt.Sprintf("FOREIGN KEY -> %s.%s", deref(c.ForeignKeyTable), deref(c.ForeignKeyColumn))
	}

	def := ""
	if c.Default != nil && *c.Default != "" {
		def = ", DEFAULT " + *c.Default
	}

	return fmt.Sprintf("  - %s (%s, %s, %s, %s%s)", c.Name, c.Type, null, pk, fk, def)
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
