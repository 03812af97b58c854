// Package binder materializes a stored query template into executable SQL
// from caller-supplied named values.
//
// Templates name their parameters with :name markers. Only names on the
// declared allow-list are ever substituted; everything else, including
// markers with no supplied value, is left in the text untouched. Postgres
// casts (::type) are never mistaken for markers.
//
// Bind performs text substitution with single quotes doubled. Prepare is
// the bound-parameter form: markers become engine placeholders and the
// values travel as driver arguments.
package binder

import "strings"

// Bind replaces every :name marker whose name is declared and supplied with
// the supplied value, single quotes doubled.
//
//	Bind("SELECT * FROM t WHERE id = :id", []string{"id"}, map[string]string{"id": "5"})
//	// SELECT * FROM t WHERE id = 5
//
// This is text substitution and is only as safe as the template's quoting.
// Prefer Prepare where the template allows it.
func Bind(template string, declared []string, supplied map[string]string) string {
	lookup := resolver(declared, supplied)
	return rewrite(template, false, func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		return strings.ReplaceAll(v, "'", "''"), true
	})
}

// Prepare rewrites the template for native parameter binding. Each resolved
// marker becomes placeholder(n) and its value is appended to args, so the
// value never enters the SQL text. A marker written as a whole quoted
// literal (':name') is replaced quote marks included; markers anywhere else
// inside a string literal are left alone.
func Prepare(template string, declared []string, supplied map[string]string, placeholder func(int) string) (string, []any) {
	lookup := resolver(declared, supplied)
	var args []any
	text := rewrite(template, true, func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		args = append(args, v)
		return placeholder(len(args)), true
	})
	return text, args
}

func resolver(declared []string, supplied map[string]string) func(string) (string, bool) {
	allowed := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		allowed[d] = struct{}{}
	}
	return func(name string) (string, bool) {
		if _, ok := allowed[name]; !ok {
			return "", false
		}
		v, ok := supplied[name]
		return v, ok
	}
}

// rewrite walks template and calls fn for every :name marker. When fn
// returns false the marker is copied through unchanged. With literals set,
// single-quoted strings are copied verbatim except for the exact form
// ':name', which is offered to fn as a quoted marker.
func rewrite(template string, literals bool, fn func(name string) (string, bool)) string {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]

		if literals && c == '\'' {
			end := literalEnd(template, i)
			lit := template[i:end]
			if name, ok := quotedMarker(lit); ok {
				if rep, ok := fn(name); ok {
					sb.WriteString(rep)
					i = end
					continue
				}
			}
			sb.WriteString(lit)
			i = end
			continue
		}

		if c != ':' {
			sb.WriteByte(c)
			i++
			continue
		}

		// Postgres cast.
		if i+1 < len(template) && template[i+1] == ':' {
			sb.WriteString("::")
			i += 2
			continue
		}

		j := i + 1
		for j < len(template) && isIdentByte(template[j]) {
			j++
		}
		if j == i+1 {
			sb.WriteByte(c)
			i++
			continue
		}

		if rep, ok := fn(template[i+1 : j]); ok {
			sb.WriteString(rep)
		} else {
			sb.WriteString(template[i:j])
		}
		i = j
	}
	return sb.String()
}

// literalEnd returns the index just past the single-quoted literal starting
// at start, honouring doubled quotes. An unterminated literal runs to the end.
func literalEnd(s string, start int) int {
	for k := start + 1; k < len(s); k++ {
		if s[k] != '\'' {
			continue
		}
		if k+1 < len(s) && s[k+1] == '\'' {
			k++
			continue
		}
		return k + 1
	}
	return len(s)
}

func quotedMarker(lit string) (string, bool) {
	if len(lit) < 4 || lit[0] != '\'' || lit[1] != ':' || lit[len(lit)-1] != '\'' {
		return "", false
	}
	name := lit[2 : len(lit)-1]
	for i := 0; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return "", false
		}
	}
	return name, true
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
