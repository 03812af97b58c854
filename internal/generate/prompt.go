package generate

import (
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/sqlgate/internal/database"
)

var queryPrompt = template.Must(template.New("query").Parse(`You write SQL for {{.Engine}} databases.
Generate one accurate, efficient query for the user's request against the schema below.
Do not modify data (INSERT, UPDATE, DELETE) unless the request explicitly asks for it.
If the request is unclear, return a safe read-only query and say why in the explanation.

Database Schema:
{{.Schema}}

Respond with only this JSON object:
{
  "query": "SQL query",
  "explanation": "what the query does",
  "confidence": 0-100
}

User Prompt: {{.Prompt}}`))

var endpointPrompt = template.Must(template.New("endpoint").Parse(`You design HTTP API endpoints backed by {{.Engine}} queries.
Produce the definition of a single endpoint for the user's request against the schema below.
Do not modify data unless the options allow it.

Database Schema:
{{.Schema}}

Options:
{{.Options}}
Rules:
1. The path is unique and follows REST conventions (for example /users).
2. Query-string parameters appear in the query as :name markers and are declared in "parameters".
3. Every parameter "example" is a string.
4. Every response "example" is a JSON object, not an array.

Respond with only this JSON object:
{
  "title": "string",
  "description": "string",
  "method": "GET|POST|PUT|DELETE|PATCH",
  "path": "/string",
  "summary": "string",
  "tags": ["string"],
  "parameters": [
    {"name": "string", "type": "string", "required": false, "description": "string", "example": "string"}
  ],
  "requestBody": null,
  "responses": [
    {"status": 200, "description": "string", "example": {}}
  ],
  "security": [],
  "query": "SELECT ... WHERE column = :name"
}

User Prompt: {{.Prompt}}`))

type promptData struct {
	Engine  database.Engine
	Schema  string
	Options string
	Prompt  string
}

func render(t *template.Template, d promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, d); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// renderOptions formats generation options as YAML; empty options render
// as "{}".
func renderOptions(opts map[string]any) (string, error) {
	if len(opts) == 0 {
		return "{}\n", nil
	}
	out, err := yaml.Marshal(opts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
