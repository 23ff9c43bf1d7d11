// Package prompt renders the instruction sent to the completion service for
// one table.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/sert121/sql-datagen/internal/catalog"
)

const DefaultQuestionCount = 20

const SystemInstruction = "You are an experienced data analyst. You find insights from data. " +
	"You should not ask questions that are irrelevant to the table."

// DefaultTemplate has access to .Dialect, .TableName, .Columns and .QuestionCount.
const DefaultTemplate = `
-- Language {{.Dialect}}
-- Table = {{.TableName}}, columns = {{.Columns}}
You are a data analyst with 15 years of experience. You have been given the Table data above.
Your role is to come up with questions from the schema provided above.

Generate {{.QuestionCount}} unique prompts based on the table provided to you.
`

type Composer struct {
	tmpl          *template.Template
	questionCount int
}

type templateData struct {
	Dialect       string
	TableName     string
	Columns       string
	QuestionCount int
}

func NewComposer(templateText string, questionCount int) (*Composer, error) {
	if strings.TrimSpace(templateText) == "" {
		templateText = DefaultTemplate
	}
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Composer{tmpl: tmpl, questionCount: questionCount}, nil
}

// NewComposerFromFile reads the template from path; an empty path selects the
// default template.
func NewComposerFromFile(path string, questionCount int) (*Composer, error) {
	if strings.TrimSpace(path) == "" {
		return NewComposer("", questionCount)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return NewComposer(string(raw), questionCount)
}

// Compose returns override verbatim when it is not blank. Table and column
// names are inserted as-is.
func (c *Composer) Compose(table catalog.TableSummary, override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	var sb strings.Builder
	err := c.tmpl.Execute(&sb, templateData{
		Dialect:       "PostgreSQL",
		TableName:     table.TableName,
		Columns:       FormatColumns(table.TableColumns),
		QuestionCount: c.questionCount,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for %q: %w", table.TableName, err)
	}
	return sb.String(), nil
}

// FormatColumns renders columns as [(name, type), ...].
func FormatColumns(columns []catalog.ColumnSummary) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("(%s, %s)", col.Name, col.DataType))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
