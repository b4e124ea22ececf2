// Package llm - extractor.go builds schema-driven prompts for single-shot JSON generation.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes the JSON object a single-shot prompt should produce.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "AnswerEvaluation")
	Description string        // System preamble describing the task
	Rules       []string      // Task-specific instructions appended after the schema
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// InputSection is a labelled block of text supplied to the model.
type InputSection struct {
	Label string
	Text  string
}

// BuildExtractionPrompt constructs the LLM prompt from a schema and labelled inputs.
func BuildExtractionPrompt(schema ExtractionSchema, inputs ...InputSection) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	for _, rule := range schema.Rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	for _, in := range inputs {
		sb.WriteString("\n")
		sb.WriteString(in.Label)
		sb.WriteString(":\n\"\"\"\n")
		sb.WriteString(in.Text)
		sb.WriteString("\n\"\"\"\n")
	}

	return sb.String()
}

// AnswerEvaluationSchema returns the schema for scoring one interview answer.
func AnswerEvaluationSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "AnswerEvaluation",
		Description: `You are an experienced hiring manager reviewing a candidate's answer in a mock interview.
Score the answer against the question and the job context, then give specific, actionable feedback.`,
		Rules: []string{
			"All scores are integers from 1 (poor) to 10 (excellent).",
			"Judge only what the candidate actually said; do not assume unstated experience.",
			"The model answer should be concise and written in the first person.",
		},
		Fields: []SchemaField{
			{Name: "score", Type: "number", Description: "Overall quality score 1-10", Required: true},
			{
				Name:        "breakdown",
				Type:        `{"relevance": number, "depth": number, "clarity": number, "structure": number}`,
				Description: "Per-dimension scores 1-10",
				Required:    true,
			},
			{Name: "feedback", Type: `"string"`, Description: "Two to four sentences of overall feedback", Required: true},
			{Name: "strengths", Type: `["string"]`, Description: "What the answer did well", Required: true},
			{Name: "improvements", Type: `["string"]`, Description: "Concrete ways to improve the answer", Required: true},
			{Name: "model_answer", Type: `"string"`, Description: "A strong example answer", Required: true},
		},
	}
}
