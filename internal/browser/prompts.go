package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ActionSchema validates the model's answer when resolving a UI action.
const ActionSchema = `{
	"type": "object",
	"properties": {
		"selector": {"type": "string", "minLength": 1},
		"action": {"type": "string", "enum": ["click", "type", "select"]},
		"value": {"type": "string"}
	},
	"required": ["selector", "action"],
	"additionalProperties": false
}`

// ObserveSchema validates the model's answer when matching candidates to an
// instruction.
const ObserveSchema = `{
	"type": "object",
	"properties": {
		"selectors": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["selectors"],
	"additionalProperties": false
}`

// resolvedAction is the model's answer to an Act instruction.
type resolvedAction struct {
	Selector string `json:"selector"`
	Action   string `json:"action"`
	Value    string `json:"value,omitempty"`
}

// BuildActionPrompt asks the model to resolve an instruction to one concrete
// action on one of the listed candidates.
func BuildActionPrompt(instruction string, cands []Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are controlling a web browser on an insurance carrier portal.\n")
	sb.WriteString("Resolve the instruction below to exactly one action on one of the listed elements.\n\n")
	sb.WriteString("Instruction: ")
	sb.WriteString(instruction)
	sb.WriteString("\n\nElements:\n")
	writeCandidates(&sb, cands)
	sb.WriteString("\nReturn ONLY valid JSON: {\"selector\": string, \"action\": \"click\"|\"type\"|\"select\", \"value\": string}\n")
	sb.WriteString("Use \"value\" only for type and select actions. Pick the selector exactly as listed.\n")
	return sb.String()
}

// BuildObservePrompt asks the model which candidates match the instruction.
func BuildObservePrompt(instruction string, cands []Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are inspecting a web page on an insurance carrier portal.\n")
	sb.WriteString("List the selectors of every element below that matches the instruction.\n\n")
	sb.WriteString("Instruction: ")
	sb.WriteString(instruction)
	sb.WriteString("\n\nElements:\n")
	writeCandidates(&sb, cands)
	sb.WriteString("\nReturn ONLY valid JSON: {\"selectors\": [string]}. Selectors exactly as listed; an empty array if nothing matches.\n")
	return sb.String()
}

// BuildExtractionPrompt asks the model to extract structured data matching
// the caller's JSON schema from the page text.
func BuildExtractionPrompt(instruction, schema, pageText string) string {
	var sb strings.Builder
	sb.WriteString("You are reading a page on an insurance carrier portal.\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nReturn ONLY valid JSON conforming to this JSON schema:\n")
	sb.WriteString(schema)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- Extract values directly from the page text, do not invent anything.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n\n")
	sb.WriteString("Page text:\n\"\"\"\n")
	sb.WriteString(pageText)
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}

// ValidateAgainstSchema checks a JSON document against a JSON schema and
// returns a descriptive error on the first violation.
func ValidateAgainstSchema(document, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("extracted data does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func writeCandidates(sb *strings.Builder, cands []Candidate) {
	for _, c := range cands {
		b, _ := json.Marshal(c)
		sb.Write(b)
		sb.WriteString("\n")
	}
}
