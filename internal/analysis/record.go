package analysis

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/easeaico/truthlab/internal/prompt"
	"github.com/easeaico/truthlab/internal/types"
	"github.com/easeaico/truthlab/internal/utils"
)

// AccentColor is the fixed display color of every result.
const AccentColor = "#9333ea"

var recordFields = []string{"title", "description", "reportDescription", "darkLine", "traits", "weaknesses"}

func recordJSONSchema() *jsonschema.Schema {
	one := 1
	text := func() *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", MinLength: &one}
	}
	list := func() *jsonschema.Schema {
		return &jsonschema.Schema{Type: "array", MinItems: &one, Items: text()}
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title":             text(),
			"description":       text(),
			"reportDescription": text(),
			"darkLine":          text(),
			"traits":            list(),
			"weaknesses":        list(),
		},
		Required: recordFields,
	}
}

var resolvedRecordSchema = mustResolve(recordJSONSchema())

func mustResolve(schema *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("invalid record schema: %v", err))
	}
	return resolved
}

// recordSchemaMap is the record schema as a plain JSON object for providers
// that take raw JSON Schema.
var recordSchemaMap = mustSchemaMap(recordJSONSchema())

func mustSchemaMap(schema *jsonschema.Schema) map[string]any {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal record schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("failed to decode record schema: %v", err))
	}
	if len(out) == 0 {
		panic("record schema rendered empty")
	}
	return out
}

// recordOutputSchema is the Gemini response schema.
func recordOutputSchema() *genai.Schema {
	text := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	list := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":             text(),
			"description":       text(),
			"reportDescription": text(),
			"darkLine":          text(),
			"traits":            list(),
			"weaknesses":        list(),
		},
		Required: recordFields,
	}
}

// ParseRecord extracts and validates a personality record from raw model text.
// Blank text is an EmptyResponse; anything that does not decode into a complete
// record is a MalformedResponse.
func ParseRecord(raw string) (types.PersonalityRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return types.PersonalityRecord{}, newError(KindEmptyResponse, "empty analysis response", nil)
	}

	clean := utils.ExtractJSONObject(raw)

	var instance map[string]any
	if err := json.Unmarshal([]byte(clean), &instance); err != nil {
		return types.PersonalityRecord{}, newError(KindMalformedResponse, "failed to parse analysis json", err)
	}
	if err := resolvedRecordSchema.Validate(instance); err != nil {
		return types.PersonalityRecord{}, newError(KindMalformedResponse, "analysis json does not match schema", err)
	}

	var record types.PersonalityRecord
	if err := json.Unmarshal([]byte(clean), &record); err != nil {
		return types.PersonalityRecord{}, newError(KindMalformedResponse, "failed to decode analysis record", err)
	}

	record.Title = strings.TrimSpace(record.Title)
	record.Description = strings.TrimSpace(record.Description)
	record.ReportDescription = strings.TrimSpace(record.ReportDescription)
	record.DarkLine = strings.TrimSpace(record.DarkLine)
	for name, value := range map[string]string{
		"title":             record.Title,
		"description":       record.Description,
		"reportDescription": record.ReportDescription,
		"darkLine":          record.DarkLine,
	} {
		if value == "" {
			return types.PersonalityRecord{}, newError(KindMalformedResponse, fmt.Sprintf("missing %s", name), nil)
		}
	}

	var err error
	if record.Traits, err = cleanList("traits", record.Traits); err != nil {
		return types.PersonalityRecord{}, err
	}
	if record.Weaknesses, err = cleanList("weaknesses", record.Weaknesses); err != nil {
		return types.PersonalityRecord{}, err
	}
	return record, nil
}

func cleanList(name string, items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, newError(KindMalformedResponse, fmt.Sprintf("missing %s", name), nil)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, newError(KindMalformedResponse, fmt.Sprintf("blank entry %d in %s", i, name), nil)
		}
		out = append(out, item)
	}
	return out, nil
}

// NewID returns a report id of the form TRUTH-NNNNN.
func NewID() string {
	return fmt.Sprintf("TRUTH-%d", 10000+rand.IntN(90000))
}

// Finalize attaches the client-side fields to a parsed record.
func Finalize(record types.PersonalityRecord, lang types.Language, id string) types.PersonalityResult {
	return types.PersonalityResult{
		ID:                id,
		Title:             record.Title,
		Description:       record.Description,
		ReportDescription: record.ReportDescription,
		DarkLine:          record.DarkLine,
		Traits:            record.Traits,
		Weaknesses:        record.Weaknesses,
		Color:             AccentColor,
		ShareHook:         prompt.ShareHook(lang),
	}
}
