package progress

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"study-engine/internal/domain"
)

const schemaURL = "schema://progress-snapshot.json"

// snapshotSchema mirrors the document every store accepts under studyProgress.
const snapshotSchema = `{
  "type": "object",
  "required": [
    "currentCardIndex", "knownCardIds", "unknownCardIds", "lastPosition",
    "studyTime", "isReviewMode", "isCompleted", "reviewingCardIds"
  ],
  "properties": {
    "currentCardIndex": {"type": "integer", "minimum": 0},
    "knownCardIds":     {"type": "array", "items": {"type": "string"}},
    "unknownCardIds":   {"type": "array", "items": {"type": "string"}},
    "lastPosition":     {"type": "integer", "minimum": 0},
    "studyTime":        {"type": "integer", "minimum": 0},
    "isReviewMode":     {"type": "boolean"},
    "isCompleted":      {"type": "boolean"},
    "reviewingCardIds": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(snapshotSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse snapshot schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Validate checks a snapshot against the progress schema. A failure is a
// *domain.ValidationError listing every offending field.
func Validate(snap domain.ProgressSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return ValidateJSON(raw)
}

// ValidateJSON validates an encoded snapshot.
func ValidateJSON(raw []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &domain.ValidationError{Messages: []string{"invalid JSON: " + err.Error()}}
	}
	err = sch.Validate(parsed)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &domain.ValidationError{Messages: []string{err.Error()}}
	}
	return &domain.ValidationError{Messages: collectMessages(verr)}
}

func collectMessages(verr *jsonschema.ValidationError) []string {
	p := message.NewPrinter(language.English)
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, "/"+strings.Join(e.InstanceLocation, "/")+": "+e.ErrorKind.LocalizedString(p))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.Strings(out)
	return out
}
