package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pricofy/catalog-translator/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*([\\[{].*?[\\]}])\\s*```")

// itemsSchema is the only shape accepted from a model before anything is
// written back to the store.
const itemsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id"],
		"properties": {
			"id":      {"type": ["integer", "string"], "pattern": "^\\s*-?[0-9]+\\s*$"},
			"title":   {"type": ["string", "null"]},
			"excerpt": {"type": ["string", "null"]},
			"content": {"type": ["string", "null"]},
			"slug":    {"type": ["string", "null"]}
		}
	}
}`

var itemsSchemaLoader = gojsonschema.NewStringLoader(itemsSchema)

// ExtractJSON finds the first JSON array or object in free text. A fenced
// code block wins; otherwise the first value that decodes cleanly is taken
// and any trailing prose is ignored.
func ExtractJSON(text string) (json.RawMessage, bool) {
	text = strings.TrimSpace(text)

	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 && json.Valid([]byte(m[1])) {
		return json.RawMessage(m[1]), true
	}

	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], "[{")
		if i < 0 {
			break
		}
		start := offset + i

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, true
		}
		offset = start + 1
	}

	return nil, false
}

// parseItems validates raw model output and converts it to items. Every id
// is coerced to an integer and missing text fields become "".
func parseItems(p domain.Provider, raw json.RawMessage) ([]domain.TranslationItem, error) {
	if t := firstNonSpace(raw); t != '[' {
		return nil, &domain.ResponseShapeError{Provider: p, Reason: "top-level JSON value is not an array"}
	}

	result, err := gojsonschema.Validate(itemsSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &domain.ResponseShapeError{Provider: p, Reason: fmt.Sprintf("schema validation: %v", err)}
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &domain.ResponseShapeError{Provider: p, Reason: strings.Join(msgs, "; ")}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, &domain.ResponseShapeError{Provider: p, Reason: fmt.Sprintf("decode items: %v", err)}
	}

	items := make([]domain.TranslationItem, 0, len(records))
	for _, rec := range records {
		items = append(items, domain.TranslationItem{
			ID:      coerceID(rec["id"]),
			Title:   stringField(rec["title"]),
			Excerpt: stringField(rec["excerpt"]),
			Content: stringField(rec["content"]),
			Slug:    stringField(rec["slug"]),
		})
	}
	return items, nil
}

func coerceID(v any) int64 {
	switch id := v.(type) {
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n
		}
		if f, err := id.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func stringField(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
