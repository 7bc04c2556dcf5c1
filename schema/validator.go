// Package articleschema validates incoming article payloads before they
// reach the duplicate filter. Validation is strict: unknown fields, trailing
// content and malformed timestamps are all rejected at the boundary.
package articleschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/dedup/internal/article"
)

//go:embed article.schema.json
var articleSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateArticlePayload checks a single JSON object against the article
// schema and returns the decoded article.
func ValidateArticlePayload(payload json.RawMessage) (*article.Article, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var a article.Article
	if err := json.Unmarshal(normalized, &a); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&a); err != nil {
		return nil, err
	}

	return &a, nil
}

// ValidateBatchPayload checks a JSON array of article objects and returns
// the decoded batch. The index of the first invalid element is part of the
// error.
func ValidateBatchPayload(payload json.RawMessage) ([]article.Article, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("payload is not a JSON array: %w", err)
	}

	batch := make([]article.Article, 0, len(elements))
	for i, element := range elements {
		a, err := ValidateArticlePayload(element)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
		batch = append(batch, *a)
	}
	return batch, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("article.schema.json", strings.NewReader(articleSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("article.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(a *article.Article) error {
	if a == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(a.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if err := validateURI("url", a.URL); err != nil {
		return err
	}
	if a.ImageURL != "" {
		if err := validateURI("image_url", a.ImageURL); err != nil {
			return err
		}
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}
