package memory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"trivia-quiz-service/internal/domain"
)

// StaticBankLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	questions map[string][]domain.Question
}

func NewStaticBankLoader(questions map[string][]domain.Question) *StaticBankLoader {
	return &StaticBankLoader{questions: questions}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) (map[string][]domain.Question, error) {
	out := make(map[string][]domain.Question, len(l.questions))
	for category, qs := range l.questions {
		out[category] = append([]domain.Question(nil), qs...)
	}
	return out, nil
}

//go:embed bank_schema.json
var bankSchemaJSON []byte

const bankSchemaURL = "schema://question-bank.json"

var (
	bankSchemaOnce sync.Once
	bankSchema     *jsonschema.Schema
	bankSchemaErr  error
)

// BankFile is the on-disk question bank format.
type BankFile struct {
	Categories map[string][]domain.Question `json:"categories"`
}

// FileBankLoader reads a JSON question bank and validates it against the bundled schema.
type FileBankLoader struct {
	path string
}

func NewFileBankLoader(path string) *FileBankLoader {
	return &FileBankLoader{path: path}
}

func (l *FileBankLoader) LoadBank(_ context.Context) (map[string][]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	return ParseBank(data)
}

// ParseBank validates raw JSON against the bank schema and decodes it.
func ParseBank(data []byte) (map[string][]domain.Question, error) {
	schema, err := compiledBankSchema()
	if err != nil {
		return nil, err
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid bank JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: bank file: %v", domain.ErrInvalidQuestion, err)
	}

	var file BankFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode bank file: %w", err)
	}
	return file.Categories, nil
}

func compiledBankSchema() (*jsonschema.Schema, error) {
	bankSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(bankSchemaJSON))
		if err != nil {
			bankSchemaErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, doc); err != nil {
			bankSchemaErr = fmt.Errorf("add bank schema: %w", err)
			return
		}
		bankSchema, bankSchemaErr = c.Compile(bankSchemaURL)
	})
	return bankSchema, bankSchemaErr
}
