package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Document is a file attached to a student. It has no identity of its own
// and is always stored as part of the student's full document list.
type Document struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Type string `json:"type"`
}

// EncodeDocuments serializes the full ordered document list for storage.
//
// A nil list means "no documents" and is stored as NULL.
// An empty, non-nil list is stored as "[]".
func EncodeDocuments(docs []Document) (*string, error) {
	if docs == nil {
		return nil, nil
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode documents: %w", err)
	}

	encoded := string(raw)
	return &encoded, nil
}

// DecodeDocuments is the inverse of EncodeDocuments.
// NULL (or an empty column) decodes to a nil list.
func DecodeDocuments(raw *string) ([]Document, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	var docs []Document
	if err := json.Unmarshal([]byte(*raw), &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	return docs, nil
}
