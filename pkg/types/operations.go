package types

import (
	"github.com/google/uuid"
)

// OperationKind is the closed set of benchmark request kinds.
type OperationKind string

const (
	OpInsert    OperationKind = "insert"
	OpRead      OperationKind = "read"
	OpUpdate    OperationKind = "update"
	OpDelete    OperationKind = "delete"
	OpAggregate OperationKind = "aggregate"
)

// ReadPreference selects which replica class serves a read.
type ReadPreference string

const (
	ReadPrimary   ReadPreference = "primary"
	ReadSecondary ReadPreference = "secondary"
	ReadNearest   ReadPreference = "nearest"
)

// Operation is one benchmark request. It is a discriminated struct: Kind
// selects which payload fields are meaningful, and adapters dispatch on it.
// An operation is created per benchmark iteration, never mutated, and
// discarded after its result is captured.
type Operation struct {
	// ID is the caller-assigned correlation id for this operation.
	ID   string
	Kind OperationKind

	// Insert payload.
	Document map[string]interface{}

	// Read payload.
	DocumentID      string
	ProjectionPaths []string
	ReadPreference  ReadPreference

	// Update payload (DocumentID shared with Read/Delete).
	Path     string
	NewValue interface{}
	Upsert   bool

	// Aggregate payload.
	PipelineStages []map[string]interface{}
	Explain        bool
}

// NewInsert builds an insert operation with a fresh id.
func NewInsert(document map[string]interface{}) *Operation {
	return &Operation{
		ID:       uuid.NewString(),
		Kind:     OpInsert,
		Document: document,
	}
}

// NewRead builds a read operation with a fresh id.
func NewRead(documentID string, projectionPaths []string, pref ReadPreference) *Operation {
	if pref == "" {
		pref = ReadPrimary
	}
	return &Operation{
		ID:              uuid.NewString(),
		Kind:            OpRead,
		DocumentID:      documentID,
		ProjectionPaths: projectionPaths,
		ReadPreference:  pref,
	}
}

// NewUpdate builds an update operation with a fresh id.
func NewUpdate(documentID, path string, newValue interface{}, upsert bool) *Operation {
	return &Operation{
		ID:         uuid.NewString(),
		Kind:       OpUpdate,
		DocumentID: documentID,
		Path:       path,
		NewValue:   newValue,
		Upsert:     upsert,
	}
}

// NewDelete builds a delete operation with a fresh id.
func NewDelete(documentID string) *Operation {
	return &Operation{
		ID:         uuid.NewString(),
		Kind:       OpDelete,
		DocumentID: documentID,
	}
}

// NewAggregate builds an aggregation operation with a fresh id.
func NewAggregate(pipelineStages []map[string]interface{}, explain bool) *Operation {
	return &Operation{
		ID:             uuid.NewString(),
		Kind:           OpAggregate,
		PipelineStages: pipelineStages,
		Explain:        explain,
	}
}
