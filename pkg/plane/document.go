package plane

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// =============================================================================
// Document - Serializable Layout Snapshot
// =============================================================================

// Document is the serialization format for a settled layout variant.
//
// A document captures the full item set with final positions for one
// preset/normalization combination, plus the metadata needed to reproduce it.
// It is the on-disk variant file format and the payload stored in the
// document store.
type Document struct {
	// Configuration used to produce this layout
	Preset        string `json:"preset" bson:"preset"`
	Normalization string `json:"normalization" bson:"normalization"`
	Seed          uint64 `json:"seed" bson:"seed"`

	// Layout data
	Items []Item `json:"items" bson:"items"`
	Links []Link `json:"links,omitempty" bson:"links,omitempty"`

	// Provenance
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
	Generator   string    `json:"generator,omitempty" bson:"generator,omitempty"`
}

// VariantID returns the canonical identifier for this document's
// preset/normalization combination, e.g. "base-percentile".
func (d *Document) VariantID() string {
	return d.Preset + "-" + d.Normalization
}

// Positions returns the settled position of every item keyed by id.
func (d *Document) Positions() map[string]Point {
	out := make(map[string]Point, len(d.Items))
	for _, it := range d.Items {
		out[it.ID] = it.Pos
	}
	return out
}

// MarshalDocument serializes a Document to pretty-printed JSON bytes.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument deserializes JSON bytes into a Document.
// Validates that required fields are present.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	if len(d.Items) == 0 {
		return Document{}, fmt.Errorf("document must contain items")
	}
	for _, it := range d.Items {
		if it.ID == "" {
			return Document{}, fmt.Errorf("document item missing id")
		}
		if !it.Pos.IsFinite() || !it.Target.IsFinite() {
			return Document{}, fmt.Errorf("document item %s has non-finite coordinates", it.ID)
		}
	}
	return d, nil
}

// WriteDocumentFile writes a Document to a JSON file.
func WriteDocumentFile(d Document, path string) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadDocumentFile reads a Document from a JSON file.
func ReadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalDocument(data)
}
