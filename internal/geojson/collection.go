package geojson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// A FeatureCollection correlates to a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// A Feature correlates to a GeoJSON feature. Properties stays raw so stored
// values round-trip exactly as uploaded.
type Feature struct {
	Type       string          `json:"type"`
	ID         interface{}     `json:"id,omitempty"`
	Geometry   *Geometry       `json:"geometry"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// ValidationError reports the first offending feature. Index is -1 for
// document-level faults.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("feature %d: %s", e.Index, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UnmarshalFeatureCollection decodes the data into a GeoJSON feature
// collection. Decode errors are the caller's malformed-document signal;
// structural checks happen in Validate.
func UnmarshalFeatureCollection(data []byte) (*FeatureCollection, error) {
	fc := &FeatureCollection{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// Validate checks the document is a FeatureCollection of well-formed
// features. It short-circuits on the first offending feature and returns its
// index; a valid empty collection passes. Feature order is never reordered,
// callers rely on the input order for identity assignment.
func (fc *FeatureCollection) Validate() error {
	if fc.Type != "FeatureCollection" {
		return &ValidationError{Index: -1, Err: fmt.Errorf("document type is %q, want \"FeatureCollection\"", fc.Type)}
	}
	if fc.Features == nil {
		return &ValidationError{Index: -1, Err: fmt.Errorf("features array is missing")}
	}
	for i, f := range fc.Features {
		if f == nil {
			return &ValidationError{Index: i, Err: fmt.Errorf("feature is null")}
		}
		if f.Type != "Feature" {
			return &ValidationError{Index: i, Err: fmt.Errorf("member type is %q, want \"Feature\"", f.Type)}
		}
		if err := ValidateGeometry(f.Geometry); err != nil {
			return &ValidationError{Index: i, Err: err}
		}
		if err := validateProperties(f.Properties); err != nil {
			return &ValidationError{Index: i, Err: err}
		}
	}
	return nil
}

// Properties must be absent, null, or a JSON object; any member value shape
// is permitted inside the object.
func validateProperties(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("properties must be a JSON object")
	}
	return nil
}

// NormalizedProperties returns the feature's properties with absent or null
// treated as an empty object.
func (f *Feature) NormalizedProperties() json.RawMessage {
	trimmed := bytes.TrimSpace(f.Properties)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage(`{}`)
	}
	return f.Properties
}
