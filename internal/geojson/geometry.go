// Package geojson decodes and validates GeoJSON documents ahead of
// persistence. Validation is pure: it reports the first fault it finds and
// never mutates its input.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ErrorKind classifies how a geometry fails validation.
type ErrorKind string

const (
	MalformedType       ErrorKind = "malformed_type"
	ArityMismatch       ErrorKind = "arity_mismatch"
	UnclosedRing        ErrorKind = "unclosed_ring"
	NonFiniteCoordinate ErrorKind = "non_finite_coordinate"
)

type GeometryError struct {
	Kind    ErrorKind
	Message string
}

func (e *GeometryError) Error() string {
	return e.Message
}

// Geometry mirrors a GeoJSON geometry object. Coordinates stays raw until it
// is validated against the declared type; Geometries is only populated for
// GeometryCollection.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []*Geometry     `json:"geometries,omitempty"`
}

// MarshalJSON always emits the geometries member for a GeometryCollection,
// even when empty. PostGIS rejects a GeometryCollection without it, and an
// export must stay valid GeoJSON.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Type == "GeometryCollection" {
		geometries := g.Geometries
		if geometries == nil {
			geometries = []*Geometry{}
		}
		return json.Marshal(struct {
			Type       string      `json:"type"`
			Geometries []*Geometry `json:"geometries"`
		}{Type: g.Type, Geometries: geometries})
	}
	return json.Marshal(struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates,omitempty"`
	}{Type: g.Type, Coordinates: g.Coordinates})
}

// ValidateGeometry checks a decoded geometry for structural validity: a
// recognized type, a coordinate payload of the right shape for that type,
// closed polygon rings, and finite ordinates. GeometryCollection members are
// validated recursively.
func ValidateGeometry(g *Geometry) error {
	if g == nil {
		return &GeometryError{Kind: MalformedType, Message: "geometry is missing"}
	}
	switch g.Type {
	case "Point":
		_, err := decodePosition(g.Coordinates)
		return err
	case "MultiPoint":
		return validatePositionList(g.Coordinates, 0)
	case "LineString":
		return validatePositionList(g.Coordinates, 2)
	case "MultiLineString":
		items, err := splitArray(g.Coordinates)
		if err != nil {
			return err
		}
		for _, line := range items {
			if err := validatePositionList(line, 2); err != nil {
				return err
			}
		}
		return nil
	case "Polygon":
		return validatePolygon(g.Coordinates)
	case "MultiPolygon":
		items, err := splitArray(g.Coordinates)
		if err != nil {
			return err
		}
		for _, poly := range items {
			if err := validatePolygon(poly); err != nil {
				return err
			}
		}
		return nil
	case "GeometryCollection":
		for _, child := range g.Geometries {
			if err := ValidateGeometry(child); err != nil {
				return err
			}
		}
		return nil
	case "":
		return &GeometryError{Kind: MalformedType, Message: "geometry has no type"}
	default:
		return &GeometryError{Kind: MalformedType, Message: fmt.Sprintf("unknown geometry type %q", g.Type)}
	}
}

func validatePolygon(raw json.RawMessage) error {
	rings, err := splitArray(raw)
	if err != nil {
		return err
	}
	for _, ring := range rings {
		if err := validateRing(ring); err != nil {
			return err
		}
	}
	return nil
}

// A linear ring needs at least four positions and its first and last
// position must coincide.
func validateRing(raw json.RawMessage) error {
	items, err := splitArray(raw)
	if err != nil {
		return err
	}
	if len(items) < 4 {
		return &GeometryError{Kind: ArityMismatch, Message: fmt.Sprintf("linear ring has %d positions, want at least 4", len(items))}
	}
	positions := make([][]float64, len(items))
	for i, item := range items {
		pos, err := decodePosition(item)
		if err != nil {
			return err
		}
		positions[i] = pos
	}
	first, last := positions[0], positions[len(positions)-1]
	if !samePosition(first, last) {
		return &GeometryError{Kind: UnclosedRing, Message: fmt.Sprintf("linear ring is not closed: first position %v != last position %v", first, last)}
	}
	return nil
}

func validatePositionList(raw json.RawMessage, min int) error {
	items, err := splitArray(raw)
	if err != nil {
		return err
	}
	if len(items) < min {
		return &GeometryError{Kind: ArityMismatch, Message: fmt.Sprintf("coordinate sequence has %d positions, want at least %d", len(items), min)}
	}
	for _, item := range items {
		if _, err := decodePosition(item); err != nil {
			return err
		}
	}
	return nil
}

func splitArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, &GeometryError{Kind: ArityMismatch, Message: "coordinates are missing"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &GeometryError{Kind: ArityMismatch, Message: "coordinates are not an array"}
	}
	return items, nil
}

// decodePosition parses one [x, y] or [x, y, z] position. Ordinates are
// parsed through json.Number so out-of-range literals surface as non-finite
// instead of a generic decode failure.
func decodePosition(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, &GeometryError{Kind: ArityMismatch, Message: "position is missing"}
	}
	var nums []json.Number
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, &GeometryError{Kind: ArityMismatch, Message: "position is not an array of numbers"}
	}
	if len(nums) != 2 && len(nums) != 3 {
		return nil, &GeometryError{Kind: ArityMismatch, Message: fmt.Sprintf("position has %d ordinates, want 2 or 3", len(nums))}
	}
	out := make([]float64, len(nums))
	for i, n := range nums {
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &GeometryError{Kind: NonFiniteCoordinate, Message: fmt.Sprintf("ordinate %s is not a finite number", n.String())}
		}
		out[i] = f
	}
	return out, nil
}

func samePosition(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
