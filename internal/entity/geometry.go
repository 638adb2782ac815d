package entity

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SRID is the spatial reference system shared by every geometry column.
const SRID = 4326

// Geometry holds a GeoJSON geometry document destined for, or read from, a
// PostGIS geometry column. Writes go through ST_GeomFromGeoJSON; reads must
// select the column through ST_AsGeoJSON, otherwise Scan receives EWKB.
type Geometry []byte

func (Geometry) GormDataType() string {
	return "geometry"
}

func (g Geometry) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if len(g) == 0 {
		return clause.Expr{SQL: "NULL"}
	}
	return clause.Expr{
		SQL:  "ST_SetSRID(ST_GeomFromGeoJSON(?), ?)",
		Vars: []interface{}{string(g), SRID},
	}
}

func (g *Geometry) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*g = nil
	case []byte:
		*g = append(Geometry(nil), v...)
	case string:
		*g = Geometry(v)
	default:
		return fmt.Errorf("cannot scan %T into Geometry", value)
	}
	return nil
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	if len(g) == 0 {
		return []byte("null"), nil
	}
	return g, nil
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = nil
		return nil
	}
	*g = append(Geometry(nil), data...)
	return nil
}
