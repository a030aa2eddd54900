package polygons

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/smallholder-irrigation/survey-merge/internal/geometry"
	"github.com/smallholder-irrigation/survey-merge/internal/validation"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// LoadGeoJSON reads a FeatureCollection of polygon annotations in EPSG:4326.
// Missing or malformed required properties fail the whole file. Features
// whose geometry is null or not polygonal are kept with no polygons so they
// still take part in matching.
func LoadGeoJSON(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeGeoJSON(path, data)
}

// DecodeGeoJSON parses an in-memory FeatureCollection.
func DecodeGeoJSON(path string, data []byte) (*Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fc featureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	out := &Collection{Path: path, Annotations: make([]Annotation, 0, len(fc.Features))}
	for i, f := range fc.Features {
		a, err := toAnnotation(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out.Annotations = append(out.Annotations, a)
	}
	return out, nil
}

func toAnnotation(f feature) (Annotation, error) {
	var a Annotation
	for _, k := range RequiredProperties {
		if v, ok := f.Properties[k]; !ok || v == nil {
			return a, fmt.Errorf("missing required property: %s", k)
		}
	}

	var err error
	if a.InternalID, err = intProperty(f.Properties, "internal_id"); err != nil {
		return a, err
	}
	if a.Year, err = intProperty(f.Properties, "year"); err != nil {
		return a, err
	}
	if a.Month, err = intProperty(f.Properties, "month"); err != nil {
		return a, err
	}
	if a.Day, err = intProperty(f.Properties, "day"); err != nil {
		return a, err
	}
	if a.Certainty, err = intProperty(f.Properties, "certainty"); err != nil {
		return a, err
	}
	if v, ok := f.Properties["special_category"]; ok && v != nil {
		a.SpecialCategory = fmt.Sprint(v)
	}
	if err := validation.Struct(a); err != nil {
		return a, err
	}

	a.Polygons, err = decodeGeometry(f.Geometry)
	if err != nil {
		return a, err
	}
	return a, nil
}

func intProperty(props map[string]any, key string) (int, error) {
	switch v := props[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("property %s: %q is not an integer", key, v.String())
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("property %s: %q is not an integer", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("property %s: unsupported type %T", key, v)
	}
}

func decodeGeometry(raw json.RawMessage) ([][]geometry.Ring, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var g rawGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	switch g.Type {
	case "Polygon":
		var rings []geometry.Ring
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return [][]geometry.Ring{rings}, nil
	case "MultiPolygon":
		var polys [][]geometry.Ring
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		return polys, nil
	case "":
		return nil, errors.New("geometry without type")
	default:
		return nil, nil
	}
}
