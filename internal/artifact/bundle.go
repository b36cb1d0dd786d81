// Package artifact persists trained models together with the feature
// schema they were trained on.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/baharkarakas/student-performance/internal/ml"
)

// SchemaVersion is bumped whenever Bundle's encoding changes incompatibly.
const SchemaVersion = 1

var (
	ErrNotFound       = errors.New("artifact not found")
	ErrSchemaMismatch = errors.New("input does not match model schema")
	ErrInvalidBundle  = errors.New("invalid model bundle")
)

// Schema is the ordered feature contract between training and prediction.
type Schema struct {
	Version    int
	FeatureSet string
	Features   []string
	Target     string
}

func (s Schema) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrInvalidBundle, s.Version, SchemaVersion)
	}
	if len(s.Features) == 0 {
		return fmt.Errorf("%w: schema has no features", ErrInvalidBundle)
	}
	seen := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		if f == "" {
			return fmt.Errorf("%w: empty feature name", ErrInvalidBundle)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidBundle, f)
		}
		seen[f] = struct{}{}
	}
	if s.Target == "" {
		return fmt.Errorf("%w: schema has no target", ErrInvalidBundle)
	}
	return nil
}

type Metrics struct {
	R2         float64
	MAE        float64
	SampleSize int
	TrainSize  int
	TestSize   int
}

type Bundle struct {
	Schema     Schema
	Forest     *ml.Forest
	Metrics    Metrics
	DataFileID string
	CreatedAt  time.Time
}

func (b *Bundle) Validate() error {
	if err := b.Schema.Validate(); err != nil {
		return err
	}
	if b.Forest == nil || len(b.Forest.Trees) == 0 {
		return fmt.Errorf("%w: model has no trees", ErrInvalidBundle)
	}
	if b.Forest.NFeatures != len(b.Schema.Features) {
		return fmt.Errorf("%w: model expects %d features, schema lists %d",
			ErrInvalidBundle, b.Forest.NFeatures, len(b.Schema.Features))
	}
	return nil
}

// Importances maps each schema feature to its importance.
func (b *Bundle) Importances() map[string]float64 {
	out := make(map[string]float64, len(b.Schema.Features))
	for i, f := range b.Schema.Features {
		if i < len(b.Forest.Importances) {
			out[f] = b.Forest.Importances[i]
		}
	}
	return out
}

// Vector orders named values by the schema. Every schema feature must be present.
func (b *Bundle) Vector(values map[string]float64) ([]float64, error) {
	vec := make([]float64, len(b.Schema.Features))
	for i, f := range b.Schema.Features {
		v, ok := values[f]
		if !ok {
			return nil, fmt.Errorf("%w: missing feature %q", ErrSchemaMismatch, f)
		}
		vec[i] = v
	}
	return vec, nil
}

func (b *Bundle) Predict(vec []float64) (float64, error) {
	if len(vec) != len(b.Schema.Features) {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrSchemaMismatch, len(b.Schema.Features), len(vec))
	}
	return b.Forest.Predict(vec)
}

func Key(dataFileID string) string { return "model_" + dataFileID }

func Encode(w io.Writer, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// Decode reads a bundle and validates its schema before returning it.
func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
