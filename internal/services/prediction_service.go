package services

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/artifact"
	"github.com/baharkarakas/student-performance/internal/features"
	"github.com/baharkarakas/student-performance/internal/metrics"
)

var ErrNoModel = &apperr.Error{Kind: apperr.KindNotFound, Message: "No trained model for this dataset. Train a model first."}

const (
	TierExcellent = "Excellent"
	TierGood      = "Good"
	TierNeedsWork = "Needs Improvement"
)

var feedback = map[string]string{
	TierExcellent: "Your performance is excellent! Keep up the good work.",
	TierGood:      "According to our analysis, your performance is good. You just need to practise enough to remain in touch with the subjects and not lose your hold. Keep it up.",
	TierNeedsWork: "Your performance needs improvement. Consider spending more time studying and seek help from teachers if needed.",
}

// Tier buckets a predicted score and returns the feedback text for it.
func Tier(score float64) (tier, text string) {
	switch {
	case score >= 80:
		tier = TierExcellent
	case score >= 60:
		tier = TierGood
	default:
		tier = TierNeedsWork
	}
	return tier, feedback[tier]
}

type Prediction struct {
	Score       float64            `json:"score"`
	Performance string             `json:"performance"`
	Feedback    string             `json:"feedback"`
	Features    []string           `json:"features"`
	Inputs      map[string]float64 `json:"inputs"`
}

type PredictionService struct {
	store artifact.Store
	log   *slog.Logger
}

func NewPredictionService(store artifact.Store, log *slog.Logger) *PredictionService {
	return &PredictionService{store: store, log: log.With("service", "PredictionService")}
}

func (s *PredictionService) load(ctx context.Context, fileID string) (*artifact.Bundle, error) {
	if fileID == "" {
		return nil, ErrNoCurrent
	}
	b, err := artifact.Load(ctx, s.store, fileID)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, artifact.ErrNotFound):
		return nil, ErrNoModel
	case errors.Is(err, artifact.ErrInvalidBundle):
		return nil, apperr.Inference("stored model does not match its schema", err)
	}
	return nil, apperr.Storage("load model", err)
}

// Schema returns the feature contract of the model trained for fileID.
func (s *PredictionService) Schema(ctx context.Context, fileID string) (artifact.Schema, error) {
	b, err := s.load(ctx, fileID)
	if err != nil {
		return artifact.Schema{}, err
	}
	return b.Schema, nil
}

// PredictForm coerces submitted form fields by feature kind. Absent or
// malformed fields fall back to 0.
func (s *PredictionService) PredictForm(ctx context.Context, fileID string, form map[string]string) (Prediction, error) {
	b, err := s.load(ctx, fileID)
	if err != nil {
		return Prediction{}, err
	}
	values := make(map[string]float64, len(b.Schema.Features))
	for _, name := range b.Schema.Features {
		f, _ := features.Find(name)
		values[name] = f.FormValue(form[name])
	}
	return s.predict(ctx, b, values)
}

// PredictValues takes named JSON values. Every schema feature is required.
func (s *PredictionService) PredictValues(ctx context.Context, fileID string, in map[string]any) (Prediction, error) {
	b, err := s.load(ctx, fileID)
	if err != nil {
		return Prediction{}, err
	}
	values := make(map[string]float64, len(b.Schema.Features))
	for _, name := range b.Schema.Features {
		raw, ok := in[name]
		if !ok {
			return Prediction{}, apperr.Validation("missing feature %q", name)
		}
		f, _ := features.Find(name)
		values[name] = f.JSONValue(raw)
	}
	return s.predict(ctx, b, values)
}

// PredictVector takes a vector already in schema order.
func (s *PredictionService) PredictVector(ctx context.Context, fileID string, vec []float64) (Prediction, error) {
	b, err := s.load(ctx, fileID)
	if err != nil {
		return Prediction{}, err
	}
	if len(vec) != len(b.Schema.Features) {
		return Prediction{}, apperr.Validation("Expected %d features, got %d", len(b.Schema.Features), len(vec))
	}
	values := make(map[string]float64, len(vec))
	for i, name := range b.Schema.Features {
		values[name] = vec[i]
	}
	return s.predict(ctx, b, values)
}

func (s *PredictionService) predict(ctx context.Context, b *artifact.Bundle, values map[string]float64) (Prediction, error) {
	vec, err := b.Vector(values)
	if err != nil {
		return Prediction{}, apperr.Validation("%v", err)
	}
	raw, err := b.Predict(vec)
	if err != nil {
		return Prediction{}, apperr.Inference("predict", err)
	}
	tier, text := Tier(raw)
	metrics.PredictionsTotal.WithLabelValues(tier).Inc()
	s.log.DebugContext(ctx, "prediction", "file_id", b.DataFileID, "score", raw, "tier", tier)

	return Prediction{
		Score:       math.Round(raw*100) / 100,
		Performance: tier,
		Feedback:    text,
		Features:    b.Schema.Features,
		Inputs:      values,
	}, nil
}
