package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/artifact"
	"github.com/baharkarakas/student-performance/internal/dataset"
	"github.com/baharkarakas/student-performance/internal/features"
	"github.com/baharkarakas/student-performance/internal/metrics"
	"github.com/baharkarakas/student-performance/internal/ml"
	"github.com/baharkarakas/student-performance/internal/models"
	repo "github.com/baharkarakas/student-performance/internal/repository"
	"github.com/baharkarakas/student-performance/internal/worker"
)

const (
	MinTrainingRows = 10
	TestFraction    = 0.2
	SplitSeed       = 42
)

var ErrNoFeatures = &apperr.Error{Kind: apperr.KindValidation, Message: "No valid features found in dataset"}

type TrainResult struct {
	FeatureSet string
	Features   []string
	Importance map[string]float64
	R2         float64
	MAE        float64
	SampleSize int
}

type TrainingService struct {
	datasets *DatasetService
	runs     repo.TrainingRuns
	store    artifact.Store
	pool     *worker.Pool
	set      features.Set
	params   ml.ForestParams
	log      *slog.Logger
	now      func() time.Time
}

func NewTrainingService(ds *DatasetService, runs repo.TrainingRuns, store artifact.Store, pool *worker.Pool, set features.Set, log *slog.Logger) *TrainingService {
	return &TrainingService{
		datasets: ds,
		runs:     runs,
		store:    store,
		pool:     pool,
		set:      set,
		params:   ml.DefaultForestParams(),
		log:      log.With("service", "TrainingService"),
		now:      time.Now,
	}
}

// Matrix is a training design matrix with its column names.
type Matrix struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// BuildMatrix selects the features of set present in tbl, encodes them and
// fills missing values with the column median. Rows without a target are
// dropped.
func BuildMatrix(tbl *dataset.Table, set features.Set) (Matrix, error) {
	avail := set.Available(tbl)
	if len(avail) == 0 {
		return Matrix{}, ErrNoFeatures
	}
	ti := tbl.Index(set.Target)
	if ti < 0 {
		return Matrix{}, apperr.Validation("Dataset has no %q column to train on", set.Target)
	}

	cols := make([]int, len(avail))
	for i, f := range avail {
		cols[i] = tbl.Index(f.Name)
	}

	m := Matrix{Features: features.Names(avail)}
	for _, row := range tbl.Rows {
		y, ok := dataset.Float(row[ti])
		if !ok {
			continue
		}
		x := make([]float64, len(cols))
		for j, c := range cols {
			if v, ok := features.EncodeCell(row[c]); ok {
				x[j] = v
			} else {
				x[j] = math.NaN()
			}
		}
		m.X = append(m.X, x)
		m.Y = append(m.Y, y)
	}

	for j := range cols {
		var present []float64
		for _, x := range m.X {
			if !math.IsNaN(x[j]) {
				present = append(present, x[j])
			}
		}
		fill, ok := ml.Median(present)
		if !ok {
			fill = 0
		}
		for _, x := range m.X {
			if math.IsNaN(x[j]) {
				x[j] = fill
			}
		}
	}
	return m, nil
}

func subset(m Matrix, idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, k := range idx {
		x[i], y[i] = m.X[k], m.Y[k]
	}
	return x, y
}

// Train fits a model on the user's file and stores it under the file's key.
func (s *TrainingService) Train(ctx context.Context, userID, fileID string) (TrainResult, error) {
	res, err := s.train(ctx, userID, fileID)
	switch {
	case err == nil:
		metrics.TrainingsTotal.WithLabelValues("ok").Inc()
	case apperr.Is(err, apperr.KindValidation), apperr.Is(err, apperr.KindNotFound):
		metrics.TrainingsTotal.WithLabelValues("invalid").Inc()
	default:
		metrics.TrainingsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *TrainingService) train(ctx context.Context, userID, fileID string) (TrainResult, error) {
	f, tbl, err := s.datasets.Load(ctx, userID, fileID)
	if err != nil {
		return TrainResult{}, err
	}
	tbl = dataset.Clean(tbl)

	m, err := BuildMatrix(tbl, s.set)
	if err != nil {
		return TrainResult{}, err
	}
	if len(m.Y) < MinTrainingRows {
		return TrainResult{}, apperr.Validation("Need at least %d rows with a %s value, found %d", MinTrainingRows, s.set.Target, len(m.Y))
	}

	trainIdx, testIdx := ml.TrainTestSplit(len(m.Y), TestFraction, SplitSeed)
	xTrain, yTrain := subset(m, trainIdx)
	xTest, yTest := subset(m, testIdx)

	var forest *ml.Forest
	start := s.now()
	err = s.pool.Do(ctx, func(ctx context.Context) error {
		var ferr error
		forest, ferr = ml.FitForest(ctx, xTrain, yTrain, s.params)
		return ferr
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TrainResult{}, err
	}
	if err != nil {
		return TrainResult{}, apperr.Inference("fit model", err)
	}
	metrics.TrainingSeconds.Observe(s.now().Sub(start).Seconds())

	pred, err := forest.PredictBatch(xTest)
	if err != nil {
		return TrainResult{}, apperr.Inference("score model", err)
	}

	b := &artifact.Bundle{
		Schema: artifact.Schema{
			Version:    artifact.SchemaVersion,
			FeatureSet: s.set.Name,
			Features:   m.Features,
			Target:     s.set.Target,
		},
		Forest: forest,
		Metrics: artifact.Metrics{
			R2:         ml.R2(yTest, pred),
			MAE:        ml.MAE(yTest, pred),
			SampleSize: tbl.Len(),
			TrainSize:  len(trainIdx),
			TestSize:   len(testIdx),
		},
		DataFileID: f.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := artifact.Save(ctx, s.store, b); err != nil {
		return TrainResult{}, apperr.Storage("save model", err)
	}

	if _, err := s.runs.Create(ctx, models.TrainingRun{
		DataFileID:  f.ID,
		UserID:      userID,
		FeatureSet:  s.set.Name,
		Features:    m.Features,
		R2Score:     b.Metrics.R2,
		MAE:         b.Metrics.MAE,
		SampleSize:  b.Metrics.SampleSize,
		ArtifactKey: artifact.Key(f.ID),
	}); err != nil {
		s.log.ErrorContext(ctx, "record training run", "file_id", f.ID, "err", err)
	}

	s.log.InfoContext(ctx, "model trained",
		"file_id", f.ID, "features", len(m.Features), "train", len(trainIdx), "test", len(testIdx), "r2", b.Metrics.R2)

	return TrainResult{
		FeatureSet: s.set.Name,
		Features:   m.Features,
		Importance: b.Importances(),
		R2:         b.Metrics.R2,
		MAE:        b.Metrics.MAE,
		SampleSize: b.Metrics.SampleSize,
	}, nil
}

// LatestRun returns the newest training run for fileID, if any.
func (s *TrainingService) LatestRun(ctx context.Context, fileID string) (models.TrainingRun, bool, error) {
	if fileID == "" {
		return models.TrainingRun{}, false, nil
	}
	run, err := s.runs.LatestForFile(ctx, fileID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.TrainingRun{}, false, nil
	}
	if err != nil {
		return models.TrainingRun{}, false, apperr.Storage("load training run", err)
	}
	return run, true, nil
}
