package postgres

import (
	"context"

	"github.com/baharkarakas/student-performance/internal/models"
	"github.com/baharkarakas/student-performance/internal/repository"
	"github.com/google/uuid"
)

type trainingRunsRepo struct{ db repository.DBTX }

func (r *trainingRunsRepo) Create(ctx context.Context, run models.TrainingRun) (models.TrainingRun, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO training_runs(id, data_file_id, user_id, feature_set, features, r2_score, mae, sample_size, artifact_key)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING created_at`,
		run.ID, run.DataFileID, run.UserID, run.FeatureSet, run.Features,
		run.R2Score, run.MAE, run.SampleSize, run.ArtifactKey,
	).Scan(&run.CreatedAt)
	return run, mapErr(err)
}

func (r *trainingRunsRepo) LatestForFile(ctx context.Context, dataFileID string) (models.TrainingRun, error) {
	var run models.TrainingRun
	err := r.db.QueryRow(ctx,
		`SELECT id, data_file_id, user_id, feature_set, features, r2_score, mae, sample_size, artifact_key, created_at
		   FROM training_runs
		  WHERE data_file_id=$1
		  ORDER BY created_at DESC
		  LIMIT 1`,
		dataFileID,
	).Scan(&run.ID, &run.DataFileID, &run.UserID, &run.FeatureSet, &run.Features,
		&run.R2Score, &run.MAE, &run.SampleSize, &run.ArtifactKey, &run.CreatedAt)
	return run, mapErr(err)
}
