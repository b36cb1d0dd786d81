package models

import "time"

type TrainingRun struct {
	ID          string    `json:"id"`
	DataFileID  string    `json:"data_file_id"`
	UserID      string    `json:"user_id"`
	FeatureSet  string    `json:"feature_set"`
	Features    []string  `json:"features"`
	R2Score     float64   `json:"r2_score"`
	MAE         float64   `json:"mae"`
	SampleSize  int       `json:"sample_size"`
	ArtifactKey string    `json:"artifact_key"`
	CreatedAt   time.Time `json:"created_at"`
}
