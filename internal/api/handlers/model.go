package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/features"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/services"
)

const maxJSONBytes = 1 << 20

type ModelHandler struct {
	*Base
	Training    *services.TrainingService
	Predictions *services.PredictionService
}

type trainResponse struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message"`
	R2Score           float64            `json:"r2_score"`
	MAE               float64            `json:"mae"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Features          []string           `json:"features"`
	SampleSize        int                `json:"sample_size"`
	Redirect          string             `json:"redirect"`
}

func (h *ModelHandler) Train(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	res, err := h.Training.Train(r.Context(), s.UserID, s.FileID)
	if err != nil {
		h.Log.WarnContext(r.Context(), "train", "err", err, "file_id", s.FileID, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, trainResponse{
		Success:           true,
		Message:           "Model trained successfully!",
		R2Score:           res.R2,
		MAE:               res.MAE,
		FeatureImportance: res.Importance,
		Features:          res.Features,
		SampleSize:        res.SampleSize,
		Redirect:          "/predict",
	})
}

type formField struct {
	Name  string
	Label string
	Input string
}

type predictPage struct {
	FeatureSet string
	Fields     []formField
}

func inputKind(k features.Kind) string {
	switch k {
	case features.YesNo:
		return "yesno"
	case features.Completion:
		return "completion"
	}
	return "number"
}

func (h *ModelHandler) PredictPage(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	schema, err := h.Predictions.Schema(r.Context(), s.FileID)
	switch {
	case errors.Is(err, services.ErrNoCurrent):
		httpx.Redirect(w, r, "/upload", httpx.FlashError, services.ErrNoCurrent.Message)
		return
	case errors.Is(err, services.ErrNoModel):
		httpx.Redirect(w, r, "/preview", httpx.FlashInfo, services.ErrNoModel.Message)
		return
	case err != nil:
		h.Log.ErrorContext(r.Context(), "load schema", "err", err, "file_id", s.FileID)
		httpx.Redirect(w, r, "/dashboard", httpx.FlashError, "Error during prediction: "+apperr.Public(err))
		return
	}

	page := predictPage{FeatureSet: schema.FeatureSet}
	for _, name := range schema.Features {
		f, _ := features.Find(name)
		page.Fields = append(page.Fields, formField{Name: f.Name, Label: f.Label, Input: inputKind(f.Kind)})
	}
	h.render(w, r, http.StatusOK, "predict", "Predict", page)
}

type resultInput struct {
	Label string
	Value string
}

type resultPage struct {
	Name        string
	Inputs      []resultInput
	Score       float64
	Performance string
	Feedback    string
}

func (h *ModelHandler) Predict(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	if err := r.ParseForm(); err != nil {
		httpx.Redirect(w, r, "/predict", httpx.FlashError, "Error during prediction: invalid form")
		return
	}
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = strings.TrimSpace(r.PostForm.Get(k))
	}

	p, err := h.Predictions.PredictForm(r.Context(), s.FileID, form)
	if err != nil {
		h.Log.WarnContext(r.Context(), "predict", "err", err, "file_id", s.FileID)
		httpx.Redirect(w, r, "/predict", httpx.FlashError, "Error during prediction: "+apperr.Public(err))
		return
	}

	name := form["name"]
	if name == "" {
		name = "Student"
	}
	res := resultPage{Name: name, Score: p.Score, Performance: p.Performance, Feedback: p.Feedback}
	for _, fname := range p.Features {
		f, _ := features.Find(fname)
		v := form[fname]
		if v == "" {
			v = views.Cell(p.Inputs[fname])
		}
		res.Inputs = append(res.Inputs, resultInput{Label: f.Label, Value: v})
	}
	h.render(w, r, http.StatusOK, "result", "Prediction", res)
}

type datapointRequest struct {
	Vector []float64      `json:"vector"`
	Values map[string]any `json:"values"`
}

type datapointResponse struct {
	Score       float64  `json:"score"`
	Performance string   `json:"performance"`
	Feedback    string   `json:"feedback"`
	Features    []string `json:"features"`
}

// PredictDatapoint is the JSON prediction endpoint.
func (h *ModelHandler) PredictDatapoint(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	var req datapointRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(&req); err != nil {
		httpx.WriteAppError(w, apperr.Validation("invalid JSON body: %v", err))
		return
	}

	var (
		p   services.Prediction
		err error
	)
	switch {
	case req.Vector != nil:
		p, err = h.Predictions.PredictVector(r.Context(), s.FileID, req.Vector)
	case req.Values != nil:
		p, err = h.Predictions.PredictValues(r.Context(), s.FileID, req.Values)
	default:
		err = apperr.Validation(`body needs "vector" or "values"`)
	}
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, datapointResponse{
		Score:       p.Score,
		Performance: p.Performance,
		Feedback:    p.Feedback,
		Features:    p.Features,
	})
}
