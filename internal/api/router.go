package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/student-performance/internal/api/handlers"
	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/config"
	"github.com/baharkarakas/student-performance/internal/metrics"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/services"
)

type RouterDeps struct {
	Cfg         config.Config
	Log         *slog.Logger
	Views       *views.Renderer
	Sessions    *middleware.SessionAuth
	Users       *services.UserService
	Datasets    *services.DatasetService
	Training    *services.TrainingService
	Predictions *services.PredictionService
}

func NewRouter(d RouterDeps) http.Handler {
	base := &handlers.Base{Views: d.Views, Sessions: d.Sessions, Log: d.Log}
	authH := &handlers.AuthHandler{Base: base, Users: d.Users, Datasets: d.Datasets, Training: d.Training}
	dataH := &handlers.DataHandler{Base: base, Datasets: d.Datasets, MaxUploadBytes: d.Cfg.MaxUploadBytes}
	modelH := &handlers.ModelHandler{Base: base, Training: d.Training, Predictions: d.Predictions}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RequestLogger(d.Log),
		middleware.Recover(d.Log),
		middleware.HTTPMetrics,
		middleware.RateLimit(d.Cfg.RateRPS),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Load)

		r.Get("/", base.Home)
		r.Get("/register", authH.RegisterPage)
		r.Post("/register", authH.Register)
		r.Get("/login", authH.LoginPage)
		r.Post("/login", authH.Login)
		r.Get("/logout", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Get("/dashboard", authH.Dashboard)
			r.Get("/upload", dataH.UploadPage)
			r.Post("/upload", dataH.Upload)
			r.Get("/preview", dataH.Preview)
			r.Post("/train_model", modelH.Train)
			r.Get("/predict", modelH.PredictPage)
			r.Post("/predict", modelH.Predict)
			r.Post("/predict_datapoint", modelH.PredictDatapoint)
		})
	})

	return r
}
