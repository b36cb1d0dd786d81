package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/artifact"
	"github.com/baharkarakas/student-performance/internal/auth"
	"github.com/baharkarakas/student-performance/internal/config"
	"github.com/baharkarakas/student-performance/internal/features"
	"github.com/baharkarakas/student-performance/internal/logger"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/models"
	repo "github.com/baharkarakas/student-performance/internal/repository"
	"github.com/baharkarakas/student-performance/internal/services"
	"github.com/baharkarakas/student-performance/internal/session"
	"github.com/baharkarakas/student-performance/internal/worker"
)

type memRepos struct {
	mu    sync.Mutex
	users map[string]models.User
	files map[string]models.DataFile
	runs  []models.TrainingRun
}

type memUsers struct{ *memRepos }
type memFiles struct{ *memRepos }
type memRuns struct{ *memRepos }

func (m memUsers) Create(_ context.Context, username, email, hash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[username] = u
	return u, nil
}

func (m memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (m memUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return models.User{}, repo.ErrNotFound
}

func (m memFiles) Create(_ context.Context, f models.DataFile) (models.DataFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	m.files[f.ID] = f
	return f, nil
}

func (m memFiles) GetByID(_ context.Context, id string) (models.DataFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		return f, nil
	}
	return models.DataFile{}, repo.ErrNotFound
}

func (m memRuns) Create(_ context.Context, r models.TrainingRun) (models.TrainingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	m.runs = append(m.runs, r)
	return r, nil
}

func (m memRuns) LatestForFile(_ context.Context, fileID string) (models.TrainingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].DataFileID == fileID {
			return m.runs[i], nil
		}
	}
	return models.TrainingRun{}, repo.ErrNotFound
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	mem := &memRepos{users: map[string]models.User{}, files: map[string]models.DataFile{}}

	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	pool := worker.NewPool(1, 4)
	t.Cleanup(pool.Stop)
	rv, err := views.New()
	require.NoError(t, err)

	ds := services.NewDatasetService(memFiles{mem}, log)
	srv := httptest.NewServer(NewRouter(RouterDeps{
		Cfg:         config.Config{RateRPS: 0, MaxUploadBytes: 1 << 20},
		Log:         log,
		Views:       rv,
		Sessions:    middleware.NewSessionAuth(auth.NewSessionManager("test-secret", "test", time.Hour), session.NewMemoryRevoker(), false, log),
		Users:       services.NewUserService(memUsers{mem}, log),
		Datasets:    ds,
		Training:    services.NewTrainingService(ds, memRuns{mem}, store, pool, features.Extended, log),
		Predictions: services.NewPredictionService(store, log),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func postForm(t *testing.T, c *http.Client, u string, v url.Values) *http.Response {
	t.Helper()
	res, err := c.PostForm(u, v)
	require.NoError(t, err)
	return res
}

func get(t *testing.T, c *http.Client, u string) *http.Response {
	t.Helper()
	res, err := c.Get(u)
	require.NoError(t, err)
	return res
}

func register(t *testing.T, c *http.Client, srv *httptest.Server, username string) *http.Response {
	return postForm(t, c, srv.URL+"/register", url.Values{
		"username": {username}, "email": {username + "@school.io"}, "password": {"s3cret-pass"},
	})
}

func login(t *testing.T, c *http.Client, srv *httptest.Server, username, password string) *http.Response {
	return postForm(t, c, srv.URL+"/login", url.Values{"username": {username}, "password": {password}})
}

func hasCookie(res *http.Response, name string) bool {
	for _, c := range res.Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func gradebook(n int) string {
	var b strings.Builder
	b.WriteString("Name,Email,Attendance (%),Midterm_Score,Private_Class,Physical_Fitness,Mental_Fitness,Subject1_Duration,Subject2_Duration,Test_Preparation_Course,Participation_Score,Final_Score\n")
	for i := 0; i < n; i++ {
		att, mid := 50+i%50, 40+(i*7)%60
		yes := "NO"
		if i%2 == 0 {
			yes = "YES"
		}
		fmt.Fprintf(&b, "s%d,s%d@x.io,%d,%d,%s,%s,YES,%d,%d,none,%d,%.1f\n",
			i, i, att, mid, yes, yes, i%5, (i+2)%4, i%10, float64(att+mid)/2)
	}
	return b.String()
}

func upload(t *testing.T, c *http.Client, srv *httptest.Server, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
	}
	require.NoError(t, mw.Close())
	res, err := c.Post(srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return res
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	res := get(t, newClient(t), srv.URL+"/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body(t, res))
}

func TestRegister_Duplicate(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	res := register(t, c, srv, "ada")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/login")), "Account created successfully! Please log in.")

	res = register(t, c, srv, "ada")
	assert.Equal(t, "/register", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/register")), "Username already taken! Try another.")
}

func TestRegister_Invalid(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	res := postForm(t, c, srv.URL+"/register", url.Values{"username": {"al"}, "email": {"bad"}, "password": {"x"}})
	assert.Equal(t, "/register", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/register")), "username: must be at least 3 characters")
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	register(t, c, srv, "ada")

	res := login(t, c, srv, "ada", "wrong")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, hasCookie(res, middleware.SessionCookie))
	assert.Contains(t, body(t, res), "Invalid Username or Password!")

	res = login(t, c, srv, "ada", "s3cret-pass")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/dashboard", res.Header.Get("Location"))
	require.True(t, hasCookie(res, middleware.SessionCookie))

	page := body(t, get(t, c, srv.URL+"/dashboard"))
	assert.Contains(t, page, "Login Successful!")
	assert.Contains(t, page, "Welcome, ada")
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/preview"},
		{http.MethodGet, "/predict"},
		{http.MethodPost, "/train_model"},
		{http.MethodPost, "/predict_datapoint"},
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/upload"},
	} {
		req, err := http.NewRequest(tc.method, srv.URL+tc.path, nil)
		require.NoError(t, err)
		res, err := c.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusFound, res.StatusCode, tc.path)
		assert.Equal(t, "/login", res.Header.Get("Location"), tc.path)
	}
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	register(t, c, srv, "ada")
	login(t, c, srv, "ada", "s3cret-pass")

	res := get(t, c, srv.URL+"/logout")
	assert.Equal(t, "/login", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/login")), "You have been logged out.")

	res = get(t, c, srv.URL+"/dashboard")
	assert.Equal(t, http.StatusFound, res.StatusCode)
}

func loggedIn(t *testing.T) (*httptest.Server, *http.Client) {
	srv := newTestServer(t)
	c := newClient(t)
	register(t, c, srv, "ada")
	login(t, c, srv, "ada", "s3cret-pass")
	return srv, c
}

func TestUpload_Rejections(t *testing.T) {
	srv, c := loggedIn(t)

	res := upload(t, c, srv, "", "")
	assert.Equal(t, "/upload", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/upload")), "No file selected")

	res = upload(t, c, srv, "grades.txt", "a,b\n1,2\n")
	assert.Equal(t, "/upload", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/upload")), "Invalid file type. Allowed: csv, xlsx")

	res = get(t, c, srv.URL+"/preview")
	assert.Equal(t, "/upload", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/upload")), "Please upload a file first")
}

func TestUpload_TooLarge(t *testing.T) {
	srv, c := loggedIn(t)

	big := gradebook(10) + strings.Repeat("x", 1<<20)
	res := upload(t, c, srv, "big.csv", big)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/upload", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/upload")), "Error processing file: upload exceeds 1048576 bytes")

	res = get(t, c, srv.URL+"/preview")
	assert.Equal(t, "/upload", res.Header.Get("Location"), "an oversized upload sets no current file")
}

func TestRegister_EmailTooLong(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	email := "ada@" + strings.Repeat("a", 40) + "." + strings.Repeat("b", 40) + "." + strings.Repeat("c", 20) + ".io"
	require.Greater(t, len(email), 100)
	res := postForm(t, c, srv.URL+"/register", url.Values{"username": {"ada"}, "email": {email}, "password": {"pw"}})
	assert.Equal(t, "/register", res.Header.Get("Location"))
	assert.Contains(t, body(t, get(t, c, srv.URL+"/register")), "email: must be at most 100 characters")
}

func TestUploadTrainPredict(t *testing.T) {
	srv, c := loggedIn(t)

	res := upload(t, c, srv, "Grades.CSV", gradebook(40))
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/preview", res.Header.Get("Location"))

	page := body(t, get(t, c, srv.URL+"/preview"))
	assert.Contains(t, page, "File uploaded and processed successfully!")
	assert.Contains(t, page, "Grades.CSV")
	assert.Contains(t, page, "<th>attendance_percent</th>")
	assert.NotContains(t, page, "<th>email</th>")

	res = get(t, c, srv.URL+"/predict")
	assert.Equal(t, "/preview", res.Header.Get("Location"), "no model yet")

	res, err := c.Post(srv.URL+"/train_model", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var tr struct {
		Success           bool               `json:"success"`
		Message           string             `json:"message"`
		Features          []string           `json:"features"`
		FeatureImportance map[string]float64 `json:"feature_importance"`
		SampleSize        int                `json:"sample_size"`
		Redirect          string             `json:"redirect"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tr))
	res.Body.Close()
	assert.True(t, tr.Success)
	assert.Equal(t, "Model trained successfully!", tr.Message)
	assert.Equal(t, 40, tr.SampleSize)
	assert.Len(t, tr.Features, 9)
	assert.Len(t, tr.FeatureImportance, 9)
	assert.Equal(t, "/predict", tr.Redirect)

	page = body(t, get(t, c, srv.URL+"/predict"))
	assert.Contains(t, page, `name="test_preparation_course"`)

	res = postForm(t, c, srv.URL+"/predict", url.Values{
		"name": {"Grace"}, "attendance_percent": {"95"}, "midterm_score": {"88"}, "private_class": {"YES"},
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body(t, res), "Prediction for Grace")

	res, err = c.Post(srv.URL+"/predict_datapoint", "application/json", strings.NewReader(`{"vector":[90,80,1,1]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body(t, res), "Expected 9 features, got 4")

	res, err = c.Post(srv.URL+"/predict_datapoint", "application/json", strings.NewReader(`{"vector":[90,80,1,1,1,2,2,0,7]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var pr struct {
		Score       float64  `json:"score"`
		Performance string   `json:"performance"`
		Feedback    string   `json:"feedback"`
		Features    []string `json:"features"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&pr))
	res.Body.Close()
	assert.NotEmpty(t, pr.Performance)
	assert.NotEmpty(t, pr.Feedback)
	assert.Equal(t, tr.Features, pr.Features)

	res, err = c.Post(srv.URL+"/predict_datapoint", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()
}

func TestTrain_MissingTarget(t *testing.T) {
	srv, c := loggedIn(t)
	upload(t, c, srv, "notarget.csv", "Attendance (%),Midterm_Score\n90,80\n70,60\n")

	res, err := c.Post(srv.URL+"/train_model", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body(t, res), `"code":"validation"`)
}

func TestPredictDatapoint_NoModel(t *testing.T) {
	srv, c := loggedIn(t)
	upload(t, c, srv, "grades.csv", gradebook(12))

	res, err := c.Post(srv.URL+"/predict_datapoint", "application/json", strings.NewReader(`{"vector":[1]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}
