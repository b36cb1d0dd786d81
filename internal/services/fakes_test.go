package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/student-performance/internal/models"
	repo "github.com/baharkarakas/student-performance/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]models.User
	err    error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byName: map[string]models.User{}} }

func (f *fakeUsers) Create(_ context.Context, username, email, hash string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.User{}, f.err
	}
	for _, u := range f.byName {
		if u.Email == email {
			return models.User{}, fmt.Errorf("%w: users_email_key", repo.ErrDuplicate)
		}
	}
	u := models.User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byName[username] = u
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.byName[username]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

type fakeDataFiles struct {
	mu    sync.Mutex
	files map[string]models.DataFile
}

func newFakeDataFiles() *fakeDataFiles { return &fakeDataFiles{files: map[string]models.DataFile{}} }

func (f *fakeDataFiles) Create(_ context.Context, df models.DataFile) (models.DataFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	df.ID = uuid.NewString()
	df.CreatedAt = time.Now()
	f.files[df.ID] = df
	return df, nil
}

func (f *fakeDataFiles) GetByID(_ context.Context, id string) (models.DataFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	df, ok := f.files[id]
	if !ok {
		return models.DataFile{}, repo.ErrNotFound
	}
	return df, nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []models.TrainingRun
}

func (f *fakeRuns) Create(_ context.Context, r models.TrainingRun) (models.TrainingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	f.runs = append(f.runs, r)
	return r, nil
}

func (f *fakeRuns) LatestForFile(_ context.Context, fileID string) (models.TrainingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].DataFileID == fileID {
			return f.runs[i], nil
		}
	}
	return models.TrainingRun{}, repo.ErrNotFound
}

// gradesCSV builds n rows of the extended feature set where the final score
// follows attendance and midterm.
func gradesCSV(n int) string {
	var b strings.Builder
	b.WriteString("Name,Email,Attendance (%),Midterm_Score,Private_Class,Physical_Fitness,Mental_Fitness,Subject1_Duration,Subject2_Duration,Test_Preparation_Course,Participation_Score,Final_Score\n")
	for i := 0; i < n; i++ {
		att := 50 + i%50
		mid := 40 + (i*7)%60
		yes := "NO"
		if i%2 == 0 {
			yes = "YES"
		}
		prep := "none"
		if i%3 == 0 {
			prep = "completed"
		}
		final := float64(att)*0.5 + float64(mid)*0.5
		fmt.Fprintf(&b, "s%d,s%d@x.io,%d,%d,%s,%s,YES,%d,%d,%s,%d,%.1f\n",
			i, i, att, mid, yes, yes, i%5, (i+2)%4, prep, i%10, final)
	}
	return b.String()
}
