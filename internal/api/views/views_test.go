package views

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
)

func TestRender(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = r.Render(rec, 200, "index", Page{
		Title: "Home",
		Flash: &httpx.Flash{Level: httpx.FlashSuccess, Message: "Login <b>Successful</b>!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Login &lt;b&gt;Successful&lt;/b&gt;!")
	assert.Contains(t, rec.Body.String(), `href="/register"`)

	assert.Error(t, r.Render(httptest.NewRecorder(), 200, "nope", Page{}))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "85.5", Cell(85.5))
	assert.Equal(t, "90", Cell(90.0))
	assert.Equal(t, "YES", Cell("YES"))
}
