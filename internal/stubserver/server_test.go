package stubserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/freetodo/internal/model"
)

func quietLogger() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return logger, hook
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateParsesBody(t *testing.T) {
	logger, hook := quietLogger()
	s := New(WithLogger(logger))

	rec := post(t, s.Handler(), "/create_todolist_items/", `{"input":"I need to go and visit Jeff at 3pm tomorrow"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := model.DecodeList(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Go and visit Jeff", got[0].Goal)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "req-1", reqs[0].RequestID)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/create_todolist_items/", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestCreateAcceptsQueryParam(t *testing.T) {
	logger, _ := quietLogger()
	s := New(WithLogger(logger), WithResponder(func(in string) []model.Item {
		return []model.Item{{Goal: in, Deadline: "", People: []string{}}}
	}))

	rec := post(t, s.Handler(), "/create_todolist_items/?input=water+plants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"goal":"water plants","deadline":"","people":[]}]`, rec.Body.String())
}

func TestCreateRejectsBadBody(t *testing.T) {
	logger, _ := quietLogger()
	s := New(WithLogger(logger))
	rec := post(t, s.Handler(), "/create_todolist_items/", `{"input":`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestForcedFailure(t *testing.T) {
	logger, hook := quietLogger()
	s := New(WithLogger(logger), WithFailure(http.StatusBadGateway))
	rec := post(t, s.Handler(), "/create_todolist_items/", `{"input":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
}

func TestRawResponse(t *testing.T) {
	logger, _ := quietLogger()
	s := New(WithLogger(logger), WithRawResponse(http.StatusOK, `{"goal":"not a list"}`))
	rec := post(t, s.Handler(), "/create_todolist_items/", `{"input":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"goal":"not a list"}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	logger, _ := quietLogger()
	srv := httptest.NewServer(New(WithLogger(logger)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(b))
}
