package tablestore

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
)

var entityPath = regexp.MustCompile(`/([A-Za-z0-9]+)\(PartitionKey='([^']*)',RowKey='([^']*)'\)$`)

// fakeTables answers the Table service REST calls the store makes:
// create table, get entity and replace-upsert entity.
type fakeTables struct {
	mu       sync.Mutex
	tables   map[string]bool
	entities map[string][]byte
	methods  []string
}

func newFakeTables(t *testing.T, existing ...string) (*fakeTables, *httptest.Server) {
	t.Helper()
	f := &fakeTables{tables: map[string]bool{}, entities: map[string][]byte{}}
	for _, name := range existing {
		f.tables[name] = true
	}
	ts := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(ts.Close)
	return f, ts
}

func (f *fakeTables) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, r.Method)

	if strings.HasSuffix(r.URL.Path, "/Tables") && r.Method == http.MethodPost {
		var body struct {
			TableName string `json:"TableName"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.tables[body.TableName] {
			writeError(w, http.StatusConflict, "TableAlreadyExists")
			return
		}
		f.tables[body.TableName] = true
		w.WriteHeader(http.StatusNoContent)
		return
	}

	m := entityPath.FindStringSubmatch(r.URL.Path)
	if m == nil || !f.tables[m[1]] {
		writeError(w, http.StatusNotFound, "TableNotFound")
		return
	}
	key := m[1] + "/" + m[2] + "/" + m[3]
	switch r.Method {
	case http.MethodGet:
		b, ok := f.entities[key]
		if !ok {
			writeError(w, http.StatusNotFound, "ResourceNotFound")
			return
		}
		w.Header().Set("Content-Type", "application/json;odata=minimalmetadata")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.entities[key] = b
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "UnsupportedHttpVerb")
	}
}

func (f *fakeTables) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-ms-error-code", code)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"odata.error":{"code":"` + code + `","message":{"lang":"en-US","value":"` + code + `"}}}`))
}
