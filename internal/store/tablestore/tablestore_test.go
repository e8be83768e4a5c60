package tablestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/freetodo/internal/store"
)

func TestEntityRoundTrip(t *testing.T) {
	value := []byte(`[{"goal":"buy milk","deadline":"","people":["Me"]}]`)
	b, err := encodeEntity("freetodo", "todoItems", value)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "freetodo", raw["PartitionKey"])
	assert.Equal(t, "todoItems", raw["RowKey"])
	assert.Equal(t, string(value), raw["Value"])

	got, err := decodeEntity(b)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestDecodeEntityRejectsGarbage(t *testing.T) {
	_, err := decodeEntity([]byte("not json"))
	assert.Error(t, err)
}

func TestNewDefaultsPartition(t *testing.T) {
	s := New(nil, "")
	assert.Equal(t, DefaultPartition, s.partition)
}

func openFake(t *testing.T, existing ...string) (*Store, *fakeTables) {
	t.Helper()
	fake, ts := newFakeTables(t, existing...)
	svc, err := aztables.NewServiceClientWithNoCredential(ts.URL, clientOptions())
	require.NoError(t, err)
	s, err := openService(context.Background(), svc, "freetodo", "")
	require.NoError(t, err)
	return s, fake
}

func TestGetMissingIsNotFound(t *testing.T) {
	s, _ := openFake(t)
	_, err := s.Get(context.Background(), "todoItems")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutReplacesThenGet(t *testing.T) {
	s, fake := openFake(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "todoItems", []byte(`[{"goal":"a","deadline":"","people":[]}]`)))
	require.NoError(t, s.Put(ctx, "todoItems", []byte(`[]`)))

	got, err := s.Get(ctx, "todoItems")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	calls := fake.calls()
	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodPut, http.MethodGet}, calls)
}

func TestOpenToleratesExistingTable(t *testing.T) {
	s, fake := openFake(t, "freetodo")
	require.NotNil(t, s)
	assert.Equal(t, []string{http.MethodPost}, fake.calls())
}

func TestOpenFailsOnOtherErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "AuthorizationFailure")
	}))
	t.Cleanup(ts.Close)
	svc, err := aztables.NewServiceClientWithNoCredential(ts.URL, clientOptions())
	require.NoError(t, err)

	_, err = openService(context.Background(), svc, "freetodo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table freetodo")
}

func TestOpenWithConnectionString(t *testing.T) {
	_, ts := newFakeTables(t)
	conn := "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
		"AccountKey=Zm9vYmFyYmF6;TableEndpoint=" + ts.URL + "/devstoreaccount1"

	s, err := Open(context.Background(), conn, "freetodo", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", s.partition)

	require.NoError(t, s.Put(context.Background(), "todoItems", []byte(`[]`)))
	got, err := s.Get(context.Background(), "todoItems")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestOpenRejectsBadConnectionString(t *testing.T) {
	_, err := Open(context.Background(), "not a connection string", "freetodo", "")
	assert.Error(t, err)
}
