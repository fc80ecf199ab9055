package storage_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gce-instance-manager/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore serves path style GET and PUT for a single bucket.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func (f *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		f.puts++
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newS3Storage(t *testing.T) (*storage.Storage, *fakeObjectStore) {
	t.Helper()
	fake := &fakeObjectStore{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := storage.NewS3Storage(storage.S3Options{
		Endpoint:  srv.URL,
		Bucket:    "nodes",
		Key:       "state/nodes.json",
		AccessKey: "GOOG1EXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3Storage_RoundTrip(t *testing.T) {
	s, fake := newS3Storage(t)

	records, err := s.ListNodes()
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.SaveNode(testRecord("zone-a/n1", time.Now().Add(time.Hour))))
	require.NoError(t, s.SaveNode(testRecord("zone-a/n2", time.Now().Add(-time.Hour))))

	got, err := s.GetNode("zone-a/n1")
	require.NoError(t, err)
	assert.Equal(t, "e2-small", got.MachineType)

	expired, err := s.GetExpiredNodes()
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "zone-a/n2", expired[0].ID)

	require.NoError(t, s.DeleteNode("zone-a/n2"))
	records, err = s.ListNodes()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	assert.Equal(t, 3, fake.puts)
	assert.Contains(t, fake.objects, "/nodes/state/nodes.json")
	assert.Equal(t, "s3://nodes/state/nodes.json", s.Location())
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := storage.NewS3Storage(storage.S3Options{Endpoint: "http://localhost", Key: "k"})
	assert.Error(t, err)
}
