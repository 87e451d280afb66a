package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Options{
		Bucket:        "test-bucket",
		Region:        "us-east-1",
		Endpoint:      srv.URL,
		AccessKey:     "test-access",
		SecretKey:     "test-secret",
		PublicBaseURL: "https://cdn.test",
	})
	assert.NoError(t, err)
	return client, srv
}

func TestClient_Delete_AllSucceed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Deleted><Key>uploads/u1/a.png</Key></Deleted>
  <Deleted><Key>qr-codes/a.png</Key></Deleted>
</DeleteResult>`))
	})

	err := client.Delete(context.Background(), "uploads/u1/a.png", "qr-codes/a.png")
	assert.NoError(t, err)
}

func TestClient_Delete_PartialFailure(t *testing.T) {
	// DeleteObjects reports per-key failures in a 200 response body
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Deleted><Key>uploads/u1/a.png</Key></Deleted>
  <Error><Key>qr-codes/a.png</Key><Code>InternalError</Code><Message>we encountered an internal error</Message></Error>
</DeleteResult>`))
	})

	err := client.Delete(context.Background(), "uploads/u1/a.png", "qr-codes/a.png")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "qr-codes/a.png")
}

func TestClient_Delete_NoKeys(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	assert.NoError(t, client.Delete(context.Background()))
	assert.False(t, called)
}

func TestClient_PublicURL(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	url := client.PublicURL("uploads/u1/holiday pic.png")
	assert.Equal(t, "https://cdn.test/uploads/u1/holiday%20pic.png", url)
}
