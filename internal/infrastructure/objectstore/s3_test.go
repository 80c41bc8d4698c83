package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/basel-ax/roomdream/internal/config"
)

func newTestGateway(t *testing.T, endpoint string) *Gateway {
	t.Helper()
	client := s3.New(s3.Options{
		Region:           "us-east-1",
		Credentials:      credentials.NewStaticCredentialsProvider("AKIDTEST", "SECRETTEST", ""),
		BaseEndpoint:     aws.String(endpoint),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
	return NewWithClient(client, config.S3Config{
		Bucket:          "rooms",
		UploadURLExpiry: 60 * time.Second,
		ReadURLExpiry:   15 * time.Minute,
	}, zaptest.NewLogger(t))
}

func TestUploadURL(t *testing.T) {
	g := newTestGateway(t, "http://localhost:9000")

	ticket, err := g.UploadURL(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, ticket.Key)

	u, err := url.Parse(ticket.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "/rooms/"+ticket.Key, u.Path)
	assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	other, err := g.UploadURL(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ticket.Key, other.Key)
}

func TestReadURL(t *testing.T) {
	g := newTestGateway(t, "http://localhost:9000")

	signed, err := g.ReadURL(context.Background(), "abc")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/rooms/abc", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Date"))
}

func TestPutObject(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotBody  []byte
		gotCType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotCType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	g := newTestGateway(t, srv.URL)
	require.NoError(t, g.PutObject(context.Background(), "out-1", []byte("rendering"), "image/png"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/rooms/out-1", gotPath)
	assert.Equal(t, "image/png", gotCType)
	assert.Equal(t, []byte("rendering"), gotBody)
}

func TestPutObjectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	t.Cleanup(srv.Close)

	g := newTestGateway(t, srv.URL)
	err := g.PutObject(context.Background(), "out-1", []byte("rendering"), "image/png")
	assert.Error(t, err)
}
