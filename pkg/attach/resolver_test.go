package attach

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
)

type fakeUploader struct {
	calls        int
	lastFilename string
	err          error
}

func (f *fakeUploader) UploadFile(ctx context.Context, data []byte, filename string) (*backend.FileUpload, error) {
	f.calls++
	f.lastFilename = filename
	if f.err != nil {
		return nil, f.err
	}
	return &backend.FileUpload{ID: fmt.Sprintf("file-%d", f.calls), Bytes: int64(len(data))}, nil
}

func pngDataURI(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func newTestResolver(uploader *fakeUploader, limits Limits) *Resolver {
	return NewResolver(uploader, NewCache(10, time.Hour), limits)
}

// allowHost returns a validator that trusts URLs on the given test server
// and applies the real policy to everything else.
func allowHost(serverURL string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, raw string) (string, error) {
		if strings.HasPrefix(raw, serverURL) {
			return raw, nil
		}
		return validateRemoteURL(ctx, raw)
	}
}

func TestResolveDataURI(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})

	result, err := resolver.Resolve(context.Background(), pngDataURI("hello"), "", NoBudget)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result == nil {
		t.Fatal("result is nil")
	}
	if result.FileID != "file-1" || result.ByteSize != 5 || result.Kind != KindImage {
		t.Errorf("result = %+v", result)
	}
	if !strings.HasSuffix(uploader.lastFilename, ".png") {
		t.Errorf("generated filename = %q, want .png suffix", uploader.lastFilename)
	}
}

func TestResolveUsesFilenameHint(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})

	if _, err := resolver.Resolve(context.Background(), pngDataURI("x"), "chart.png", NoBudget); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uploader.lastFilename != "chart.png" {
		t.Errorf("filename = %q, want hint", uploader.lastFilename)
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	uploader := &fakeUploader{}
	cache := NewCache(10, time.Hour)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }
	resolver := NewResolver(uploader, cache, Limits{})

	ref := pngDataURI("cached")
	for i := 0; i < 2; i++ {
		result, err := resolver.Resolve(context.Background(), ref, "", NoBudget)
		if err != nil || result == nil {
			t.Fatalf("Resolve #%d: result=%v err=%v", i, result, err)
		}
		if result.FileID != "file-1" {
			t.Errorf("Resolve #%d file id = %q", i, result.FileID)
		}
	}
	if uploader.calls != 1 {
		t.Fatalf("uploads within TTL = %d, want 1", uploader.calls)
	}

	current = current.Add(2 * time.Hour)
	result, err := resolver.Resolve(context.Background(), ref, "", NoBudget)
	if err != nil || result == nil {
		t.Fatalf("Resolve after expiry: result=%v err=%v", result, err)
	}
	if uploader.calls != 2 {
		t.Errorf("uploads after expiry = %d, want 2", uploader.calls)
	}
}

func TestResolveDataURITooLarge(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{MaxAudioBytes: 100, MaxImageBytes: 4, MaxTextBytes: 100})

	_, err := resolver.Resolve(context.Background(), pngDataURI("hello"), "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 413 {
		t.Fatalf("err = %v, want 413", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveBudgetCapsImageLimit(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})

	// Five bytes of payload against a two byte remaining budget.
	_, err := resolver.Resolve(context.Background(), pngDataURI("hello"), "", 2)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 413 {
		t.Fatalf("err = %v, want 413", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveUnsupportedMedia(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})

	_, err := resolver.Resolve(context.Background(), "data:application/zip;base64,aGVsbG8=", "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 415 {
		t.Fatalf("err = %v, want 415", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveRejectsDisallowedURL(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})

	for _, ref := range []string{
		"http://127.0.0.1:9/a.png",
		"http://169.254.169.254/latest/meta-data",
		"ftp://example.com/a.png",
	} {
		_, err := resolver.Resolve(context.Background(), ref, "", NoBudget)
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 400 {
			t.Errorf("%s: err = %v, want 400", ref, err)
		}
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveRemoteFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("imagebytes"))
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})
	resolver.validate = allowHost(server.URL)

	result, err := resolver.Resolve(context.Background(), server.URL+"/a.png", "", NoBudget)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result == nil || result.ByteSize != 10 || result.Kind != KindImage {
		t.Errorf("result = %+v", result)
	}
	if uploader.calls != 1 {
		t.Errorf("uploads = %d, want 1", uploader.calls)
	}
}

func TestResolveRedirectTargetValidated(t *testing.T) {
	var bodyRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyRequests.Add(1)
		w.Header().Set("Location", "http://169.254.169.254/latest/meta-data")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})
	resolver.validate = allowHost(server.URL)

	_, err := resolver.Resolve(context.Background(), server.URL+"/redirect", "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 400 {
		t.Fatalf("err = %v, want 400", err)
	}
	if got := bodyRequests.Load(); got != 1 {
		t.Errorf("requests = %d, the redirect target must never be fetched", got)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveTooManyRedirects(t *testing.T) {
	var requests atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Location", server.URL+"/loop")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})
	resolver.validate = allowHost(server.URL)

	_, err := resolver.Resolve(context.Background(), server.URL+"/loop", "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || !strings.Contains(apiErr.Message, "too many redirects") {
		t.Fatalf("err = %v, want too-many-redirects", err)
	}
	if got := requests.Load(); got != MaxRedirects+1 {
		t.Errorf("requests = %d, want %d", got, MaxRedirects+1)
	}
}

func TestResolveContentLengthPrecheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 1000))
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{MaxAudioBytes: 100, MaxImageBytes: 100, MaxTextBytes: 100})
	resolver.validate = allowHost(server.URL)

	_, err := resolver.Resolve(context.Background(), server.URL+"/big.png", "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 413 {
		t.Fatalf("err = %v, want 413", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveByteCounterAbortsChunkedDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			w.Write(make([]byte, 64))
			flusher.Flush()
		}
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{MaxAudioBytes: 100, MaxImageBytes: 100, MaxTextBytes: 100})
	resolver.validate = allowHost(server.URL)

	_, err := resolver.Resolve(context.Background(), server.URL+"/stream.png", "", NoBudget)

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() != 413 {
		t.Fatalf("err = %v, want 413", err)
	}
	if uploader.calls != 0 {
		t.Errorf("uploads = %d, want 0", uploader.calls)
	}
}

func TestResolveHTTPErrorDegradesToSkip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})
	resolver.validate = allowHost(server.URL)

	result, err := resolver.Resolve(context.Background(), server.URL+"/missing.png", "", NoBudget)
	if err != nil {
		t.Fatalf("HTTP status failures must not abort the request: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil skip", result)
	}
}

func TestResolveConnectFailureDegradesToSkip(t *testing.T) {
	uploader := &fakeUploader{}
	resolver := newTestResolver(uploader, Limits{})
	// Bypass policy so the request is attempted and fails at connect time.
	resolver.validate = func(ctx context.Context, raw string) (string, error) { return raw, nil }

	result, err := resolver.Resolve(context.Background(), "http://127.0.0.1:1/a.png", "", NoBudget)
	if err != nil {
		t.Fatalf("connect failures must not abort the request: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil skip", result)
	}
}

func TestResolveUploadFailureDegradesToSkip(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("backend down")}
	resolver := newTestResolver(uploader, Limits{})

	result, err := resolver.Resolve(context.Background(), pngDataURI("x"), "", NoBudget)
	if err != nil {
		t.Fatalf("upload failures must not abort the request: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil skip", result)
	}
}
