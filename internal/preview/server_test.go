package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/testutil"
)

func newTestServer(t *testing.T, base string, opts ...Option) *httptest.Server {
	t.Helper()
	m := store(t, "index.html", "guide.html", "data.bin", "assets/style.css")
	opts = append([]Option{WithLogger(testutil.Logger())}, opts...)
	srv := httptest.NewServer(NewServer(m, base, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServer_ServesArtifacts(t *testing.T) {
	srv := newTestServer(t, "/")

	resp, body := get(t, srv.URL+"/guide")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body != "guide.html" {
		t.Errorf("body = %q", body)
	}

	resp, _ = get(t, srv.URL+"/assets/style.css")
	if ct := resp.Header.Get("Content-Type"); ct != "text/css" {
		t.Errorf("css Content-Type = %q", ct)
	}
}

func TestServer_UnknownTypeHasNoContentType(t *testing.T) {
	srv := newTestServer(t, "/")
	resp, body := get(t, srv.URL+"/data.bin")
	if resp.StatusCode != http.StatusOK || body != "data.bin" {
		t.Fatalf("status = %d body = %q", resp.StatusCode, body)
	}
	if _, ok := resp.Header["Content-Type"]; ok {
		t.Errorf("unexpected Content-Type %q", resp.Header.Get("Content-Type"))
	}
}

func TestServer_NotFound(t *testing.T) {
	srv := newTestServer(t, "/docs/")

	for _, p := range []string{"/docs/missing", "/guide"} {
		resp, body := get(t, srv.URL+p)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d", p, resp.StatusCode)
		}
		if body != "" {
			t.Errorf("GET %s body = %q, want empty", p, body)
		}
	}

	resp, _ := get(t, srv.URL+"/docs/guide")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /docs/guide status = %d", resp.StatusCode)
	}
}

func TestServer_Head(t *testing.T) {
	srv := newTestServer(t, "/")
	resp, err := http.Head(srv.URL + "/")
	if err != nil {
		t.Fatalf("HEAD: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("HEAD status = %d", resp.StatusCode)
	}
}

func TestServer_MountedHandlerAndMetrics(t *testing.T) {
	rec := metrics.New(nil)
	srv := newTestServer(t, "/", WithMetrics(rec), WithHandler(metrics.Path, rec.Handler()))

	get(t, srv.URL+"/guide")
	get(t, srv.URL+"/nope")

	resp, body := get(t, srv.URL+metrics.Path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`folio_preview_requests_total{code="200"} 1`,
		`folio_preview_requests_total{code="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestServer_ConcurrentRequests(t *testing.T) {
	srv := newTestServer(t, "/", WithWorkers(4))

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(srv.URL + "/guide")
			if err != nil {
				errs <- err.Error()
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- resp.Status
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

