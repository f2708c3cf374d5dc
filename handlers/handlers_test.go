package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"

	"hpmusic/catalog"
	"hpmusic/controller"
	"hpmusic/musicapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClient struct {
	searchBody string
	trackBody  string
	err        error

	searches   int
	lastQuery  string
	lastLimit  int
	trackCalls int
}

func (f *fakeClient) SearchTracks(ctx context.Context, query string, limit int) (*musicapi.SearchResult, error) {
	f.searches++
	f.lastQuery = query
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return musicapi.ParseSearchResult([]byte(f.searchBody))
}

func (f *fakeClient) GetTrack(ctx context.Context, id string) (*musicapi.Track, error) {
	f.trackCalls++
	if f.err != nil {
		return nil, f.err
	}
	return musicapi.ParseTrack([]byte(f.trackBody))
}

func (f *fakeClient) GetArtist(ctx context.Context, id string) (*musicapi.Artist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return musicapi.ParseArtist([]byte(`{"id":"` + id + `","name":"The Weeknd"}`))
}

func (f *fakeClient) GetAlbum(ctx context.Context, id string) (*musicapi.Album, error) {
	if f.err != nil {
		return nil, f.err
	}
	return musicapi.ParseAlbum([]byte(`{"id":"` + id + `","name":"After Hours"}`))
}

type fakeCache struct {
	entries map[string][]byte
	puts    int
	getErr  error
}

func (f *fakeCache) GetTrack(trackID string, maxAge time.Duration) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	payload, ok := f.entries[trackID]
	return payload, ok, nil
}

func (f *fakeCache) PutTrack(trackID string, payload []byte) error {
	f.puts++
	if f.entries == nil {
		f.entries = map[string][]byte{}
	}
	f.entries[trackID] = payload
	return nil
}

func newTestManager(client *fakeClient) *Manager {
	ctrl := controller.NewController(controller.Options{Catalog: catalog.Default()})
	return NewManager(client, ctrl)
}

func perform(router http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := NewRouter(newTestManager(&fakeClient{}))

	rec := perform(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLandingPage(t *testing.T) {
	router := NewRouter(newTestManager(&fakeClient{}))

	rec := perform(router, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find(".hero h1").Text(); got != "Your Music, Your Way" {
		t.Errorf("headline = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#search-mode").Text()); !strings.Contains(got, "fixture") {
		t.Errorf("search mode = %q", got)
	}
}

func TestDocuments(t *testing.T) {
	router := NewRouter(newTestManager(&fakeClient{}))

	for path, title := range map[string]string{"/privacy": "Privacy Policy", "/terms": "Terms of Service"} {
		rec := perform(router, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d; want 200", path, rec.Code)
			continue
		}
		doc, err := goquery.NewDocumentFromReader(rec.Body)
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.Find("h1").First().Text(); got != title {
			t.Errorf("%s heading = %q; want %q", path, got, title)
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"validation", &ValidationError{Field: "q", Message: "Search query is required"}, KindValidation},
		{"auth", &musicapi.AuthenticationError{StatusCode: 400, Err: errors.New("bad client")}, KindAuth},
		{"auth_inside_request", &musicapi.RequestError{Op: musicapi.OpTrack, Err: &musicapi.AuthenticationError{StatusCode: 401}}, KindAuth},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), KindNetwork},
		{"url", &url.Error{Op: "Get", URL: "http://upstream.test", Err: errors.New("connection refused")}, KindNetwork},
		{"net", timeoutError{}, KindNetwork},
		{"upstream", &musicapi.RequestError{Op: musicapi.OpSearch, StatusCode: 502, Err: errors.New("bad gateway")}, KindUpstream},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRejectRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/music/search", nil)

	kind := newTestManager(&fakeClient{}).rejectRequest(c, &ValidationError{Field: "q", Message: "Search query is required"})
	if kind != KindValidation {
		t.Errorf("rejectRequest() kind = %q; want %q", kind, KindValidation)
	}
	if rec.Code != http.StatusBadRequest || rec.Body.String() != `{"error":"Search query is required"}` {
		t.Errorf("response = %d %s", rec.Code, rec.Body.String())
	}
}
