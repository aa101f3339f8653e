package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/haydent/matchday/internal/config"
)

var testCfg = config.Config{Owner: "o", Repo: "r", Branch: "main", Token: "t"}

func newTestClient(serverURL string) *Client {
	return NewClientWithHTTPClient(&http.Client{Transport: &rewriteTransport{baseURL: serverURL}})
}

func contentJSON(path, sha, raw string) string {
	b64 := base64.StdEncoding.EncodeToString([]byte(raw))
	return fmt.Sprintf(`{"type":"file","encoding":"base64","name":"f","path":%q,"sha":%q,"content":%q}`, path, sha, b64)
}

func TestStatFile_found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(contentJSON("a.json", "abc123", "{}")))
	}))
	defer server.Close()

	sha, exists, err := newTestClient(server.URL).StatFile(context.Background(), testCfg, "a.json")
	if err != nil {
		t.Fatalf("StatFile: %v", err)
	}
	if !exists || sha != "abc123" {
		t.Fatalf("StatFile: exists=%v sha=%q", exists, sha)
	}
}

func TestStatFile_notFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sha, exists, err := newTestClient(server.URL).StatFile(context.Background(), testCfg, "a.json")
	if err != nil {
		t.Fatalf("StatFile 404: %v", err)
	}
	if exists || sha != "" {
		t.Fatalf("StatFile 404: exists=%v sha=%q", exists, sha)
	}
}

func TestStatFile_unreachable(t *testing.T) {
	// A failing store must not look like a missing file.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, exists, err := newTestClient(server.URL).StatFile(context.Background(), testCfg, "a.json")
	if err == nil {
		t.Fatal("StatFile 500: expected error")
	}
	if exists {
		t.Fatal("StatFile 500: exists should be false")
	}
}

func TestCommitFile_createOmitsSHA(t *testing.T) {
	var putBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.Write([]byte(`{"content":{"sha":"new"}}`))
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL).CommitFile(context.Background(), testCfg, "a.json", []byte("{}"), "create a")
	if err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
	if putBody == nil {
		t.Fatal("no PUT issued")
	}
	if _, ok := putBody["sha"]; ok {
		t.Errorf("create PUT carried sha: %v", putBody["sha"])
	}
	if putBody["message"] != "create a" {
		t.Errorf("message = %v", putBody["message"])
	}
}

func TestCommitFile_updateCarriesSHA(t *testing.T) {
	var putBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(contentJSON("a.json", "oldsha", "{}")))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.Write([]byte(`{"content":{"sha":"new"}}`))
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL).CommitFile(context.Background(), testCfg, "a.json", []byte("{}"), "update a")
	if err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
	if putBody["sha"] != "oldsha" {
		t.Errorf("update PUT sha = %v, want oldsha", putBody["sha"])
	}
}

func TestCommitFile_conflict(t *testing.T) {
	// Second writer raced us: the store rejects our stale SHA.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(contentJSON("a.json", "stale", "{}")))
		case http.MethodPut:
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer server.Close()

	err := newTestClient(server.URL).CommitFile(context.Background(), testCfg, "a.json", []byte("{}"), "m")
	if err != ErrConflict {
		t.Fatalf("CommitFile conflict: got %v, want ErrConflict", err)
	}
}

func TestCommitFile_statFailureAbortsWrite(t *testing.T) {
	var puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestClient(server.URL).CommitFile(context.Background(), testCfg, "a.json", []byte("{}"), "m")
	if err == nil {
		t.Fatal("expected error when stat fails")
	}
	if puts != 0 {
		t.Fatalf("commit fell through to a write after failed stat (%d PUTs)", puts)
	}
}

func TestContentRoundTrip(t *testing.T) {
	// Commit then read back through a stateful fake store; non-ASCII text
	// must survive the transport encoding exactly.
	var stored string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if stored == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"type":"file","encoding":"base64","name":"f","path":"a.json","sha":"s1","content":%q}`, stored)
		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			stored = body.Content
			w.Write([]byte(`{"content":{"sha":"s1"}}`))
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	want := "héllo ⚽ gólazo — 日本語"
	if err := c.CommitFile(context.Background(), testCfg, "a.json", []byte(want), "m"); err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
	got, exists, err := c.ReadFile(context.Background(), testCfg, "a.json")
	if err != nil || !exists {
		t.Fatalf("ReadFile: exists=%v err=%v", exists, err)
	}
	if string(got) != want {
		t.Errorf("round trip: got %q, want %q", got, want)
	}
}

func TestReadFile_notFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	data, exists, err := newTestClient(server.URL).ReadFile(context.Background(), testCfg, "a.json")
	if err != nil {
		t.Fatalf("ReadFile 404: %v", err)
	}
	if exists || data != nil {
		t.Fatalf("ReadFile 404: exists=%v data=%q", exists, data)
	}
}

func TestRepoStatus(t *testing.T) {
	for _, code := range []int{200, 401, 404, 503} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			if code == 200 {
				w.Write([]byte(`{"id":1,"name":"r"}`))
			}
		}))
		status, _ := newTestClient(server.URL).RepoStatus(context.Background(), testCfg)
		server.Close()
		if status != code {
			t.Errorf("RepoStatus: got %d, want %d", status, code)
		}
	}
}

func TestRawURL(t *testing.T) {
	got := NewClient().RawURL(testCfg, "assets/logo.png")
	want := "https://raw.githubusercontent.com/o/r/main/assets/logo.png"
	if got != want {
		t.Errorf("RawURL = %q, want %q", got, want)
	}
}

// rewriteTransport sends requests to baseURL instead of the original host (for fake GitHub API).
type rewriteTransport struct {
	baseURL string
	base    http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.base == nil {
		t.base = http.DefaultTransport
	}
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return t.base.RoundTrip(req)
}
