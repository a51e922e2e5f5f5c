package monitor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentsHandler(t *testing.T, sha, doc string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(contentsResponse{
			SHA:      sha,
			Content:  base64.StdEncoding.EncodeToString([]byte(doc)),
			Encoding: "base64",
		})
	}
}

func TestNewGitHubSource(t *testing.T) {
	t.Run("uses default timeout", func(t *testing.T) {
		s := NewGitHubSource(GitHubConfig{URL: "http://example.com"})
		assert.Equal(t, githubDefaultLimit, s.httpClient.Timeout)
	})

	t.Run("uses custom client", func(t *testing.T) {
		c := &http.Client{}
		s := NewGitHubSource(GitHubConfig{HTTPClient: c})
		assert.Same(t, c, s.httpClient)
	})
}

func TestGitHubSource_Name(t *testing.T) {
	s := NewGitHubSource(GitHubConfig{})
	assert.Equal(t, "github", s.Name())
}

func TestGitHubSource_FetchSHA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/acme/jobs/contents/README.md", r.URL.Path)
		assert.Equal(t, githubAccept, r.Header.Get("Accept"))
		assert.Equal(t, "token ghp_test", r.Header.Get("Authorization"))
		contentsHandler(t, "sha-A", "# hello")(w, r)
	}))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{
		URL:   server.URL + "/repos/acme/jobs/contents/README.md",
		Token: "ghp_test",
	})

	fp, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TokenFingerprint("sha-A"), fp)
}

func TestGitHubSource_NoTokenHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		contentsHandler(t, "sha-A", "")(w, r)
	}))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{URL: server.URL})
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)
}

func TestGitHubSource_FetchRecords(t *testing.T) {
	doc := "| Company | Role | Location |\n|---|---|---|\n| Acme | SWE | NYC |\n| Globex | PM | Remote |\n"
	server := httptest.NewServer(contentsHandler(t, "sha-A", doc))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{
		URL:     server.URL,
		Records: true,
		Extract: ExtractOptions{HeaderMarker: testMarker, MaxRows: 5},
	})

	fp, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindRecords, fp.Kind)
	assert.Equal(t, []Record{
		{Company: "Acme", Role: "SWE", Location: "NYC"},
		{Company: "Globex", Role: "PM", Location: "Remote"},
	}, fp.Records)
}

func TestGitHubSource_FetchRecordsInSHAMode(t *testing.T) {
	doc := "| Company | Role | Location |\n|---|---|---|\n| Acme | SWE | NYC |\n"
	server := httptest.NewServer(contentsHandler(t, "sha-A", doc))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{
		URL:     server.URL,
		Extract: ExtractOptions{HeaderMarker: testMarker},
	})

	records, err := s.FetchRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGitHubSource_MissingHeader(t *testing.T) {
	server := httptest.NewServer(contentsHandler(t, "sha-A", "# no table"))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{
		URL:     server.URL,
		Records: true,
		Extract: ExtractOptions{HeaderMarker: testMarker},
	})

	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestGitHubSource_PrivateWithoutToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	s := NewGitHubSource(GitHubConfig{URL: server.URL, Private: true})

	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, int32(0), calls.Load(), "no request should be made")
}

func TestGitHubSource_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "too many requests",
			status: http.StatusTooManyRequests,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrRateLimited) },
		},
		{
			name:    "forbidden with exhausted quota",
			status:  http.StatusForbidden,
			headers: map[string]string{"X-RateLimit-Remaining": "0"},
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrRateLimited) },
		},
		{
			name:   "forbidden without quota header",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateLimited)
				assert.Contains(t, err.Error(), "status 403")

				var se *StatusError
				assert.False(t, errors.As(err, &se))
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusBadGateway, se.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			s := NewGitHubSource(GitHubConfig{URL: server.URL})
			_, err := s.Fetch(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGitHubSource_MalformedResponse(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := NewGitHubSource(GitHubConfig{URL: server.URL}).Fetch(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing sha", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content": ""}`))
		}))
		defer server.Close()

		_, err := NewGitHubSource(GitHubConfig{URL: server.URL}).Fetch(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("bad base64", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"sha": "abc", "content": "!!!", "encoding": "base64"}`))
		}))
		defer server.Close()

		s := NewGitHubSource(GitHubConfig{URL: server.URL, Records: true})
		_, err := s.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestGitHubSource_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewGitHubSource(GitHubConfig{URL: url}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestDecodeContent(t *testing.T) {
	t.Run("wrapped base64", func(t *testing.T) {
		enc := base64.StdEncoding.EncodeToString([]byte("hello world, this is a longer document"))
		wrapped := enc[:20] + "\n" + enc[20:]
		text, err := decodeContent(&contentsResponse{Content: wrapped, Encoding: "base64"})
		require.NoError(t, err)
		assert.Equal(t, "hello world, this is a longer document", text)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := decodeContent(&contentsResponse{Content: "x", Encoding: "utf-16"})
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("plain content", func(t *testing.T) {
		text, err := decodeContent(&contentsResponse{Content: "raw"})
		require.NoError(t, err)
		assert.Equal(t, "raw", text)
	})
}

func TestGitHubSource_FetchDocument(t *testing.T) {
	server := httptest.NewServer(contentsHandler(t, "sha-doc", "# Jobs\n"))
	defer server.Close()

	doc, err := NewGitHubSource(GitHubConfig{URL: server.URL}).FetchDocument(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sha-doc", doc.SHA)
	assert.Equal(t, "# Jobs\n", doc.Text)
}
