package monitor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	githubAccept       = "application/vnd.github+json"
	githubUserAgent    = "readmewatch/1.0"
	githubDefaultLimit = 30 * time.Second
)

// GitHubSource watches a file through the GitHub contents API.
type GitHubSource struct {
	httpClient *http.Client
	url        string
	token      string
	private    bool
	records    bool
	extract    ExtractOptions
}

// GitHubConfig holds configuration for the GitHub source.
type GitHubConfig struct {
	URL     string
	Token   string
	Private bool // Decline to fetch without a token

	// Records switches from SHA fingerprints to extracted table records.
	Records bool
	Extract ExtractOptions

	Timeout    time.Duration
	HTTPClient *http.Client // Optional, overrides Timeout
}

// NewGitHubSource creates a new GitHub contents source.
func NewGitHubSource(cfg GitHubConfig) *GitHubSource {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = githubDefaultLimit
		}
		client = &http.Client{Timeout: timeout}
	}

	return &GitHubSource{
		httpClient: client,
		url:        cfg.URL,
		token:      cfg.Token,
		private:    cfg.Private,
		records:    cfg.Records,
		extract:    cfg.Extract,
	}
}

// Name returns the source name.
func (g *GitHubSource) Name() string {
	return "github"
}

// contentsResponse is the subset of the contents API response we use.
type contentsResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Document is a fetched file: its blob SHA and decoded text.
type Document struct {
	SHA  string
	Text string
}

// Fetch retrieves the current fingerprint of the file.
func (g *GitHubSource) Fetch(ctx context.Context) (Fingerprint, error) {
	if !g.records {
		resp, err := g.fetchContents(ctx)
		if err != nil {
			return Fingerprint{}, err
		}
		return TokenFingerprint(resp.SHA), nil
	}

	records, err := g.FetchRecords(ctx)
	if err != nil {
		return Fingerprint{}, err
	}
	return RecordsFingerprint(records), nil
}

// FetchRecords fetches the document and extracts its table records,
// whatever fingerprint mode the source is configured for.
func (g *GitHubSource) FetchRecords(ctx context.Context) ([]Record, error) {
	doc, err := g.FetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	records, err := ExtractRecords(doc.Text, g.extract)
	if err != nil {
		return nil, fmt.Errorf("extract records: %w", err)
	}

	slog.Debug("extracted records", "source", g.Name(), "sha", doc.SHA, "count", len(records))
	return records, nil
}

// FetchDocument fetches and decodes the file.
func (g *GitHubSource) FetchDocument(ctx context.Context) (*Document, error) {
	resp, err := g.fetchContents(ctx)
	if err != nil {
		return nil, err
	}

	text, err := decodeContent(resp)
	if err != nil {
		return nil, err
	}

	return &Document{SHA: resp.SHA, Text: text}, nil
}

func (g *GitHubSource) fetchContents(ctx context.Context) (*contentsResponse, error) {
	if g.private && g.token == "" {
		return nil, ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", githubAccept)
	req.Header.Set("User-Agent", githubUserAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if err := g.checkStatus(resp); err != nil {
		return nil, err
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if contents.SHA == "" {
		return nil, fmt.Errorf("%w: missing sha", ErrMalformedResponse)
	}

	return &contents, nil
}

func (g *GitHubSource) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusForbidden:
		// GitHub answers primary and secondary rate limits with 403 or 429.
		if g.token == "" {
			slog.Warn("GitHub rate limit hit, consider setting GITHUB_TOKEN", "status", resp.StatusCode)
		} else {
			slog.Warn("GitHub rate limit hit", "status", resp.StatusCode,
				"remaining", resp.Header.Get("X-RateLimit-Remaining"))
		}
		return fmt.Errorf("%w (status %d)", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return &StatusError{Code: resp.StatusCode}
	}
}

func decodeContent(resp *contentsResponse) (string, error) {
	switch resp.Encoding {
	case "base64":
		// GitHub wraps base64 content at 60 columns.
		raw := strings.NewReplacer("\n", "", "\r", "").Replace(resp.Content)
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return string(data), nil
	case "":
		if resp.Content == "" {
			return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
		}
		return resp.Content, nil
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrDecode, resp.Encoding)
	}
}
