package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIURL = "https://api.github.com"

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMalformedBody    = errors.New("malformed repository body")
)

// GitHubClient fetches repository metadata from the GitHub REST API.
type GitHubClient struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewGitHubClient returns a client for baseURL. A zero timeout means
// requests are never cut short by the client.
func NewGitHubClient(baseURL string, timeout time.Duration) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &GitHubClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  "walter-ryan-portfolio",
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (g *GitHubClient) FetchRepo(ctx context.Context, identifier string) (*Repo, error) {
	if !ValidIdentifier(identifier) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}

	url := g.BaseURL + "/repos/" + identifier
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w: %d", identifier, ErrUnexpectedStatus, resp.StatusCode)
	}

	var repo Repo
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %v", identifier, ErrMalformedBody, err)
	}
	if repo.Name == "" && repo.HTMLURL == "" {
		return nil, fmt.Errorf("fetch %s: %w: missing name and html_url", identifier, ErrMalformedBody)
	}
	return &repo, nil
}
