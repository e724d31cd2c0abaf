package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/utils"
)

// RepoCrawler is the repository-crawling capability: reference in, artifact
// bundle or failure out.
type RepoCrawler interface {
	Crawl(ctx context.Context, repoURL string) (*RepoArtifacts, error)
}

// RepoArtifacts is the bundle produced by one crawl. It is persisted into a
// Repository row as a single unit.
type RepoArtifacts struct {
	Metadata           map[string]any    `json:"metadata"`
	FileMap            map[string]string `json:"file_map"`
	StackSignals       []string          `json:"stack_signals"`
	ExtractedArtifacts map[string]string `json:"extracted_artifacts"`
}

const (
	readmeLimit  = 15000
	keyFileLimit = 8000
)

var keyFiles = []string{"requirements.txt", "package.json", "pyproject.toml", "go.mod", "Dockerfile", "docker-compose.yml"}

var readmeNames = []string{"README.md", "README.MD", "readme.md", "README.rst", "README.txt"}

var languageByExt = map[string]string{
	"py": "Python", "js": "JavaScript", "ts": "TypeScript", "tsx": "TypeScript",
	"java": "Java", "kt": "Kotlin", "go": "Go", "rs": "Rust", "rb": "Ruby",
	"php": "PHP", "vue": "Vue", "css": "CSS", "html": "HTML", "md": "Markdown",
	"json": "JSON", "yaml": "YAML", "yml": "YAML", "sh": "Shell", "sql": "SQL",
}

type githubCrawler struct {
	httpClient *http.Client
	log        *logger.Logger
	apiBase    string
	token      string
}

func NewGithubCrawler(log *logger.Logger) RepoCrawler {
	return &githubCrawler{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:     log.With("service", "GithubCrawler"),
		apiBase: utils.GetEnv("GITHUB_API_BASE", "https://api.github.com", nil),
		token:   utils.GetEnv("GITHUB_TOKEN", "", nil),
	}
}

// NormalizeRepoURL canonicalizes a repository reference: bare "owner/repo"
// becomes a github.com URL, trailing slashes and query strings are dropped.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://github.com/" + strings.TrimLeft(s, "/")
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// ParseRepoURL extracts (owner, repo) from a repository reference, stripping
// a .git suffix from the repo name.
func ParseRepoURL(raw string) (string, string, error) {
	norm := NormalizeRepoURL(raw)
	parsed, err := url.Parse(norm)
	if err != nil {
		return "", "", apierr.Validation("invalid repository URL %q", raw)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apierr.Validation("invalid repository URL %q", raw)
	}
	owner, repo := parts[0], parts[1]
	repo = strings.TrimSuffix(repo, ".git")
	return owner, repo, nil
}

func (c *githubCrawler) Crawl(ctx context.Context, repoURL string) (*RepoArtifacts, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("%s/repos/%s/%s", c.apiBase, owner, repo)

	var meta struct {
		Name          string `json:"name"`
		FullName      string `json:"full_name"`
		Description   string `json:"description"`
		Language      string `json:"language"`
		DefaultBranch string `json:"default_branch"`
	}
	status, err := c.getJSON(ctx, base, &meta)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, apierr.Execution(fmt.Errorf(
			"cannot access repository %s: it may not exist or may be private; set GITHUB_TOKEN for private repos", repoURL))
	case status == http.StatusForbidden:
		return nil, apierr.Execution(fmt.Errorf(
			"access forbidden (403) for %s: set GITHUB_TOKEN for private repos, or retry later if rate-limited", repoURL))
	case status != http.StatusOK:
		return nil, apierr.Execution(fmt.Errorf("cannot access repository %s (HTTP %d)", repoURL, status))
	}
	if meta.DefaultBranch == "" {
		meta.DefaultBranch = "main"
	}

	artifacts := &RepoArtifacts{
		Metadata: map[string]any{
			"name":           meta.Name,
			"full_name":      meta.FullName,
			"description":    meta.Description,
			"language":       meta.Language,
			"default_branch": meta.DefaultBranch,
		},
		FileMap:            map[string]string{},
		StackSignals:       []string{},
		ExtractedArtifacts: map[string]string{},
	}

	// Top-level contents only; depth one is enough for stack signals.
	var contents []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	status, err = c.getJSON(ctx, fmt.Sprintf("%s/contents?ref=%s", base, meta.DefaultBranch), &contents)
	if err == nil && status == http.StatusOK {
		seen := map[string]bool{}
		for _, item := range contents {
			if item.Name == "" {
				continue
			}
			artifacts.FileMap[item.Name] = item.Type
			if item.Type == "file" {
				ext := item.Name[strings.LastIndex(item.Name, ".")+1:]
				if lang, ok := languageByExt[strings.ToLower(ext)]; ok && !seen[lang] {
					seen[lang] = true
					artifacts.StackSignals = append(artifacts.StackSignals, lang)
				}
			}
		}
	}

	for _, rn := range readmeNames {
		if _, ok := artifacts.FileMap[rn]; !ok {
			continue
		}
		if text := c.getFileContent(ctx, owner, repo, rn); text != "" {
			if len(text) > readmeLimit {
				text = text[:readmeLimit]
			}
			artifacts.ExtractedArtifacts["README.md"] = text
			break
		}
	}

	for _, kf := range keyFiles {
		if _, ok := artifacts.FileMap[kf]; !ok {
			continue
		}
		if text := c.getFileContent(ctx, owner, repo, kf); text != "" {
			if len(text) > keyFileLimit {
				text = text[:keyFileLimit]
			}
			artifacts.ExtractedArtifacts[kf] = text
		}
	}

	return artifacts, nil
}

// getJSON fetches and decodes a GitHub API response, retrying transient
// failures with exponential backoff. Non-200 statuses are returned to the
// caller for typed handling, not retried (except rate limiting).
func (c *githubCrawler) getJSON(ctx context.Context, rawURL string, out any) (int, error) {
	backoff := 2 * time.Second
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if c.token != "" {
			req.Header.Set("Authorization", "token "+c.token)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "rate limit") {
			c.log.Warn("GitHub rate limited, backing off", "url", rawURL)
			lastErr = fmt.Errorf("github rate limited")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	return 0, lastErr
}

func (c *githubCrawler) getFileContent(ctx context.Context, owner, repo, path string) string {
	rawURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.apiBase, owner, repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/vnd.github.raw")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}
