// Package update compares the running version with the latest published release.
package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"netxlate/internal/core"

	"github.com/bytedance/sonic"
)

// Info is the outcome of one update check. Error is set when the feed
// could not be read; the check itself never fails.
type Info struct {
	HasUpdate      bool      `json:"has_update"`
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version,omitempty"`
	ReleaseNotes   string    `json:"release_notes,omitempty"`
	ReleaseURL     string    `json:"release_url,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitzero"`
	Message        string    `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
}

type release struct {
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	ZipballURL  string    `json:"zipball_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Config wires a Checker.
type Config struct {
	Repo           string
	CurrentVersion string
	// Endpoint is a fmt template taking the repo; defaults to the GitHub releases API.
	Endpoint   string
	HTTPClient *http.Client
	Cache      core.Cache
	Logger     core.Logger
}

// Checker queries the release feed, caching successful answers.
type Checker struct {
	repo       string
	current    string
	endpoint   string
	httpClient *http.Client
	cache      core.Cache
	logger     core.Logger
}

func NewChecker(cfg Config) *Checker {
	c := &Checker{
		repo:       cfg.Repo,
		current:    cfg.CurrentVersion,
		endpoint:   cfg.Endpoint,
		httpClient: cfg.HTTPClient,
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}
	if c.repo == "" {
		c.repo = core.DefaultUpdateRepo
	}
	if c.current == "" {
		c.current = core.Version
	}
	if c.endpoint == "" {
		c.endpoint = core.GitHubReleasesEndpoint
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = &core.NopLogger{}
	}
	return c
}

// Check returns the cached answer when fresh, otherwise asks the feed.
func (c *Checker) Check(ctx context.Context) Info {
	key := core.UpdateCacheKey + ":" + c.repo
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if info, ok := cached.(Info); ok {
				return info
			}
		}
	}

	info := c.fetch(ctx)
	if info.Error != "" {
		c.logger.Warn("Update check for %s failed: %s", c.repo, info.Error)
		return info
	}
	if c.cache != nil {
		c.cache.Set(key, info, core.UpdateCheckCacheTTL)
	}
	return info
}

func (c *Checker) fetch(ctx context.Context) Info {
	info := Info{CurrentVersion: c.current}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.endpoint, c.repo), nil)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	req.Header.Set(core.HeaderAccept, "application/vnd.github+json")
	req.Header.Set(core.HeaderUserAgent, core.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		info.Error = "failed to check for updates: " + err.Error()
		return info
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		info.Message = "No releases available yet"
		return info
	}
	if resp.StatusCode != http.StatusOK {
		info.Error = fmt.Sprintf("failed to check for updates: status %d", resp.StatusCode)
		return info
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		info.Error = "failed to read release feed: " + err.Error()
		return info
	}
	var rel release
	if err := sonic.Unmarshal(body, &rel); err != nil {
		info.Error = "invalid release feed: " + err.Error()
		return info
	}

	info.LatestVersion = strings.TrimPrefix(strings.TrimSpace(rel.TagName), "v")
	if IsNewerVersion(info.LatestVersion, c.current) {
		info.HasUpdate = true
		info.ReleaseNotes = rel.Body
		info.ReleaseURL = rel.HTMLURL
		info.DownloadURL = rel.ZipballURL
		info.PublishedAt = rel.PublishedAt
	}
	c.logger.Debug("Update check: current=%s latest=%s newer=%v", c.current, info.LatestVersion, info.HasUpdate)
	return info
}

// IsNewerVersion compares dotted versions numerically. Missing parts
// count as 0; a part that is not a number on either side decides nothing.
func IsNewerVersion(latest, current string) bool {
	lp := strings.Split(latest, ".")
	cp := strings.Split(current, ".")
	for i := 0; i < max(len(lp), len(cp)); i++ {
		l, lok := part(lp, i)
		c, cok := part(cp, i)
		if !lok || !cok {
			continue
		}
		if l != c {
			return l > c
		}
	}
	return false
}

func part(parts []string, i int) (int, bool) {
	if i >= len(parts) {
		return 0, true
	}
	s := strings.TrimSpace(parts[i])
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Summary renders a short markdown notice for an available update.
func Summary(info Info) string {
	if !info.HasUpdate {
		if info.Error != "" {
			return "Update check failed: " + info.Error
		}
		if info.Message != "" {
			return info.Message
		}
		return "netxlate " + info.CurrentVersion + " is up to date."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Update available:** %s -> %s\n", info.CurrentVersion, info.LatestVersion)
	if !info.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "**Published:** %s\n", info.PublishedAt.Format(time.DateOnly))
	}
	notes := strings.TrimSpace(info.ReleaseNotes)
	if notes == "" {
		notes = "No release notes available."
	}
	fmt.Fprintf(&b, "\n%s\n", notes)
	if info.ReleaseURL != "" {
		fmt.Fprintf(&b, "\nRelease: %s\n", info.ReleaseURL)
	}
	if info.DownloadURL != "" {
		fmt.Fprintf(&b, "Download: %s\n", info.DownloadURL)
	}
	return strings.TrimRight(b.String(), "\n")
}
