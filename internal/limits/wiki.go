package limits

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WikiClient scrapes purchase limits from the game wiki's exchange pages.
type WikiClient struct {
	BaseURL string
	Client  *http.Client
}

// NewWikiClient creates a wiki client with optional proxy support.
func NewWikiClient(baseURL, proxyURL string) *WikiClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WikiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

var (
	wikiBuyLimit = regexp.MustCompile(`(?i)buy\s*limit[:\s|=]*(\d+)`)
	wikiLimit    = regexp.MustCompile(`(?i)limit[:\s|=]*(\d+)`)
)

// FetchLimit queries the wiki API for an item's exchange page and scrapes a
// labelled purchase limit out of the page body. Best effort: any miss is an
// error and the caller falls back to heuristics.
func (w *WikiClient) FetchLimit(ctx context.Context, itemName string) (int64, error) {
	page := "Exchange:" + strings.ReplaceAll(itemName, " ", "_")
	endpoint := fmt.Sprintf(
		"%s/api.php?action=query&prop=revisions&rvprop=content&format=json&rvslots=main&titles=%s",
		w.BaseURL, url.QueryEscape(page),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch limit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("fetch limit: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Query struct {
			Pages map[string]struct {
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode wiki response: %w", err)
	}

	for _, page := range result.Query.Pages {
		for _, rev := range page.Revisions {
			if limit, ok := scrapeLimit(rev.Slots.Main.Content); ok {
				return limit, nil
			}
		}
	}
	return 0, fmt.Errorf("no limit found for %q", itemName)
}

// scrapeLimit pulls a labelled limit out of wiki markup, accepting only
// values in (0, 100000].
func scrapeLimit(content string) (int64, bool) {
	for _, pat := range []*regexp.Regexp{wikiBuyLimit, wikiLimit} {
		m := pat.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		limit, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if limit > 0 && limit <= 100000 {
			return limit, true
		}
	}
	return 0, false
}
