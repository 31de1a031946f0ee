package replay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "snekgrid-replay/1.0"

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)
	// Matches /leaderboard/{arena}/{username}/stats
	playerRe = regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`)
)

// Player is one entry scraped from a leaderboard page.
type Player struct {
	Username string
	StatsURL string
}

// GameIDs fetches pageURL (typically a player's stats page) and returns
// the game IDs it links to, in page order without duplicates.
func GameIDs(ctx context.Context, client *http.Client, pageURL string) ([]string, error) {
	doc, _, err := fetch(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := gameIDRe.FindStringSubmatch(href)
		if len(matches) >= 2 && !seen[matches[1]] {
			seen[matches[1]] = true
			ids = append(ids, matches[1])
		}
	})
	return ids, nil
}

// Players fetches a leaderboard page and returns the players it lists with
// absolute stats page URLs.
func Players(ctx context.Context, client *http.Client, leaderboardURL string) ([]Player, error) {
	doc, base, err := fetch(ctx, client, leaderboardURL)
	if err != nil {
		return nil, err
	}

	var players []Player
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := playerRe.FindStringSubmatch(href)
		if len(matches) < 2 || seen[matches[1]] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[matches[1]] = true
		players = append(players, Player{
			Username: matches[1],
			StatsURL: base.ResolveReference(ref).String(),
		})
	})
	return players, nil
}

func fetch(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, *url.URL, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%s: unexpected status code: %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return doc, base, nil
}
