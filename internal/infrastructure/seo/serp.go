package seo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/seoblog/backend/internal/domain/keyword"
)

// SERPClient queries SerpAPI's Google engine.
type SERPClient struct {
	key      string
	location string
	language string
	country  string
	baseURL  string
	fetch    *fetcher
}

// Search returns the first ten organic results for term.
func (c *SERPClient) Search(ctx context.Context, term string) (*keyword.SERPResult, error) {
	params := url.Values{
		"q":        {term},
		"location": {c.location},
		"api_key":  {c.key},
		"engine":   {"google"},
		"hl":       {c.language},
		"gl":       {c.country},
	}
	body, err := c.fetch.get(ctx, c.baseURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("seo: serpapi: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: serpapi: invalid json", ErrUpstream)
	}
	return parseSERP(term, body), nil
}

func parseSERP(term string, body []byte) *keyword.SERPResult {
	doc := gjson.ParseBytes(body)
	res := &keyword.SERPResult{
		Keyword:      term,
		TotalResults: doc.Get("search_information.total_results").Int(),
		Source:       SourceSerpAPI,
	}
	doc.Get("organic_results").ForEach(func(_, r gjson.Result) bool {
		if len(res.Results) == 10 {
			return false
		}
		link := r.Get("link").String()
		domain := r.Get("displayed_link").String()
		if d := hostOf(link); d != "" {
			domain = d
		}
		res.Results = append(res.Results, keyword.SERPEntry{
			Position: int(r.Get("position").Int()),
			Title:    r.Get("title").String(),
			URL:      link,
			Domain:   domain,
			Snippet:  r.Get("snippet").String(),
		})
		return true
	})
	if box := doc.Get("answer_box"); box.Exists() {
		res.FeaturedSnippet = box.Get("snippet").String()
		if res.FeaturedSnippet == "" {
			res.FeaturedSnippet = box.Get("answer").String()
		}
	}
	doc.Get("people_also_ask.#.question").ForEach(func(_, q gjson.Result) bool {
		res.PeopleAlsoAsk = append(res.PeopleAlsoAsk, q.String())
		return true
	})
	doc.Get("related_searches.#.query").ForEach(func(_, q gjson.Result) bool {
		res.RelatedSearches = append(res.RelatedSearches, q.String())
		return true
	})
	return res
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// MockSERP returns ten example results for term.
func MockSERP(term string) *keyword.SERPResult {
	res := &keyword.SERPResult{
		Keyword:      term,
		TotalResults: 1250000,
		PeopleAlsoAsk: []string{
			fmt.Sprintf("What is %s?", term),
			fmt.Sprintf("How does %s work?", term),
		},
		RelatedSearches: []string{term + " guide", "best " + term, term + " tips"},
		Source:          SourceMock,
	}
	for i := 1; i <= 10; i++ {
		res.Results = append(res.Results, keyword.SERPEntry{
			Position: i,
			Title:    fmt.Sprintf("Top result %d for %s", i, term),
			URL:      fmt.Sprintf("https://example%d.com/page", i),
			Domain:   fmt.Sprintf("example%d.com", i),
			Snippet:  fmt.Sprintf("Example snippet about %s from result %d.", term, i),
		})
	}
	return res
}

// MockCompetitor returns the placeholder profile used while no paid
// competitor endpoint is configured.
func MockCompetitor(domain string, keywords []string) *keyword.CompetitorProfile {
	p := &keyword.CompetitorProfile{
		Domain:          domain,
		AuthorityScore:  75,
		OrganicKeywords: 15420,
		OrganicTraffic:  125000,
		Backlinks:       8500,
		Source:          SourceMock,
	}
	for i, kw := range keywords {
		if i < 5 {
			p.TopKeywords = append(p.TopKeywords, kw)
		}
		if i < 3 {
			p.TopKeywords = append(p.TopKeywords, kw+" competitor")
			p.ContentGaps = append(p.ContentGaps, "missing content for "+kw)
		}
	}
	return p
}
