package keyword

// SERPEntry is one organic search result.
type SERPEntry struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Snippet  string `json:"snippet"`
}

// SERPResult is a search engine results page for one keyword.
type SERPResult struct {
	Keyword         string      `json:"keyword"`
	TotalResults    int64       `json:"total_results"`
	Results         []SERPEntry `json:"results"`
	FeaturedSnippet string      `json:"featured_snippet,omitempty"`
	PeopleAlsoAsk   []string    `json:"people_also_ask,omitempty"`
	RelatedSearches []string    `json:"related_searches,omitempty"`
	Source          string      `json:"source"`
}

// TopDomains returns the distinct result domains in ranking order, at most n.
func (r *SERPResult) TopDomains(n int) []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Results))
	var out []string
	for _, e := range r.Results {
		if e.Domain == "" {
			continue
		}
		if _, ok := seen[e.Domain]; ok {
			continue
		}
		seen[e.Domain] = struct{}{}
		out = append(out, e.Domain)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// CompetitorProfile summarises a competing domain.
type CompetitorProfile struct {
	Domain          string   `json:"domain"`
	AuthorityScore  int      `json:"authority_score"`
	OrganicKeywords int64    `json:"organic_keywords"`
	OrganicTraffic  int64    `json:"organic_traffic"`
	TopKeywords     []string `json:"top_keywords"`
	ContentGaps     []string `json:"content_gaps"`
	Backlinks       int64    `json:"backlinks"`
	Source          string   `json:"source"`
}
