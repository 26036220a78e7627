package content

import (
	"strings"
)

// Section is an H2 section of an outline with its H3 subsections.
type Section struct {
	Title       string   `json:"title"`
	Subsections []string `json:"subsections"`
}

// Outline is the parsed structure of a planned article.
type Outline struct {
	Title         string    `json:"title"`
	Sections      []Section `json:"main_sections"`
	TotalSections int       `json:"total_sections"`
}

// ParseOutline extracts the title, H2 sections and H3 subsections from a
// free-form outline. The title is the first markdown H1 or labelled title
// line. H3 lines before the first H2 are ignored.
func ParseOutline(text string) Outline {
	out := Outline{Sections: []Section{}}
	var current *Section
	flush := func() {
		if current != nil {
			out.Sections = append(out.Sections, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if strings.HasPrefix(line, "# ") && out.Title == "" {
			out.Title = cleanHeading(line)
			continue
		}
		if containsAny(lower, "title", "h1", "headline") {
			if _, after, ok := strings.Cut(line, ":"); ok && out.Title == "" {
				out.Title = strings.TrimSpace(after)
			}
		}

		switch {
		case isH3(line):
			if current != nil {
				current.Subsections = append(current.Subsections, cleanHeading(line))
			}
		case strings.HasPrefix(line, "##") || strings.Contains(line, "H2") ||
			containsAny(lower, "main section", "section:"):
			flush()
			current = &Section{Title: cleanHeading(line), Subsections: []string{}}
		}
	}
	flush()
	out.TotalSections = len(out.Sections)
	return out
}

// EstimateWordCount sizes an article from its outline: intro 200, conclusion
// 150, 350 per section and 125 per subsection.
func EstimateWordCount(o Outline) int {
	total := 200 + 150 + 350*len(o.Sections)
	for _, s := range o.Sections {
		total += 125 * len(s.Subsections)
	}
	return total
}

// Header is one entry of a header hierarchy.
type Header struct {
	Level          int    `json:"level"`
	Text           string `json:"text"`
	TargetKeyword  string `json:"target_keyword"`
	EstimatedWords int    `json:"estimated_words"`
}

// ParseHeaders detects H1-H4 headers written either as markdown or with an
// "Hn:" label.
func ParseHeaders(text string) []Header {
	headers := make([]Header, 0)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		level := headerLevel(line)
		if level == 0 {
			continue
		}
		words := 100
		if level <= 2 {
			words = 200
		}
		headers = append(headers, Header{Level: level, Text: cleanHeading(line), EstimatedWords: words})
	}
	return headers
}

// Targets is how often each keyword class should appear in an article.
type Targets struct {
	PrimaryPerKeyword   int `json:"primary_keyword_mentions"`
	SecondaryPerKeyword int `json:"secondary_keyword_mentions"`
	LongTailPerKeyword  int `json:"long_tail_mentions"`
}

// KeywordTargets derives mention targets from the planned word count.
func KeywordTargets(words int) Targets {
	return Targets{
		PrimaryPerKeyword:   max(int(float64(words)*0.015), 3),
		SecondaryPerKeyword: max(int(float64(words)*0.008), 2),
		LongTailPerKeyword:  1,
	}
}

// Density guidelines, in percent.
const (
	PrimaryDensityGuideline   = "1-2%"
	SecondaryDensityGuideline = "0.5-1% each"
)

func headerLevel(line string) int {
	switch {
	case strings.HasPrefix(line, "#### ") || strings.Contains(line, "H4:"):
		return 4
	case strings.HasPrefix(line, "### ") || strings.Contains(line, "H3:"):
		return 3
	case strings.HasPrefix(line, "## ") || strings.Contains(line, "H2:"):
		return 2
	case strings.HasPrefix(line, "# ") || strings.Contains(line, "H1:"):
		return 1
	}
	return 0
}

func isH3(line string) bool {
	return strings.HasPrefix(line, "###") || strings.Contains(line, "H3")
}

var headingLabels = []string{"H1:", "H2:", "H3:", "H4:"}

func cleanHeading(line string) string {
	s := strings.TrimLeft(strings.TrimSpace(line), "#")
	for _, l := range headingLabels {
		s = strings.ReplaceAll(s, l, "")
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
