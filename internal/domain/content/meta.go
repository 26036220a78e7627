package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MetaTags are the meta tag candidates proposed for an article.
type MetaTags struct {
	TitleTags        []string `json:"title_tags"`
	MetaDescriptions []string `json:"meta_descriptions"`
	MetaKeywords     []string `json:"meta_keywords"`
}

// FirstTitle returns the first title candidate or "".
func (m MetaTags) FirstTitle() string {
	if len(m.TitleTags) == 0 {
		return ""
	}
	return m.TitleTags[0]
}

// FirstDescription returns the first description candidate or "".
func (m MetaTags) FirstDescription() string {
	if len(m.MetaDescriptions) == 0 {
		return ""
	}
	return m.MetaDescriptions[0]
}

type metaSection int

const (
	metaNone metaSection = iota
	metaTitle
	metaDescription
	metaKeywords
	metaOpenGraph
	metaTwitter
)

// ParseMetaTags reads sectioned meta tag suggestions. A section starts at a
// line naming it; quoted or dashed lines inside it are candidates.
func ParseMetaTags(text string) MetaTags {
	tags := MetaTags{TitleTags: []string{}, MetaDescriptions: []string{}, MetaKeywords: []string{}}
	section := metaNone

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "title") && (strings.Contains(lower, "tag") || strings.Contains(lower, "optimization")):
			section = metaTitle
		case strings.Contains(lower, "description") && strings.Contains(lower, "meta"):
			section = metaDescription
		case strings.Contains(lower, "keyword") && strings.Contains(lower, "meta"):
			section = metaKeywords
		case strings.Contains(lower, "open graph") || strings.Contains(lower, "og:"):
			section = metaOpenGraph
		case strings.Contains(lower, "twitter"):
			section = metaTwitter
		}

		candidate := strings.Contains(line, `"`) || strings.HasPrefix(line, "-")
		value := strings.TrimSpace(strings.Trim(line, `"-* `))
		n := utf8.RuneCountInString(value)
		switch section {
		case metaTitle:
			if candidate && n > 10 && n <= 70 {
				tags.TitleTags = append(tags.TitleTags, value)
			}
		case metaDescription:
			if candidate && n > 20 && n <= 200 {
				tags.MetaDescriptions = append(tags.MetaDescriptions, value)
			}
		case metaKeywords:
			if (strings.Contains(line, ",") || strings.HasPrefix(line, "-")) && strings.Contains(value, ",") {
				for _, kw := range strings.Split(value, ",") {
					if kw = strings.TrimSpace(kw); kw != "" {
						tags.MetaKeywords = append(tags.MetaKeywords, kw)
					}
				}
			}
		}
	}
	return tags
}

// URLVariation is a candidate permalink.
type URLVariation struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Length   int    `json:"length"`
	SEOScore string `json:"seo_score"`
}

// URLVariations proposes permalinks for the primary keyword. An empty keyword
// yields none.
func URLVariations(primaryKeyword, productName string, year int) []URLVariation {
	kw := Slugify(primaryKeyword)
	if kw == "" {
		return []URLVariation{}
	}
	product := Slugify(productName)
	build := func(url, typ, score string) URLVariation {
		return URLVariation{URL: url, Type: typ, Length: len(url), SEOScore: score}
	}
	return []URLVariation{
		build("/blog/"+kw, "Keyword-focused", "High"),
		build("/guide/"+kw+"-guide", "Guide-specific", "High"),
		build(fmt.Sprintf("/blog/best-%s-%d", kw, year), "Year-specific", "Medium"),
		build("/reviews/"+product+"-review", "Review-focused", "Medium"),
		build("/blog/"+kw+"-buying-guide", "Buying guide", "High"),
	}
}

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
)

// Slugify lowercases, strips accents and punctuation, and joins words with '-'.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = slugStrip.ReplaceAllString(strings.ToLower(folded), "")
	return slugSpaces.ReplaceAllString(strings.TrimSpace(folded), "-")
}
