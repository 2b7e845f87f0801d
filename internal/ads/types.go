package ads

import (
	"encoding/json"
	"strings"
)

// Paper is a single bibliographic record returned from an ADS query.
// Fields not requested in the query's field list come back as zero values.
type Paper struct {
	Bibcode       string
	Title         string
	Authors       []string
	CitationCount int
	PubDate       string // "YYYY-MM-DD", month/day may be "00"
	Date          string // full ISO timestamp, used by citation queries
	DOI           string
	Abstract      string
}

// rawDoc matches the wire format of a single ADS search document.
// ADS returns title and doi as one-element arrays.
type rawDoc struct {
	Bibcode       string   `json:"bibcode"`
	Title         []string `json:"title"`
	Author        []string `json:"author"`
	CitationCount int      `json:"citation_count"`
	PubDate       string   `json:"pubdate"`
	Date          string   `json:"date"`
	DOI           []string `json:"doi"`
	Abstract      string   `json:"abstract"`
}

// UnmarshalJSON populates a Paper from the raw ADS document shape,
// flattening the array-wrapped fields with explicit defaults.
func (p *Paper) UnmarshalJSON(data []byte) error {
	var doc rawDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	p.Bibcode = doc.Bibcode
	if len(doc.Title) > 0 {
		p.Title = doc.Title[0]
	}
	p.Authors = doc.Author
	p.CitationCount = doc.CitationCount
	p.PubDate = doc.PubDate
	p.Date = doc.Date
	p.DOI = strings.Join(doc.DOI, ";")
	p.Abstract = doc.Abstract
	return nil
}

// AuthorsString returns the author list as a semicolon-separated string,
// the form stored in the snapshot database.
func (p *Paper) AuthorsString() string {
	return strings.Join(p.Authors, "; ")
}

// AbstractLink returns the ADS abstract page URL for a bibcode.
func AbstractLink(bibcode string) string {
	if bibcode == "" {
		return ""
	}
	return "https://ui.adsabs.harvard.edu/abs/" + bibcode + "/abstract"
}

// Link returns the ADS abstract page URL for this paper.
func (p *Paper) Link() string {
	return AbstractLink(p.Bibcode)
}

// QueryResult holds the parsed result of one search query.
type QueryResult struct {
	Query     string
	NumFound  int
	Papers    []Paper
	QTime     int
	Remaining string // X-RateLimit-Remaining header, if present
	Truncated bool   // NumFound exceeded the requested row count
}

// Bibcodes returns the set of bibcodes present in the result.
func (r *QueryResult) Bibcodes() map[string]bool {
	set := make(map[string]bool, len(r.Papers))
	for _, p := range r.Papers {
		if p.Bibcode != "" {
			set[p.Bibcode] = true
		}
	}
	return set
}

// searchResponse matches the envelope of the ADS search API.
type searchResponse struct {
	ResponseHeader struct {
		Status int `json:"status"`
		QTime  int `json:"QTime"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int     `json:"numFound"`
		Docs     []Paper `json:"docs"`
	} `json:"response"`
}
