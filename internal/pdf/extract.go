// Package pdf pulls machine identifiers out of paper PDFs so a download
// can be resolved to an ADS record without retyping anything.
package pdf

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// frontMatterPages bounds the scan: identifiers live on the first page of
// essentially every journal layout, with the arXiv stamp sometimes on a
// cover sheet.
const frontMatterPages = 3

var (
	doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)
	// New-style (2007+) arXiv identifiers, with or without the prefix.
	arxivPattern = regexp.MustCompile(`arXiv:(\d{4}\.\d{4,5})(v\d+)?`)
)

// Identifiers holds whatever was found in a PDF's front matter. Either
// field may be empty.
type Identifiers struct {
	DOI     string
	ArxivID string
}

// Extract scans the first few pages of the PDF at path for a DOI and an
// arXiv identifier. A PDF with neither yields zero Identifiers and a nil
// error; only unreadable files error.
func Extract(path string) (Identifiers, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Identifiers{}, err
	}
	defer f.Close()

	maxPages := frontMatterPages
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	var ids Identifiers
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if ids.DOI == "" {
			ids.DOI = findDOI(text)
		}
		if ids.ArxivID == "" {
			if m := arxivPattern.FindStringSubmatch(text); m != nil {
				ids.ArxivID = m[1]
			}
		}
		if ids.DOI != "" && ids.ArxivID != "" {
			break
		}
	}
	return ids, nil
}

// Query renders the identifiers as an ADS search query, preferring the DOI.
// Empty when nothing was found.
func (ids Identifiers) Query() string {
	switch {
	case ids.DOI != "":
		return `doi:"` + ids.DOI + `"`
	case ids.ArxivID != "":
		return `arxiv:"` + ids.ArxivID + `"`
	}
	return ""
}

func findDOI(text string) string {
	for _, m := range doiPattern.FindAllString(text, -1) {
		// Extraction drags along trailing punctuation from the layout.
		m = strings.TrimRight(m, ".,;:)")
		if validDOI(m) {
			return m
		}
	}
	return ""
}

func validDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash > 0 && slash < len(doi)-1
}
