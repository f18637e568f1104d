package services

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// RateCardParser turns a PDF rate card or pricing guide into text ready for
// chunking.
type RateCardParser interface {
	Parse(path string) (*RateCardDocument, error)
}

type RateCardDocument struct {
	Path      string
	Pages     []string
	PageCount int
	// Skipped counts pages that were blank or could not be decoded.
	Skipped int
}

// Text joins the cleaned pages with blank lines so the chunker sees each page
// as at least one paragraph.
func (d *RateCardDocument) Text() string {
	return strings.Join(d.Pages, "\n\n")
}

type rateCardParser struct{}

func NewRateCardParser() RateCardParser {
	return &rateCardParser{}
}

var ErrNoRateCardText = errors.New("no text content found in PDF")

var (
	pageNumberLine = regexp.MustCompile(`(?i)^(?:-\s*\d+\s*-|page\s*\d+(?:\s*(?:/|of)\s*\d+)?|\d+\s*/\s*\d+|第\s*\d+\s*頁(?:\s*/\s*共\s*\d+\s*頁)?|\d{1,3})$`)
	currencyAmount = regexp.MustCompile(`(?i)(?:NT\s*\$|NTD|TWD|新台幣|台幣)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	amountYuan     = regexp.MustCompile(`(?i)(?:(?:NT\s*\$|NTD|TWD|新台幣|台幣)\s*)?([0-9][0-9,]*(?:\.[0-9]+)?)\s*元`)
	innerSpace     = regexp.MustCompile(`[ \t\x{3000}]+`)
)

func (p *rateCardParser) Parse(path string) (*RateCardDocument, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	doc := &RateCardDocument{Path: path, PageCount: r.NumPage()}
	raw := make([]string, 0, doc.PageCount)

	for i := 1; i <= doc.PageCount; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Skipped++
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			doc.Skipped++
			continue
		}
		raw = append(raw, text)
	}

	for _, page := range StripRepeatedLines(raw) {
		if page = CleanText(page); page != "" {
			doc.Pages = append(doc.Pages, page)
		} else {
			doc.Skipped++
		}
	}

	if len(doc.Pages) == 0 {
		return nil, ErrNoRateCardText
	}
	return doc, nil
}

// CleanText tidies one page of rate-card text: whitespace inside a line is
// collapsed, bare page numbers are dropped, and prices are written the same
// way ("NT $ 3,000", "TWD3000" and "3,000 元" all become "NT$3,000"-style).
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := lines[:0]

	for _, line := range lines {
		line = strings.TrimSpace(innerSpace.ReplaceAllString(line, " "))
		if line == "" || pageNumberLine.MatchString(line) {
			continue
		}
		line = amountYuan.ReplaceAllString(line, "NT$$$1")
		line = currencyAmount.ReplaceAllString(line, "NT$$$1")
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

// StripRepeatedLines removes running headers and footers: any trimmed line
// that appears on every page of a document with three or more pages.
func StripRepeatedLines(pages []string) []string {
	if len(pages) < 3 {
		return pages
	}

	seen := make(map[string]int)
	for _, page := range pages {
		onPage := make(map[string]bool)
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !onPage[line] {
				onPage[line] = true
				seen[line]++
			}
		}
	}

	out := make([]string, len(pages))
	for i, page := range pages {
		lines := strings.Split(page, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if seen[strings.TrimSpace(line)] == len(pages) {
				continue
			}
			kept = append(kept, line)
		}
		out[i] = strings.Join(kept, "\n")
	}
	return out
}
