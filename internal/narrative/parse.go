package narrative

import (
	"regexp"
	"strings"
)

// NotAvailable fills a section that could not be found.
const NotAvailable = "Not available"

// Sections are the three parts of a coaching narrative.
type Sections struct {
	Summary      string
	Improvements string
	RiskFactor   string
}

type numberedSection struct {
	header *regexp.Regexp
	end    *regexp.Regexp
}

var (
	numbered = []numberedSection{
		{regexp.MustCompile(`(?is)1\.\s*\*?\*?\[?SUMMARY\]?:?\*?\*?\s*`), regexp.MustCompile(`\n\s*2\.`)},
		{regexp.MustCompile(`(?is)2\.\s*\*?\*?\[?IMPROVEMENTS\]?:?\*?\*?\s*`), regexp.MustCompile(`\n\s*3\.`)},
		{regexp.MustCompile(`(?is)3\.\s*\*?\*?\[?RISK FACTOR\]?:?\*?\*?\s*`), regexp.MustCompile(`\n\s*\d+\.`)},
	}
	headers = []*regexp.Regexp{
		regexp.MustCompile(`(?is)\[?SUMMARY\]?:?\s*`),
		regexp.MustCompile(`(?is)\[?IMPROVEMENTS\]?:?\s*`),
		regexp.MustCompile(`(?is)\[?RISK FACTOR\]?:?\s*`),
	}
	markup = strings.NewReplacer("*", "", "[", "", "]", "")
)

// Parse splits narrative text into sections. Text carrying "1.", "2." and
// "3." is read as a numbered list whose items run to the next number;
// otherwise each header runs to the next "[" or the end of the text.
// Markdown emphasis and brackets are stripped and whitespace collapsed.
func Parse(text string) Sections {
	found := [3]string{NotAvailable, NotAvailable, NotAvailable}

	if strings.Contains(text, "1.") && strings.Contains(text, "2.") && strings.Contains(text, "3.") {
		for i, sec := range numbered {
			if body, ok := extract(text, sec.header, func(rest string) int {
				if loc := sec.end.FindStringIndex(rest); loc != nil {
					return loc[0]
				}
				return -1
			}); ok {
				found[i] = body
			}
		}
	} else {
		for i, header := range headers {
			if body, ok := extract(text, header, func(rest string) int {
				return strings.IndexByte(rest, '[')
			}); ok {
				found[i] = body
			}
		}
	}

	for i := range found {
		found[i] = strings.Join(strings.Fields(markup.Replace(found[i])), " ")
	}
	return Sections{Summary: found[0], Improvements: found[1], RiskFactor: found[2]}
}

// extract returns the text after the first header match up to the index
// reported by end, or to the end of text when end reports -1.
func extract(text string, header *regexp.Regexp, end func(string) int) (string, bool) {
	loc := header.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if idx := end(rest); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest), true
}
