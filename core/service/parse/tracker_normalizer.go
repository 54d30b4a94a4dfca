// Package parse implements the order-email extraction pipeline: body
// normalization, relevance/status classification, field extraction and
// batch synthesis with in-batch dedup.
package parse

import (
	"regexp"
	"strings"
)

// Normalization strips markup and styling noise out of raw email bodies so
// the extractors can run over one flat string. The passes are order
// sensitive: later patterns assume tags and CSS are already gone. Lossy on
// purpose.
var (
	reTags        = regexp.MustCompile(`<[^>]+>`)
	reCSSDecl     = regexp.MustCompile(`(?i)[a-z-]+:\s*[^;}<]+[;}]`)
	reCSSColor    = regexp.MustCompile(`(?i)rgba?\([^)]+\)`)
	reCSSHex      = regexp.MustCompile(`(?i)#[a-f0-9]{3,8}`)
	reCSSLength   = regexp.MustCompile(`(?i)\d+(?:px|em|rem|%)`)
	reCSSKeyword  = regexp.MustCompile(`(?i)(?:nowrap|solid|dotted|dashed|block|inline|flex)`)
	reEntityNamed = regexp.MustCompile(`(?i)&[a-z]+;`)
	reEntityNum   = regexp.MustCompile(`&#\d+;`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// Normalize flattens a raw body or snippet into a single cleaned,
// space-collapsed string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := reTags.ReplaceAllString(text, " ")
	s = reCSSDecl.ReplaceAllString(s, " ")
	s = reCSSColor.ReplaceAllString(s, " ")
	s = reCSSHex.ReplaceAllString(s, " ")
	s = reCSSLength.ReplaceAllString(s, " ")
	s = reCSSKeyword.ReplaceAllString(s, " ")
	s = reEntityNamed.ReplaceAllString(s, " ")
	s = reEntityNum.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
