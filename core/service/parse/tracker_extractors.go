package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field extractors. Each is a pure function over the normalized text and
// returns its zero value on no confident match, never an error. They are
// deliberately over-conservative: a wrong value corrupts the record
// silently, a missing one just leaves the field blank.

var (
	// Platform order numbers are 18-20 digit runs. The boundary
	// assertions keep a longer digit run from donating a prefix.
	reOrderID = regexp.MustCompile(`(?:^|[^0-9])([0-9]{18,20})(?:[^0-9]|$)`)

	reTrackingJT = regexp.MustCompile(`(?i)(JT\d{13,16})`)
	reTrackingSP = regexp.MustCompile(`(?i)(SPX?\d{12,})`)

	// Strict shop-name templates. Anything looser pulls in marketing copy.
	reShopPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\s+Official\s+Store`),
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\s+Online\s+Shop`),
	}

	reVariant       = regexp.MustCompile(`(?i)(black|white|red|blue|pink|brown|green|gray|beige|navy|purple|yellow|orange)\s*([#A-Z0-9-]{0,15})?\s*(?:,?\s*(?:EU|US|UK)[:\s]?(\d{1,3}))?`)
	reVariantReject = regexp.MustCompile(`(?i)msg|email|for\s|your|order`)

	rePriceAll = regexp.MustCompile(`₱\s*([\d,]+\.?\d*)`)
	reQtyTimes = regexp.MustCompile(`(?i)[×x](\d+)`)
	reQtyItems = regexp.MustCompile(`(?i)(\d+)\s*items?`)
)

// priceLabels in priority order; the first label that matches with a
// plausible amount wins.
var priceLabels = []string{
	`Total Payment`,
	`Order Total`,
	`Grand Total`,
	`Total Amount`,
	`Total \(\d+ items?\)`,
	`Total`,
}

var rePriceLabeled = compilePriceLabels()

func compilePriceLabels() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(priceLabels))
	for i, label := range priceLabels {
		res[i] = regexp.MustCompile(fmt.Sprintf(`(?i)(%s)[:\s]*[₱P]?\s*([\d,]+\.?\d*)`, label))
	}
	return res
}

// ExtractOrderID returns the first 18-20 digit platform order number, or
// "" when none exists.
func ExtractOrderID(text string) string {
	m := reOrderID.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractTracking returns an upper-cased J&T or SPX tracking number.
func ExtractTracking(text string) string {
	if m := reTrackingJT.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := reTrackingSP.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// ExtractShopName matches the two seller-name templates and rejects
// anything that looks like platform boilerplate.
func ExtractShopName(text string) string {
	for _, p := range reShopPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		name := strings.TrimSpace(m[1])
		lower := strings.ToLower(name)
		if len(name) >= 3 && len(name) <= 30 &&
			!strings.Contains(lower, "tiktok") &&
			!strings.Contains(lower, "order") &&
			!strings.Contains(lower, "delivery") {
			return capitalizeWords(name)
		}
	}
	return ""
}

// ExtractVariant matches a color word plus an optional short code and
// size token.
func ExtractVariant(text string) string {
	m := reVariant.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	variant := m[1]
	if m[2] != "" {
		variant += " " + m[2]
	}
	if m[3] != "" {
		variant += ", EU:" + m[3]
	}
	if len(variant) >= 3 && len(variant) <= 40 && !reVariantReject.MatchString(variant) {
		return strings.TrimSpace(variant)
	}
	return ""
}

// ExtractTotalPrice looks for a labeled total first, then falls back to
// the last currency-prefixed amount in the text (totals render last in
// these templates). Returns 0 when no price could be determined.
func ExtractTotalPrice(text string) float64 {
	for _, p := range rePriceLabeled {
		m := p.FindStringSubmatch(text)
		if m == nil || m[2] == "" {
			continue
		}
		price := parseAmount(m[2])
		if price > 0 && price < 100000 {
			return price
		}
	}

	var lastPrice float64
	for _, m := range rePriceAll.FindAllStringSubmatch(text, -1) {
		if p := parseAmount(m[1]); p > 0 {
			lastPrice = p
		}
	}
	return lastPrice
}

// ExtractQuantity reads a "x3" style multiplier or an "N items" token.
// Defaults to 1.
func ExtractQuantity(text string) int {
	m := reQtyTimes.FindStringSubmatch(text)
	if m == nil {
		m = reQtyItems.FindStringSubmatch(text)
	}
	if m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil && q > 0 && q < 100 {
			return q
		}
	}
	return 1
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
