package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Normalizer rewrites raw cell values into canonical forms so that values
// like "$1,200" and "1200", or "01/15/2024" and "2024-01-15", collide
// when columns are compared by content.
type Normalizer struct {
	dateFormats   []string
	phonePattern  *regexp.Regexp
	numberPattern *regexp.Regexp
	spacePattern  *regexp.Regexp
	letterPattern *regexp.Regexp
}

// NewNormalizer creates a normalizer covering the common date, currency
// and phone formats.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		dateFormats: []string{
			"2006-01-02",          // ISO: 2024-01-15
			"01/02/2006",          // US: 01/15/2024
			"02/01/2006",          // EU: 15/01/2024
			"2006/01/02",          // Alt ISO
			"02-Jan-2006",         // Text: 15-Jan-2024
			"January 2, 2006",     // Full text
			time.RFC3339,          // With time
			"2006-01-02 15:04:05", // SQL datetime
		},
		phonePattern:  regexp.MustCompile(`[\s\-\(\)\+\.]`),
		numberPattern: regexp.MustCompile(`[\$€£¥₹,%\s]`),
		spacePattern:  regexp.MustCompile(`\s+`),
		letterPattern: regexp.MustCompile(`[a-zA-Z]`),
	}
}

// NormalizeValue converts a value to its canonical form: dates become ISO,
// phones become bare digits, numbers lose currency symbols and separators,
// names become "first last" lowercase. Anything else is lowercased and
// trimmed.
func (n *Normalizer) NormalizeValue(value string) string {
	if value == "" {
		return ""
	}
	if normalized := n.normalizeDate(value); normalized != "" {
		return normalized
	}
	if normalized := n.normalizePhone(value); normalized != "" {
		return normalized
	}
	if normalized := n.normalizeNumber(value); normalized != "" {
		return normalized
	}
	if normalized := n.normalizeName(value); normalized != "" {
		return normalized
	}
	return strings.ToLower(strings.TrimSpace(value))
}

func (n *Normalizer) normalizeDate(value string) string {
	for _, format := range n.dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// normalizePhone strips formatting; the result counts as a phone only at
// 10 to 15 digits.
func (n *Normalizer) normalizePhone(value string) string {
	if !strings.ContainsAny(value, "0123456789") {
		return ""
	}
	normalized := n.phonePattern.ReplaceAllString(value, "")
	if len(normalized) >= 10 && len(normalized) <= 15 {
		if _, err := strconv.ParseInt(normalized, 10, 64); err == nil {
			return normalized
		}
	}
	return ""
}

func (n *Normalizer) normalizeNumber(value string) string {
	normalized := n.numberPattern.ReplaceAllString(value, "")
	if _, err := strconv.ParseFloat(normalized, 64); err == nil {
		return normalized
	}
	return ""
}

// normalizeName turns "Smith, John" into "john smith" and collapses
// internal whitespace.
func (n *Normalizer) normalizeName(value string) string {
	if !n.letterPattern.MatchString(value) {
		return ""
	}
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		if len(parts) == 2 {
			return strings.ToLower(strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0]))
		}
	}
	normalized := strings.ToLower(value)
	normalized = n.spacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// DetectFormat identifies the format family of a single value.
func (n *Normalizer) DetectFormat(value string) string {
	if n.normalizeDate(value) != "" {
		return "date"
	}
	if n.normalizePhone(value) != "" {
		return "phone"
	}
	if n.normalizeNumber(value) != "" {
		return "number"
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return "email"
	}
	if n.normalizeName(value) != "" && strings.Contains(value, " ") {
		return "name"
	}
	return "text"
}
