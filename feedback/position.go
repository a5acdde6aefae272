package feedback

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	headerScanLines      = 10 // only the top of a document can hold headers
	shoutedHeaderMaxLen  = 50
	labelHeaderMaxLen    = 30
	firstParagraphMinLen = 20
	markdownHeaderPrefix = "#"
	labelHeaderSeparator = ":"
)

// Zone is a structural region of a document.
type Zone int

// Zones in ascending priority; a tag is credited with the highest one it appears in.
const (
	ZoneNone Zone = iota
	ZoneBody
	ZoneFirstParagraph
	ZoneHeader
	ZoneTitle
)

func (z Zone) String() string {
	switch z {
	case ZoneTitle:
		return "title"
	case ZoneHeader:
		return "header"
	case ZoneFirstParagraph:
		return "first_paragraph"
	case ZoneBody:
		return "body"
	default:
		return "not_found"
	}
}

// ZoneScores maps each zone to its position score.
type ZoneScores struct {
	Title          float64
	Header         float64
	FirstParagraph float64
	Body           float64
	NotFound       float64
}

// DefaultZoneScores returns the stock zone values.
func DefaultZoneScores() ZoneScores {
	return ZoneScores{
		Title:          1.0,
		Header:         0.8,
		FirstParagraph: 0.6,
		Body:           0.4,
		NotFound:       0.0,
	}
}

// Score returns the value configured for z.
func (s ZoneScores) Score(z Zone) float64 {
	switch z {
	case ZoneTitle:
		return s.Title
	case ZoneHeader:
		return s.Header
	case ZoneFirstParagraph:
		return s.FirstParagraph
	case ZoneBody:
		return s.Body
	default:
		return s.NotFound
	}
}

// ScorePosition returns the default zone score for the highest-priority zone
// of rawText that contains tag.
func ScorePosition(tag, rawText string) float64 {
	return DefaultZoneScores().Score(LocateZone(tag, rawText))
}

// LocateZone finds the first zone, in priority order title, header, first
// paragraph, body, whose text contains tag. Matching is case-insensitive
// substring containment, so "api" also matches inside "rapid".
func LocateZone(tag, rawText string) Zone {
	needle := strings.ToLower(tag)
	if needle == "" {
		return ZoneNone
	}

	lines := strings.Split(rawText, "\n")

	if strings.Contains(strings.ToLower(lines[0]), needle) {
		return ZoneTitle
	}

	for _, line := range lines[:min(headerScanLines, len(lines))] {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(strings.ToLower(trimmed), needle) && looksLikeHeader(trimmed) {
			return ZoneHeader
		}
	}

	if para, ok := firstParagraph(lines); ok && strings.Contains(strings.ToLower(para), needle) {
		return ZoneFirstParagraph
	}

	if strings.Contains(strings.ToLower(rawText), needle) {
		return ZoneBody
	}
	return ZoneNone
}

// headerRule is one heuristic for recognising a header line. Rules receive
// the whitespace-trimmed line.
type headerRule func(trimmed string) bool

// headerRules are tried in order; any match makes the line a header.
var headerRules = []headerRule{
	isMarkdownHeader,
	isShoutedHeader,
	isLabelHeader,
}

func looksLikeHeader(trimmed string) bool {
	for _, rule := range headerRules {
		if rule(trimmed) {
			return true
		}
	}
	return false
}

// "# Overview"
func isMarkdownHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, markdownHeaderPrefix)
}

// "RELEASE NOTES 2.0"
func isShoutedHeader(trimmed string) bool {
	return isUpper(trimmed) && utf8.RuneCountInString(trimmed) < shoutedHeaderMaxLen
}

// "Agenda: planning"
func isLabelHeader(trimmed string) bool {
	return utf8.RuneCountInString(trimmed) < labelHeaderMaxLen && strings.Contains(trimmed, labelHeaderSeparator)
}

// isUpper reports whether s has at least one cased letter and no lower-case
// or title-case ones. Digits and punctuation are ignored.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// firstParagraph returns the first substantial non-header line.
func firstParagraph(lines []string) (string, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, markdownHeaderPrefix) {
			continue
		}
		if utf8.RuneCountInString(trimmed) > firstParagraphMinLen {
			return line, true
		}
	}
	return "", false
}
