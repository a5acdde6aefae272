package feedback

import "testing"

func TestScorePosition_Title(t *testing.T) {
	score := ScorePosition("api", "API Documentation\nThis is about APIs")
	if score != 1.0 {
		t.Errorf("expected 1.0 for tag in title, got %v", score)
	}
}

func TestScorePosition_MarkdownHeader(t *testing.T) {
	score := ScorePosition("api", "Introduction\n# API Documentation\nThis is about APIs")
	if score != 0.8 {
		t.Errorf("expected 0.8 for tag in markdown header, got %v", score)
	}
}

func TestScorePosition_ShoutedHeader(t *testing.T) {
	text := "Quarterly report\nSOME INTRO\nNETWORK LATENCY 2024\nlatency was fine most of the quarter"
	if got := LocateZone("latency", text); got != ZoneHeader {
		t.Errorf("expected header zone, got %s", got)
	}
}

func TestScorePosition_LabelHeader(t *testing.T) {
	text := "Meeting Notes\nAgenda: evaluation automation"
	if got := ScorePosition("evaluation", text); got != 0.8 {
		t.Errorf("expected 0.8 for short line with colon, got %v", got)
	}
}

func TestScorePosition_LongColonLineIsNotHeader(t *testing.T) {
	text := "Notes\nThe evaluation covered: throughput, latency and cost"
	if got := LocateZone("evaluation", text); got != ZoneFirstParagraph {
		t.Errorf("expected first paragraph zone, got %s", got)
	}
}

func TestScorePosition_HeaderOnlyWithinFirstTenLines(t *testing.T) {
	text := "Title\n1\n2\n3\n4\n5\n6\n7\n8\n9\n# Caching layer\nsome words"
	if got := LocateZone("caching", text); got != ZoneBody {
		t.Errorf("expected body zone for header past line 10, got %s", got)
	}
}

func TestScorePosition_FirstParagraph(t *testing.T) {
	score := ScorePosition("api", "Introduction\n\nAPI error timeout browser bug")
	if score != 0.6 {
		t.Errorf("expected 0.6 for tag in first paragraph, got %v", score)
	}
}

func TestScorePosition_FirstParagraphSkipsShortLines(t *testing.T) {
	// "Short intro line" is not long enough to count as the first paragraph.
	text := "Doc\nShort intro line\nThe backend handles authentication and sessions"
	if got := LocateZone("authentication", text); got != ZoneFirstParagraph {
		t.Errorf("expected first paragraph zone, got %s", got)
	}
}

func TestScorePosition_Body(t *testing.T) {
	text := "Introduction paragraph with enough content\n\nSome other content here\n\nAPI error timeout browser bug"
	score := ScorePosition("api", text)
	if score != 0.4 {
		t.Errorf("expected 0.4 for tag in body, got %v", score)
	}
}

func TestScorePosition_NotFound(t *testing.T) {
	score := ScorePosition("api", "This is about something else")
	if score != 0.0 {
		t.Errorf("expected 0.0 for absent tag, got %v", score)
	}
}

func TestScorePosition_TitleBeatsBody(t *testing.T) {
	text := "Cache invalidation\nA long paragraph that talks about cache behaviour.\ncache cache cache"
	if got := ScorePosition("cache", text); got != 1.0 {
		t.Errorf("expected title zone to win, got %v", got)
	}
}

func TestScorePosition_SubstringMatch(t *testing.T) {
	// "api" is matched inside "Rapid".
	if got := ScorePosition("api", "Rapid prototyping"); got != 1.0 {
		t.Errorf("expected substring match in title, got %v", got)
	}
}

func TestScorePosition_EmptyInputs(t *testing.T) {
	if got := ScorePosition("", "anything at all"); got != 0.0 {
		t.Errorf("expected 0.0 for empty tag, got %v", got)
	}
	if got := ScorePosition("api", ""); got != 0.0 {
		t.Errorf("expected 0.0 for empty text, got %v", got)
	}
}

func TestScorePosition_Idempotent(t *testing.T) {
	text := "Introduction\n# API Documentation\nThis is about APIs"
	first := ScorePosition("api", text)
	second := ScorePosition("api", text)
	if first != second {
		t.Errorf("expected identical scores, got %v and %v", first, second)
	}
}

func TestZoneScores_Custom(t *testing.T) {
	zones := ZoneScores{Title: 0.9, Header: 0.7, FirstParagraph: 0.5, Body: 0.3, NotFound: 0.1}
	if got := zones.Score(ZoneHeader); got != 0.7 {
		t.Errorf("expected custom header score 0.7, got %v", got)
	}
	if got := zones.Score(ZoneNone); got != 0.1 {
		t.Errorf("expected custom not-found score 0.1, got %v", got)
	}
}

func TestIsUpper(t *testing.T) {
	cases := map[string]bool{
		"RELEASE NOTES":   true,
		"V2.0 - FINAL!":   true,
		"Release Notes":   false,
		"1234 --":         false,
		"":                false,
		"ÜBERSICHT 2024":  true,
		"ÜBERSICHT extra": false,
	}
	for in, want := range cases {
		if got := isUpper(in); got != want {
			t.Errorf("isUpper(%q) = %v, want %v", in, got, want)
		}
	}
}
