package moderation

import "testing"

func TestFilterKeywords(t *testing.T) {
	f := NewFilter()

	tests := []struct {
		name        string
		text        string
		wantBlocked bool
		wantReason  string
	}{
		{"clean", "this scene is great", false, ""},
		{"phrase match", "just kill yourself already", true, "blocked_keyword"},
		{"phrase case insensitive", "KILL YOURSELF", true, "blocked_keyword"},
		{"word match", "kys loser", true, "blocked_keyword"},
		{"word with punctuation", "kys!", true, "blocked_keyword"},
		{"word inside longer token", "kysmet is a typo", false, ""},
		{"empty", "", false, ""},
		{"video link is fine", "watch https://example.com/movie.mp4", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.Check(tt.text)
			if res.Blocked != tt.wantBlocked {
				t.Errorf("Check(%q).Blocked = %v, want %v", tt.text, res.Blocked, tt.wantBlocked)
			}
			if res.Reason != tt.wantReason {
				t.Errorf("Check(%q).Reason = %q, want %q", tt.text, res.Reason, tt.wantReason)
			}
		})
	}
}

func TestFilterCustomTerms(t *testing.T) {
	f := NewFilterWithTerms([]string{"Spoiler", "plot twist", "  ", ""})

	if res := f.Check("huge SPOILER incoming"); !res.Blocked || res.Term != "spoiler" {
		t.Errorf("custom word not matched: %+v", res)
	}
	if res := f.Check("what a Plot Twist that was"); !res.Blocked || res.Term != "plot twist" {
		t.Errorf("custom phrase not matched: %+v", res)
	}
	if res := f.Check("kys"); res.Blocked {
		t.Error("custom filter should not carry the default terms")
	}
}

func TestSpamPatterns(t *testing.T) {
	f := NewFilter()

	tests := []struct {
		name        string
		text        string
		wantBlocked bool
		wantTerm    string
	}{
		{"char flood", "aaaaaaaaaa", true, "char_flood"},
		{"char flood at threshold", "aaaaaaaa", true, "char_flood"},
		{"char flood below threshold", "aaaaaaa", false, ""},
		{"word flood", "spam spam spam spam", true, "word_flood"},
		{"word flood mixed case", "Spam SPAM spam sPaM", true, "word_flood"},
		{"word flood below threshold", "spam spam spam", false, ""},
		{"repeated but not consecutive", "go go stop go go stop go go", false, ""},
		{"normal excitement", "wooo that was amazing", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.Check(tt.text)
			if res.Blocked != tt.wantBlocked {
				t.Errorf("Check(%q).Blocked = %v, want %v", tt.text, res.Blocked, tt.wantBlocked)
			}
			if tt.wantBlocked {
				if res.Reason != "spam_pattern" {
					t.Errorf("Reason = %q, want spam_pattern", res.Reason)
				}
				if res.Term != tt.wantTerm {
					t.Errorf("Term = %q, want %q", res.Term, tt.wantTerm)
				}
			}
		})
	}
}
