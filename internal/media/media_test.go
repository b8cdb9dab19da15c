package media

import (
	"testing"
	"unicode/utf8"
)

func TestHasQualityMarker(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"avengers 1080p", true},
		{"avengers1080p", true},
		{"film720P", true},
		{"dune4k", true},
		{"Dune UHD", true},
		{"interstellar", false},
		{"track 1080", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasQualityMarker(tt.input); got != tt.want {
			t.Errorf("HasQualityMarker(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDetectQuality(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quality
	}{
		{"2160p", "Dune.Part.Two.2160p.WEB-DL.mkv", Quality2160p},
		{"4k alias", "Dune Part Two 4K HDR", Quality2160p},
		{"uhd alias", "Dune UHD remux", Quality2160p},
		{"1440p", "Clip 1440p", Quality1440p},
		{"1080p", "Avengers Endgame 1080p", Quality1080p},
		{"1080 without p", "Avengers Endgame 1080", Quality1080p},
		{"720p uppercase", "Show S01E01 720P", Quality720p},
		{"480p", "old.movie.480p.avi", Quality480p},
		{"360p", "trailer_360p", QualityUnknown},
		{"360p dotted", "trailer.360p.mp4", Quality360p},
		{"higher wins regardless of position", "Movie.1080p.2160p.mkv", Quality2160p},
		{"higher wins first position", "Movie.2160p.1080p.mkv", Quality2160p},
		{"not a substring of a number", "Track 10800 remix", QualityUnknown},
		{"not inside a word", "x1080y", QualityUnknown},
		{"no marker", "Interstellar", QualityUnknown},
		{"empty", "", QualityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectQuality(tt.input); got != tt.want {
				t.Errorf("DetectQuality(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectQualityFrom(t *testing.T) {
	if got := DetectQualityFrom("Movie 720p", "uploaded in 1080p"); got != Quality720p {
		t.Errorf("name should win, got %q", got)
	}
	if got := DetectQualityFrom("Movie", "uploaded in 1080p"); got != Quality1080p {
		t.Errorf("caption fallback = %q, want %q", got, Quality1080p)
	}
	if got := DetectQualityFrom("Movie", ""); got != QualityUnknown {
		t.Errorf("no marker = %q, want unknown", got)
	}
}

func TestParseQuality(t *testing.T) {
	for _, q := range Qualities {
		if got := ParseQuality(string(q)); got != q {
			t.Errorf("ParseQuality(%q) = %q", q, got)
		}
	}
	if got := ParseQuality("8k"); got != QualityUnknown {
		t.Errorf("ParseQuality(8k) = %q, want unknown", got)
	}
	if got := ParseQuality(""); got != QualityUnknown {
		t.Errorf("ParseQuality(\"\") = %q, want unknown", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"separators", "Avengers_Endgame.2019-1080p+HEVC.mkv", "Avengers Endgame 2019 1080p HEVC mkv"},
		{"mention", "Movie @SomeChannel 720p", "Movie 720p"},
		{"url", "Movie https://t.me/joinchat/abc 720p", "Movie 720p"},
		{"http url", "see http://example.com/x.y now", "see now"},
		{"whitespace", "  a \t b \n c  ", "a b c"},
		{"separator runs", "a__--..b", "a b"},
		{"unicode mention", "Фильм @канал_1 2024", "Фильм 2024"},
		{"empty", "", ""},
		{"only noise", "@x https://y", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"@@a",
		"x.@y",
		"@-abc",
		"http-s://x",
		"http://",
		"http://-",
		"a.b(c.mkv",
		"https:/-/x",
		"[Group] Movie.Name.(2019).1080p.@grp.https://t.me/x",
		"\u00a0Movie\u2003Name\u00a0",
	}
	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Errorf("CleanText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func FuzzCleanText(f *testing.F) {
	f.Add("Avengers_Endgame.2019-1080p+HEVC.mkv")
	f.Add("@chan https://x.y/z a..b")
	f.Add("@_-.+ http://")
	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			t.Skip()
		}
		once := CleanText(s)
		if twice := CleanText(once); twice != once {
			t.Errorf("CleanText not idempotent for %q: %q then %q", s, once, twice)
		}
	})
}

func TestNormalizeSpace(t *testing.T) {
	if got := NormalizeSpace("  avengers    1080p "); got != "avengers 1080p" {
		t.Errorf("NormalizeSpace = %q", got)
	}
}

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Avengers: Endgame!", "avengers endgame"},
		{"a.b(c", "abc"},
		{"  Spider-Man   2  ", "spiderman 2"},
		{"snake_case", "snake_case"},
	}
	for _, tt := range tests {
		if got := NormalizeForMatch(tt.input); got != tt.want {
			t.Errorf("NormalizeForMatch(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Avengers: Endgame (2019) avengers 1080p")
	want := []string{"avengers", "endgame", "2019", "1080p"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := Tokens(`"*" - ()`); len(got) != 0 {
		t.Errorf("Tokens() of punctuation = %v, want empty", got)
	}
}
