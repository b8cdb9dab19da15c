package media

import (
	"regexp"
	"strings"
)

// qualityPatterns are checked in priority order; the first one that matches wins,
// regardless of where in the name the marker appears.
var qualityPatterns = []struct {
	re      *regexp.Regexp
	quality Quality
}{
	{regexp.MustCompile(`(?i)\b(2160p?|4k|uhd)\b`), Quality2160p},
	{regexp.MustCompile(`(?i)\b1440p?\b`), Quality1440p},
	{regexp.MustCompile(`(?i)\b1080p?\b`), Quality1080p},
	{regexp.MustCompile(`(?i)\b720p?\b`), Quality720p},
	{regexp.MustCompile(`(?i)\b480p?\b`), Quality480p},
	{regexp.MustCompile(`(?i)\b360p?\b`), Quality360p},
}

// DetectQuality derives a quality tag from a file name.
// Markers must be whole words, so "10800" or "x1080y" do not count.
func DetectQuality(name string) Quality {
	if name == "" {
		return QualityUnknown
	}
	for _, p := range qualityPatterns {
		if p.re.MatchString(name) {
			return p.quality
		}
	}
	return QualityUnknown
}

// DetectQualityFrom checks the name first and falls back to the caption.
func DetectQualityFrom(name, caption string) Quality {
	if q := DetectQuality(name); q != QualityUnknown {
		return q
	}
	return DetectQuality(caption)
}

// qualityMarkers are matched anywhere in a query, so "movie1080p" counts.
var qualityMarkers = []string{"2160p", "1440p", "1080p", "720p", "480p", "360p", "4k", "uhd"}

// HasQualityMarker reports whether s mentions a resolution, even glued to
// another word. Unlike DetectQuality it is a plain substring test.
func HasQualityMarker(s string) bool {
	s = strings.ToLower(s)
	for _, m := range qualityMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
