package handler

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	botpkg "github.com/tuneid/TuneID-Go/bot"
)

var urlMatcher = regexp.MustCompile(`https?://[^\s]+`)

func extractFirstURL(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	match := urlMatcher.FindString(text)
	match = strings.TrimRight(match, ".,!?)]}>")
	return strings.TrimSpace(match)
}

func commandName(text, botName string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	parts := strings.SplitN(text, " ", 2)
	command := strings.TrimPrefix(parts[0], "/")
	if command == "" {
		return ""
	}
	if strings.Contains(command, "@") {
		seg := strings.SplitN(command, "@", 2)
		command = seg[0]
		if botName != "" && len(seg) > 1 && seg[1] != "" && seg[1] != botName {
			return ""
		}
	}
	return command
}

func ensureDir(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.MkdirAll(path, os.ModePerm)
	}
}

func cleanupFiles(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}

// FormatTrack renders a recognized track for display. Title, artist and
// album each appear exactly once.
func FormatTrack(rec *botpkg.TrackRecord) string {
	if rec == nil {
		return ""
	}
	return fmt.Sprintf("🎵 %s\n👤 %s\n💿 %s", rec.Title, rec.Artist, rec.Album)
}

// formatTrackResult appends the localized success line to the track info
// shown after a completed recognition.
func formatTrackResult(rec *botpkg.TrackRecord, successText string) string {
	return FormatTrack(rec) + "\n\n" + successLine(successText)
}

func successLine(successText string) string {
	return "✅ " + successText
}
