package handler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	botpkg "github.com/tuneid/TuneID-Go/bot"
)

func TestExtractFirstURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare url", "https://youtube.com/watch?v=abc", "https://youtube.com/watch?v=abc"},
		{"url in sentence", "listen to https://soundcloud.com/a/b please", "https://soundcloud.com/a/b"},
		{"first of two", "http://a.com/x and https://b.com/y", "http://a.com/x"},
		{"trailing punctuation", "see https://tiktok.com/v/1).", "https://tiktok.com/v/1"},
		{"no url", "just some words", ""},
		{"empty", "   ", ""},
		{"ftp ignored", "ftp://host/file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFirstURL(tt.text); got != tt.want {
				t.Errorf("extractFirstURL(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		botName string
		want    string
	}{
		{"plain", "/start", "tuneid_bot", "start"},
		{"with args", "/help me now", "tuneid_bot", "help"},
		{"addressed to us", "/start@tuneid_bot", "tuneid_bot", "start"},
		{"addressed elsewhere", "/start@other_bot", "tuneid_bot", ""},
		{"no mention filter without name", "/start@other_bot", "", "start"},
		{"not a command", "hello", "tuneid_bot", ""},
		{"bare slash", "/", "tuneid_bot", ""},
		{"leading spaces", "  /language", "tuneid_bot", "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandName(tt.text, tt.botName); got != tt.want {
				t.Errorf("commandName(%q, %q) = %q, want %q", tt.text, tt.botName, got, tt.want)
			}
		})
	}
}

func TestFormatTrack(t *testing.T) {
	rec := &botpkg.TrackRecord{Title: "Aicha", Artist: "Khaled", Album: "Sahra"}
	got := FormatTrack(rec)
	for _, field := range []string{"Aicha", "Khaled", "Sahra"} {
		if strings.Count(got, field) != 1 {
			t.Errorf("FormatTrack output %q should contain %q exactly once", got, field)
		}
	}
	if FormatTrack(nil) != "" {
		t.Errorf("FormatTrack(nil) should be empty")
	}
}

func TestCleanupFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(a, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// empty paths and missing files are tolerated
	cleanupFiles(a, "", filepath.Join(dir, "missing.mp3"))

	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Errorf("file %s not removed", a)
	}
}
