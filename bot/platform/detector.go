package platform

import (
	"errors"
	"strings"
)

// Tag identifies a supported source platform.
type Tag string

const (
	YouTube    Tag = "youtube"
	Instagram  Tag = "instagram"
	TikTok     Tag = "tiktok"
	Pinterest  Tag = "pinterest"
	SoundCloud Tag = "soundcloud"
)

// ErrUnsupportedURL is returned for URLs that match no known platform.
var ErrUnsupportedURL = errors.New("platform: unsupported url")

// Entry binds a tag to the domain substrings that identify it.
type Entry struct {
	Tag     Tag
	Domains []string
}

// DefaultEntries is the built-in detection table. Order matters: detection
// checks entries first to last and the first containing domain wins.
func DefaultEntries() []Entry {
	return []Entry{
		{YouTube, []string{"youtube.com", "youtu.be", "music.youtube.com"}},
		{Instagram, []string{"instagram.com", "www.instagram.com"}},
		{TikTok, []string{"tiktok.com", "www.tiktok.com"}},
		{Pinterest, []string{"pinterest.com", "www.pinterest.com"}},
		{SoundCloud, []string{"soundcloud.com", "www.soundcloud.com"}},
	}
}

// Detector maps URLs to platform tags by substring containment. Matching is
// deliberately naive: the domain may appear anywhere in the raw string, so a
// recognized domain inside a query parameter still matches. Detection never
// fetches anything and keeps no state.
type Detector struct {
	entries []Entry
}

// NewDetector builds a detector over the given entries. Entries with no
// domains are skipped. A nil or empty slice falls back to DefaultEntries.
func NewDetector(entries []Entry) *Detector {
	if len(entries) == 0 {
		entries = DefaultEntries()
	}
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Domains) > 0 {
			kept = append(kept, e)
		}
	}
	return &Detector{entries: kept}
}

// Detect returns the tag of the first entry whose domain is contained in
// url, or ErrUnsupportedURL when none matches.
func (d *Detector) Detect(url string) (Tag, error) {
	for _, e := range d.entries {
		for _, domain := range e.Domains {
			if strings.Contains(url, domain) {
				return e.Tag, nil
			}
		}
	}
	return "", ErrUnsupportedURL
}

// Supported reports whether url belongs to a known platform.
func (d *Detector) Supported(url string) bool {
	_, err := d.Detect(url)
	return err == nil
}

// Tags returns the detectable tags in match order.
func (d *Detector) Tags() []Tag {
	tags := make([]Tag, 0, len(d.entries))
	for _, e := range d.entries {
		tags = append(tags, e.Tag)
	}
	return tags
}
