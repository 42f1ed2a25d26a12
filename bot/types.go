package bot

// Default metadata values used when the recognition service omits a field.
const (
	UnknownTitle  = "Unknown"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// TrackRecord is the normalized result of a successful recognition or a
// search hit. Instances are built per request and never mutated after
// construction.
type TrackRecord struct {
	Title    string
	Artist   string
	Album    string
	CoverURL string // may be empty
	Key      string // opaque service identifier, may be empty
}

// NewTrackRecord fills missing fields with the documented defaults.
func NewTrackRecord(title, artist, album, coverURL, key string) TrackRecord {
	if title == "" {
		title = UnknownTitle
	}
	if artist == "" {
		artist = UnknownArtist
	}
	if album == "" {
		album = UnknownAlbum
	}
	return TrackRecord{
		Title:    title,
		Artist:   artist,
		Album:    album,
		CoverURL: coverURL,
		Key:      key,
	}
}
