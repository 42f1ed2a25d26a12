package handler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mymmrac/telego"

	botpkg "github.com/tuneid/TuneID-Go/bot"
	"github.com/tuneid/TuneID-Go/bot/locale"
)

func TestHandleLinkDelivery(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	dl := &fakeDownloader{Dir: dir}
	rec := &fakeRecognizer{Record: &botpkg.TrackRecord{
		Title:  "Bohemian Rhapsody",
		Artist: "Queen",
		Album:  "A Night at the Opera",
	}}
	h := newTestHandlers(dir, sender, dl, rec)

	msg := textMessage(10, 20, "check this https://soundcloud.com/queen/bohemian-rhapsody")
	h.HandleLink(context.Background(), msg)

	if dl.Calls != 1 {
		t.Fatalf("download calls = %d, want 1", dl.Calls)
	}
	if len(sender.Audios) != 1 {
		t.Fatalf("audio sends = %d, want 1", len(sender.Audios))
	}
	audio := sender.Audios[0]
	if audio.Title != "Bohemian Rhapsody" || audio.Performer != "Queen" {
		t.Errorf("audio metadata = %q / %q", audio.Title, audio.Performer)
	}
	for _, field := range []string{"Bohemian Rhapsody", "Queen", "A Night at the Opera"} {
		if strings.Count(audio.Caption, field) != 1 {
			t.Errorf("caption %q should contain %q exactly once", audio.Caption, field)
		}
	}
	if !strings.Contains(audio.Caption, "✅") ||
		!strings.Contains(audio.Caption, locale.Message(locale.English, locale.KeySuccess)) {
		t.Errorf("caption %q carries no success indicator", audio.Caption)
	}
	if audio.ReplyToID != msg.MessageID {
		t.Errorf("ReplyToID = %d, want %d", audio.ReplyToID, msg.MessageID)
	}
	if len(sender.Deleted) != 1 {
		t.Errorf("status message not deleted")
	}
	if tagger := h.Tagger.(*fakeTagger); tagger.Calls != 1 {
		t.Errorf("tagger calls = %d, want 1", tagger.Calls)
	}

	// the downloaded file must be gone once the handler returns
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("download dir not cleaned, %d entries left", len(entries))
	}
}

func TestHandleLinkUnsupportedPlatform(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	dl := &fakeDownloader{Dir: dir}
	h := newTestHandlers(dir, sender, dl, &fakeRecognizer{})

	h.HandleLink(context.Background(), textMessage(10, 20, "https://example.com/watch?v=abc"))

	if dl.Calls != 0 {
		t.Fatalf("download attempted for unsupported URL")
	}
	if len(sender.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(sender.Messages))
	}
	want := locale.Message(locale.English, locale.KeyInvalidLink)
	if sender.Messages[0].Text != want {
		t.Errorf("reply = %q, want %q", sender.Messages[0].Text, want)
	}
}

func TestHandleLinkDownloadFailure(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	dl := &fakeDownloader{Dir: dir, Err: errDownload}
	h := newTestHandlers(dir, sender, dl, &fakeRecognizer{})

	h.HandleLink(context.Background(), textMessage(10, 20, "https://youtube.com/watch?v=abc"))

	if len(sender.Audios) != 0 {
		t.Fatalf("audio sent despite download failure")
	}
	if len(sender.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(sender.Edits))
	}
	want := locale.Message(locale.English, locale.KeyDownloadError)
	if sender.Edits[0].Text != want {
		t.Errorf("status text = %q, want %q", sender.Edits[0].Text, want)
	}
}

func TestHandleLinkRecognitionMissStillDelivers(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	dl := &fakeDownloader{Dir: dir}
	h := newTestHandlers(dir, sender, dl, &fakeRecognizer{}) // always ErrNoMatch

	h.HandleLink(context.Background(), textMessage(10, 20, "https://www.tiktok.com/@x/video/1"))

	if len(sender.Audios) != 1 {
		t.Fatalf("audio sends = %d, want 1", len(sender.Audios))
	}
	want := "✅ " + locale.Message(locale.English, locale.KeySuccess)
	if sender.Audios[0].Caption != want {
		t.Errorf("caption = %q, want %q", sender.Audios[0].Caption, want)
	}
	if sender.Audios[0].Title != "" {
		t.Errorf("unexpected title %q on unrecognized audio", sender.Audios[0].Title)
	}
}

func TestHandleAudioRecognized(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	rec := &fakeRecognizer{Record: &botpkg.TrackRecord{
		Title:  "Take Five",
		Artist: "Dave Brubeck",
		Album:  "Time Out",
	}}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, rec)

	msg := textMessage(10, 20, "")
	msg.Voice = &telego.Voice{FileID: "voice-file"}
	h.HandleAudio(context.Background(), msg)

	if rec.Calls != 1 {
		t.Fatalf("recognize calls = %d, want 1", rec.Calls)
	}
	if len(sender.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(sender.Edits))
	}
	got := sender.Edits[0].Text
	if !strings.HasPrefix(got, FormatTrack(rec.Record)) {
		t.Errorf("result text = %q, want track info first", got)
	}
	if !strings.Contains(got, "✅") ||
		!strings.Contains(got, locale.Message(locale.English, locale.KeySuccess)) {
		t.Errorf("result text %q carries no success indicator", got)
	}
	for _, field := range []string{"Take Five", "Dave Brubeck", "Time Out"} {
		if strings.Count(got, field) != 1 {
			t.Errorf("result text %q should contain %q exactly once", got, field)
		}
	}

	// temp_voice_<uid>.ogg must not survive the handler
	if _, err := os.Stat(filepath.Join(dir, "temp_voice_20.ogg")); !os.IsNotExist(err) {
		t.Errorf("temp voice file left behind")
	}
}

func TestHandleAudioNoMatch(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, &fakeRecognizer{})

	msg := textMessage(10, 20, "")
	msg.Audio = &telego.Audio{FileID: "audio-file"}
	h.HandleAudio(context.Background(), msg)

	if len(sender.Edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(sender.Edits))
	}
	want := locale.Message(locale.English, locale.KeySongNotFound)
	if sender.Edits[0].Text != want {
		t.Errorf("status text = %q, want %q", sender.Edits[0].Text, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "temp_audio_20.mp3")); !os.IsNotExist(err) {
		t.Errorf("temp audio file left behind")
	}
}

func TestHandleCommandStart(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, &fakeRecognizer{})

	h.HandleCommand(context.Background(), textMessage(10, 20, "/start"))

	if len(sender.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(sender.Messages))
	}
	got := sender.Messages[0]
	if want := locale.Message(locale.English, locale.KeyStart); got.Text != want {
		t.Errorf("text = %q, want %q", got.Text, want)
	}
	if got.KB == nil || len(got.KB.InlineKeyboard) == 0 {
		t.Errorf("start reply missing main menu keyboard")
	}
}

func TestHandleCallbackLanguageSwitch(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, &fakeRecognizer{})

	msg := textMessage(10, 20, "")
	h.HandleCallback(context.Background(), &telego.CallbackQuery{
		ID:      "q1",
		From:    telego.User{ID: 20},
		Message: msg,
		Data:    "lang_fa",
	})

	if got := h.Locales.Get(20); got != "fa" {
		t.Fatalf("stored locale = %q, want fa", got)
	}
	if len(sender.Answers) != 1 {
		t.Fatalf("callback not answered")
	}
	if len(sender.Edits) != 1 {
		t.Fatalf("menu not re-rendered")
	}
	if want := locale.Message(locale.Persian, locale.KeyStart); sender.Edits[0].Text != want {
		t.Errorf("menu text = %q, want %q", sender.Edits[0].Text, want)
	}
}

func TestHandleCallbackUnknownDataAnswered(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, &fakeRecognizer{})

	h.HandleCallback(context.Background(), &telego.CallbackQuery{
		ID:   "q1",
		From: telego.User{ID: 20},
		Data: "bogus",
	})

	if len(sender.Answers) != 1 {
		t.Fatalf("unknown callback left unanswered")
	}
}

func TestHandleInlineEmptyQueryShortCircuits(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	rec := &fakeRecognizer{SearchErr: errDownload} // would fail if called
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, rec)

	h.HandleInline(context.Background(), &telego.InlineQuery{
		ID:    "iq1",
		From:  telego.User{ID: 20},
		Query: "   ",
	})

	if len(sender.Inline) != 1 {
		t.Fatalf("inline query not answered")
	}
	if len(sender.Inline[0]) != 0 {
		t.Errorf("expected empty result set")
	}
}

func TestHandleInlineSearch(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	rec := &fakeRecognizer{SearchHit: []botpkg.TrackRecord{
		{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Key: "k1"},
		{Title: "Blue in Green", Artist: "Miles Davis", Album: "Kind of Blue"},
	}}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, rec)

	h.HandleInline(context.Background(), &telego.InlineQuery{
		ID:    "iq1",
		From:  telego.User{ID: 20},
		Query: "miles",
	})

	if len(sender.Inline) != 1 || len(sender.Inline[0]) != 2 {
		t.Fatalf("inline results = %v", sender.Inline)
	}
	first, ok := sender.Inline[0][0].(*telego.InlineQueryResultArticle)
	if !ok {
		t.Fatalf("result type = %T", sender.Inline[0][0])
	}
	if first.ID != "k1" {
		t.Errorf("first result ID = %q, want k1", first.ID)
	}
	second := sender.Inline[0][1].(*telego.InlineQueryResultArticle)
	if second.ID != "iq1-1" {
		t.Errorf("fallback result ID = %q, want iq1-1", second.ID)
	}
}

func TestHandleInlineSearchErrorEmptyResults(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	rec := &fakeRecognizer{SearchErr: errDownload}
	h := newTestHandlers(dir, sender, &fakeDownloader{Dir: dir}, rec)

	h.HandleInline(context.Background(), &telego.InlineQuery{
		ID:    "iq1",
		From:  telego.User{ID: 20},
		Query: "miles",
	})

	if len(sender.Inline) != 1 || len(sender.Inline[0]) != 0 {
		t.Fatalf("search error should answer with empty results, got %v", sender.Inline)
	}
}
