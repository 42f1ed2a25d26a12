package locale

import (
	"strings"
	"sync"
)

// Locale is a supported UI language.
type Locale string

const (
	Persian Locale = "fa"
	English Locale = "en"
)

// Parse normalizes a language string, falling back to Persian.
func Parse(s string) Locale {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English
	default:
		return Persian
	}
}

// Key names a localized message or button caption. The set is closed; any
// key outside it renders as its raw string.
type Key string

// Message keys.
const (
	KeyStart          Key = "start"
	KeyLanguageSelect Key = "language_select"
	KeySendAudio      Key = "send_audio"
	KeyProcessing     Key = "processing"
	KeySongNotFound   Key = "song_not_found"
	KeyDownloadError  Key = "download_error"
	KeyEditInfo       Key = "edit_info"
	KeySendLink       Key = "send_link"
	KeyInvalidLink    Key = "invalid_link"
	KeySuccess        Key = "success"
	KeyError          Key = "error"
)

// Button caption keys.
const (
	BtnPersian          Key = "btn_persian"
	BtnEnglish          Key = "btn_english"
	BtnEditInfo         Key = "btn_edit_info"
	BtnDownloadFromLink Key = "btn_download_from_link"
	BtnBack             Key = "btn_back"
	BtnCancel           Key = "btn_cancel"
)

var messages = map[Locale]map[Key]string{
	Persian: {
		KeyStart: `🎵 به ربات موسیقی هوشمند خوش آمدید!

این ربات قابلیت‌های زیر را ارائه می‌دهد:

🔍 تشخیص آهنگ: ارسال فایل صوتی برای تشخیص خودکار آهنگ
📥 دانلود از پلتفرم‌ها: دانلود موسیقی از یوتیوب، اینستاگرام، تیک‌تاک، پینترست و ساندکلاد
🎼 جستجوی آهنگ: جستجوی آهنگ با استفاده از اینلاین کیبورد
🌍 چندزبانه: پشتیبانی از فارسی و انگلیسی

برای شروع از دستورات زیر استفاده کنید:
/start - شروع ربات
/language - تغییر زبان
/help - راهنما`,
		KeyLanguageSelect: "لطفاً زبان مورد نظر خود را انتخاب کنید:",
		KeySendAudio:      "لطفاً یک فایل صوتی ارسال کنید تا آهنگ را تشخیص دهم:",
		KeyProcessing:     "در حال پردازش... لطفاً صبر کنید",
		KeySongNotFound:   "متأسفانه آهنگی پیدا نشد. لطفاً دوباره تلاش کنید.",
		KeyDownloadError:  "خطا در دانلود فایل. لطفاً دوباره تلاش کنید.",
		KeyEditInfo:       "اطلاعات آهنگ را ویرایش کنید:",
		KeySendLink:       "لطفاً لینک مورد نظر را ارسال کنید:",
		KeyInvalidLink:    "لینک نامعتبر است. لطفاً لینک معتبر ارسال کنید.",
		KeySuccess:        "عملیات با موفقیت انجام شد!",
		KeyError:          "خطایی رخ داد. لطفاً دوباره تلاش کنید.",

		BtnPersian:          "فارسی 🇮🇷",
		BtnEnglish:          "English 🇺🇸",
		BtnEditInfo:         "ویرایش اطلاعات آهنگ",
		BtnDownloadFromLink: "دانلود از لینک",
		BtnBack:             "بازگشت",
		BtnCancel:           "لغو",
	},
	English: {
		KeyStart: `🎵 Welcome to the Smart Music Bot!

This bot provides the following features:

🔍 Song Recognition: Send audio file to automatically recognize the song
📥 Download from Platforms: Download music from YouTube, Instagram, TikTok, Pinterest, and SoundCloud
🎼 Song Search: Search songs using inline keyboard
🌍 Multi-language: Support for Persian and English

Use the following commands to start:
/start - Start the bot
/language - Change language
/help - Help`,
		KeyLanguageSelect: "Please select your preferred language:",
		KeySendAudio:      "Please send an audio file to recognize the song:",
		KeyProcessing:     "Processing... Please wait",
		KeySongNotFound:   "Unfortunately, no song was found. Please try again.",
		KeyDownloadError:  "Error downloading file. Please try again.",
		KeyEditInfo:       "Edit song information:",
		KeySendLink:       "Please send the desired link:",
		KeyInvalidLink:    "Invalid link. Please send a valid link.",
		KeySuccess:        "Operation completed successfully!",
		KeyError:          "An error occurred. Please try again.",

		BtnPersian:          "فارسی 🇮🇷",
		BtnEnglish:          "English 🇺🇸",
		BtnEditInfo:         "Edit Song Info",
		BtnDownloadFromLink: "Download from Link",
		BtnBack:             "Back",
		BtnCancel:           "Cancel",
	},
}

// Message resolves key for loc. Missing entries fall back to the other
// locale, then to the raw key string so a typo never renders an empty
// message.
func Message(loc Locale, key Key) string {
	if table, ok := messages[loc]; ok {
		if text, ok := table[key]; ok {
			return text
		}
	}
	other := Persian
	if loc == Persian {
		other = English
	}
	if text, ok := messages[other][key]; ok {
		return text
	}
	return string(key)
}

// Store holds per-user locale selections in memory. Selections do not
// survive a restart.
type Store struct {
	mu       sync.RWMutex
	locales  map[int64]Locale
	fallback Locale
}

// NewStore creates a Store with the given default locale.
func NewStore(fallback Locale) *Store {
	return &Store{
		locales:  make(map[int64]Locale),
		fallback: fallback,
	}
}

// Get returns the user's locale, or the default when unset.
func (s *Store) Get(userID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc, ok := s.locales[userID]; ok {
		return string(loc)
	}
	return string(s.fallback)
}

// Set records the user's locale.
func (s *Store) Set(userID int64, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locales[userID] = Parse(locale)
}

// Locale is Get with a typed result.
func (s *Store) Locale(userID int64) Locale {
	return Parse(s.Get(userID))
}
