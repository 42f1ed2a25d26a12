package handler

import (
	"github.com/mymmrac/telego"

	"github.com/tuneid/TuneID-Go/bot/locale"
)

// Callback data values. The closed set mirrors the menu buttons.
const (
	cbLangFa       = "lang_fa"
	cbLangEn       = "lang_en"
	cbEditInfo     = "edit_info"
	cbDownloadLink = "download_link"
	cbBackToMain   = "back_to_main"
)

func languageKeyboard(loc locale.Locale) *telego.InlineKeyboardMarkup {
	return &telego.InlineKeyboardMarkup{InlineKeyboard: [][]telego.InlineKeyboardButton{
		{
			{Text: locale.Message(loc, locale.BtnPersian), CallbackData: cbLangFa},
			{Text: locale.Message(loc, locale.BtnEnglish), CallbackData: cbLangEn},
		},
	}}
}

func mainMenuKeyboard(loc locale.Locale) *telego.InlineKeyboardMarkup {
	return &telego.InlineKeyboardMarkup{InlineKeyboard: [][]telego.InlineKeyboardButton{
		{{Text: locale.Message(loc, locale.BtnEditInfo), CallbackData: cbEditInfo}},
		{{Text: locale.Message(loc, locale.BtnDownloadFromLink), CallbackData: cbDownloadLink}},
	}}
}

func backKeyboard(loc locale.Locale) *telego.InlineKeyboardMarkup {
	return &telego.InlineKeyboardMarkup{InlineKeyboard: [][]telego.InlineKeyboardButton{
		{{Text: locale.Message(loc, locale.BtnBack), CallbackData: cbBackToMain}},
	}}
}
