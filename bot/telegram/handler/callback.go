package handler

import (
	"context"

	"github.com/mymmrac/telego"

	"github.com/tuneid/TuneID-Go/bot/locale"
)

// HandleCallback serves the menu buttons. Every query is answered so the
// client spinner always stops.
func (h *Handlers) HandleCallback(ctx context.Context, query *telego.CallbackQuery) {
	if query == nil {
		return
	}
	userID := query.From.ID

	var chatID int64
	var messageID int
	if query.Message != nil {
		if msg := query.Message.Message(); msg != nil {
			chatID = msg.Chat.ID
			messageID = msg.MessageID
		}
	}

	answer := func(text string) {
		if err := h.Sender.AnswerCallbackQuery(ctx, userID, query.ID, text); err != nil {
			h.Logger.Warn("answer callback query", "user_id", userID, "error", err)
		}
	}

	switch query.Data {
	case cbLangFa, cbLangEn:
		lang := "fa"
		if query.Data == cbLangEn {
			lang = "en"
		}
		h.Locales.Set(userID, lang)
		loc := h.locale(userID)
		answer(locale.Message(loc, locale.KeySuccess))
		if chatID != 0 {
			h.editStatus(ctx, chatID, messageID, locale.Message(loc, locale.KeyStart), mainMenuKeyboard(loc))
		}
		h.Logger.Info("locale changed", "user_id", userID, "locale", lang)

	case cbEditInfo:
		answer("")
		if chatID != 0 {
			loc := h.locale(userID)
			h.editStatus(ctx, chatID, messageID, locale.Message(loc, locale.KeyEditInfo), backKeyboard(loc))
		}

	case cbDownloadLink:
		answer("")
		if chatID != 0 {
			loc := h.locale(userID)
			h.editStatus(ctx, chatID, messageID, locale.Message(loc, locale.KeySendLink), backKeyboard(loc))
		}

	case cbBackToMain:
		answer("")
		if chatID != 0 {
			loc := h.locale(userID)
			h.editStatus(ctx, chatID, messageID, locale.Message(loc, locale.KeyStart), mainMenuKeyboard(loc))
		}

	default:
		answer("")
		h.Logger.Debug("unknown callback data", "data", query.Data, "user_id", userID)
	}
}
