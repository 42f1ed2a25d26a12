package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
)

// HandleInline answers inline search queries. Empty queries short-circuit
// before the search service is touched; any service error collapses to an
// empty result list.
func (h *Handlers) HandleInline(ctx context.Context, query *telego.InlineQuery) {
	if query == nil {
		return
	}
	userID := query.From.ID

	text := strings.TrimSpace(query.Query)
	if text == "" {
		h.answerInline(ctx, userID, query.ID, nil)
		return
	}

	limit := h.InlineSearchLimit
	if limit <= 0 {
		limit = 10
	}

	hits, err := h.Recognizer.Search(ctx, text, limit)
	if err != nil {
		h.Logger.Warn("inline search failed", "query", text, "error", err)
		h.answerInline(ctx, userID, query.ID, nil)
		return
	}

	results := make([]telego.InlineQueryResult, 0, len(hits))
	for i, hit := range hits {
		id := hit.Key
		if id == "" {
			id = fmt.Sprintf("%s-%d", query.ID, i)
		}
		article := &telego.InlineQueryResultArticle{
			Type:        telego.ResultTypeArticle,
			ID:          id,
			Title:       fmt.Sprintf("%s - %s", hit.Title, hit.Artist),
			Description: hit.Album,
			InputMessageContent: &telego.InputTextMessageContent{
				MessageText: FormatTrack(&hit),
			},
		}
		if hit.CoverURL != "" {
			article.ThumbnailURL = hit.CoverURL
		}
		results = append(results, article)
	}

	h.answerInline(ctx, userID, query.ID, results)
}

func (h *Handlers) answerInline(ctx context.Context, userID int64, queryID string, results []telego.InlineQueryResult) {
	if results == nil {
		results = []telego.InlineQueryResult{}
	}
	if err := h.Sender.AnswerInlineQuery(ctx, userID, queryID, results); err != nil {
		h.Logger.Warn("answer inline query", "user_id", userID, "error", err)
	}
}
