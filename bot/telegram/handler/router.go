package handler

import (
	"context"
	"strings"
	"sync"

	"github.com/mymmrac/telego"

	botpkg "github.com/tuneid/TuneID-Go/bot"
	"github.com/tuneid/TuneID-Go/bot/locale"
	"github.com/tuneid/TuneID-Go/bot/worker"
)

// Router dispatches updates to the feature handlers. Updates are queued per
// conversation and drained in FIFO order with at most one handler in flight
// per conversation, so status-message edits never interleave within a chat.
// Cross-conversation parallelism is bounded by the worker pool.
type Router struct {
	Handlers *Handlers
	Pool     *worker.Pool
	Logger   botpkg.Logger

	mu     sync.Mutex
	queues map[int64][]telego.Update
	active map[int64]bool
}

// NewRouter creates a Router over the given handlers and pool.
func NewRouter(handlers *Handlers, pool *worker.Pool, logger botpkg.Logger) *Router {
	return &Router{
		Handlers: handlers,
		Pool:     pool,
		Logger:   logger,
		queues:   make(map[int64][]telego.Update),
		active:   make(map[int64]bool),
	}
}

// Run consumes the update channel until it closes or ctx is cancelled.
func (r *Router) Run(ctx context.Context, updates <-chan telego.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.Dispatch(ctx, update)
		}
	}
}

// Dispatch enqueues an update on its conversation queue and schedules a
// drain when none is running for that conversation.
func (r *Router) Dispatch(ctx context.Context, update telego.Update) {
	key := dispatchKey(update)

	r.mu.Lock()
	r.queues[key] = append(r.queues[key], update)
	if r.active[key] {
		r.mu.Unlock()
		return
	}
	r.active[key] = true
	r.mu.Unlock()

	err := r.Pool.Submit(func() {
		r.drain(ctx, key)
	})
	if err != nil {
		r.mu.Lock()
		r.active[key] = false
		delete(r.queues, key)
		r.mu.Unlock()
		r.Logger.Warn("dispatch rejected, pool closed", "key", key)
	}
}

func (r *Router) drain(ctx context.Context, key int64) {
	for {
		r.mu.Lock()
		queue := r.queues[key]
		if len(queue) == 0 {
			r.active[key] = false
			delete(r.queues, key)
			r.mu.Unlock()
			return
		}
		update := queue[0]
		r.queues[key] = queue[1:]
		r.mu.Unlock()

		r.handle(ctx, update)
	}
}

// dispatchKey groups updates into ordering domains: the chat for messages,
// the user for callback and inline queries.
func dispatchKey(update telego.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	case update.InlineQuery != nil:
		return update.InlineQuery.From.ID
	default:
		return 0
	}
}

// handle routes one update. A panicking handler is logged and answered with
// the localized generic error; the loop keeps serving.
func (r *Router) handle(ctx context.Context, update telego.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("handler panic", "panic", rec, "key", dispatchKey(update))
			r.replyGenericError(ctx, update)
		}
	}()

	h := r.Handlers
	switch {
	case update.Message != nil:
		message := update.Message
		switch {
		case strings.HasPrefix(message.Text, "/"):
			h.HandleCommand(ctx, message)
		case message.Audio != nil || message.Voice != nil:
			h.HandleAudio(ctx, message)
		case extractFirstURL(message.Text) != "":
			h.HandleLink(ctx, message)
		}
	case update.CallbackQuery != nil:
		h.HandleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		h.HandleInline(ctx, update.InlineQuery)
	}
}

func (r *Router) replyGenericError(ctx context.Context, update telego.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	text := locale.Message(r.Handlers.locale(message.From.ID), locale.KeyError)
	if _, err := r.Handlers.Sender.SendMessage(ctx, message.Chat.ID, text, nil); err != nil {
		r.Logger.Warn("send generic error reply", "chat_id", message.Chat.ID, "error", err)
	}
}
