package sched

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/flow"
	"vehicle-registration-bot/internal/usecase"
)

// DigestWorker periodically pushes a summary of requests still waiting for
// review to the admin chats, so submissions are not lost when the live
// notification went unnoticed.
type DigestWorker struct {
	interval time.Duration
	requests usecase.RequestUseCase
	bot      adapter.TelegramBotAdapter
	texts    flow.Texts
	adminIDs []int64
	log      *zerolog.Logger
}

func NewDigestWorker(
	interval time.Duration,
	requests usecase.RequestUseCase,
	bot adapter.TelegramBotAdapter,
	texts flow.Texts,
	adminIDs []int64,
	logger *zerolog.Logger,
) *DigestWorker {
	compLog := logger.With().Str("component", "DigestWorker").Logger()
	return &DigestWorker{
		interval: interval,
		requests: requests,
		bot:      bot,
		texts:    texts,
		adminIDs: adminIDs,
		log:      &compLog,
	}
}

func (w *DigestWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting digest worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping digest worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DigestWorker) runOnce(ctx context.Context) {
	pending, err := w.requests.ListByStatus(ctx, model.StatusSubmitted, 50)
	if err != nil {
		w.log.Error().Err(err).Msg("digest query failed")
		return
	}
	if len(pending) == 0 {
		return
	}
	var b strings.Builder
	for i, req := range pending {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("#REQ-" + req.ID)
	}
	text := w.texts.T("pending_digest", len(pending), b.String())
	for _, id := range w.adminIDs {
		if err := w.bot.SendMessage(ctx, id, text); err != nil {
			w.log.Warn().Err(err).Int64("admin_id", id).Msg("digest send failed")
		}
	}
	w.log.Info().Int("pending", len(pending)).Msg("digest sent")
}
