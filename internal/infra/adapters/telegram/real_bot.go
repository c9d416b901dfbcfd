package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/config"
	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/flow"
	"vehicle-registration-bot/internal/infra/logging"
	"vehicle-registration-bot/internal/infra/metrics"
	red "vehicle-registration-bot/internal/infra/redis"
	"vehicle-registration-bot/internal/usecase"
)

const (
	messagesPerMinute = 30
	commandsPerMinute = 20
	convLockTTL       = 15 * time.Second
)

type job func(ctx context.Context)

// RealTelegramBotAdapter drives the Bot API: long-polls updates, classifies
// them into flow events, runs them through the conversation engine and
// renders the replies. Updates are sharded across workers by chat ID, so each
// conversation is handled by exactly one goroutine and events stay ordered.
type RealTelegramBotAdapter struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.BotConfig
	engine   *flow.Engine
	sessions flow.SessionStore
	users    usecase.UserUseCase
	requests usecase.RequestUseCase
	stats    usecase.StatsUseCase
	limiter  *red.RateLimiter // nil disables throttling (dev mode)
	locker   red.Locker       // nil disables cross-instance conversation locks
	texts    flow.Texts
	log      *zerolog.Logger

	adminIDs   map[int64]struct{}
	textRoutes map[string]flow.Event
	albums     *albumBuffer

	mu            sync.Mutex
	stopped       bool
	shards        []chan job
	workerWG      sync.WaitGroup
	dispatchWG    sync.WaitGroup
	cancelPolling context.CancelFunc
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)
var _ adapter.AdminNotifier = (*RealTelegramBotAdapter)(nil)

func NewRealTelegramBotAdapter(
	bot *tgbotapi.BotAPI,
	cfg *config.BotConfig,
	engine *flow.Engine,
	sessions flow.SessionStore,
	users usecase.UserUseCase,
	requests usecase.RequestUseCase,
	stats usecase.StatsUseCase,
	limiter *red.RateLimiter,
	locker red.Locker,
	texts flow.Texts,
	logger *zerolog.Logger,
) *RealTelegramBotAdapter {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	r := &RealTelegramBotAdapter{
		bot:        bot,
		cfg:        cfg,
		engine:     engine,
		sessions:   sessions,
		users:      users,
		requests:   requests,
		stats:      stats,
		limiter:    limiter,
		locker:     locker,
		texts:      texts,
		log:        logger,
		adminIDs:   admins,
		textRoutes: buildTextRoutes(texts),
	}
	r.albums = newAlbumBuffer(albumFlushDelay, func(conv flow.Conversation, ev flow.Event) {
		r.submitToShard(conv.ChatID, func(ctx context.Context) {
			r.runEvent(ctx, conv, ev)
		})
	})
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")
	return r
}

// StartPolling launches the update loop and the shard workers. Blocks until
// the updates channel is wired, then returns; call StopPolling to shut down.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	r.shards = make([]chan job, workers)
	for i := range r.shards {
		ch := make(chan job, 64)
		r.shards[i] = ch
		r.workerWG.Add(1)
		go func() {
			defer r.workerWG.Done()
			for j := range ch {
				j(pollCtx)
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := r.bot.GetUpdatesChan(u)

	r.dispatchWG.Add(1)
	go func() {
		defer r.dispatchWG.Done()
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				up := update
				r.submitToShard(chatIDOf(&up), func(ctx context.Context) {
					r.handleUpdate(ctx, &up)
				})
			}
		}
	}()
	r.log.Info().Int("workers", workers).Msg("telegram polling started")
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
	r.bot.StopReceivingUpdates()
	r.dispatchWG.Wait()
	r.albums.Stop()

	// Nothing submits past this point; draining workers can exit.
	r.mu.Lock()
	r.stopped = true
	for _, ch := range r.shards {
		close(ch)
	}
	r.mu.Unlock()
	r.workerWG.Wait()
	r.log.Info().Msg("telegram polling stopped")
}

// submitToShard routes work for one chat to its dedicated worker. Same chat,
// same shard; ordering within a conversation is preserved.
func (r *RealTelegramBotAdapter) submitToShard(chatID int64, j job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || len(r.shards) == 0 {
		return
	}
	idx := int(uint64(chatID) % uint64(len(r.shards)))
	select {
	case r.shards[idx] <- j:
	default:
		r.log.Warn().Int64("chat_id", chatID).Msg("shard queue full, update dropped")
	}
}

func chatIDOf(up *tgbotapi.Update) int64 {
	if chat := up.FromChat(); chat != nil {
		return chat.ID
	}
	return 0
}

// ---- update handling ----

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, up *tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("update handler panic")
		}
	}()
	switch {
	case up.CallbackQuery != nil:
		r.handleCallback(ctx, up.CallbackQuery)
	case up.Message != nil:
		r.handleMessage(ctx, up.Message)
	}
}

func (r *RealTelegramBotAdapter) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Always answer the query so the client stops the spinner.
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(q.ID, "")) }()
	if q.From == nil || q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	if !r.allow(ctx, red.UserMessageKey(q.From.ID), chatID) {
		return
	}
	conv, err := r.resolveConversation(ctx, chatID, q.From)
	if err != nil {
		r.sendError(ctx, chatID, err)
		return
	}
	r.runEvent(ctx, conv, classifyCallback(q.Data))
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	chatID := msg.Chat.ID
	if !r.allow(ctx, red.UserMessageKey(msg.From.ID), chatID) {
		return
	}
	conv, err := r.resolveConversation(ctx, chatID, msg.From)
	if err != nil {
		r.sendError(ctx, chatID, err)
		return
	}

	switch {
	case msg.IsCommand():
		r.handleCommand(ctx, conv, msg)
	case len(msg.Photo) > 0:
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		if msg.MediaGroupID != "" {
			r.albums.Add(msg.MediaGroupID, conv, fileID)
			return
		}
		r.runEvent(ctx, conv, flow.Event{Kind: flow.EventPhoto, FileID: fileID})
	default:
		// Documents, stickers, voice and the rest classify as text; photo
		// states reprompt with the accepted formats.
		r.runEvent(ctx, conv, classifyText(r.textRoutes, msg.Text))
	}
}

// resolveConversation upserts the sender and binds the chat to a domain user.
func (r *RealTelegramBotAdapter) resolveConversation(ctx context.Context, chatID int64, from *tgbotapi.User) (flow.Conversation, error) {
	ctx = logging.WithTgID(ctx, from.ID)
	du, err := r.users.RegisterOrFetch(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
	if err != nil {
		return flow.Conversation{}, err
	}
	return flow.Conversation{ChatID: chatID, UserID: du.ID}, nil
}

// runEvent serializes one event through the engine under the conversation
// lock and renders the replies.
func (r *RealTelegramBotAdapter) runEvent(ctx context.Context, conv flow.Conversation, ev flow.Event) {
	if r.locker != nil {
		token, err := r.locker.TryLock(ctx, red.ConversationKey(conv.ChatID), convLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrConversationBusy) {
				r.send(ctx, conv.ChatID, r.texts.T("rate_limited"))
				return
			}
			r.log.Error().Err(err).Int64("chat_id", conv.ChatID).Msg("conversation lock")
			return
		}
		defer func() {
			if err := r.locker.Unlock(context.WithoutCancel(ctx), red.ConversationKey(conv.ChatID), token); err != nil {
				r.log.Warn().Err(err).Int64("chat_id", conv.ChatID).Msg("conversation unlock")
			}
		}()
	}

	replies, err := r.engine.Handle(ctx, conv, ev)
	if err != nil {
		r.sendError(ctx, conv.ChatID, err)
		return
	}
	r.render(ctx, conv.ChatID, replies)
}

func (r *RealTelegramBotAdapter) render(ctx context.Context, chatID int64, replies []flow.Reply) {
	for _, rep := range replies {
		var err error
		switch {
		case rep.PhotoRef != "":
			err = r.SendPhoto(ctx, chatID, rep.PhotoRef, rep.Text, rep.Keyboard)
		case len(rep.Keyboard) > 0:
			err = r.SendButtons(ctx, chatID, rep.Text, rep.Keyboard)
		default:
			err = r.SendMessage(ctx, chatID, rep.Text)
		}
		if err != nil {
			r.log.Error().Err(err).Int64("chat_id", chatID).Msg("send reply")
		}
	}
}

func (r *RealTelegramBotAdapter) sendError(ctx context.Context, chatID int64, err error) {
	r.log.Error().Err(err).Int64("chat_id", chatID).Msg("flow event failed")
	r.send(ctx, chatID, r.texts.T("generic_error"))
}

func (r *RealTelegramBotAdapter) send(ctx context.Context, chatID int64, text string) {
	if err := r.SendMessage(ctx, chatID, text); err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

// allow consults the per-user sliding window. Fail-open on limiter errors so
// a Redis hiccup does not mute the bot.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, key string, chatID int64) bool {
	if r.limiter == nil {
		return true
	}
	ok, err := r.limiter.Allow(ctx, key, messagesPerMinute, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter")
		return true
	}
	if !ok {
		r.send(ctx, chatID, r.texts.T("rate_limited"))
	}
	return ok
}

// ---- commands ----

func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, conv flow.Conversation, msg *tgbotapi.Message) {
	command := msg.Command()
	if r.limiter != nil {
		ok, err := r.limiter.Allow(ctx, red.UserCommandKey(msg.From.ID, command), commandsPerMinute, time.Minute)
		if err == nil && !ok {
			r.send(ctx, conv.ChatID, r.texts.T("rate_limited"))
			return
		}
	}

	switch command {
	case "start":
		r.handleStart(ctx, conv, msg.From.FirstName)
	case "stats", "pending", "approve", "reject", "find":
		r.handleAdminCommand(ctx, conv, msg)
	default:
		r.SendMainMenu(ctx, conv.ChatID, r.texts.T("main_menu_prompt"))
	}
}

func (r *RealTelegramBotAdapter) handleStart(ctx context.Context, conv flow.Conversation, firstName string) {
	// /start abandons whatever flow was in progress.
	if err := r.sessions.Clear(ctx, conv.ChatID); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", conv.ChatID).Msg("session clear on start")
	}
	r.SendMainMenu(ctx, conv.ChatID, r.texts.T("start_greeting", firstName))
}

// SendMainMenu posts the category keyboard with the given lead text.
func (r *RealTelegramBotAdapter) SendMainMenu(ctx context.Context, chatID int64, text string) {
	rows := [][]adapter.InlineButton{
		{
			{Text: r.texts.T("btn_light"), Data: flow.CbLightVehicle},
			{Text: r.texts.T("btn_cargo"), Data: flow.CbCargoVehicle},
		},
	}
	if err := r.SendButtons(ctx, chatID, text, rows); err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Msg("send main menu")
	}
}

func (r *RealTelegramBotAdapter) handleAdminCommand(ctx context.Context, conv flow.Conversation, msg *tgbotapi.Message) {
	command := msg.Command()
	if _, ok := r.adminIDs[msg.From.ID]; !ok {
		metrics.IncAdminCommand(command, "denied")
		r.send(ctx, conv.ChatID, r.texts.T("admin_only"))
		return
	}

	var err error
	switch command {
	case "stats":
		err = r.adminStats(ctx, conv.ChatID)
	case "pending":
		err = r.adminPending(ctx, conv.ChatID)
	case "approve":
		err = r.adminReview(ctx, conv, msg, true)
	case "reject":
		err = r.adminReview(ctx, conv, msg, false)
	case "find":
		err = r.adminFind(ctx, conv.ChatID, msg.CommandArguments())
	}
	status := "ok"
	if err != nil {
		status = "error"
		r.sendError(ctx, conv.ChatID, err)
	}
	metrics.IncAdminCommand(command, status)
}

func (r *RealTelegramBotAdapter) adminStats(ctx context.Context, chatID int64) error {
	users, byStatus, _, err := r.stats.Totals(ctx)
	if err != nil {
		return err
	}
	last24h, err := r.stats.SubmittedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	text := r.texts.T("admin_stats",
		users, last24h,
		byStatus[model.StatusDraft],
		byStatus[model.StatusSubmitted],
		byStatus[model.StatusApproved],
		byStatus[model.StatusRejected],
	)
	return r.SendMessage(ctx, chatID, text)
}

func (r *RealTelegramBotAdapter) adminPending(ctx context.Context, chatID int64) error {
	reqs, err := r.requests.ListByStatus(ctx, model.StatusSubmitted, 20)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return r.SendMessage(ctx, chatID, r.texts.T("admin_pending_none"))
	}
	var b strings.Builder
	b.WriteString(r.texts.T("admin_pending_header"))
	for _, req := range reqs {
		b.WriteString("\n")
		b.WriteString(formatRequestLine(req))
	}
	return r.SendMessage(ctx, chatID, b.String())
}

func (r *RealTelegramBotAdapter) adminReview(ctx context.Context, conv flow.Conversation, msg *tgbotapi.Message, approve bool) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return r.SendMessage(ctx, conv.ChatID, r.texts.T("admin_usage", "/"+msg.Command()))
	}
	req, err := r.requests.Review(ctx, id, approve, conv.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return r.SendMessage(ctx, conv.ChatID, r.texts.T("admin_not_found", id))
	case errors.Is(err, domain.ErrRequestImmutable), errors.Is(err, domain.ErrInvalidArgument):
		return r.SendMessage(ctx, conv.ChatID, r.texts.T("admin_already_reviewed", id))
	case err != nil:
		return err
	}
	key := "admin_approved"
	if !approve {
		key = "admin_rejected"
	}
	return r.SendMessage(ctx, conv.ChatID, r.texts.T(key, req.ID))
}

func (r *RealTelegramBotAdapter) adminFind(ctx context.Context, chatID int64, args string) error {
	id := strings.TrimSpace(args)
	if id == "" {
		return r.SendMessage(ctx, chatID, r.texts.T("admin_usage", "/find"))
	}
	req, err := r.requests.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return r.SendMessage(ctx, chatID, r.texts.T("admin_not_found", id))
	}
	if err != nil {
		return err
	}
	files, err := r.requests.Files(ctx, req.ID)
	if err != nil {
		return err
	}
	text := formatRequest(req) + fmt.Sprintf("\nФото: %d", len(files))
	return r.SendMessage(ctx, chatID, text)
}

// ---- admin notifications ----

// NotifySubmitted pushes a freshly submitted request to every admin chat.
// Best-effort: failures are logged, never propagated into the user flow.
func (r *RealTelegramBotAdapter) NotifySubmitted(ctx context.Context, req *model.Request) {
	text := r.texts.T("admin_new_request", formatRequest(req))
	for id := range r.adminIDs {
		if err := r.SendMessage(ctx, id, text); err != nil {
			r.log.Warn().Err(err).Int64("admin_id", id).Msg("admin notify")
		}
	}
}

func formatRequestLine(req *model.Request) string {
	return fmt.Sprintf("#REQ-%s · %s · %s", req.ID, req.Category, req.Status)
}

func formatRequest(req *model.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#REQ-%s\nКатегория: %s\nСтатус: %s", req.ID, req.Category, req.Status)
	if req.HasBrand != nil {
		fmt.Fprintf(&b, "\nБренд: %s", yesNo(*req.HasBrand))
	}
	if req.Year != nil {
		fmt.Fprintf(&b, "\nГод: %d", *req.Year)
	}
	if req.HasLicense != nil {
		fmt.Fprintf(&b, "\nЛицензия: %s", yesNo(*req.HasLicense))
	}
	if req.LicenseOption != "" {
		fmt.Fprintf(&b, "\nВариант: %s", req.LicenseOption)
	}
	if req.NoLicenseOption != "" {
		fmt.Fprintf(&b, "\nВариант: %s", req.NoLicenseOption)
	}
	if req.SelectedTemplateID != "" {
		fmt.Fprintf(&b, "\nМакет: %s", req.SelectedTemplateID)
	}
	if req.SubmittedAt != nil {
		fmt.Fprintf(&b, "\nОтправлена: %s", req.SubmittedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// ---- outbound primitives ----

func (r *RealTelegramBotAdapter) SendMessage(_ context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	_, err := r.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) SendButtons(_ context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = inlineKeyboard(rows)
	_, err := r.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send buttons: %w", err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) SendPhoto(_ context.Context, telegramID int64, fileRef, caption string, rows [][]adapter.InlineButton) error {
	var file tgbotapi.RequestFileData
	if strings.HasPrefix(fileRef, "http://") || strings.HasPrefix(fileRef, "https://") {
		file = tgbotapi.FileURL(fileRef)
	} else {
		file = tgbotapi.FileID(fileRef)
	}
	msg := tgbotapi.NewPhoto(telegramID, file)
	msg.Caption = caption
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}
	_, err := r.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	return nil
}

func inlineKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			switch {
			case b.URL != "":
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			case b.Data != "":
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			default:
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Text))
			}
		}
		kb = append(kb, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}
