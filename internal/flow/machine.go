package flow

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/infra/metrics"
)

// Callback payloads shared between the engine's keyboards and the transport's
// event classification.
const (
	CbLightVehicle = "light_vehicle"
	CbCargoVehicle = "cargo_vehicle"
	CbCancel       = "cancel"
	CbBack         = "back"
)

// Texts resolves user-facing message keys (implemented by i18n.Translator).
type Texts interface {
	T(key string, args ...interface{}) string
}

// RequestSink is the persistence collaborator the engine commits flow data
// through. All methods are fallible with a distinguishable PersistenceError.
type RequestSink interface {
	// CreateDraft opens a draft request for a flow that will collect photos.
	CreateDraft(ctx context.Context, userID string, category model.Category, sess *Session) (*model.Request, error)
	// Finalize creates the request if the session has none yet and marks it
	// submitted. Idempotent on already-submitted requests.
	Finalize(ctx context.Context, userID string, category model.Category, sess *Session) (*model.Request, error)
	// Submit stamps an existing draft as submitted. Idempotent.
	Submit(ctx context.Context, requestID string) (*model.Request, error)
	// AttachPhoto records one uploaded photo against a request.
	AttachPhoto(ctx context.Context, requestID string, kind model.FileKind, fileID string) error
}

// TemplateSource exposes the read-only wrap-template catalog.
type TemplateSource interface {
	ListSelectable(ctx context.Context) ([]*model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
}

type transitionKey struct {
	state State
	kind  EventKind
}

type turn struct {
	conv  Conversation
	state State
	sess  *Session
	ev    Event
}

type transitionFunc func(ctx context.Context, t *turn) ([]Reply, error)

// Engine is the conversation state machine. The full transition graph lives in
// a single (state, event kind) table so it is enumerable and testable as data.
// Handle is a synchronous computation; persistence calls are awaited linearly
// and a failed call aborts the transition with the session untouched, so the
// triggering event can be retried.
type Engine struct {
	store      SessionStore
	requests   RequestSink
	templates  TemplateSource
	texts      Texts
	webBaseURL string
	log        *zerolog.Logger
	table      map[transitionKey]transitionFunc
}

func NewEngine(store SessionStore, requests RequestSink, templates TemplateSource, texts Texts, webBaseURL string, logger *zerolog.Logger) *Engine {
	e := &Engine{
		store:      store,
		requests:   requests,
		templates:  templates,
		texts:      texts,
		webBaseURL: webBaseURL,
		log:        logger,
	}
	e.table = map[transitionKey]transitionFunc{
		{StateChoosingBrand, EventButton}: e.handleBrandChoice,
		{StateChoosingBrand, EventText}:   e.repromptBrand,

		{StateEnteringYear, EventText}:   e.handleYear,
		{StateEnteringYear, EventButton}: e.repromptYear,

		{StateChoosingLicense, EventButton}: e.handleLicenseChoice,
		{StateChoosingLicense, EventText}:   e.repromptLicense,

		{StateChoosingLicenseOption, EventButton}:   e.handleLicenseOption,
		{StateChoosingNoLicenseOption, EventButton}: e.handleNoLicenseOption,

		{StateBrowsingTemplates, EventButton}: e.handleTemplateNav,
	}
	for st, slot := range map[State]PhotoSlot{
		StateSendingPhotos:        SlotGenericPhoto,
		StateSendingPhotosNoBrand: SlotGenericPhoto,
		StateSendingAutoPhotos:    SlotAutoPhoto,
		StateSendingStsPhotos:     SlotStsPhoto,
	} {
		slot := slot
		e.table[transitionKey{st, EventPhoto}] = func(ctx context.Context, t *turn) ([]Reply, error) {
			return e.handlePhoto(ctx, t, slot)
		}
		e.table[transitionKey{st, EventPhotoAlbum}] = func(ctx context.Context, t *turn) ([]Reply, error) {
			return e.handlePhotoAlbum(ctx, t, slot)
		}
		e.table[transitionKey{st, EventText}] = e.needPhoto
		e.table[transitionKey{st, EventButton}] = e.needPhoto
	}
	return e
}

// States enumerates every (state, event kind) pair the table handles. Exposed
// so tests can assert transition-graph completeness.
func (e *Engine) States() []State {
	seen := map[State]bool{}
	var out []State
	for k := range e.table {
		if !seen[k.state] {
			seen[k.state] = true
			out = append(out, k.state)
		}
	}
	return out
}

// Handle processes one classified event for one conversation and returns the
// outbound messages for the transport to render.
func (e *Engine) Handle(ctx context.Context, conv Conversation, ev Event) ([]Reply, error) {
	state, sess, err := e.store.Get(ctx, conv.ChatID)
	if err != nil {
		return nil, domain.Persistence("session get", err)
	}

	e.log.Debug().
		Int64("chat_id", conv.ChatID).
		Str("state", string(state)).
		Str("event", string(ev.Kind)).
		Msg("flow event")
	metrics.IncFlowEvent(string(state), string(ev.Kind))

	switch ev.Kind {
	case EventCancel:
		return e.cancel(ctx, conv)
	case EventBack:
		return e.back(ctx, conv, state)
	case EventCategory:
		return e.startCategory(ctx, conv, ev.Category)
	}

	t := &turn{conv: conv, state: state, sess: sess.clone(), ev: ev}
	fn, ok := e.table[transitionKey{state, ev.Kind}]
	if !ok {
		// Unhandled event-for-state combos collapse to idle instead of
		// crashing, same as an out-of-context "back".
		return e.resetToStart(ctx, conv)
	}
	return fn(ctx, t)
}

// ---- flow entry, cancel, back ----

func (e *Engine) startCategory(ctx context.Context, conv Conversation, category model.Category) ([]Reply, error) {
	switch category {
	case model.CategoryLight:
		if err := e.store.Put(ctx, conv.ChatID, StateChoosingBrand, &Session{}); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("brand_q"), Keyboard: e.kbYesNo()}}, nil
	case model.CategoryCargo:
		sess := &Session{}
		req, err := e.requests.CreateDraft(ctx, conv.UserID, model.CategoryCargo, sess)
		if err != nil {
			return nil, err
		}
		sess.RequestID = req.ID
		if err := e.store.Put(ctx, conv.ChatID, StateSendingAutoPhotos, sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{
			{Text: e.texts.T("cargo_intro"), Keyboard: e.kbCancel()},
			{Text: e.texts.T("send4_auto"), Keyboard: e.kbCancel()},
		}, nil
	default:
		return nil, domain.ErrInvalidArgument
	}
}

func (e *Engine) cancel(ctx context.Context, conv Conversation) ([]Reply, error) {
	if err := e.store.Clear(ctx, conv.ChatID); err != nil {
		return nil, domain.Persistence("session clear", err)
	}
	return []Reply{{Text: e.texts.T("cancelled"), Keyboard: e.kbMainMenu()}}, nil
}

func (e *Engine) back(ctx context.Context, conv Conversation, state State) ([]Reply, error) {
	// Only three states have an explicit predecessor; everywhere else "back"
	// behaves like cancel. Intentional simplification, keep it that way.
	switch state {
	case StateChoosingLicenseOption, StateChoosingNoLicenseOption:
		_, sess, err := e.store.Get(ctx, conv.ChatID)
		if err != nil {
			return nil, domain.Persistence("session get", err)
		}
		if err := e.store.Put(ctx, conv.ChatID, StateChoosingLicense, sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("back_text"), Keyboard: e.kbYesNo()}}, nil
	case StateEnteringYear:
		_, sess, err := e.store.Get(ctx, conv.ChatID)
		if err != nil {
			return nil, domain.Persistence("session get", err)
		}
		if err := e.store.Put(ctx, conv.ChatID, StateChoosingBrand, sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("back_text"), Keyboard: e.kbYesNo()}}, nil
	default:
		return e.resetToStart(ctx, conv)
	}
}

func (e *Engine) resetToStart(ctx context.Context, conv Conversation) ([]Reply, error) {
	if err := e.store.Clear(ctx, conv.ChatID); err != nil {
		return nil, domain.Persistence("session clear", err)
	}
	return []Reply{{Text: e.texts.T("back_to_start"), Keyboard: e.kbMainMenu()}}, nil
}

// ---- light vehicle ----

func (e *Engine) handleBrandChoice(ctx context.Context, t *turn) ([]Reply, error) {
	switch t.ev.Button {
	case BtnYes:
		yes := true
		t.sess.HasBrand = &yes
		req, err := e.requests.CreateDraft(ctx, t.conv.UserID, model.CategoryLight, t.sess)
		if err != nil {
			return nil, err
		}
		t.sess.RequestID = req.ID
		if err := e.store.Put(ctx, t.conv.ChatID, StateSendingPhotos, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("send4_auto"), Keyboard: e.kbCancel()}}, nil
	case BtnNo:
		no := false
		t.sess.HasBrand = &no
		if err := e.store.Put(ctx, t.conv.ChatID, StateEnteringYear, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("year_q", currentYear()), Keyboard: e.kbBackCancel()}}, nil
	default:
		return e.repromptBrand(ctx, t)
	}
}

func (e *Engine) repromptBrand(_ context.Context, t *turn) ([]Reply, error) {
	metrics.IncInputRejected(string(t.state))
	return []Reply{{Text: e.texts.T("brand_q"), Keyboard: e.kbYesNo()}}, nil
}

func (e *Engine) handleYear(ctx context.Context, t *turn) ([]Reply, error) {
	ok, year := ValidateYear(t.ev.Text)
	if !ok {
		metrics.IncInputRejected(string(t.state))
		return []Reply{{Text: e.texts.T("invalid_year", currentYear())}}, nil
	}
	t.sess.Year = &year
	if err := e.store.Put(ctx, t.conv.ChatID, StateChoosingLicense, t.sess); err != nil {
		return nil, domain.Persistence("session put", err)
	}
	return []Reply{{Text: e.texts.T("license_q"), Keyboard: e.kbYesNo()}}, nil
}

func (e *Engine) repromptYear(_ context.Context, t *turn) ([]Reply, error) {
	metrics.IncInputRejected(string(t.state))
	return []Reply{{Text: e.texts.T("invalid_year", currentYear())}}, nil
}

func (e *Engine) handleLicenseChoice(ctx context.Context, t *turn) ([]Reply, error) {
	switch t.ev.Button {
	case BtnYes:
		yes := true
		t.sess.HasLicense = &yes
		if err := e.store.Put(ctx, t.conv.ChatID, StateChoosingLicenseOption, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("license_options"), Keyboard: e.kbLicenseOptions()}}, nil
	case BtnNo:
		no := false
		t.sess.HasLicense = &no
		if err := e.store.Put(ctx, t.conv.ChatID, StateChoosingNoLicenseOption, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		text := e.texts.T("license_wrap") + "\n\n" + e.texts.T("no_license_options")
		return []Reply{{Text: text, Keyboard: e.kbNoLicenseOptions()}}, nil
	default:
		return e.repromptLicense(ctx, t)
	}
}

func (e *Engine) repromptLicense(_ context.Context, t *turn) ([]Reply, error) {
	metrics.IncInputRejected(string(t.state))
	return []Reply{{Text: e.texts.T("license_q"), Keyboard: e.kbYesNo()}}, nil
}

func (e *Engine) handleLicenseOption(ctx context.Context, t *turn) ([]Reply, error) {
	switch t.ev.Button {
	case BtnWrap, BtnPaidWrap:
		t.sess.LicenseOption = t.ev.Button
		req, err := e.requests.Finalize(ctx, t.conv.UserID, model.CategoryLight, t.sess)
		if err != nil {
			return nil, err
		}
		return e.completed(ctx, t.conv,
			Reply{Text: e.texts.T("chosen", e.optionLabel(t.ev.Button))},
			req,
		)
	case BtnReWrap:
		return e.startTemplateBrowsing(ctx, t)
	default:
		return []Reply{{Text: e.texts.T("license_options"), Keyboard: e.kbLicenseOptions()}}, nil
	}
}

func (e *Engine) handleNoLicenseOption(ctx context.Context, t *turn) ([]Reply, error) {
	switch t.ev.Button {
	case BtnReflectiveStrip, BtnFullWrapGost:
		t.sess.NoLicenseOption = t.ev.Button
		req, err := e.requests.Finalize(ctx, t.conv.UserID, model.CategoryLight, t.sess)
		if err != nil {
			return nil, err
		}
		chosen := e.texts.T("chosen", e.optionLabel(t.ev.Button)) + "\n\n" + e.texts.T("license_wrap")
		return e.completed(ctx, t.conv, Reply{Text: chosen}, req)
	default:
		text := e.texts.T("license_wrap") + "\n\n" + e.texts.T("no_license_options")
		return []Reply{{Text: text, Keyboard: e.kbNoLicenseOptions()}}, nil
	}
}

// ---- template browsing ----

func (e *Engine) startTemplateBrowsing(ctx context.Context, t *turn) ([]Reply, error) {
	templates, err := e.templates.ListSelectable(ctx)
	if err != nil {
		return nil, err
	}
	yes := true
	t.sess.HasLicense = &yes
	t.sess.LicenseOption = BtnReWrap

	if len(templates) == 0 {
		// Graceful degradation: no catalog means the re-wrap choice completes
		// like the other license options.
		req, err := e.requests.Finalize(ctx, t.conv.UserID, model.CategoryLight, t.sess)
		if err != nil {
			return nil, err
		}
		return e.completed(ctx, t.conv,
			Reply{Text: e.texts.T("no_templates_fallback")},
			req,
		)
	}

	ids := make([]string, 0, len(templates))
	for _, tpl := range templates {
		ids = append(ids, tpl.ID)
	}
	t.sess.TemplateIDs = ids
	t.sess.TemplateIndex = 0
	if err := e.store.Put(ctx, t.conv.ChatID, StateBrowsingTemplates, t.sess); err != nil {
		return nil, domain.Persistence("session put", err)
	}
	return []Reply{
		{Text: e.texts.T("re_wrap_queue")},
		e.templateCard(templates[0], 0, len(ids)),
	}, nil
}

func (e *Engine) handleTemplateNav(ctx context.Context, t *turn) ([]Reply, error) {
	total := len(t.sess.TemplateIDs)
	if total == 0 {
		return e.resetToStart(ctx, t.conv)
	}
	idx := t.sess.TemplateIndex

	switch t.ev.Button {
	case BtnTemplatePrev, BtnTemplateNext:
		next := idx
		if t.ev.Button == BtnTemplatePrev && idx > 0 {
			next = idx - 1
		}
		if t.ev.Button == BtnTemplateNext && idx < total-1 {
			next = idx + 1
		}
		if next == idx {
			// Clamped at the boundary: acknowledge, no state change.
			return nil, nil
		}
		tpl, err := e.templates.Get(ctx, t.sess.TemplateIDs[next])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return []Reply{{Text: e.texts.T("template_missing")}}, nil
			}
			return nil, err
		}
		t.sess.TemplateIndex = next
		if err := e.store.Put(ctx, t.conv.ChatID, StateBrowsingTemplates, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{e.templateCard(tpl, next, total)}, nil

	case BtnTemplateSelect:
		if idx >= total {
			return []Reply{{Text: e.texts.T("template_missing")}}, nil
		}
		tpl, err := e.templates.Get(ctx, t.sess.TemplateIDs[idx])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return []Reply{{Text: e.texts.T("template_missing")}}, nil
			}
			return nil, err
		}
		t.sess.SelectedTemplateID = tpl.ID
		req, err := e.requests.Finalize(ctx, t.conv.UserID, model.CategoryLight, t.sess)
		if err != nil {
			return nil, err
		}
		return e.completed(ctx, t.conv,
			Reply{Text: e.texts.T("template_chosen", tpl.Name)},
			req,
		)
	default:
		return nil, nil
	}
}

func (e *Engine) templateCard(tpl *model.Template, idx, total int) Reply {
	ref := tpl.TelegramFileID
	if ref == "" {
		ref = e.webBaseURL + "/uploads/" + path.Base(tpl.LocalPath)
	}
	caption := e.texts.T("template_caption", tpl.Name)
	if tpl.Description != "" {
		caption += "\n\n" + tpl.Description
	}
	return Reply{Text: caption, PhotoRef: ref, Keyboard: e.kbTemplateNav(idx, total)}
}

// ---- photo collection ----

func (e *Engine) handlePhoto(ctx context.Context, t *turn, slot PhotoSlot) ([]Reply, error) {
	if t.sess.RequestID != "" {
		kind := model.FileKindAutoPhoto
		if slot == SlotStsPhoto {
			kind = model.FileKindStsPhoto
		}
		if err := e.requests.AttachPhoto(ctx, t.sess.RequestID, kind, t.ev.FileID); err != nil {
			return nil, err
		}
	}
	count, complete := RecordPhotos(t.sess, slot, 1)
	return e.afterPhotos(ctx, t, slot, count, complete)
}

func (e *Engine) handlePhotoAlbum(ctx context.Context, t *turn, slot PhotoSlot) ([]Reply, error) {
	// Album delivery bumps the counter only; unlike single photos, no file
	// descriptors are recorded per album member. Known asymmetry carried over
	// from the observed behavior, pending a product decision.
	count, complete := RecordPhotos(t.sess, slot, t.ev.AlbumSize)
	metrics.IncPhotosReceived(string(slot), "album", t.ev.AlbumSize)
	return e.afterPhotos(ctx, t, slot, count, complete)
}

func (e *Engine) afterPhotos(ctx context.Context, t *turn, slot PhotoSlot, count int, complete bool) ([]Reply, error) {
	if !complete {
		if err := e.store.Put(ctx, t.conv.ChatID, t.state, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		key := "photo_progress"
		if slot == SlotStsPhoto {
			key = "sts_progress"
		}
		return []Reply{{Text: e.texts.T(key, count, slot.Required())}}, nil
	}

	// Cargo flow: the auto slot hands over to the STS slot before submission.
	if t.state == StateSendingAutoPhotos {
		if err := e.store.Put(ctx, t.conv.ChatID, StateSendingStsPhotos, t.sess); err != nil {
			return nil, domain.Persistence("session put", err)
		}
		return []Reply{{Text: e.texts.T("send2_sts"), Keyboard: e.kbCancel()}}, nil
	}

	var req *model.Request
	var err error
	if t.sess.RequestID != "" {
		req, err = e.requests.Submit(ctx, t.sess.RequestID)
	} else {
		category := model.CategoryLight
		if t.state == StateSendingStsPhotos {
			category = model.CategoryCargo
		}
		req, err = e.requests.Finalize(ctx, t.conv.UserID, category, t.sess)
	}
	if err != nil {
		return nil, err
	}
	return e.completed(ctx, t.conv, Reply{}, req)
}

func (e *Engine) needPhoto(_ context.Context, t *turn) ([]Reply, error) {
	metrics.IncInputRejected(string(t.state))
	return []Reply{{Text: e.texts.T("invalid_photo")}}, nil
}

// completed clears the session and appends the submission confirmation.
func (e *Engine) completed(ctx context.Context, conv Conversation, lead Reply, req *model.Request) ([]Reply, error) {
	if err := e.store.Clear(ctx, conv.ChatID); err != nil {
		return nil, domain.Persistence("session clear", err)
	}
	thanks := Reply{
		Text:     e.texts.T("thanks") + "\n\n" + e.texts.T("request_ref", req.ID),
		Keyboard: e.kbMainMenu(),
	}
	if lead.Text == "" {
		return []Reply{thanks}, nil
	}
	return []Reply{lead, thanks}, nil
}

// ---- keyboards ----

func (e *Engine) kbMainMenu() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: e.texts.T("btn_light"), Data: CbLightVehicle},
			{Text: e.texts.T("btn_cargo"), Data: CbCargoVehicle},
		},
	}
}

func (e *Engine) kbYesNo() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: e.texts.T("btn_yes"), Data: BtnYes},
			{Text: e.texts.T("btn_no"), Data: BtnNo},
		},
		{{Text: e.texts.T("btn_cancel"), Data: CbCancel}},
	}
}

func (e *Engine) kbCancel() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: e.texts.T("btn_cancel"), Data: CbCancel}},
	}
}

func (e *Engine) kbBackCancel() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: e.texts.T("btn_back"), Data: CbBack},
			{Text: e.texts.T("btn_cancel"), Data: CbCancel},
		},
	}
}

func (e *Engine) kbLicenseOptions() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: e.optionLabel(BtnWrap), Data: BtnWrap}},
		{{Text: e.optionLabel(BtnPaidWrap), Data: BtnPaidWrap}},
		{{Text: e.optionLabel(BtnReWrap), Data: BtnReWrap}},
		{
			{Text: e.texts.T("btn_back"), Data: CbBack},
			{Text: e.texts.T("btn_cancel"), Data: CbCancel},
		},
	}
}

func (e *Engine) kbNoLicenseOptions() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: e.optionLabel(BtnReflectiveStrip), Data: BtnReflectiveStrip}},
		{{Text: e.optionLabel(BtnFullWrapGost), Data: BtnFullWrapGost}},
		{
			{Text: e.texts.T("btn_back"), Data: CbBack},
			{Text: e.texts.T("btn_cancel"), Data: CbCancel},
		},
	}
}

func (e *Engine) kbTemplateNav(idx, total int) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: e.texts.T("btn_prev"), Data: BtnTemplatePrev},
			{Text: fmt.Sprintf("%d/%d", idx+1, total), Data: "noop"},
			{Text: e.texts.T("btn_next"), Data: BtnTemplateNext},
		},
		{{Text: e.texts.T("btn_select"), Data: BtnTemplateSelect}},
		{{Text: e.texts.T("btn_cancel"), Data: CbCancel}},
	}
}

func (e *Engine) optionLabel(code string) string {
	return e.texts.T("opt_" + code)
}
