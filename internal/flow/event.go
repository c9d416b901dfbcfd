package flow

import (
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
)

// EventKind classifies one inbound user action. The transport delivers exactly
// one event per action; the engine consumes one event at a time per
// conversation.
type EventKind string

const (
	EventCategory   EventKind = "category_choice"
	EventButton     EventKind = "button"
	EventText       EventKind = "text"
	EventPhoto      EventKind = "photo"
	EventPhotoAlbum EventKind = "photo_album"
	EventCancel     EventKind = "cancel"
	EventBack       EventKind = "back"
)

// Button tags understood by the engine. The transport maps callback payloads
// and reply-menu texts onto these.
const (
	BtnYes             = "yes"
	BtnNo              = "no"
	BtnWrap            = "wrap"
	BtnPaidWrap        = "paid_wrap"
	BtnReWrap          = "re_wrap"
	BtnReflectiveStrip = "reflective_strips"
	BtnFullWrapGost    = "full_wrap_gost"
	BtnTemplatePrev    = "template_prev"
	BtnTemplateNext    = "template_next"
	BtnTemplateSelect  = "template_select"
)

// Event is one classified user action.
type Event struct {
	Kind      EventKind
	Category  model.Category // EventCategory
	Button    string         // EventButton
	Text      string         // EventText
	FileID    string         // EventPhoto: opaque transport media reference
	AlbumSize int            // EventPhotoAlbum
}

// Conversation identifies who the engine is talking to. ChatID keys the
// session store; UserID is the domain identity requests are filed under.
type Conversation struct {
	ChatID int64
	UserID string
}

// Reply is an outbound message descriptor for the transport to render.
// When PhotoRef is set the reply is a photo with Text as caption.
type Reply struct {
	Text     string
	Keyboard [][]adapter.InlineButton
	PhotoRef string
}
