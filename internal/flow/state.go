package flow

import "context"

// State identifies where a single conversation's registration flow sits.
type State string

const (
	// StateIdle means no active flow; it is also the default for unknown
	// conversations and the result of cancellation.
	StateIdle State = "idle"

	// Light-vehicle flow.
	StateChoosingBrand           State = "choosing_brand"
	StateSendingPhotos           State = "sending_photos"
	StateEnteringYear            State = "entering_year"
	StateChoosingLicense         State = "choosing_license"
	StateChoosingLicenseOption   State = "choosing_license_option"
	StateChoosingNoLicenseOption State = "choosing_no_license_option"
	StateSendingPhotosNoBrand    State = "sending_photos_no_brand"
	StateBrowsingTemplates       State = "browsing_templates"

	// Cargo-vehicle flow.
	StateSendingAutoPhotos State = "sending_auto_photos"
	StateSendingStsPhotos  State = "sending_sts_photos"
)

// photoStates are the states where the only acceptable input is a photo.
var photoStates = map[State]bool{
	StateSendingPhotos:        true,
	StateSendingPhotosNoBrand: true,
	StateSendingAutoPhotos:    true,
	StateSendingStsPhotos:     true,
}

// Session is the bag of answers accumulated by one conversation. Photo
// counters are monotone within a flow and never exceed their slot requirement;
// they reset only when the session is cleared.
type Session struct {
	HasBrand           *bool    `json:"has_brand,omitempty"`
	Year               *int     `json:"year,omitempty"`
	HasLicense         *bool    `json:"has_license,omitempty"`
	LicenseOption      string   `json:"license_option,omitempty"`
	NoLicenseOption    string   `json:"no_license_option,omitempty"`
	AutoPhotoCount     int      `json:"auto_photo_count,omitempty"`
	StsPhotoCount      int      `json:"sts_photo_count,omitempty"`
	PhotoCount         int      `json:"photo_count,omitempty"`
	RequestID          string   `json:"request_id,omitempty"`
	SelectedTemplateID string   `json:"selected_template_id,omitempty"`
	TemplateIDs        []string `json:"template_ids,omitempty"`
	TemplateIndex      int      `json:"template_index,omitempty"`
}

func (s *Session) clone() *Session {
	cp := *s
	if s.TemplateIDs != nil {
		cp.TemplateIDs = append([]string(nil), s.TemplateIDs...)
	}
	return &cp
}

// SessionStore keeps the in-progress state and answers per conversation.
// Get defaults to (StateIdle, empty) for unknown conversations. Put replaces
// the whole record (last write wins; callers are single-writer per
// conversation). Clear resets back to the default.
type SessionStore interface {
	Get(ctx context.Context, conversationID int64) (State, *Session, error)
	Put(ctx context.Context, conversationID int64, state State, sess *Session) error
	Clear(ctx context.Context, conversationID int64) error
}
