package flow

// PhotoSlot names a fixed-count photo requirement.
type PhotoSlot string

const (
	SlotAutoPhoto    PhotoSlot = "auto_photo"
	SlotStsPhoto     PhotoSlot = "sts_photo"
	SlotGenericPhoto PhotoSlot = "generic_photo"
)

const (
	autoPhotosRequired    = 4
	stsPhotosRequired     = 2
	genericPhotosRequired = 4
)

// Required returns the number of photos the slot needs.
func (s PhotoSlot) Required() int {
	switch s {
	case SlotStsPhoto:
		return stsPhotosRequired
	case SlotAutoPhoto:
		return autoPhotosRequired
	default:
		return genericPhotosRequired
	}
}

// RecordPhotos bumps the slot counter by n and reports the updated count and
// whether the slot is now complete. An oversized album fills the remaining
// slots and the counter is capped at the requirement, never above it.
func RecordPhotos(sess *Session, slot PhotoSlot, n int) (count int, complete bool) {
	if n < 1 {
		n = 0
	}
	required := slot.Required()
	var c *int
	switch slot {
	case SlotAutoPhoto:
		c = &sess.AutoPhotoCount
	case SlotStsPhoto:
		c = &sess.StsPhotoCount
	default:
		c = &sess.PhotoCount
	}
	*c += n
	if *c > required {
		*c = required
	}
	return *c, *c >= required
}
