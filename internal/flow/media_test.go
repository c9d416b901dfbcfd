//go:build !integration

package flow

import "testing"

func TestSlotRequirements(t *testing.T) {
	if got := SlotAutoPhoto.Required(); got != 4 {
		t.Errorf("auto = %d", got)
	}
	if got := SlotStsPhoto.Required(); got != 2 {
		t.Errorf("sts = %d", got)
	}
	if got := SlotGenericPhoto.Required(); got != 4 {
		t.Errorf("generic = %d", got)
	}
}

func TestRecordPhotos(t *testing.T) {
	t.Run("accumulates across deliveries", func(t *testing.T) {
		sess := &Session{}
		count, complete := RecordPhotos(sess, SlotAutoPhoto, 1)
		if count != 1 || complete {
			t.Fatalf("got %d, %v", count, complete)
		}
		count, complete = RecordPhotos(sess, SlotAutoPhoto, 2)
		if count != 3 || complete {
			t.Fatalf("got %d, %v", count, complete)
		}
		count, complete = RecordPhotos(sess, SlotAutoPhoto, 1)
		if count != 4 || !complete {
			t.Fatalf("got %d, %v", count, complete)
		}
	})

	t.Run("caps at the requirement", func(t *testing.T) {
		sess := &Session{}
		count, complete := RecordPhotos(sess, SlotStsPhoto, 9)
		if count != 2 || !complete {
			t.Fatalf("got %d, %v", count, complete)
		}
	})

	t.Run("slots count independently", func(t *testing.T) {
		sess := &Session{}
		RecordPhotos(sess, SlotAutoPhoto, 4)
		count, complete := RecordPhotos(sess, SlotStsPhoto, 1)
		if count != 1 || complete {
			t.Fatalf("got %d, %v", count, complete)
		}
	})

	t.Run("non-positive delta is a no-op", func(t *testing.T) {
		sess := &Session{}
		count, complete := RecordPhotos(sess, SlotAutoPhoto, 0)
		if count != 0 || complete {
			t.Fatalf("got %d, %v", count, complete)
		}
	})
}
