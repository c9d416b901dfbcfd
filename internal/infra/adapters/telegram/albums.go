package telegram

import (
	"sync"
	"time"

	"vehicle-registration-bot/internal/flow"
)

const albumFlushDelay = 1500 * time.Millisecond

// albumBuffer collapses the burst of single-photo updates Telegram sends for
// one media group into one album event. Each photo resets the flush timer;
// when the group goes quiet the buffered count is emitted as a single
// EventPhotoAlbum carrying the first file reference.
type albumBuffer struct {
	mu      sync.Mutex
	pending map[string]*pendingAlbum
	delay   time.Duration
	emit    func(conv flow.Conversation, ev flow.Event)
}

type pendingAlbum struct {
	conv    flow.Conversation
	fileIDs []string
	timer   *time.Timer
}

func newAlbumBuffer(delay time.Duration, emit func(conv flow.Conversation, ev flow.Event)) *albumBuffer {
	return &albumBuffer{
		pending: make(map[string]*pendingAlbum),
		delay:   delay,
		emit:    emit,
	}
}

func (b *albumBuffer) Add(groupID string, conv flow.Conversation, fileID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[groupID]
	if !ok {
		p = &pendingAlbum{conv: conv}
		p.timer = time.AfterFunc(b.delay, func() { b.flush(groupID) })
		b.pending[groupID] = p
	} else {
		p.timer.Reset(b.delay)
	}
	p.fileIDs = append(p.fileIDs, fileID)
}

func (b *albumBuffer) flush(groupID string) {
	b.mu.Lock()
	p, ok := b.pending[groupID]
	if ok {
		delete(b.pending, groupID)
	}
	b.mu.Unlock()
	if !ok || len(p.fileIDs) == 0 {
		return
	}
	b.emit(p.conv, flow.Event{
		Kind:      flow.EventPhotoAlbum,
		FileID:    p.fileIDs[0],
		AlbumSize: len(p.fileIDs),
	})
}

// Stop drops all buffered groups without emitting. Shutdown path only.
func (b *albumBuffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, p := range b.pending {
		p.timer.Stop()
		delete(b.pending, id)
	}
}
