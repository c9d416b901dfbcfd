package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/domain/ports/repository"
	"vehicle-registration-bot/internal/infra/worker"
)

var _ adapter.PhotoArchiver = (*Uploader)(nil)

// Uploader downloads uploaded photos from Telegram into the local uploads
// directory via the shared worker pool. In fake-files mode nothing is
// downloaded and files keep only their platform reference; useful for
// development without disk traffic.
type Uploader struct {
	bot       *tgbotapi.BotAPI
	files     repository.FileRepository
	pool      *worker.Pool
	dir       string
	fakeFiles bool
	client    *http.Client
	log       *zerolog.Logger
}

func NewUploader(bot *tgbotapi.BotAPI, files repository.FileRepository, pool *worker.Pool, dir string, fakeFiles bool, logger *zerolog.Logger) *Uploader {
	return &Uploader{
		bot:       bot,
		files:     files,
		pool:      pool,
		dir:       dir,
		fakeFiles: fakeFiles,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       logger,
	}
}

func (u *Uploader) Enqueue(fileID, requestID, telegramFileID string) {
	if u.fakeFiles {
		return
	}
	err := u.pool.Submit(func(ctx context.Context) error {
		return u.download(ctx, fileID, requestID, telegramFileID)
	})
	if err != nil {
		// Dropped downloads are recoverable: the platform reference stays on
		// the file row.
		u.log.Warn().Err(err).Str("file_id", fileID).Msg("photo download dropped")
	}
}

func (u *Uploader) download(ctx context.Context, fileID, requestID, telegramFileID string) error {
	tf, err := u.bot.GetFile(tgbotapi.FileConfig{FileID: telegramFileID})
	if err != nil {
		return fmt.Errorf("get file %s: %w", telegramFileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tf.Link(u.bot.Token), nil)
	if err != nil {
		return err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", telegramFileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", telegramFileID, resp.Status)
	}

	dir := filepath.Join(u.dir, requestID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, fileID+".jpg")
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := u.files.UpdateLocalPath(ctx, repository.NoTX, fileID, path); err != nil {
		return err
	}
	u.log.Debug().Str("file_id", fileID).Str("path", path).Msg("photo archived")
	return nil
}
