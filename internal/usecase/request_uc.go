package usecase

import (
	"context"
	"time"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/adapter"
	"vehicle-registration-bot/internal/domain/ports/repository"
	"vehicle-registration-bot/internal/flow"
	"vehicle-registration-bot/internal/infra/logging"
	"vehicle-registration-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time checks
var (
	_ RequestUseCase   = (*requestUC)(nil)
	_ flow.RequestSink = (*requestUC)(nil)
)

// RequestUseCase covers the write path driven by the conversation engine and
// the read/review path driven by administrators.
type RequestUseCase interface {
	flow.RequestSink

	Get(ctx context.Context, id string) (*model.Request, error)
	Files(ctx context.Context, requestID string) ([]*model.File, error)
	ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Request, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Request, error)
	Review(ctx context.Context, id string, approve bool, reviewerID string) (*model.Request, error)
}

type requestUC struct {
	requests repository.RequestRepository
	files    repository.FileRepository
	audits   repository.AuditRepository
	tm       repository.TransactionManager
	archiver adapter.PhotoArchiver // optional
	notifier adapter.AdminNotifier // optional, set after construction
	log      *zerolog.Logger
}

// SetNotifier wires the operator alert channel. A setter because the notifier
// (the bot adapter) is constructed after the use cases it depends on.
func (u *requestUC) SetNotifier(n adapter.AdminNotifier) { u.notifier = n }

func NewRequestUseCase(
	requests repository.RequestRepository,
	files repository.FileRepository,
	audits repository.AuditRepository,
	tm repository.TransactionManager,
	archiver adapter.PhotoArchiver,
	logger *zerolog.Logger,
) *requestUC {
	return &requestUC{
		requests: requests,
		files:    files,
		audits:   audits,
		tm:       tm,
		archiver: archiver,
		log:      logger,
	}
}

// applyAnswers copies the collected conversation answers onto the request.
// Unanswered questions stay nil/empty; the reviewer sees exactly what the
// user was asked.
func applyAnswers(r *model.Request, sess *flow.Session) {
	if sess == nil {
		return
	}
	r.HasBrand = sess.HasBrand
	r.Year = sess.Year
	r.HasLicense = sess.HasLicense
	r.LicenseOption = sess.LicenseOption
	r.NoLicenseOption = sess.NoLicenseOption
	r.SelectedTemplateID = sess.SelectedTemplateID
}

func (u *requestUC) CreateDraft(ctx context.Context, userID string, category model.Category, sess *flow.Session) (*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.CreateDraft")()

	req, err := model.NewRequest("", userID, category)
	if err != nil {
		return nil, err
	}
	applyAnswers(req, sess)

	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.requests.Save(ctx, tx, req); err != nil {
			return err
		}
		return u.audits.Append(ctx, tx, "request_created", map[string]string{
			"request_id": req.ID,
			"user_id":    req.UserID,
			"category":   string(req.Category),
		})
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("request_id", req.ID).Str("category", string(category)).Msg("draft request created")
	return req, nil
}

func (u *requestUC) Finalize(ctx context.Context, userID string, category model.Category, sess *flow.Session) (*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.Finalize")()

	// A session that already opened a draft finalizes it instead of creating
	// a duplicate.
	if sess != nil && sess.RequestID != "" {
		return u.submit(ctx, sess.RequestID, sess)
	}

	req, err := model.NewRequest("", userID, category)
	if err != nil {
		return nil, err
	}
	applyAnswers(req, sess)
	req.Submit(time.Now())

	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.requests.Save(ctx, tx, req); err != nil {
			return err
		}
		return u.audits.Append(ctx, tx, "request_submitted", map[string]string{
			"request_id": req.ID,
			"user_id":    req.UserID,
			"category":   string(req.Category),
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.IncRequestSubmitted(string(req.Category))
	u.log.Info().Str("request_id", req.ID).Msg("request submitted")
	return req, nil
}

func (u *requestUC) Submit(ctx context.Context, requestID string) (*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.Submit")()
	return u.submit(ctx, requestID, nil)
}

func (u *requestUC) submit(ctx context.Context, requestID string, sess *flow.Session) (*model.Request, error) {
	var req *model.Request
	var stamped bool

	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		r, err := u.requests.FindByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.ErrNotFound
		}
		if sess != nil {
			applyAnswers(r, sess)
		}
		stamped = r.Submit(time.Now())
		if !stamped && sess == nil {
			// Already submitted and nothing to update: idempotent no-op.
			req = r
			return nil
		}
		if err := u.requests.Save(ctx, tx, r); err != nil {
			return err
		}
		req = r
		if !stamped {
			return nil
		}
		return u.audits.Append(ctx, tx, "request_submitted", map[string]string{
			"request_id": r.ID,
			"user_id":    r.UserID,
			"category":   string(r.Category),
		})
	})
	if err != nil {
		return nil, err
	}
	if stamped {
		metrics.IncRequestSubmitted(string(req.Category))
		u.log.Info().Str("request_id", req.ID).Msg("request submitted")
		if u.notifier != nil {
			u.notifier.NotifySubmitted(ctx, req)
		}
	}
	return req, nil
}

func (u *requestUC) AttachPhoto(ctx context.Context, requestID string, kind model.FileKind, fileID string) error {
	defer logging.TraceDuration(u.log, "RequestUC.AttachPhoto")()

	f, err := model.NewFile(requestID, kind, fileID)
	if err != nil {
		return err
	}
	if err := u.files.Attach(ctx, repository.NoTX, f); err != nil {
		return err
	}
	metrics.IncPhotosReceived(string(kind), "single", 1)
	if u.archiver != nil {
		u.archiver.Enqueue(f.ID, f.RequestID, f.TelegramFileID)
	}
	return nil
}

func (u *requestUC) Get(ctx context.Context, id string) (*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.Get")()
	r, err := u.requests.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (u *requestUC) Files(ctx context.Context, requestID string) ([]*model.File, error) {
	defer logging.TraceDuration(u.log, "RequestUC.Files")()
	return u.files.ListByRequest(ctx, repository.NoTX, requestID)
}

func (u *requestUC) ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.ListByStatus")()
	return u.requests.ListByStatus(ctx, repository.NoTX, status, limit)
}

func (u *requestUC) ListRecent(ctx context.Context, limit int) ([]*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.ListRecent")()
	return u.requests.ListRecent(ctx, repository.NoTX, limit)
}

func (u *requestUC) ListByUser(ctx context.Context, userID string) ([]*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.ListByUser")()
	return u.requests.ListByUser(ctx, repository.NoTX, userID)
}

func (u *requestUC) Review(ctx context.Context, id string, approve bool, reviewerID string) (*model.Request, error) {
	defer logging.TraceDuration(u.log, "RequestUC.Review")()

	status := model.StatusRejected
	if approve {
		status = model.StatusApproved
	}

	var req *model.Request
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		r, err := u.requests.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.ErrNotFound
		}
		if err := r.Review(status, reviewerID, time.Now()); err != nil {
			return err
		}
		if err := u.requests.Save(ctx, tx, r); err != nil {
			return err
		}
		req = r
		return u.audits.Append(ctx, tx, "request_reviewed", map[string]string{
			"request_id": r.ID,
			"decision":   string(status),
			"reviewer":   reviewerID,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.IncReviewDecision(string(status))
	u.log.Info().Str("request_id", req.ID).Str("decision", string(status)).Msg("request reviewed")
	return req, nil
}
