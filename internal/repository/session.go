package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"storefront-checkout/internal/model"
)

var ErrSessionNotFound = errors.New("checkout session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *model.CheckoutSession) error
	FindByID(ctx context.Context, sessionID string) (*model.CheckoutSession, error)

	// MarkProcessing moves PENDING → PROCESSING. Calling it on a session
	// already in PROCESSING is an idempotent no-op; terminal states are
	// never touched.
	MarkProcessing(ctx context.Context, sessionID string) error

	// MarkCompleted moves PROCESSING → COMPLETED.
	MarkCompleted(ctx context.Context, sessionID string) error

	// MarkExpired moves any non-terminal state → EXPIRED.
	MarkExpired(ctx context.Context, sessionID string) error

	// ClaimWarningNotification flips the one-shot warning flag and reports
	// whether this call won the claim. At most one caller ever gets true.
	ClaimWarningNotification(ctx context.Context, sessionID string) (bool, error)

	// ClaimExpiryNotification is the same one-shot claim for the expiry event.
	ClaimExpiryNotification(ctx context.Context, sessionID string) (bool, error)
}

type sessionRepoImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepoImpl{
		db: db,
	}
}

func (r *sessionRepoImpl) Create(ctx context.Context, session *model.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepoImpl) FindByID(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepoImpl) MarkProcessing(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).Model(&model.CheckoutSession{}).
		Where("id = ? AND status = ?", sessionID, model.SessionPending).
		Updates(map[string]interface{}{
			"status":     model.SessionProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Idempotent when the session is already processing; anything else
		// means the caller raced a terminal transition.
		return r.ensureStatus(ctx, sessionID, model.SessionProcessing)
	}
	return nil
}

func (r *sessionRepoImpl) MarkCompleted(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).Model(&model.CheckoutSession{}).
		Where("id = ? AND status = ?", sessionID, model.SessionProcessing).
		Updates(map[string]interface{}{
			"status":     model.SessionCompleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.ensureStatus(ctx, sessionID, model.SessionCompleted)
	}
	return nil
}

func (r *sessionRepoImpl) MarkExpired(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).Model(&model.CheckoutSession{}).
		Where("id = ? AND status NOT IN ?", sessionID,
			[]string{model.SessionCompleted, model.SessionExpired}).
		Updates(map[string]interface{}{
			"status":     model.SessionExpired,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	// Zero rows affected means the session was terminal already; expiring an
	// expired or completed session is a no-op.
	return nil
}

func (r *sessionRepoImpl) ClaimWarningNotification(ctx context.Context, sessionID string) (bool, error) {
	return r.claimFlag(ctx, sessionID, "warning_notified")
}

func (r *sessionRepoImpl) ClaimExpiryNotification(ctx context.Context, sessionID string) (bool, error) {
	return r.claimFlag(ctx, sessionID, "expiry_notified")
}

func (r *sessionRepoImpl) claimFlag(ctx context.Context, sessionID, column string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.CheckoutSession{}).
		Where("id = ? AND "+column+" = ?", sessionID, false).
		Updates(map[string]interface{}{
			column:       true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ensureStatus distinguishes an idempotent repeat from an illegal transition.
func (r *sessionRepoImpl) ensureStatus(ctx context.Context, sessionID, want string) error {
	session, err := r.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == want {
		return nil
	}
	return &IllegalTransitionError{SessionID: sessionID, From: session.Status, To: want}
}

type IllegalTransitionError struct {
	SessionID string
	From      string
	To        string
}

func (e *IllegalTransitionError) Error() string {
	return "illegal session transition from " + e.From + " to " + e.To + " for " + e.SessionID
}
