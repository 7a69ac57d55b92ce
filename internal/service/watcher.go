package service

import (
	"context"
	"log"
	"time"

	"storefront-checkout/internal/model"
)

// Notifier receives the one-shot session lifecycle events. Implementations
// must be cheap; calls happen on the watcher goroutine.
type Notifier interface {
	SessionExpiring(sessionID string, remaining time.Duration)
	SessionExpired(sessionID, originURL string)
}

type logNotifier struct{}

func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) SessionExpiring(sessionID string, remaining time.Duration) {
	log.Printf("checkout session %s expiring in %s", sessionID, remaining.Round(time.Second))
}

func (n *logNotifier) SessionExpired(sessionID, originURL string) {
	log.Printf("checkout session %s expired, returning buyer to %s", sessionID, originURL)
}

// watch is the per-session expiration timer. It re-reads the session on every
// tick so it always acts on the freshest state, and relies on the persisted
// one-shot claims so each notification fires at most once no matter how many
// ticks cross the threshold.
func (s *checkoutServiceImpl) watch(sessionID string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.rootCtx.Done():
			return
		case <-ticker.C:
		}

		session, err := s.sessionRepo.FindByID(s.rootCtx, sessionID)
		if err != nil {
			return
		}
		if session.Status == model.SessionExpired || session.Status == model.SessionCompleted {
			return
		}

		remaining := time.Until(session.ExpiresAt)

		if remaining <= 0 {
			// The timer only ever requests the transition; the guarded
			// repository update owns the actual state change.
			won, err := s.sessionRepo.ClaimExpiryNotification(s.rootCtx, sessionID)
			if err == nil && won {
				_ = s.sessionRepo.MarkExpired(s.rootCtx, sessionID)
				s.terminateFlow(sessionID)
				s.notifier.SessionExpired(sessionID, session.OriginURL)
			}
			return
		}

		if remaining <= s.cfg.WarningThreshold {
			won, err := s.sessionRepo.ClaimWarningNotification(s.rootCtx, sessionID)
			if err == nil && won {
				s.mu.Lock()
				if fl, ok := s.flows[sessionID]; ok {
					fl.expiringSoon = true
				}
				s.mu.Unlock()
				s.notifier.SessionExpiring(sessionID, remaining)
			}
		}
	}
}

// startPoller begins the confirmation poll for payments that settle
// asynchronously (PIX, boleto, gateway-pending). It stops the moment the
// payment resolves, the session expires, or the service shuts down; it never
// outlives its session.
func (s *checkoutServiceImpl) startPoller(sessionID, intentID string) {
	if intentID == "" {
		return
	}

	pollCtx, cancel := context.WithCancel(s.rootCtx)

	s.mu.Lock()
	fl, ok := s.flows[sessionID]
	if !ok {
		s.mu.Unlock()
		cancel()
		return
	}
	if fl.pollCancel != nil {
		fl.pollCancel()
	}
	fl.pollCancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.poll(pollCtx, sessionID, intentID)
}

func (s *checkoutServiceImpl) poll(ctx context.Context, sessionID, intentID string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil || session.Status == model.SessionExpired {
			return
		}

		status, err := s.gatewayClient.GetOrderStatus(ctx, intentID)
		if err != nil {
			// Transient poll failures are retried on the next tick.
			continue
		}

		switch status.Status {
		case model.StatusApproved:
			s.mu.Lock()
			if fl, ok := s.flows[sessionID]; ok {
				fl.paymentConfirmed = true
				fl.pollCancel = nil
			}
			s.mu.Unlock()
			return
		case model.StatusRejected:
			s.mu.Lock()
			if fl, ok := s.flows[sessionID]; ok {
				fl.lastError = errPaymentRejected("")
				fl.pollCancel = nil
			}
			s.mu.Unlock()
			return
		}
	}
}
