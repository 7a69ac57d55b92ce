package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/coupon"
	"storefront-checkout/internal/dto"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/repository"
)

// Orchestrator states. An error never dead-ends the flow: it records the
// message and returns control to payment selection.
const (
	StateSelectPayment = "select_payment"
	StateProcessing    = "processing"
	StateComplete      = "complete"
	StateError         = "error"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, productID, originURL string) (*dto.SessionResponse, error)
	LoadSession(ctx context.Context, sessionID, securityToken string, secureTransport bool) (*dto.CheckoutSnapshot, error)
	SelectMethod(ctx context.Context, sessionID string, method model.PaymentMethod, payer PayerData) error
	TokenizeCard(ctx context.Context, sessionID string, card *client.CardData) (*dto.CardTokenResponse, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*dto.AppliedCoupon, error)
	RemoveCoupon(ctx context.Context, sessionID string) error
	Submit(ctx context.Context, sessionID, buyerID string) (*dto.SubmitResult, error)
	Snapshot(ctx context.Context, sessionID string) (*dto.CheckoutSnapshot, error)
	Close()
}

// flow is the volatile, per-session orchestration state. The durable session
// record lives in the repository; everything here dies with the process, like
// the page state it replaces.
type flow struct {
	sessionID  string
	capability TransportCapability

	state  string
	method model.PaymentMethod
	payer  PayerData

	cardToken *client.CardToken

	coupon         *coupon.Coupon
	discountAmount decimal.Decimal

	pix              *model.PixArtifact
	boleto           *model.BoletoArtifact
	redirectURL      string
	lastIntentID     string
	paymentConfirmed bool
	expiringSoon     bool

	lastError *CheckoutError

	watcherStarted bool
	pollCancel     context.CancelFunc
}

type checkoutServiceImpl struct {
	cfg     config.Checkout
	baseURL string

	sessionRepo repository.SessionRepository
	productRepo repository.ProductRepository

	gatewayClient   client.GatewayClient
	couponClient    client.CouponClient
	tokenizerClient client.TokenizerClient
	notifier        Notifier

	mu    sync.Mutex
	flows map[string]*flow

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewCheckoutService(
	cfg config.Checkout,
	baseURL string,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
	gatewayClient client.GatewayClient,
	couponClient client.CouponClient,
	tokenizerClient client.TokenizerClient,
	notifier Notifier,
) CheckoutService {
	rootCtx, cancel := context.WithCancel(context.Background())
	if notifier == nil {
		notifier = NewLogNotifier()
	}
	return &checkoutServiceImpl{
		cfg:             cfg,
		baseURL:         baseURL,
		sessionRepo:     sessionRepo,
		productRepo:     productRepo,
		gatewayClient:   gatewayClient,
		couponClient:    couponClient,
		tokenizerClient: tokenizerClient,
		notifier:        notifier,
		flows:           make(map[string]*flow),
		rootCtx:         rootCtx,
		cancel:          cancel,
	}
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, productID, originURL string) (*dto.SessionResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, errSessionInvalid("Produto não encontrado.")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	now := time.Now()
	session := &model.CheckoutSession{
		ID:            ksuid.New().String(),
		SecurityToken: uuid.NewString(),
		ProductID:     product.ID,
		ProductName:   product.Name,
		ProductPrice:  product.Price,
		Currency:      product.Currency,
		OriginURL:     originURL,
		Status:        model.SessionPending,
		ExpiresAt:     now.Add(s.cfg.SessionWindow),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &dto.SessionResponse{
		SessionID:     session.ID,
		SecurityToken: session.SecurityToken,
		ProductID:     session.ProductID,
		ProductName:   session.ProductName,
		ProductPrice:  session.ProductPrice,
		Currency:      session.Currency,
		ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// LoadSession validates a session and brings it into the live flow set. A
// session that is missing, tampered, completed or past its deadline is
// rejected here and never enters the state machine.
func (s *checkoutServiceImpl) LoadSession(ctx context.Context, sessionID, securityToken string, secureTransport bool) (*dto.CheckoutSnapshot, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errSessionInvalid("Sessão de compra não encontrada. Inicie a compra novamente.")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	if session.SecurityToken != "" && session.SecurityToken != securityToken {
		return nil, &CheckoutError{
			Code:      CodeSessionTampered,
			Message:   "Sessão de compra inválida. Inicie a compra novamente.",
			Retryable: false,
		}
	}

	if session.Status == model.SessionCompleted {
		return nil, errSessionInvalid("Esta compra já foi concluída.")
	}

	now := time.Now()
	if !session.Live(now) {
		_ = s.sessionRepo.MarkExpired(ctx, sessionID)
		return nil, errSessionExpired()
	}

	s.mu.Lock()
	fl, ok := s.flows[sessionID]
	if !ok {
		fl = &flow{
			sessionID: sessionID,
			state:     StateSelectPayment,
			capability: TransportCapability{
				DirectTokenization: s.cfg.DirectTokenization && secureTransport,
			},
		}
		s.flows[sessionID] = fl
	}
	if !fl.watcherStarted {
		fl.watcherStarted = true
		s.wg.Add(1)
		go s.watch(sessionID)
	}
	snapshot := s.snapshotLocked(session, fl)
	s.mu.Unlock()

	return snapshot, nil
}

func (s *checkoutServiceImpl) SelectMethod(ctx context.Context, sessionID string, method model.PaymentMethod, payer PayerData) error {
	_, fl, err := s.liveFlow(ctx, sessionID)
	if err != nil {
		return err
	}

	switch method {
	case model.MethodCard, model.MethodPix, model.MethodBoleto:
	default:
		return errIncomplete("Método de pagamento desconhecido.")
	}

	s.mu.Lock()
	fl.method = method
	fl.payer = payer
	if method != model.MethodCard {
		// A token obtained earlier belongs to the card flow only.
		fl.cardToken = nil
	}
	fl.state = StateSelectPayment
	fl.lastError = nil
	s.mu.Unlock()

	return nil
}

// TokenizeCard exchanges raw card data for a token. It refuses to run without
// the direct-tokenization capability; in that runtime the gateway-hosted page
// handles card entry and raw card data must not transit here at all.
func (s *checkoutServiceImpl) TokenizeCard(ctx context.Context, sessionID string, card *client.CardData) (*dto.CardTokenResponse, error) {
	_, fl, err := s.liveFlow(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	capability := fl.capability
	s.mu.Unlock()

	if !capability.DirectTokenization {
		return nil, &CheckoutError{
			Code:      CodeCardNotValidated,
			Message:   "Tokenização direta indisponível neste ambiente.",
			Retryable: false,
		}
	}

	token, err := s.tokenizerClient.Tokenize(ctx, card)
	if err != nil {
		return nil, &CheckoutError{
			Code:      CodeCardNotValidated,
			Message:   "Não foi possível validar o cartão. Confira os dados e tente novamente.",
			Retryable: true,
		}
	}

	s.mu.Lock()
	fl.cardToken = token
	s.mu.Unlock()

	return &dto.CardTokenResponse{
		Brand:          token.Brand,
		LastFourDigits: token.LastFourDigits,
	}, nil
}

func (s *checkoutServiceImpl) ApplyCoupon(ctx context.Context, sessionID, code string) (*dto.AppliedCoupon, error) {
	session, fl, err := s.liveFlow(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	validated, err := s.couponClient.Validate(ctx, code, session.ProductID)
	if err != nil {
		var rejected *client.CouponRejectedError
		if errors.As(err, &rejected) {
			// Applied-coupon state is untouched on rejection.
			return nil, errCoupon(rejected.Code)
		}
		return nil, errGatewayDown()
	}

	amount := coupon.Discount(*validated, session.ProductPrice)

	s.mu.Lock()
	fl.coupon = validated
	fl.discountAmount = amount
	s.mu.Unlock()

	return &dto.AppliedCoupon{
		Code:           validated.Code,
		DiscountType:   string(validated.DiscountType),
		DiscountValue:  validated.DiscountValue,
		DiscountAmount: amount,
		FinalPrice:     session.ProductPrice.Sub(amount),
	}, nil
}

// RemoveCoupon clears the applied coupon unconditionally.
func (s *checkoutServiceImpl) RemoveCoupon(ctx context.Context, sessionID string) error {
	_, fl, err := s.liveFlow(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	fl.coupon = nil
	fl.discountAmount = decimal.Zero
	s.mu.Unlock()

	return nil
}

// Submit runs one payment attempt end to end. The gateway call happens
// exactly once per invocation; a duplicate charge is worse than asking the
// buyer to click again.
func (s *checkoutServiceImpl) Submit(ctx context.Context, sessionID, buyerID string) (*dto.SubmitResult, error) {
	if buyerID == "" {
		return nil, errAuthRequired()
	}

	session, fl, err := s.liveFlow(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	method := fl.method
	payer := fl.payer
	token := fl.cardToken
	capability := fl.capability
	couponCode := ""
	if fl.coupon != nil {
		couponCode = fl.coupon.Code
	}
	s.mu.Unlock()

	if method == "" {
		return nil, errIncomplete("Selecione um método de pagamento.")
	}

	// Incomplete selections are rejected before the session or the gateway
	// is touched; the session never leaves PENDING for them.
	if verr := validateSelection(method, payer, token, capability); verr != nil {
		s.recordError(fl, verr)
		return nil, verr
	}

	if err := s.sessionRepo.MarkProcessing(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("mark session processing: %w", err)
	}
	s.setState(fl, StateProcessing)

	intent := buildIntent(session, buyerID, method, payer, token, couponCode, s.baseURL)

	s.mu.Lock()
	fl.lastIntentID = intent.IntentID
	s.mu.Unlock()

	result, err := s.gatewayClient.SubmitIntent(ctx, intent)

	// The deadline keeps running while the gateway call is in flight. A
	// response landing after expiry is discarded, never applied.
	fresh, ferr := s.sessionRepo.FindByID(ctx, sessionID)
	if ferr == nil && (fresh.Status == model.SessionExpired || !time.Now().Before(fresh.ExpiresAt)) {
		_ = s.sessionRepo.MarkExpired(ctx, sessionID)
		s.terminateFlow(sessionID)
		return nil, errSessionExpired()
	}

	if err != nil {
		cerr := s.classifyTransport(err)
		s.recordError(fl, cerr)
		return nil, cerr
	}

	return s.applyResult(ctx, sessionID, fl, result)
}

// applyResult drives the session state machine from a decoded gateway result.
func (s *checkoutServiceImpl) applyResult(ctx context.Context, sessionID string, fl *flow, result *model.GatewayResult) (*dto.SubmitResult, error) {
	switch result.Kind {
	case model.ResultError:
		cerr := errFromGateway(result.Err)
		s.recordError(fl, cerr)
		return nil, cerr

	case model.ResultPix:
		if err := s.sessionRepo.MarkCompleted(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("mark session completed: %w", err)
		}
		s.mu.Lock()
		fl.pix = result.Pix
		fl.state = StateComplete
		fl.lastError = nil
		intentID := fl.lastIntentID
		s.mu.Unlock()
		s.startPoller(sessionID, intentID)
		return &dto.SubmitResult{Outcome: dto.OutcomePixPending, Pix: result.Pix}, nil

	case model.ResultBoleto:
		if err := s.sessionRepo.MarkCompleted(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("mark session completed: %w", err)
		}
		s.mu.Lock()
		fl.boleto = result.Boleto
		fl.state = StateComplete
		fl.lastError = nil
		intentID := fl.lastIntentID
		s.mu.Unlock()
		s.startPoller(sessionID, intentID)
		return &dto.SubmitResult{Outcome: dto.OutcomeBoletoPending, Boleto: result.Boleto}, nil

	case model.ResultRedirect:
		// Hand-off to the gateway-hosted page; a point of no return for the
		// in-page flow, so the session completes here.
		if err := s.sessionRepo.MarkCompleted(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("mark session completed: %w", err)
		}
		s.mu.Lock()
		fl.redirectURL = result.Redirect.URL
		fl.state = StateComplete
		fl.lastError = nil
		s.mu.Unlock()
		return &dto.SubmitResult{Outcome: dto.OutcomeRedirect, RedirectURL: result.Redirect.URL}, nil

	case model.ResultStatus:
		return s.applyTerminalStatus(ctx, sessionID, fl, result.Status)
	}

	cerr := errGatewayDown()
	s.recordError(fl, cerr)
	return nil, cerr
}

func (s *checkoutServiceImpl) applyTerminalStatus(ctx context.Context, sessionID string, fl *flow, status *model.TerminalStatus) (*dto.SubmitResult, error) {
	switch status.Status {
	case model.StatusApproved:
		if err := s.sessionRepo.MarkCompleted(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("mark session completed: %w", err)
		}
		s.mu.Lock()
		fl.state = StateComplete
		fl.paymentConfirmed = true
		fl.lastError = nil
		s.mu.Unlock()
		return &dto.SubmitResult{Outcome: dto.OutcomeApproved}, nil

	case model.StatusPending:
		if err := s.sessionRepo.MarkCompleted(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("mark session completed: %w", err)
		}
		s.mu.Lock()
		fl.state = StateComplete
		fl.lastError = nil
		intentID := fl.lastIntentID
		s.mu.Unlock()
		s.startPoller(sessionID, intentID)
		return &dto.SubmitResult{Outcome: dto.OutcomePending}, nil

	case model.StatusRejected:
		// A declined payment is a normal outcome, not an exception. The
		// session stays valid so the buyer can pick another method.
		cerr := errPaymentRejected(status.Detail)
		s.recordError(fl, cerr)
		return nil, cerr
	}

	cerr := errFromGateway(&model.GatewayError{Code: status.Status})
	s.recordError(fl, cerr)
	return nil, cerr
}

func (s *checkoutServiceImpl) Snapshot(ctx context.Context, sessionID string) (*dto.CheckoutSnapshot, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errSessionInvalid("Sessão de compra não encontrada.")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.flows[sessionID]
	if !ok {
		// A fabricated empty flow would misreport the transport capability;
		// the caller must load the session first.
		return nil, errSessionInvalid("Sessão de compra não carregada. Carregue a sessão antes de continuar.")
	}
	return s.snapshotLocked(session, fl), nil
}

func (s *checkoutServiceImpl) snapshotLocked(session *model.CheckoutSession, fl *flow) *dto.CheckoutSnapshot {
	now := time.Now()
	finalPrice := session.ProductPrice.Sub(fl.discountAmount)

	snapshot := &dto.CheckoutSnapshot{
		SessionID:          session.ID,
		Status:             session.Status,
		State:              fl.state,
		RemainingSeconds:   session.Remaining(now),
		ExpiringSoon:       session.WarningNotified || fl.expiringSoon,
		ProductID:          session.ProductID,
		ProductName:        session.ProductName,
		ProductPrice:       session.ProductPrice,
		Currency:           session.Currency,
		FinalPrice:         finalPrice,
		Method:             string(fl.method),
		DirectTokenization: fl.capability.DirectTokenization,
		Pix:                fl.pix,
		Boleto:             fl.boleto,
		RedirectURL:        fl.redirectURL,
		PaymentConfirmed:   fl.paymentConfirmed,
		OriginURL:          session.OriginURL,
		LastError:          fl.lastError,
	}

	if fl.cardToken != nil {
		snapshot.CardBrand = fl.cardToken.Brand
		snapshot.CardLastFour = fl.cardToken.LastFourDigits
	}
	if fl.coupon != nil {
		snapshot.AppliedCoupon = &dto.AppliedCoupon{
			Code:           fl.coupon.Code,
			DiscountType:   string(fl.coupon.DiscountType),
			DiscountValue:  fl.coupon.DiscountValue,
			DiscountAmount: fl.discountAmount,
			FinalPrice:     finalPrice,
		}
	}
	return snapshot
}

// Close stops every watcher and poller and waits for them to finish.
func (s *checkoutServiceImpl) Close() {
	s.cancel()
	s.wg.Wait()
}

// liveFlow loads the durable session, rejects terminal states and the expired
// deadline, and pairs the session with its in-memory flow. COMPLETED and
// EXPIRED sessions accept no further mutation; reads go through Snapshot.
func (s *checkoutServiceImpl) liveFlow(ctx context.Context, sessionID string) (*model.CheckoutSession, *flow, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, errSessionInvalid("Sessão de compra não encontrada.")
		}
		return nil, nil, fmt.Errorf("find session: %w", err)
	}

	if session.Status == model.SessionCompleted {
		return nil, nil, errSessionInvalid("Esta compra já foi concluída.")
	}
	if session.Status == model.SessionExpired {
		return nil, nil, errSessionExpired()
	}
	if !time.Now().Before(session.ExpiresAt) {
		_ = s.sessionRepo.MarkExpired(ctx, sessionID)
		s.terminateFlow(sessionID)
		return nil, nil, errSessionExpired()
	}

	s.mu.Lock()
	fl, ok := s.flows[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, errSessionInvalid("Sessão de compra não carregada. Carregue a sessão antes de continuar.")
	}

	return session, fl, nil
}

func (s *checkoutServiceImpl) recordError(fl *flow, cerr *CheckoutError) {
	s.mu.Lock()
	fl.lastError = cerr
	// Errors return control to payment selection instead of dead-ending.
	fl.state = StateSelectPayment
	s.mu.Unlock()
}

func (s *checkoutServiceImpl) setState(fl *flow, state string) {
	s.mu.Lock()
	fl.state = state
	s.mu.Unlock()
}

func (s *checkoutServiceImpl) terminateFlow(sessionID string) {
	s.mu.Lock()
	fl, ok := s.flows[sessionID]
	if ok {
		fl.state = StateError
		fl.lastError = errSessionExpired()
		if fl.pollCancel != nil {
			fl.pollCancel()
			fl.pollCancel = nil
		}
	}
	s.mu.Unlock()
}

func (s *checkoutServiceImpl) classifyTransport(err error) *CheckoutError {
	switch {
	case errors.Is(err, client.ErrGatewayUnauthorized):
		return errAuthRequired()
	case errors.Is(err, client.ErrGatewayForbidden):
		return errNotAuthorized()
	default:
		return errGatewayDown()
	}
}
