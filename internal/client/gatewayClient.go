package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/model"
)

// Transport-level failures, classified for the error taxonomy. Payment
// rejections are not errors; they come back as a tagged result.
var (
	ErrGatewayUnauthorized = errors.New("gateway rejected credentials")
	ErrGatewayForbidden    = errors.New("gateway forbade the operation")
	ErrGatewayUnavailable  = errors.New("gateway temporarily unavailable")
)

type GatewayClient interface {
	SubmitIntent(ctx context.Context, intent *model.PaymentIntent) (*model.GatewayResult, error)
	GetOrderStatus(ctx context.Context, intentID string) (*model.OrderStatus, error)
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

func NewGatewayClient(cfg *config.Gateway) GatewayClient {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		apiKey:     cfg.APIKey,
	}
}

// SubmitIntent performs a single submission attempt. It never retries: a
// duplicate submission could charge the buyer twice, so any retry must be an
// explicit user-initiated resubmission upstream.
func (c *gatewayClientImpl) SubmitIntent(ctx context.Context, intent *model.PaymentIntent) (*model.GatewayResult, error) {
	body, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("marshal payment intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/payments", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrGatewayUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrGatewayForbidden
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	result, err := DecodeGatewayResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return result, nil
}

func (c *gatewayClientImpl) GetOrderStatus(ctx context.Context, intentID string) (*model.OrderStatus, error) {
	url := fmt.Sprintf("%s/v1/payments/%s/status", c.baseApiURL, intentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("order status error %d: %s", resp.StatusCode, string(b))
	}

	var status model.OrderStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode order status: %w", err)
	}
	return &status, nil
}

// gatewayEnvelope is the union of every response shape the gateway is known to
// produce, across the current generation (pagamento/subscription blocks) and
// the legacy one (top-level qr/link fields).
type gatewayEnvelope struct {
	Error *model.GatewayError `json:"error"`

	Pagamento *struct {
		Tipo string `json:"tipo"`
		model.PixArtifact
		model.BoletoArtifact
	} `json:"pagamento"`

	Subscription *struct {
		RedirectURL string `json:"redirectUrl"`
	} `json:"subscription"`

	// legacy generation
	QRCode      string `json:"qrCode"`
	QRImage     string `json:"qrCodeImagem"`
	PaymentLink string `json:"paymentLink"`

	Status string `json:"status"`
	Detail string `json:"statusDetail"`
}

// DecodeGatewayResponse parses a gateway body once into a tagged result,
// resolving shape alternatives in a fixed priority order: explicit error,
// pix artifact, boleto artifact, redirect, legacy fields, terminal status.
func DecodeGatewayResponse(raw []byte) (*model.GatewayResult, error) {
	var env gatewayEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	switch {
	case env.Error != nil:
		return &model.GatewayResult{Kind: model.ResultError, Err: env.Error}, nil

	case env.Pagamento != nil && env.Pagamento.Tipo == "pix":
		pix := env.Pagamento.PixArtifact
		return &model.GatewayResult{Kind: model.ResultPix, Pix: &pix}, nil

	case env.Pagamento != nil && env.Pagamento.Tipo == "boleto":
		boleto := env.Pagamento.BoletoArtifact
		return &model.GatewayResult{Kind: model.ResultBoleto, Boleto: &boleto}, nil

	case env.Subscription != nil && env.Subscription.RedirectURL != "":
		return &model.GatewayResult{
			Kind:     model.ResultRedirect,
			Redirect: &model.RedirectRequired{URL: env.Subscription.RedirectURL},
		}, nil

	case env.QRCode != "":
		return &model.GatewayResult{
			Kind: model.ResultPix,
			Pix:  &model.PixArtifact{Code: env.QRCode, QRImage: env.QRImage},
		}, nil

	case env.PaymentLink != "":
		return &model.GatewayResult{
			Kind:     model.ResultRedirect,
			Redirect: &model.RedirectRequired{URL: env.PaymentLink},
		}, nil

	case env.Status != "":
		return &model.GatewayResult{
			Kind:   model.ResultStatus,
			Status: &model.TerminalStatus{Status: env.Status, Detail: env.Detail},
		}, nil
	}

	return nil, fmt.Errorf("unrecognized gateway response shape: %s", string(raw))
}
