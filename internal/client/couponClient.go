package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/coupon"
)

// Rejection codes reported by the coupon service. The calculator never sees
// these; a coupon only reaches it once validation succeeded.
const (
	CouponNotFound               = "NOT_FOUND"
	CouponInactive               = "INACTIVE"
	CouponNotYetValid            = "NOT_YET_VALID"
	CouponExpired                = "EXPIRED"
	CouponExhausted              = "EXHAUSTED"
	CouponNotApplicable          = "NOT_APPLICABLE"
	CouponNotApplicableToProduct = "NOT_APPLICABLE_TO_PRODUCT"
	CouponFirstPurchaseOnly      = "FIRST_PURCHASE_ONLY"
)

// CouponRejectedError carries the service's rejection code so the caller can
// surface a reason-specific message without re-deriving policy locally.
type CouponRejectedError struct {
	Code string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon rejected: %s", e.Code)
}

type CouponClient interface {
	Validate(ctx context.Context, code, productID string) (*coupon.Coupon, error)
}

type couponClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

func NewCouponClient(cfg *config.Coupon) CouponClient {
	return &couponClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *couponClientImpl) Validate(ctx context.Context, code, productID string) (*coupon.Coupon, error) {
	payload := map[string]string{
		"code":      code,
		"productId": productID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal coupon request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/coupons/validate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coupon service request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success   bool           `json:"success"`
		Coupon    *coupon.Coupon `json:"coupon"`
		ErrorCode string         `json:"errorCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode coupon response: %w", err)
	}

	if !result.Success {
		return nil, &CouponRejectedError{Code: result.ErrorCode}
	}
	if result.Coupon == nil {
		return nil, fmt.Errorf("coupon service returned success without a coupon")
	}
	return result.Coupon, nil
}
