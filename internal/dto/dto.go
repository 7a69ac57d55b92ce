package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/model"
)

// CheckoutError is the error shape surfaced to the caller. Retryable errors
// keep the session usable; the caller corrects input and resubmits.
type CheckoutError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type CreateSessionRequest struct {
	ProductID string `json:"productId" validate:"required"`
	OriginURL string `json:"originUrl" validate:"required,url"`
}

type SessionResponse struct {
	SessionID     string          `json:"sessionId"`
	SecurityToken string          `json:"securityToken"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	ProductPrice  decimal.Decimal `json:"productPrice"`
	Currency      string          `json:"currency"`
	ExpiresAt     string          `json:"expiresAt"`
}

type AddressRequest struct {
	ZipCode      string `json:"zipCode" validate:"omitempty,numeric,len=8"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state" validate:"omitempty,alpha,len=2"`
}

type PayerRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Document string         `json:"document" validate:"required"`
	Address  AddressRequest `json:"address"`
}

type SelectMethodRequest struct {
	Method string       `json:"method" validate:"required,oneof=card pix boleto"`
	Payer  PayerRequest `json:"payer" validate:"required"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type TokenizeCardRequest struct {
	Number       string `json:"number" validate:"required,numeric,min=13,max=19"`
	HolderName   string `json:"holderName" validate:"required"`
	ExpiryMonth  string `json:"expiryMonth" validate:"required,numeric,len=2"`
	ExpiryYear   string `json:"expiryYear" validate:"required,numeric,len=4"`
	SecurityCode string `json:"securityCode" validate:"required,numeric,min=3,max=4"`
}

type CardTokenResponse struct {
	Brand          string `json:"brand"`
	LastFourDigits string `json:"lastFourDigits"`
}

type AppliedCoupon struct {
	Code           string          `json:"code"`
	DiscountType   string          `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalPrice     decimal.Decimal `json:"finalPrice"`
}

// Submit outcomes. Exactly one artifact field is populated on the pending
// outcomes; redirect carries only the URL.
const (
	OutcomeApproved      = "approved"
	OutcomePixPending    = "pix_pending"
	OutcomeBoletoPending = "boleto_pending"
	OutcomeRedirect      = "redirect"
	OutcomePending       = "pending"
)

type SubmitResult struct {
	Outcome     string                `json:"outcome"`
	Pix         *model.PixArtifact    `json:"pix,omitempty"`
	Boleto      *model.BoletoArtifact `json:"boleto,omitempty"`
	RedirectURL string                `json:"redirectUrl,omitempty"`
}

// CheckoutSnapshot is the caller-facing view of one session's full state.
type CheckoutSnapshot struct {
	SessionID        string `json:"sessionId"`
	Status           string `json:"status"`
	State            string `json:"state"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	ExpiringSoon     bool   `json:"expiringSoon"`

	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Currency     string          `json:"currency"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`

	Method             string `json:"method,omitempty"`
	DirectTokenization bool   `json:"directTokenization"`
	CardBrand          string `json:"cardBrand,omitempty"`
	CardLastFour       string `json:"cardLastFour,omitempty"`

	AppliedCoupon *AppliedCoupon `json:"appliedCoupon,omitempty"`

	Pix              *model.PixArtifact    `json:"pix,omitempty"`
	Boleto           *model.BoletoArtifact `json:"boleto,omitempty"`
	RedirectURL      string                `json:"redirectUrl,omitempty"`
	PaymentConfirmed bool                  `json:"paymentConfirmed"`

	OriginURL string         `json:"originUrl"`
	LastError *CheckoutError `json:"lastError,omitempty"`
}
