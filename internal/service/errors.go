package service

import (
	"sort"
	"strings"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/dto"
	"storefront-checkout/internal/model"
)

// Error codes for everything the checkout flow can surface to its caller.
// Retryable errors keep the session alive and return the flow to payment
// selection; the rest are terminal for the current attempt.
const (
	CodeSessionInvalid   = "session_invalid"
	CodeSessionExpired   = "session_expired"
	CodeSessionTampered  = "session_tampered"
	CodeAuthRequired     = "auth_required"
	CodeNotAuthorized    = "not_authorized"
	CodeDocumentInvalid  = "document_invalid"
	CodeMethodIncomplete = "method_incomplete"
	CodeCardNotValidated = "card_not_validated"
	CodeCouponRejected   = "coupon_rejected"
	CodePaymentRejected  = "payment_rejected"
	CodeGatewayError     = "gateway_error"
	CodeGatewayDown      = "gateway_unavailable"
)

// CheckoutError is defined in the dto package so handlers can serialize it
// without an import cycle; this alias keeps service code readable.
type CheckoutError = dto.CheckoutError

func errSessionInvalid(msg string) *CheckoutError {
	return &CheckoutError{Code: CodeSessionInvalid, Message: msg, Retryable: false}
}

func errSessionExpired() *CheckoutError {
	return &CheckoutError{
		Code:      CodeSessionExpired,
		Message:   "Sua sessão de compra expirou. Inicie a compra novamente.",
		Retryable: false,
	}
}

func errAuthRequired() *CheckoutError {
	return &CheckoutError{
		Code:      CodeAuthRequired,
		Message:   "Faça login para concluir o pagamento.",
		Retryable: false,
	}
}

func errDocument(message string) *CheckoutError {
	return &CheckoutError{Code: CodeDocumentInvalid, Message: message, Retryable: true}
}

func errIncomplete(message string) *CheckoutError {
	return &CheckoutError{Code: CodeMethodIncomplete, Message: message, Retryable: true}
}

// couponMessages maps coupon-service rejection codes to user-facing reasons.
var couponMessages = map[string]string{
	client.CouponNotFound:               "Cupom não encontrado.",
	client.CouponInactive:               "Este cupom não está mais ativo.",
	client.CouponNotYetValid:            "Este cupom ainda não está válido.",
	client.CouponExpired:                "Este cupom expirou.",
	client.CouponExhausted:              "Este cupom atingiu o limite de usos.",
	client.CouponNotApplicable:          "Este cupom não é aplicável a esta compra.",
	client.CouponNotApplicableToProduct: "Este cupom não é válido para este produto.",
	client.CouponFirstPurchaseOnly:      "Este cupom é válido apenas para a primeira compra.",
}

func errCoupon(code string) *CheckoutError {
	msg, ok := couponMessages[code]
	if !ok {
		msg = "Não foi possível aplicar o cupom."
	}
	return &CheckoutError{Code: CodeCouponRejected, Message: msg, Retryable: true}
}

// gatewayMessages covers the enumerated gateway error codes; anything outside
// the set falls into the unclassified bucket so new codes degrade gracefully.
var gatewayMessages = map[string]string{
	"INVALID_CPF":                   "CPF inválido. Verifique o número informado.",
	"INVALID_CNPJ":                  "CNPJ inválido. Verifique o número informado.",
	"FINANCIAL_IDENTITY_ERROR":      "Não foi possível validar seu documento junto à instituição financeira.",
	"PAYER_IDENTIFICATION_REQUIRED": "Informe o documento do pagador para continuar.",
	"BOLETO_ADDRESS_REQUIRED":       "Endereço completo é obrigatório para pagamento por boleto.",
}

func errFromGateway(gwErr *model.GatewayError) *CheckoutError {
	if msg, ok := gatewayMessages[gwErr.Code]; ok {
		return &CheckoutError{Code: CodeGatewayError, Message: msg, Retryable: true}
	}

	// Field-level validation issues come aggregated into one message.
	if len(gwErr.Fields) > 0 {
		parts := make([]string, 0, len(gwErr.Fields))
		for field, problem := range gwErr.Fields {
			parts = append(parts, field+": "+problem)
		}
		sort.Strings(parts)
		return &CheckoutError{
			Code:      CodeGatewayError,
			Message:   "Verifique os dados informados. " + strings.Join(parts, "; "),
			Retryable: true,
		}
	}

	return &CheckoutError{
		Code:      CodeGatewayError,
		Message:   "O pagamento não pôde ser processado. Tente novamente.",
		Retryable: true,
	}
}

func errGatewayDown() *CheckoutError {
	return &CheckoutError{
		Code:      CodeGatewayDown,
		Message:   "Serviço de pagamento temporariamente indisponível. Tente novamente em instantes.",
		Retryable: true,
	}
}

func errPaymentRejected(detail string) *CheckoutError {
	msg := "Pagamento recusado. Tente outro método de pagamento."
	if detail != "" {
		msg = "Pagamento recusado (" + detail + "). Tente outro método de pagamento."
	}
	return &CheckoutError{Code: CodePaymentRejected, Message: msg, Retryable: true}
}

func errNotAuthorized() *CheckoutError {
	return &CheckoutError{
		Code:      CodeNotAuthorized,
		Message:   "Você não tem autorização para concluir este pagamento.",
		Retryable: false,
	}
}
