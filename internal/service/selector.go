package service

import (
	"github.com/google/uuid"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/document"
	"storefront-checkout/internal/model"
)

// TransportCapability is computed once at session load instead of branching
// on ambient runtime state: direct tokenization requires both the deployment
// flag and a genuine TLS request.
type TransportCapability struct {
	DirectTokenization bool
}

type PayerData struct {
	Email    string
	Document string
	Address  model.Address
}

// settlementModeFor derives the settlement mode from the method; the user
// never chooses it. Card payments establish a subscription, PIX and boleto
// are one-off charges.
func settlementModeFor(method model.PaymentMethod) model.SettlementMode {
	if method == model.MethodCard {
		return model.SettlementRecurring
	}
	return model.SettlementOneOff
}

// validateSelection applies the per-method data-completeness rules. A nil
// return means the selection can be submitted.
func validateSelection(method model.PaymentMethod, payer PayerData, token *client.CardToken, capability TransportCapability) *CheckoutError {
	if payer.Email == "" {
		return errIncomplete("Informe o e-mail do pagador.")
	}

	result := document.Validate(payer.Document)
	if !result.Valid {
		if document.Check(payer.Document) == document.StatusIncomplete {
			return errDocument("Documento incompleto. Informe o CPF ou CNPJ completo.")
		}
		return errDocument(result.Message)
	}

	switch method {
	case model.MethodPix:
		// email plus valid document is enough

	case model.MethodBoleto:
		if !payer.Address.Complete() {
			return errIncomplete("Endereço completo é obrigatório para pagamento por boleto.")
		}

	case model.MethodCard:
		if capability.DirectTokenization && token == nil {
			return &CheckoutError{
				Code:      CodeCardNotValidated,
				Message:   "Cartão ainda não validado. Informe os dados do cartão.",
				Retryable: true,
			}
		}
		// In the redirect runtime the gateway hosts card entry itself.

	default:
		return errIncomplete("Selecione um método de pagamento.")
	}

	return nil
}

// buildIntent assembles the gateway-agnostic payment intent for one
// submission attempt.
func buildIntent(session *model.CheckoutSession, buyerID string, method model.PaymentMethod, payer PayerData, token *client.CardToken, couponCode, baseURL string) *model.PaymentIntent {
	docResult := document.Validate(payer.Document)

	intent := &model.PaymentIntent{
		IntentID:       uuid.NewString(),
		BuyerID:        buyerID,
		ProductID:      session.ProductID,
		SettlementMode: settlementModeFor(method),
		Method:         method,
		Payer: model.Payer{
			Email:          payer.Email,
			DocumentType:   string(docResult.Type),
			DocumentNumber: document.Digits(payer.Document),
		},
		CouponCode: couponCode,
		CallbackURLs: model.CallbackURLs{
			Success: baseURL + "/checkout/" + session.ID + "/success",
			Failure: baseURL + "/checkout/" + session.ID + "/failure",
			Pending: baseURL + "/checkout/" + session.ID + "/pending",
		},
	}

	if method == model.MethodBoleto {
		intent.Payer.Address = payer.Address
	}
	if token != nil {
		intent.CardToken = token.Token
	}

	return intent
}
