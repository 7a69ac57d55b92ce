package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/model"
)

func TestDecodeGatewayResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.GatewayResultKind
	}{
		{"explicit error", `{"error":{"code":"INVALID_CPF","message":"documento inválido"}}`, model.ResultError},
		{"pix block", `{"pagamento":{"tipo":"pix","qrCode":"00020126pix","qrCodeImagem":"data:image/png;base64,abc","expiresAt":"2026-09-01T12:00:00Z"}}`, model.ResultPix},
		{"boleto block", `{"pagamento":{"tipo":"boleto","url":"https://gw.test/boleto/1.pdf","codigoBarras":"23793381286000782713695000063305975520000019900","vencimento":"2026-09-05"}}`, model.ResultBoleto},
		{"subscription redirect", `{"subscription":{"redirectUrl":"https://gw.test/hosted/abc"}}`, model.ResultRedirect},
		{"legacy top-level qr", `{"qrCode":"000201legacy"}`, model.ResultPix},
		{"legacy payment link", `{"paymentLink":"https://gw.test/pay/xyz"}`, model.ResultRedirect},
		{"terminal approved", `{"status":"approved"}`, model.ResultStatus},
		{"terminal rejected", `{"status":"rejected","statusDetail":"cc_rejected_insufficient_amount"}`, model.ResultStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DecodeGatewayResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Kind)
		})
	}
}

func TestDecodeGatewayResponse_ErrorBeatsArtifacts(t *testing.T) {
	// A body carrying both an error and an artifact resolves to the error.
	body := `{"error":{"code":"BOLETO_ADDRESS_REQUIRED","message":"endereço obrigatório"},"pagamento":{"tipo":"boleto","url":"https://gw.test/b.pdf","codigoBarras":"123"}}`
	result, err := DecodeGatewayResponse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, "BOLETO_ADDRESS_REQUIRED", result.Err.Code)
}

func TestDecodeGatewayResponse_FieldRoundup(t *testing.T) {
	result, err := DecodeGatewayResponse([]byte(
		`{"pagamento":{"tipo":"pix","qrCode":"00020126pix","expiresAt":"2026-09-01T12:00:00Z"}}`))
	require.NoError(t, err)
	require.NotNil(t, result.Pix)
	assert.Equal(t, "00020126pix", result.Pix.Code)
	assert.Equal(t, "2026-09-01T12:00:00Z", result.Pix.ExpiresAt)

	result, err = DecodeGatewayResponse([]byte(
		`{"pagamento":{"tipo":"boleto","url":"https://gw.test/b.pdf","codigoBarras":"237","vencimento":"2026-09-05"}}`))
	require.NoError(t, err)
	require.NotNil(t, result.Boleto)
	assert.Equal(t, "https://gw.test/b.pdf", result.Boleto.URL)
	assert.Equal(t, "237", result.Boleto.Barcode)
	assert.Equal(t, "2026-09-05", result.Boleto.ExpiresAt)
}

func TestDecodeGatewayResponse_Unrecognized(t *testing.T) {
	_, err := DecodeGatewayResponse([]byte(`{"something":"else"}`))
	assert.Error(t, err)

	_, err = DecodeGatewayResponse([]byte(`<html>bad gateway</html>`))
	assert.Error(t, err)
}

func TestSubmitIntent_TransportClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			"401 maps to unauthorized",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			ErrGatewayUnauthorized,
		},
		{
			"403 maps to forbidden",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			ErrGatewayForbidden,
		},
		{
			"500 maps to unavailable",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			ErrGatewayUnavailable,
		},
		{
			"non-JSON body maps to unavailable",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>oops</html>")) },
			ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			gw := NewGatewayClient(&config.Gateway{BaseApiURL: srv.URL, APIKey: "k", Timeout: 5 * time.Second})
			_, err := gw.SubmitIntent(context.Background(), &model.PaymentIntent{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitIntent_SendsCouponCode(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"status":"approved"}`))
	}))
	defer srv.Close()

	gw := NewGatewayClient(&config.Gateway{BaseApiURL: srv.URL, APIKey: "k", Timeout: 5 * time.Second})
	result, err := gw.SubmitIntent(context.Background(), &model.PaymentIntent{
		BuyerID:    "buyer-1",
		ProductID:  "sku-1",
		Method:     model.MethodPix,
		CouponCode: "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatus, result.Kind)
	assert.Contains(t, string(captured), `"cupomCodigo":"SAVE10"`)
}
