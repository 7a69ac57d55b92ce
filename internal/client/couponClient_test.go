package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/config"
)

func couponTestClient(t *testing.T, handler http.HandlerFunc) CouponClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCouponClient(&config.Coupon{BaseApiURL: srv.URL, APIKey: "k", Timeout: 5 * time.Second})
}

func TestCouponValidate_Success(t *testing.T) {
	cc := couponTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SAVE10", req["code"])
		assert.Equal(t, "sku-1", req["productId"])

		w.Write([]byte(`{"success":true,"coupon":{"code":"SAVE10","discountType":"percentage","discountValue":10}}`))
	})

	c, err := cc.Validate(context.Background(), "SAVE10", "sku-1")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	assert.True(t, c.DiscountValue.Equal(decimal.NewFromInt(10)))
}

func TestCouponValidate_Rejection(t *testing.T) {
	cc := couponTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"errorCode":"EXHAUSTED"}`))
	})

	_, err := cc.Validate(context.Background(), "USEDUP", "sku-1")
	var rejected *CouponRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, CouponExhausted, rejected.Code)
}

func TestCouponValidate_SuccessWithoutCoupon(t *testing.T) {
	cc := couponTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})

	_, err := cc.Validate(context.Background(), "ODD", "sku-1")
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"token":"tok_abc","brand":"visa","lastFourDigits":"4242"}`))
	}))
	defer srv.Close()

	tk := NewTokenizerClient(&config.Tokenizer{BaseApiURL: srv.URL, PublicKey: "pk", Timeout: 5 * time.Second})
	token, err := tk.Tokenize(context.Background(), &CardData{Number: "4242424242424242"})
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", token.Token)
	assert.Equal(t, "4242", token.LastFourDigits)
}

func TestTokenize_Refused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"invalid card number"}`))
	}))
	defer srv.Close()

	tk := NewTokenizerClient(&config.Tokenizer{BaseApiURL: srv.URL, PublicKey: "pk", Timeout: 5 * time.Second})
	_, err := tk.Tokenize(context.Background(), &CardData{Number: "1234"})
	assert.ErrorContains(t, err, "invalid card number")
}
