package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront-checkout/internal/config"
)

type CardData struct {
	Number         string `json:"number"`
	HolderName     string `json:"holderName"`
	ExpiryMonth    string `json:"expiryMonth"`
	ExpiryYear     string `json:"expiryYear"`
	SecurityCode   string `json:"securityCode"`
	DocumentNumber string `json:"documentNumber"`
}

type CardToken struct {
	Token          string `json:"token"`
	Brand          string `json:"brand"`
	LastFourDigits string `json:"lastFourDigits"`
}

type TokenizerClient interface {
	// Tokenize exchanges raw card data for an opaque single-use token. Raw
	// card data never touches this service's storage; it transits straight
	// to the tokenizer.
	Tokenize(ctx context.Context, card *CardData) (*CardToken, error)
}

type tokenizerClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	publicKey  string
}

func NewTokenizerClient(cfg *config.Tokenizer) TokenizerClient {
	return &tokenizerClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		publicKey:  cfg.PublicKey,
	}
}

func (c *tokenizerClientImpl) Tokenize(ctx context.Context, card *CardData) (*CardToken, error) {
	body, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("marshal card data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/tokens", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.publicKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokenizer request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		CardToken
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tokenizer response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("card tokenization refused: %s", result.Error)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("tokenizer returned success without a token")
	}
	return &result.CardToken, nil
}
