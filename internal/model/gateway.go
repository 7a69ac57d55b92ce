package model

// Wire shapes exchanged with the payment gateway. The response schema varies
// by method and by API generation; the client decodes a raw body once into a
// tagged GatewayResult instead of shape-sniffing at every call site.

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodPix    PaymentMethod = "pix"
	MethodBoleto PaymentMethod = "boleto"
)

type SettlementMode string

const (
	SettlementOneOff    SettlementMode = "one-off"
	SettlementRecurring SettlementMode = "recurring"
)

type Address struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func (a Address) Complete() bool {
	return a.ZipCode != "" && a.Street != "" && a.Number != "" &&
		a.Neighborhood != "" && a.City != "" && a.State != ""
}

type Payer struct {
	Email          string  `json:"email"`
	DocumentType   string  `json:"documentType"`
	DocumentNumber string  `json:"documentNumber"`
	Address        Address `json:"address,omitempty"`
}

type CallbackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PaymentIntent is built per submission attempt and sent to the gateway.
type PaymentIntent struct {
	IntentID       string         `json:"intentId"`
	BuyerID        string         `json:"buyerId"`
	ProductID      string         `json:"productId"`
	SettlementMode SettlementMode `json:"settlementMode"`
	Method         PaymentMethod  `json:"method"`
	CardToken      string         `json:"cardToken,omitempty"`
	Payer          Payer          `json:"payer"`
	CouponCode     string         `json:"cupomCodigo,omitempty"`
	CallbackURLs   CallbackURLs   `json:"callbackUrls"`
}

type PixArtifact struct {
	Code      string `json:"qrCode"`
	QRImage   string `json:"qrCodeImagem,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type BoletoArtifact struct {
	URL       string `json:"url"`
	Barcode   string `json:"codigoBarras"`
	ExpiresAt string `json:"vencimento,omitempty"`
}

type RedirectRequired struct {
	URL string `json:"redirectUrl"`
}

const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

type TerminalStatus struct {
	Status string `json:"status"`
	Detail string `json:"statusDetail,omitempty"`
}

type GatewayError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type GatewayResultKind string

const (
	ResultPix      GatewayResultKind = "pix"
	ResultBoleto   GatewayResultKind = "boleto"
	ResultRedirect GatewayResultKind = "redirect"
	ResultStatus   GatewayResultKind = "status"
	ResultError    GatewayResultKind = "error"
)

// GatewayResult is the tagged decoding of a gateway response: exactly one of
// the pointer fields matching Kind is populated.
type GatewayResult struct {
	Kind     GatewayResultKind
	Pix      *PixArtifact
	Boleto   *BoletoArtifact
	Redirect *RedirectRequired
	Status   *TerminalStatus
	Err      *GatewayError
}

// OrderStatus is the polled confirmation state for PIX/boleto payments.
type OrderStatus struct {
	IntentID string `json:"intentId"`
	Status   string `json:"status"` // pending, approved, rejected
}
