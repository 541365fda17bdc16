// Package payment builds UPI payment references for orders and renders them
// as QR code images. No money moves through this package; the payload is an
// opaque string a customer's UPI app scans.
package payment

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// Instructions is shown next to the QR image.
const Instructions = "Scan this QR code with any UPI app to make payment"

// Merchant identifies the payee embedded in every payload.
type Merchant struct {
	VPA      string // virtual payment address, e.g. merchant@upi
	Name     string
	Code     string // merchant category code
	Currency string
}

// Payload returns the deterministic upi://pay URI for an order.
func (m Merchant) Payload(orderNumber string, amount decimal.Decimal) string {
	params := []struct{ key, value string }{
		{"pa", m.VPA},
		{"pn", m.Name},
		{"mc", m.Code},
		{"tr", orderNumber},
		{"tn", "Payment for " + orderNumber},
		{"am", amount.StringFixed(2)},
		{"cu", m.Currency},
	}

	var b strings.Builder
	b.WriteString("upi://pay?")
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(escape(p.value))
	}
	return b.String()
}

// escape percent-encodes a query value, keeping '@' readable and spaces as %20.
func escape(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return strings.ReplaceAll(e, "%40", "@")
}

// Renderer turns a payload into an image.
type Renderer interface {
	Render(payload string) ([]byte, error)
}

var ErrEmptyPayload = errors.New("payment payload is empty")

// QRRenderer renders PNG QR codes with medium error correction.
type QRRenderer struct {
	Size int // edge length in pixels
}

func (r QRRenderer) Render(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	return qrcode.Encode(payload, qrcode.Medium, r.Size)
}

// DataURI embeds a PNG in a data: URI suitable for an <img> src.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
