// Package backend talks to the textile ERP REST API and normalises its
// responses into textile documents and payments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// DefaultMaxResponseBytes bounds how much of a backend response is read.
const DefaultMaxResponseBytes int64 = 16 << 20

// Client wraps the backend REST API. The bearer token is supplied per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
}

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBody: DefaultMaxResponseBytes,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ListFilter narrows list endpoints.
type ListFilter struct {
	PurchaseType   textile.PurchaseType
	CounterpartyID int64
}

func (f ListFilter) query(kind textile.Kind) url.Values {
	q := url.Values{}
	if f.PurchaseType != "" {
		q.Set("type", string(f.PurchaseType))
	}
	if f.CounterpartyID > 0 {
		key := "customer_id"
		switch kind {
		case textile.KindPurchaseContract, textile.KindPurchaseOrder, textile.KindPurchaseDelivery:
			key = "supplier_id"
		}
		q.Set(key, strconv.FormatInt(f.CounterpartyID, 10))
	}
	return q
}

// List returns the normalised documents of one kind.
func (c *Client) List(ctx context.Context, token string, kind textile.Kind, filter ListFilter) ([]textile.Document, error) {
	ep, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, ep.path, filter.query(kind), token, nil)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := unwrap(body, ep.listField, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	docs := make([]textile.Document, 0, len(items))
	for _, raw := range items {
		doc, err := ep.normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Detail returns one normalised document including its items.
func (c *Client) Detail(ctx context.Context, token string, kind textile.Kind, id int64) (textile.Document, error) {
	ep, err := lookup(kind)
	if err != nil {
		return textile.Document{}, err
	}
	body, err := c.do(ctx, http.MethodGet, ep.path+"/"+strconv.FormatInt(id, 10), nil, token, nil)
	if err != nil {
		return textile.Document{}, err
	}
	var raw json.RawMessage
	if err := unwrap(body, ep.detailField, &raw); err != nil {
		return textile.Document{}, fmt.Errorf("detail %s %d: %w", kind, id, err)
	}
	return ep.normalize(raw)
}

// Payments lists every payment record of the given kind.
func (c *Client) Payments(ctx context.Context, token string, kind PaymentKind) ([]textile.Payment, error) {
	ep, ok := paymentEndpoints[kind]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", ErrUnknownKind, kind)
	}
	body, err := c.do(ctx, http.MethodGet, ep.path, nil, token, nil)
	if err != nil {
		return nil, err
	}
	var wires []paymentWire
	if err := unwrap(body, ep.listField, &wires); err != nil {
		return nil, fmt.Errorf("list %s payments: %w", kind, err)
	}
	out := make([]textile.Payment, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toPayment())
	}
	return out, nil
}

// PaymentInput is the body submitted when creating or updating a payment.
type PaymentInput struct {
	SJID       int64           `json:"sj_id"`
	Pembayaran decimal.Decimal `json:"pembayaran"`
	Potongan   decimal.Decimal `json:"potongan"`
	Method     string          `json:"payment_method"`
	Bank       string          `json:"bank_name,omitempty"`
	GiroNumber string          `json:"no_giro,omitempty"`
	DueDate    string          `json:"tanggal_jatuh_tempo,omitempty"`
	PaidAt     string          `json:"tanggal_pembayaran"`
	Note       string          `json:"keterangan,omitempty"`
}

// CreatePayment submits a new payment record.
func (c *Client) CreatePayment(ctx context.Context, token string, kind PaymentKind, input PaymentInput) (textile.Payment, error) {
	ep, ok := paymentEndpoints[kind]
	if !ok {
		return textile.Payment{}, fmt.Errorf("%w: payment %s", ErrUnknownKind, kind)
	}
	return c.submitPayment(ctx, http.MethodPost, ep.path, ep.detailField, token, input)
}

// UpdatePayment replaces an existing payment record.
func (c *Client) UpdatePayment(ctx context.Context, token string, kind PaymentKind, id int64, input PaymentInput) (textile.Payment, error) {
	ep, ok := paymentEndpoints[kind]
	if !ok {
		return textile.Payment{}, fmt.Errorf("%w: payment %s", ErrUnknownKind, kind)
	}
	return c.submitPayment(ctx, http.MethodPut, ep.path+"/"+strconv.FormatInt(id, 10), ep.detailField, token, input)
}

func (c *Client) submitPayment(ctx context.Context, method, path, field, token string, input PaymentInput) (textile.Payment, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return textile.Payment{}, err
	}
	body, err := c.do(ctx, method, path, nil, token, payload)
	if err != nil {
		return textile.Payment{}, err
	}
	var w paymentWire
	if err := unwrap(body, field, &w); err != nil {
		return textile.Payment{}, fmt.Errorf("submit payment: %w", err)
	}
	return w.toPayment(), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, payload []byte) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(token, "Bearer "))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "backend tidak dapat dihubungi", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBody {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "respons backend terlalu besar", Err: ErrResponseTooLarge}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func unwrap(body []byte, field string, dest any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	raw, ok := envelope[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing %q", ErrUnexpectedShape, field)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
