package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second).WithHTTPClient(srv.Client())
}

func TestClientListSalesOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sales-orders", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "12", r.URL.Query().Get("customer_id"))
		_, _ = w.Write([]byte(`{"orders":[
			{"id":1,"no_so":"SO/D/0125-00001","no_sc":"SC/D/0125-00001","customer_id":12,"customer_name":"PT Maju","is_via":1,
			 "satuan_unit_name":"Meter","created_at":"2025-01-05T08:00:00Z",
			 "summary":{"total_meter":"500.00","total_meter_dalam_proses":500}},
			{"id":"2","no_so":"SO/D/0125-00002","customer_id":12,"is_via":false,"satuan_unit_name":"Yard",
			 "created_at":"bukan tanggal","summary":{"total_yard":null}}
		]}`))
	})

	docs, err := client.List(context.Background(), "tok-1", textile.KindSalesOrder, ListFilter{CounterpartyID: 12})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, textile.KindSalesOrder, first.Kind)
	assert.Equal(t, "SO/D/0125-00001", first.Number)
	assert.Equal(t, "SC/D/0125-00001", first.Reference)
	assert.Equal(t, "PT Maju", first.CounterpartyName)
	assert.True(t, first.IsVia)
	assert.True(t, first.Summary.TotalMeter.Equal(decimal.NewFromInt(500)))
	assert.True(t, first.Summary.TotalMeterDalamProses.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2025, first.Date.Year())

	second := docs[1]
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, second.IsVia)
	assert.True(t, second.Date.IsZero())
	assert.True(t, second.Summary.TotalYard.IsZero())
}

func TestClientDetailPurchaseOrderKainJadi(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/purchase-orders/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"order":{"id":7,"no_po":"PO/KJ/0225-00007","jenis_po":"kain_jadi","supplier_id":3,
			"supplier_name":"CV Tenun","currency_name":"USD","satuan_unit_name":"Meter","created_at":"2025-02-01",
			"items":[{"id":70,"corak_kain":"Twill","deskripsi_warna":"Navy","meter_total":"10","harga_greige":"2","harga_maklun":"1.5","harga":""}]}}`))
	})

	doc, err := client.Detail(context.Background(), "", textile.KindPurchaseOrder, 7)
	require.NoError(t, err)
	assert.Equal(t, textile.PurchaseKainJadi, doc.PurchaseType)
	assert.Equal(t, textile.USD, doc.Currency)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Twill", doc.Items[0].Fabric)
	assert.True(t, doc.Items[0].UnitPrice.IsZero())
	assert.True(t, doc.Principal().Equal(decimal.NewFromInt(35)))
}

func TestClientDetailMissingEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":7}}`))
	})

	_, err := client.Detail(context.Background(), "", textile.KindPurchaseOrder, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestClientUnknownKind(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second)
	_, err := client.List(context.Background(), "", textile.Kind("invoice"), ListFilter{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestClientErrorMessageVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Nominal pembayaran melebihi sisa hutang"}`))
	})

	_, err := client.CreatePayment(context.Background(), "tok", PaymentHutang, PaymentInput{SJID: 1})
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Nominal pembayaran melebihi sisa hutang", apiErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, (&APIError{Status: 500}).HTTPStatus())
}

func TestClientRejectsOversizedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[`))
		for i := 0; i < 64; i++ {
			_, _ = w.Write([]byte(`{"id":1,"no_so":"SO/TX/0125-00001"},`))
		}
		_, _ = w.Write([]byte(`{"id":2}]}`))
	})
	client.maxBody = 512

	_, err := client.List(context.Background(), "tok", textile.KindSalesOrder, ListFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus())
}

func TestClientNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	})

	_, err := client.Detail(context.Background(), "", textile.KindSalesDelivery, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClientPaymentsAndCreate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/payments/piutang", r.URL.Path)
			_, _ = w.Write([]byte(`{"receipts":[{"id":5,"sj_id":9,"customer_id":4,"pembayaran":"400000","potongan":50000,
				"payment_method":"giro","no_giro":"GR-1","tanggal_jatuh_tempo":"2025-03-01"}]}`))
		case http.MethodPut:
			assert.Equal(t, "/payments/piutang/5", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			var input map[string]any
			require.NoError(t, json.Unmarshal(body, &input))
			assert.Equal(t, float64(9), input["sj_id"])
			_, _ = w.Write([]byte(`{"receipt":{"id":5,"sj_id":9,"pembayaran":"450000"}}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	payments, err := client.Payments(context.Background(), "", PaymentPiutang)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, int64(9), p.DocumentID)
	assert.Equal(t, int64(4), p.CounterpartyID)
	assert.True(t, p.Settled().Equal(decimal.NewFromInt(450000)))
	assert.Equal(t, "GR-1", p.GiroNumber)

	updated, err := client.UpdatePayment(context.Background(), "", PaymentPiutang, 5, PaymentInput{SJID: 9, Pembayaran: decimal.NewFromInt(450000)})
	require.NoError(t, err)
	assert.True(t, updated.Pembayaran.Equal(decimal.NewFromInt(450000)))
}

func TestPaymentKindDeliveryKind(t *testing.T) {
	assert.Equal(t, textile.KindPurchaseDelivery, PaymentHutang.DeliveryKind())
	assert.Equal(t, textile.KindSalesDelivery, PaymentPiutang.DeliveryKind())
	_, ok := ParsePaymentKind("kas")
	assert.False(t, ok)
}
