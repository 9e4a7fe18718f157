// Package payments serves the hutang and piutang payment forms: running
// balances, live previews and submission to the ERP backend.
package payments

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/tekstil/internal/backend"
)

var (
	// ErrOverpayment is returned when a payment exceeds the remaining debt.
	ErrOverpayment = errors.New("pembayaran dan potongan melebihi sisa tagihan")
	// ErrEmptyPayment is returned when both pembayaran and potongan are zero.
	ErrEmptyPayment = errors.New("pembayaran atau potongan harus diisi")
)

// SubmitInput is the payment form body.
type SubmitInput struct {
	SJID       int64           `json:"sj_id" validate:"required,gt=0"`
	Pembayaran decimal.Decimal `json:"pembayaran" validate:"gte=0"`
	Potongan   decimal.Decimal `json:"potongan" validate:"gte=0"`
	Method     string          `json:"metode" validate:"required,oneof=cash transfer giro"`
	Bank       string          `json:"bank" validate:"required_unless=Method cash,max=100"`
	GiroNumber string          `json:"no_giro" validate:"required_if=Method giro,max=50"`
	DueDate    string          `json:"tanggal_jatuh_tempo" validate:"required_if=Method giro,omitempty,datetime=2006-01-02"`
	PaidAt     string          `json:"tanggal_pembayaran" validate:"required,datetime=2006-01-02"`
	Note       string          `json:"keterangan" validate:"max=500"`
}

// Settled is pembayaran plus potongan.
func (in SubmitInput) Settled() decimal.Decimal {
	return in.Pembayaran.Add(in.Potongan)
}

func (in SubmitInput) backendInput() backend.PaymentInput {
	return backend.PaymentInput{
		SJID:       in.SJID,
		Pembayaran: in.Pembayaran,
		Potongan:   in.Potongan,
		Method:     in.Method,
		Bank:       strings.TrimSpace(in.Bank),
		GiroNumber: strings.TrimSpace(in.GiroNumber),
		DueDate:    in.DueDate,
		PaidAt:     in.PaidAt,
		Note:       strings.TrimSpace(in.Note),
	}
}

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	return "payments: invalid input"
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func validateInput(v *validator.Validate, in SubmitInput) error {
	fields := make(map[string]string)
	if err := v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	if _, bad := fields["pembayaran"]; !bad && in.Settled().IsZero() {
		fields["pembayaran"] = ErrEmptyPayment.Error()
	}
	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return "wajib diisi"
	case "gte":
		return "tidak boleh negatif"
	case "gt":
		return "wajib diisi"
	case "oneof":
		return "harus salah satu dari: " + fe.Param()
	case "datetime":
		return "format tanggal YYYY-MM-DD"
	case "max":
		return "terlalu panjang"
	default:
		return fe.Error()
	}
}
