package calculators

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidLoan = errors.New("loan amount and tenure must be positive and rate non-negative")

// Loan describes a reducing-balance loan quote.
type Loan struct {
	Principal  float64 `json:"principal" validate:"gt=0"`
	AnnualRate float64 `json:"annualRate" validate:"gte=0,lte=100"`
	Years      float64 `json:"years" validate:"gt=0,lte=50"`
}

type EMIResult struct {
	Monthly       decimal.Decimal `json:"monthly"`
	Payments      int             `json:"payments"`
	TotalPayment  decimal.Decimal `json:"totalPayment"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
}

// MonthlyPayment is the annuity formula P·r·(1+r)^n / ((1+r)^n − 1) with
// r = R/12/100 and n = T×12. At r = 0 it returns the limit P/n.
func MonthlyPayment(principal, annualRate, years float64) (float64, error) {
	if principal <= 0 || years <= 0 || annualRate < 0 {
		return 0, ErrInvalidLoan
	}
	r := annualRate / 12 / 100
	n := years * 12
	if r == 0 {
		return principal / n, nil
	}
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1), nil
}

// EMI rounds the monthly installment to the nearest rupee and totals the loan.
func EMI(l Loan) (EMIResult, error) {
	m, err := MonthlyPayment(l.Principal, l.AnnualRate, l.Years)
	if err != nil {
		return EMIResult{}, err
	}
	payments := int(math.Round(l.Years * 12))
	monthly := decimal.NewFromFloat(m).Round(0)
	total := monthly.Mul(decimal.NewFromInt(int64(payments)))
	return EMIResult{
		Monthly:       monthly,
		Payments:      payments,
		TotalPayment:  total,
		TotalInterest: total.Sub(decimal.NewFromFloat(l.Principal).Round(0)),
	}, nil
}
