package documents

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders money with locale grouping and an ISO currency code, e.g. "USD 1,234.50".
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

func NewFormatter(code, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("documents: currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("documents: locale %q: %w", locale, err)
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

func (f *Formatter) Currency() string { return f.unit.String() }

func (f *Formatter) Money(v decimal.Decimal) string {
	return f.unit.String() + " " + f.printer.Sprintf("%.2f", v.Round(2).InexactFloat64())
}

func (f *Formatter) Amount(v decimal.Decimal) Amount {
	return Amount{Value: v, Text: f.Money(v)}
}

func (f *Formatter) amountPtr(v decimal.Decimal) *Amount {
	a := f.Amount(v)
	return &a
}
