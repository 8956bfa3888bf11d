// Package numbering issues human-readable document numbers of the form YYYY.MM.### that
// restart every calendar month and are counted per document class.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/hairline-erp/hairline/internal/shared"
)

// Class scopes a sequence.
type Class string

const (
	ClassQuotation  Class = "quotation"
	ClassSalesOrder Class = "sales_order"
	ClassPayment    Class = "payment"
)

// MaxSequence is the largest sequence the three-digit format can carry.
const MaxSequence = 999

var pattern = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{3}$`)

// ErrSequenceExhausted is returned once a class has issued MaxSequence numbers in a month.
// It is a validation error: the wire format cannot carry a fourth digit.
var ErrSequenceExhausted = shared.Validation("All %d document numbers for this month have been used.", MaxSequence)

// Sequencer atomically increments and returns the counter for (class, year, month).
type Sequencer interface {
	Increment(ctx context.Context, class Class, year, month int) (int64, error)
}

// Format renders a number for the month of asOf.
func Format(asOf time.Time, seq int64) string {
	return fmt.Sprintf("%04d.%02d.%03d", asOf.Year(), int(asOf.Month()), seq)
}

// Valid reports whether number matches the persisted wire format.
func Valid(number string) bool {
	return pattern.MatchString(number)
}

// Parse splits a document number into its year, month and sequence.
func Parse(number string) (year, month int, seq int64, err error) {
	if !Valid(number) {
		return 0, 0, 0, shared.Validation("%q is not a valid document number (expected YYYY.MM.###).", number)
	}
	year, _ = strconv.Atoi(number[0:4])
	month, _ = strconv.Atoi(number[5:7])
	seq, _ = strconv.ParseInt(number[8:], 10, 64)
	if month < 1 || month > 12 {
		return 0, 0, 0, shared.Validation("%q has an invalid month.", number)
	}
	return year, month, seq, nil
}

// Service issues numbers in a fixed business time zone.
type Service struct {
	loc *time.Location
	now func() time.Time
}

// NewService builds a Service. A nil location means UTC.
func NewService(loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{loc: loc, now: time.Now}
}

// WithClock replaces the clock used by Now.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the current instant in the business time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Next draws the next number of class for the month containing asOf. Pass a sequencer bound
// to the caller's transaction so an aborted document does not consume a number.
func (s *Service) Next(ctx context.Context, seq Sequencer, class Class, asOf time.Time) (string, error) {
	if class == "" {
		return "", errors.New("numbering: document class required")
	}
	local := asOf.In(s.loc)
	value, err := seq.Increment(ctx, class, local.Year(), int(local.Month()))
	if err != nil {
		return "", fmt.Errorf("numbering: increment %s: %w", class, err)
	}
	if value > MaxSequence {
		return "", fmt.Errorf("%w: %s %04d-%02d", ErrSequenceExhausted, class, local.Year(), int(local.Month()))
	}
	return Format(local, value), nil
}
