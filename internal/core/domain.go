package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO layout dates are parsed from and stored as.
const DateLayout = "2006-01-02"

const (
	DefaultDescription = "Tanpa Deskripsi"
	DefaultTopic       = "Tanpa Topik"
)

type (
	Date struct {
		time.Time
	}

	// Expense is one row of the transaksi table.
	Expense struct {
		ID          int64 // assigned by the store on insert
		Description string
		Amount      decimal.Decimal
		Category    string
		Date        Date
	}

	// StudySession is one row of the sesi_belajar table.
	StudySession struct {
		ID              int64 // assigned by the store on insert
		Subject         string
		Topic           string
		DurationMinutes decimal.Decimal
		Date            Date
		Comprehension   string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidID        = errors.New("invalid id")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyTopic       = errors.New("empty topic")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// AsDate drops the clock part of t.
func AsDate(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ParseDateOrToday parses s and falls back to today when it is malformed.
func ParseDateOrToday(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		slog.Warn("Malformed date, using today", "value", s, "expected_format", "YYYY-MM-DD")
		return Today()
	}
	return d
}

// IsEmpty returns true if the date is zero. An empty date as a filter means "all dates".
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the date in ISO form, the way it is stored.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler so JSON carries ISO dates.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Malformed text falls back to today.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Today()
		return nil
	}
	*d = ParseDateOrToday(string(text))
	return nil
}

// MarshalJSON overrides the method promoted from time.Time so JSON carries the ISO date.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// NewExpense builds an expense applying the documented fallbacks: blank description
// becomes a placeholder, a non-positive amount becomes zero, an unknown category becomes
// DefaultExpenseCategory and a zero date becomes today. The result may still fail
// Validate (zero amount).
func NewExpense(description string, amount decimal.Decimal, category string, date Date) Expense {
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}
	if !amount.IsPositive() {
		slog.Warn("Expense amount must be positive", "amount", amount.String())
		amount = decimal.Zero
	}
	if date.IsEmpty() {
		date = Today()
	}
	return Expense{
		Description: description,
		Amount:      amount,
		Category:    NormalizeCategory(category),
		Date:        date,
	}
}

// NewStudySession builds a study session with the same fallback rules as NewExpense.
func NewStudySession(subject, topic string, duration decimal.Decimal, date Date, comprehension string) StudySession {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	if !duration.IsPositive() {
		slog.Warn("Study duration must be positive", "duration_minutes", duration.String())
		duration = decimal.Zero
	}
	if date.IsEmpty() {
		date = Today()
	}
	return StudySession{
		Subject:         NormalizeSubject(subject),
		Topic:           topic,
		DurationMinutes: duration,
		Date:            date,
		Comprehension:   NormalizeComprehension(comprehension),
	}
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (s StudySession) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(s.Topic)) == 0 {
		return ErrEmptyTopic
	}
	if !s.DurationMinutes.IsPositive() {
		return ErrInvalidDuration
	}
	return nil
}
