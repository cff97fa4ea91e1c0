// Package http provides the JSON API over the expense and study services.
//
// This file implements utilities for parsing and validating request data.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catatan/internal/core"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidDate = errors.New("tanggal harus berformat YYYY-MM-DD")
	errInvalidID   = errors.New("id tidak valid")
)

// ParseDateQuery reads the optional tanggal query parameter. An absent or empty
// value yields the empty Date, which means no date filter.
func ParseDateQuery(query url.Values) (core.Date, error) {
	v := strings.TrimSpace(query.Get("tanggal"))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, errInvalidDate
	}
	return d, nil
}

// ParseIDVar reads the {id} route variable.
func ParseIDVar(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// sanitizeInput drops control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}

// parseOptionalDate reads a body date; empty means today.
func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, errInvalidDate
	}
	return d, nil
}

// expenseInput validates an expense body: deskripsi and a positive jumlah are required.
func expenseInput(p *RequestBodyParser) (core.Expense, error) {
	desc := p.Get("deskripsi")
	if desc == "" {
		return core.Expense{}, errors.New("deskripsi wajib diisi")
	}
	amount := core.ParseAmount(p.Get("jumlah"))
	if !amount.IsPositive() {
		return core.Expense{}, errors.New("jumlah harus lebih dari 0")
	}
	date, err := parseOptionalDate(p.Get("tanggal"))
	if err != nil {
		return core.Expense{}, err
	}
	return core.NewExpense(desc, amount, p.Get("kategori"), date), nil
}

// studyInput validates a study body: topik and a positive durasi_menit are required.
func studyInput(p *RequestBodyParser) (core.StudySession, error) {
	topic := p.Get("topik")
	if topic == "" {
		return core.StudySession{}, errors.New("topik wajib diisi")
	}
	minutes := core.ParseAmount(p.Get("durasi_menit"))
	if !minutes.IsPositive() {
		return core.StudySession{}, errors.New("durasi harus lebih dari 0 menit")
	}
	date, err := parseOptionalDate(p.Get("tanggal"))
	if err != nil {
		return core.StudySession{}, err
	}
	return core.NewStudySession(p.Get("mata_kuliah"), topic, minutes, date, p.Get("tingkat_pemahaman")), nil
}
