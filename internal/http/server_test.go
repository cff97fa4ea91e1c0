package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"catatan/internal/cache"
	"catatan/internal/core"
	"catatan/internal/log"
	"catatan/internal/services"
	"catatan/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	store  *storage.Store
	server *Server
}

func (s *ServerTestSuite) SetupTest() {
	ctx := context.Background()
	store, err := storage.Open(filepath.Join(s.T().TempDir(), "catatan.db"))
	require.NoError(s.T(), err)
	s.store = store

	expRepo, err := storage.NewExpenseRepository(ctx, store)
	require.NoError(s.T(), err)
	studyRepo, err := storage.NewStudyRepository(ctx, store)
	require.NoError(s.T(), err)

	logger := log.New(log.Config{Level: slog.LevelError, Component: log.ComponentHTTP, Output: io.Discard})
	s.server = NewServer(":0", logger,
		services.NewExpenseService(expRepo, cache.NewLRUCache[any](32, time.Minute), nil),
		services.NewStudyService(studyRepo, cache.NewLRUCache[any](32, time.Minute), nil),
	)
}

func (s *ServerTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *ServerTestSuite) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) postJSON(target string, payload map[string]any) *httptest.ResponseRecorder {
	b, err := json.Marshal(payload)
	require.NoError(s.T(), err)
	return s.do(http.MethodPost, target, bytes.NewReader(b), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(s.T(), rec.Header().Get(log.RequestIDHeader))
}

func (s *ServerTestSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(log.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	assert.Equal(s.T(), "abc-123", rec.Header().Get(log.RequestIDHeader))
}

func (s *ServerTestSuite) TestCreateExpenseJSON() {
	rec := s.postJSON("/api/pengeluaran", map[string]any{
		"deskripsi": "Makan siang",
		"jumlah":    25000,
		"kategori":  "Makanan",
		"tanggal":   "2024-01-10",
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[expenseResponse](s.T(), rec)
	assert.Positive(s.T(), got.ID)
	assert.Equal(s.T(), "25000", got.Jumlah)
	assert.Equal(s.T(), core.FormatRupiah(core.ParseAmount("25000")), got.JumlahFormatted)
	assert.Equal(s.T(), "Makanan", got.Kategori)
	assert.Equal(s.T(), "2024-01-10", got.Tanggal.String())

	list := decode[[]expenseResponse](s.T(), s.do(http.MethodGet, "/api/pengeluaran", nil, ""))
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), got.ID, list[0].ID)
}

func (s *ServerTestSuite) TestCreateExpenseForm() {
	form := url.Values{"deskripsi": {"Bensin"}, "jumlah": {"15000,5"}, "kategori": {"Transportasi"}}
	rec := s.do(http.MethodPost, "/api/pengeluaran", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[expenseResponse](s.T(), rec)
	assert.Equal(s.T(), "15000.5", got.Jumlah)
	assert.Equal(s.T(), core.Today().String(), got.Tanggal.String())
}

func (s *ServerTestSuite) TestCreateExpenseValidation() {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing description", map[string]any{"jumlah": 1000}},
		{"zero amount", map[string]any{"deskripsi": "Gratis", "jumlah": 0}},
		{"negative amount", map[string]any{"deskripsi": "Refund", "jumlah": -5}},
		{"bad date", map[string]any{"deskripsi": "Kopi", "jumlah": 5000, "tanggal": "10/01/2024"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.postJSON("/api/pengeluaran", tt.payload)
			assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
			assert.NotEmpty(s.T(), decode[errorResponse](s.T(), rec).Error)
		})
	}

	rec := s.do(http.MethodPost, "/api/pengeluaran", strings.NewReader("{not json"), "application/json")
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Empty(s.T(), decode[[]expenseResponse](s.T(), s.do(http.MethodGet, "/api/pengeluaran", nil, "")))
}

func (s *ServerTestSuite) TestDeleteExpense() {
	created := decode[expenseResponse](s.T(), s.postJSON("/api/pengeluaran", map[string]any{
		"deskripsi": "Parkir", "jumlah": 2000, "kategori": "Transportasi",
	}))

	rec := s.do(http.MethodDelete, "/api/pengeluaran/"+itoa(created.ID), nil, "")
	assert.Equal(s.T(), http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/pengeluaran/"+itoa(created.ID), nil, "")
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	assert.Equal(s.T(), "pengeluaran tidak dapat dihapus", decode[errorResponse](s.T(), rec).Error)

	rec = s.do(http.MethodDelete, "/api/pengeluaran/0", nil, "")
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/pengeluaran/abc", nil, "")
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestExpenseSummaryAndTable() {
	for _, p := range []map[string]any{
		{"deskripsi": "Makan siang", "jumlah": 25000, "kategori": "Makanan", "tanggal": "2024-01-10"},
		{"deskripsi": "Makan malam", "jumlah": 30000, "kategori": "Makanan", "tanggal": "2024-01-10"},
		{"deskripsi": "Ojek", "jumlah": 12000, "kategori": "Transportasi", "tanggal": "2024-01-11"},
	} {
		require.Equal(s.T(), http.StatusCreated, s.postJSON("/api/pengeluaran", p).Code)
	}

	rec := s.do(http.MethodGet, "/api/pengeluaran/summary?tanggal=2024-01-10", nil, "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	sum := decode[core.ExpenseSummary](s.T(), rec)
	assert.Equal(s.T(), "55000", sum.Total.String())
	require.Len(s.T(), sum.ByCategory, 1)
	assert.Equal(s.T(), "Makanan", sum.ByCategory[0].Name)

	all := decode[core.ExpenseSummary](s.T(), s.do(http.MethodGet, "/api/pengeluaran/summary", nil, ""))
	assert.Equal(s.T(), "67000", all.Total.String())

	rec = s.do(http.MethodGet, "/api/pengeluaran/table?tanggal=2024-01-11", nil, "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	table := decode[core.Table](s.T(), rec)
	assert.Equal(s.T(), []string{"ID", "Tanggal", "Kategori", "Deskripsi", "Jumlah", "Jumlah (Rp)"}, table.Columns)
	assert.Equal(s.T(), 1, table.Len())

	rec = s.do(http.MethodGet, "/api/pengeluaran/summary?tanggal=kemarin", nil, "")
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestStudyFlow() {
	for _, p := range []map[string]any{
		{"mata_kuliah": "Statistika", "topik": "Regresi", "durasi_menit": 60, "tanggal": "2024-01-10", "tingkat_pemahaman": "Tinggi"},
		{"mata_kuliah": "Statistika", "topik": "Regresi", "durasi_menit": "30", "tanggal": "2024-01-10", "tingkat_pemahaman": "Rendah"},
	} {
		rec := s.postJSON("/api/belajar", p)
		require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())
	}

	list := decode[[]studyResponse](s.T(), s.do(http.MethodGet, "/api/belajar", nil, ""))
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), core.FormatDuration(core.ParseAmount("30")), list[0].DurasiFormatted)

	sum := decode[core.StudySummary](s.T(), s.do(http.MethodGet, "/api/belajar/summary?tanggal=2024-01-10", nil, ""))
	assert.Equal(s.T(), "90", sum.TotalMinutes.String())
	require.Len(s.T(), sum.BySubject, 1)
	assert.Equal(s.T(), "Statistika", sum.BySubject[0].Name)
	assert.Equal(s.T(), 1, sum.ComprehensionByTopic["Regresi"]["Tinggi"])
	assert.Equal(s.T(), 1, sum.ComprehensionByTopic["Regresi"]["Rendah"])

	table := decode[core.Table](s.T(), s.do(http.MethodGet, "/api/belajar/table", nil, ""))
	assert.Equal(s.T(), 2, table.Len())
	assert.Contains(s.T(), table.Columns, "Durasi")

	rec := s.do(http.MethodDelete, "/api/belajar/"+itoa(list[0].ID), nil, "")
	assert.Equal(s.T(), http.StatusNoContent, rec.Code)
	assert.Len(s.T(), decode[[]studyResponse](s.T(), s.do(http.MethodGet, "/api/belajar", nil, "")), 1)
}

func (s *ServerTestSuite) TestStudyValidation() {
	rec := s.postJSON("/api/belajar", map[string]any{"mata_kuliah": "Fisika", "durasi_menit": 30})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	rec = s.postJSON("/api/belajar", map[string]any{"topik": "Optik", "durasi_menit": 0})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestStoreFailures() {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelError, Component: log.ComponentHTTP, Output: &buf})
	expRepo, err := storage.NewExpenseRepository(context.Background(), s.store)
	require.NoError(s.T(), err)
	s.server = NewServer(":0", logger,
		services.NewExpenseService(expRepo, cache.NewLRUCache[any](32, time.Minute), nil),
		s.server.study,
	)

	created := decode[expenseResponse](s.T(), s.postJSON("/api/pengeluaran", map[string]any{
		"deskripsi": "Parkir", "jumlah": 2000, "kategori": "Transportasi",
	}))
	_, err = s.store.Exec(context.Background(), "ALTER TABLE transaksi RENAME TO transaksi_lama")
	require.NoError(s.T(), err)

	rec := s.do(http.MethodDelete, "/api/pengeluaran/"+itoa(created.ID), nil, "")
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	assert.NotContains(s.T(), decode[errorResponse](s.T(), rec).Error, "ditemukan")

	buf.Reset()
	rec = s.postJSON("/api/pengeluaran", map[string]any{"deskripsi": "Kopi", "jumlah": 10000, "kategori": "Makanan"})
	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)
	assert.Equal(s.T(), "gagal menyimpan pengeluaran", decode[errorResponse](s.T(), rec).Error)
	assert.Contains(s.T(), buf.String(), "error_type=internal_error")
}

func (s *ServerTestSuite) TestUnknownRouteAndMethod() {
	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/api/lainnya", nil, "").Code)
	assert.Equal(s.T(), http.StatusMethodNotAllowed, s.do(http.MethodPut, "/api/pengeluaran", nil, "").Code)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestParseDateQuery(t *testing.T) {
	d, err := ParseDateQuery(url.Values{})
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())

	d, err = ParseDateQuery(url.Values{"tanggal": {" 2024-02-29 "}})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDateQuery(url.Values{"tanggal": {"2024-13-01"}})
	assert.ErrorIs(t, err, errInvalidDate)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Makan\tsiang", sanitizeInput("  Makan\x00\tsiang\x07 "))
	assert.Equal(t, "", sanitizeInput("\x01\x02"))
}

func TestRequestBodyParser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jumlah": 12.5, "ok": true, "deskripsi": null}`))
	p := NewRequestBodyParser(req)
	require.NoError(t, p.Parse())
	assert.Equal(t, "12.5", p.Get("jumlah"))
	assert.Equal(t, "true", p.Get("ok"))
	assert.Equal(t, "", p.Get("deskripsi"))
	assert.Equal(t, "", p.Get("missing"))

	empty := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", nil))
	require.NoError(t, empty.Parse())
	assert.Equal(t, "", empty.Get("deskripsi"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
