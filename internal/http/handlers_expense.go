package http

import (
	"net/http"

	"catatan/internal/amqp"
	"catatan/internal/core"
	"catatan/internal/log"
)

type expenseResponse struct {
	ID              int64     `json:"id"`
	Deskripsi       string    `json:"deskripsi"`
	Jumlah          string    `json:"jumlah"`
	JumlahFormatted string    `json:"jumlah_formatted"`
	Kategori        string    `json:"kategori"`
	Tanggal         core.Date `json:"tanggal"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:              e.ID,
		Deskripsi:       e.Description,
		Jumlah:          e.Amount.String(),
		JumlahFormatted: core.FormatRupiah(e.Amount),
		Kategori:        e.Category,
		Tanggal:         e.Date,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items := s.expenses.List(r.Context())
	out := make([]expenseResponse, len(items))
	for i, e := range items {
		out[i] = toExpenseResponse(e)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
			log.FieldOperation, log.OpParse, log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	e, err := expenseInput(p)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Expense rejected",
			log.FieldOperation, log.OpValidate, log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if !s.expenses.Add(r.Context(), &e) {
		writeError(w, r, http.StatusInternalServerError, "gagal menyimpan pengeluaran")
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentExpense)).
		LogRecordCreated(r.Context(), amqp.AppExpense, e.ID, e.Date.String())
	writeJSON(w, r, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDVar(r)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, errInvalidID.Error())
		return
	}
	if !s.expenses.Delete(r.Context(), id) {
		writeError(w, r, http.StatusNotFound, "pengeluaran tidak dapat dihapus")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseTable(w http.ResponseWriter, r *http.Request) {
	on, err := ParseDateQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.expenses.Table(r.Context(), on))
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	on, err := ParseDateQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.expenses.Summary(r.Context(), on))
}
