package http

import (
	"net/http"

	"catatan/internal/amqp"
	"catatan/internal/core"
	"catatan/internal/log"
)

type studyResponse struct {
	ID               int64     `json:"id"`
	MataKuliah       string    `json:"mata_kuliah"`
	Topik            string    `json:"topik"`
	DurasiMenit      string    `json:"durasi_menit"`
	DurasiFormatted  string    `json:"durasi_formatted"`
	Tanggal          core.Date `json:"tanggal"`
	TingkatPemahaman string    `json:"tingkat_pemahaman"`
}

func toStudyResponse(s core.StudySession) studyResponse {
	return studyResponse{
		ID:               s.ID,
		MataKuliah:       s.Subject,
		Topik:            s.Topic,
		DurasiMenit:      s.DurationMinutes.String(),
		DurasiFormatted:  core.FormatDuration(s.DurationMinutes),
		Tanggal:          s.Date,
		TingkatPemahaman: s.Comprehension,
	}
}

func (s *Server) handleListStudy(w http.ResponseWriter, r *http.Request) {
	items := s.study.List(r.Context())
	out := make([]studyResponse, len(items))
	for i, ss := range items {
		out[i] = toStudyResponse(ss)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
			log.FieldOperation, log.OpParse, log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, "format permintaan tidak valid")
		return
	}

	ss, err := studyInput(p)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Study session rejected",
			log.FieldOperation, log.OpValidate, log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if !s.study.Add(r.Context(), &ss) {
		writeError(w, r, http.StatusInternalServerError, "gagal menyimpan sesi belajar")
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentStudy)).
		LogRecordCreated(r.Context(), amqp.AppStudy, ss.ID, ss.Date.String())
	writeJSON(w, r, http.StatusCreated, toStudyResponse(ss))
}

func (s *Server) handleDeleteStudy(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDVar(r)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, errInvalidID.Error())
		return
	}
	if !s.study.Delete(r.Context(), id) {
		writeError(w, r, http.StatusNotFound, "sesi belajar tidak dapat dihapus")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStudyTable(w http.ResponseWriter, r *http.Request) {
	on, err := ParseDateQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.study.Table(r.Context(), on))
}

func (s *Server) handleStudySummary(w http.ResponseWriter, r *http.Request) {
	on, err := ParseDateQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.study.Summary(r.Context(), on))
}
