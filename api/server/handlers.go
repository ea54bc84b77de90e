package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/kmrl-dash/core/journal"
	"github.com/kilianp07/kmrl-dash/core/model"
)

func (s *Server) getState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.opts.State.Snapshot())
}

func (s *Server) getTrain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "trainID")
	row, ok := model.FindTrain(s.opts.State.Snapshot().Schedule, id)
	if !ok {
		http.Error(w, "train not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, row)
}

func (s *Server) chartPage(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Charts == nil {
		http.Error(w, "charts disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.opts.Charts.Render(w); err != nil {
		s.log.Errorf("view server: render charts: %v", err)
	}
}

// listJournal serves GET /api/journal?start=&end=&kind=&name=&limit=. start and
// end are RFC3339 timestamps; malformed values are ignored.
func (s *Server) listJournal(w http.ResponseWriter, r *http.Request) {
	if s.opts.Journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	if s.opts.Token != "" && !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	v := r.URL.Query()
	q := journal.Query{Kind: journal.Kind(v.Get("kind")), Name: v.Get("name")}
	if t, err := time.Parse(time.RFC3339, v.Get("start")); err == nil {
		q.Start = t
	}
	if t, err := time.Parse(time.RFC3339, v.Get("end")); err == nil {
		q.End = t
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	records, err := s.opts.Journal.Query(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("view server: encode response: %v", err)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	got := []byte(r.Header.Get("Authorization"))
	return subtle.ConstantTimeCompare(got, []byte("Bearer "+s.opts.Token)) == 1
}
