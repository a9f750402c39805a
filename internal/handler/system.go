package handler

import (
	"net/http"

	"bistro-pos/internal/metrics"
	"bistro-pos/internal/utils"
)

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func Metrics(m *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, m.Snapshot())
	}
}
