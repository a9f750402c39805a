package handler

import (
	"bytes"
	"net/http"
	"time"

	"bistro-pos/internal/report"
	"bistro-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	svc report.Service
	now func() time.Time
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc, now: time.Now}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.Sales)
	r.Get("/payments.csv", h.PaymentsCSV)
}

func (h *ReportHandler) rangeFrom(r *http.Request) (report.Range, error) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" && (q.Get("start_date") != "" || q.Get("end_date") != "") {
		period = report.PeriodCustom
	}
	return report.ResolveRange(period, q.Get("start_date"), q.Get("end_date"), h.now())
}

// Sales answers JSON, or the sectioned CSV export when format=csv.
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	rg, err := h.rangeFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, r, report.ExportFilename(rg), func(buf *bytes.Buffer) error {
			return h.svc.ExportSales(r.Context(), rg, buf)
		})
		return
	}

	rep, err := h.svc.SalesReport(r.Context(), rg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rep)
}

func (h *ReportHandler) PaymentsCSV(w http.ResponseWriter, r *http.Request) {
	rg, err := h.rangeFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := "payments_" + rg.Start.Format("2006-01-02") + "_to_" + rg.End.Format("2006-01-02") + ".csv"
	h.writeCSV(w, r, name, func(buf *bytes.Buffer) error {
		return h.svc.ExportPayments(r.Context(), rg, buf)
	})
}

// writeCSV buffers the export so a failure can still become a JSON error.
func (h *ReportHandler) writeCSV(w http.ResponseWriter, r *http.Request, filename string, fill func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
