package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/Feighth-arts/glam-sub000/internal/repository"
	"github.com/Feighth-arts/glam-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

// EarningsHandler gives providers a settlement view over their completed
// bookings: per-booking gross, the platform commission withheld, and the
// net amount due to them.
type EarningsHandler struct {
	Repo     repository.BookingRepository
	Currency string
}

func (h EarningsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/provider/earnings", h.list)
	r.Get("/provider/earnings/export", h.export)
}

func (h EarningsHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Repo.ListCompletedByProvider(r.Context(), user.ID, from, to, parseLimit(r, 200))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var gross, commission, net int64
	rows := make([]map[string]any, 0, len(items))
	for _, b := range items {
		gross += b.Amount.Amount
		commission += b.Commission.Amount
		net += b.ProviderEarning.Amount
		rows = append(rows, map[string]any{
			"bookingId":   strconv.FormatInt(b.ID, 10),
			"code":        b.Code,
			"serviceName": b.ServiceName,
			"scheduledAt": b.ScheduledAt.UTC().Format(time.RFC3339),
			"amount":      b.Amount.Amount,
			"commission":  b.Commission.Amount,
			"earning":     b.ProviderEarning.Amount,
			"currency":    h.Currency,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": rows,
		"totals": map[string]any{
			"gross":      gross,
			"commission": commission,
			"net":        net,
		},
	})
}

func (h EarningsHandler) export(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Repo.ListCompletedByProvider(r.Context(), user.ID, from, to, parseLimit(r, 1000))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	filename := fmt.Sprintf("earnings-%s", time.Now().Format("2006-01-02"))
	switch format {
	case "csv":
		data, err := exportEarningsCSV(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		_, _ = w.Write(data)
	case "xlsx":
		data, err := exportEarningsXLSX(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func exportEarningsCSV(items []domain.Booking) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"booking_id", "code", "service", "scheduled_at", "amount", "commission", "earning"})
	for _, b := range items {
		_ = w.Write([]string{
			strconv.FormatInt(b.ID, 10),
			b.Code,
			b.ServiceName,
			b.ScheduledAt.Format("2006-01-02"),
			strconv.FormatInt(b.Amount.Amount, 10),
			strconv.FormatInt(b.Commission.Amount, 10),
			strconv.FormatInt(b.ProviderEarning.Amount, 10),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportEarningsXLSX(items []domain.Booking) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Earnings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"Booking", "Code", "Service", "Date", "Amount", "Commission", "Earning"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, b := range items {
		row := r + 2
		values := []any{
			b.ID,
			b.Code,
			b.ServiceName,
			b.ScheduledAt.Format("2006-01-02"),
			b.Amount.Amount,
			b.Commission.Amount,
			b.ProviderEarning.Amount,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "G", 14)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "G1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
