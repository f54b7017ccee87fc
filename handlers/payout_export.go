package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"p9e.in/apex/models"
)

var payoutLedgerColumns = []string{
	"Payout ID", "Job ID", "Contractor ID", "Job Type",
	"Amount", "Material Reimbursed", "Status", "Decline Reason", "Payment Date",
}

func payoutLedgerRow(p models.ContractorPayout) []string {
	paymentDate := ""
	if p.PaymentDate != nil {
		paymentDate = p.PaymentDate.Format("2006-01-02")
	}
	return []string{
		p.ID.String(),
		p.JobID.String(),
		p.ContractorID.String(),
		string(p.JobType),
		p.Amount.StringFixed(2),
		p.MaterialReimbursed.StringFixed(2),
		string(p.Status),
		p.DeclineReason,
		paymentDate,
	}
}

// ExportPayoutLedgerToExcel streams the full payout ledger as a styled
// spreadsheet. Admin and investor only (enforced at the route).
func ExportPayoutLedgerToExcel(w http.ResponseWriter, r *http.Request) {
	payouts, err := getStore().Payouts(r.Context())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	f := excelize.NewFile()
	sheet := "Payout Ledger"
	f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	f.SetCellValue(sheet, "A1", "Contractor Payout Ledger")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", "Generated "+time.Now().Format("2006-01-02 15:04"))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	for colIdx, col := range payoutLedgerColumns {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, p := range payouts {
		for colIdx, value := range payoutLedgerRow(p) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("payout_ledger_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		http.Error(w, "failed to write spreadsheet", http.StatusInternalServerError)
	}
}

// ExportPayoutLedgerToCSV streams the full payout ledger as CSV.
func ExportPayoutLedgerToCSV(w http.ResponseWriter, r *http.Request) {
	payouts, err := getStore().Payouts(r.Context())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(payoutLedgerColumns); err != nil {
		http.Error(w, "failed to write csv", http.StatusInternalServerError)
		return
	}
	for _, p := range payouts {
		if err := writer.Write(payoutLedgerRow(p)); err != nil {
			http.Error(w, "failed to write csv", http.StatusInternalServerError)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		http.Error(w, "failed to write csv", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("payout_ledger_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.Write(buf.Bytes())
}
