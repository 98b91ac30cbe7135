package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
)

// RenderPayslip lays out a payslip on one A4 page.
func RenderPayslip(p payroll.Payslip) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Pay Slip %s %d-%02d", p.EmployeeName, p.Year, p.Month), true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Pay Slip")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	period := time.Month(p.Month).String() + " " + fmt.Sprint(p.Year)
	header := [][2]string{
		{"Employee", fmt.Sprintf("%s (%s)", p.EmployeeName, p.EmployeeID)},
		{"Company", p.CompanyID},
		{"Period", period},
		{"Basic Salary", money(p.BasicSalary)},
		{"Per Day Salary", money(p.PerDaySalary)},
		{"Standard Working Days", fmt.Sprint(p.StandardWorkingDays)},
		{"Actual Working Days", fmt.Sprint(p.ActualWorkingDays)},
		{"Absent", fmt.Sprint(p.Absent)},
		{"Lates Forgiven", fmt.Sprint(p.LatesForgiven)},
	}
	for _, kv := range header {
		doc.CellFormat(60, 7, kv[0], "", 0, "L", false, 0, "")
		doc.CellFormat(0, 7, kv[1], "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	table(doc, "Salary Calculation", []string{"Particulars", "Days", "Rate", "Amount"}, p.SalaryCalculation, true)
	doc.Ln(4)
	table(doc, "Other Earnings", []string{"Particulars", "", "", "Amount"}, p.OtherEarnings, false)
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(130, 8, "Total", "T", 0, "L", false, 0, "")
	doc.CellFormat(0, 8, money(p.Total), "T", 1, "R", false, 0, "")
	doc.CellFormat(130, 8, "Net Payable", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 8, money(p.NetPayable), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func table(doc *gofpdf.Fpdf, title string, cols []string, items []payroll.LineItem, withDays bool) {
	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 8, title)
	doc.Ln(9)

	widths := []float64{90, 20, 20, 0}
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(230, 230, 230)
	for i, c := range cols {
		doc.CellFormat(widths[i], 7, c, "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	if len(items) == 0 {
		doc.CellFormat(0, 7, "None", "1", 1, "L", false, 0, "")
		return
	}
	for _, it := range items {
		days, rate := "", ""
		if withDays {
			days = fmt.Sprint(it.Days)
			if it.Rate > 0 {
				rate = fmt.Sprintf("%d%%", it.Rate)
			}
		}
		doc.CellFormat(widths[0], 7, it.Particulars, "1", 0, "L", false, 0, "")
		doc.CellFormat(widths[1], 7, days, "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[2], 7, rate, "1", 0, "R", false, 0, "")
		doc.CellFormat(widths[3], 7, money(it.Amount), "1", 1, "R", false, 0, "")
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
