package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/response"
)

type PayrollHandler interface {
	Breakdown(w http.ResponseWriter, r *http.Request)

	// Payslips
	GeneratePayslips(w http.ResponseWriter, r *http.Request)
	StartRun(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)
	RegeneratePayslip(w http.ResponseWriter, r *http.Request)
	SubmitPayslip(w http.ResponseWriter, r *http.Request)
	EmailPayslip(w http.ResponseWriter, r *http.Request)
	DownloadPayslip(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== BREAKDOWN ==========

func (h *payrollHandlerImpl) Breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, errYear := strconv.Atoi(q.Get("year"))
	month, errMonth := strconv.Atoi(q.Get("month"))
	if errYear != nil || errMonth != nil {
		response.BadRequest(w, "year and month must be numbers", nil)
		return
	}

	result, err := h.payrollService.Breakdown(r.Context(), payroll.BreakdownRequest{
		EmployeeID: q.Get("employee_id"),
		Year:       year,
		Month:      month,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== PAYSLIPS ==========

func (h *payrollHandlerImpl) GeneratePayslips(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.GenerateBatch(r.Context(), req, nil)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("%d of %d payslips generated", result.Processed, result.Total), result)
}

func (h *payrollHandlerImpl) StartRun(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.StartRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Payroll run queued", result)
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	result, err := h.payrollService.GetPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) RegeneratePayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	result, err := h.payrollService.Regenerate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip regenerated", result)
}

func (h *payrollHandlerImpl) SubmitPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	if err := h.payrollService.Submit(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip submitted", nil)
}

func (h *payrollHandlerImpl) EmailPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	if err := h.payrollService.EmailPayslip(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip emailed", nil)
}

func (h *payrollHandlerImpl) DownloadPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payslip ID is required", nil)
		return
	}

	data, err := h.payrollService.PayslipPDF(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, "application/pdf", fmt.Sprintf("payslip-%s.pdf", id), data)
}
