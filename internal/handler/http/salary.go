package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/response"
)

type EncashmentHandler interface {
	Eligible(w http.ResponseWriter, r *http.Request)
	Generate(w http.ResponseWriter, r *http.Request)
	ListDue(w http.ResponseWriter, r *http.Request)
}

type encashmentHandlerImpl struct {
	encashmentService salary.EncashmentService
}

func NewEncashmentHandler(encashmentService salary.EncashmentService) EncashmentHandler {
	return &encashmentHandlerImpl{encashmentService: encashmentService}
}

func periodParams(r *http.Request) (int, int, bool) {
	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	return year, month, errYear == nil && errMonth == nil
}

func (h *encashmentHandlerImpl) Eligible(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodParams(r)
	if !ok {
		response.BadRequest(w, "year and month must be numbers", nil)
		return
	}

	result, err := h.encashmentService.Eligible(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *encashmentHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req salary.GenerateEncashmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.encashmentService.Generate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave encashments generated", result)
}

func (h *encashmentHandlerImpl) ListDue(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodParams(r)
	if !ok {
		response.BadRequest(w, "year and month must be numbers", nil)
		return
	}

	result, err := h.encashmentService.ListDue(r.Context(), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

type RecurringHandler interface {
	Schedule(w http.ResponseWriter, r *http.Request)
}

type recurringHandlerImpl struct {
	recurringService salary.RecurringService
}

func NewRecurringHandler(recurringService salary.RecurringService) RecurringHandler {
	return &recurringHandlerImpl{recurringService: recurringService}
}

func (h *recurringHandlerImpl) Schedule(w http.ResponseWriter, r *http.Request) {
	var req salary.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.recurringService.Schedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Recurring components scheduled", result)
}

type JobHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
}

type jobHandlerImpl struct {
	jobService job.JobService
}

func NewJobHandler(jobService job.JobService) JobHandler {
	return &jobHandlerImpl{jobService: jobService}
}

func (h *jobHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Job ID is required", nil)
		return
	}

	result, err := h.jobService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
