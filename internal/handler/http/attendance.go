package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/response"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/storage"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

const (
	maxUploadSize = 32 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// uploadFields are the multipart file fields, one per declared format.
var uploadFields = []attendance.Format{
	attendance.FormatDeviceGrid,
	attendance.FormatDeviceTable,
	attendance.FormatDeviceDump,
	attendance.FormatGeneric,
}

type AttendanceHandler interface {
	Preview(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Commit(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
	ApproveSelfAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	files             storage.FileStorage
}

// NewAttendanceHandler archives uploaded files to files when it is not nil.
func NewAttendanceHandler(attendanceService attendance.AttendanceService, files storage.FileStorage) AttendanceHandler {
	return &attendanceHandlerImpl{attendanceService: attendanceService, files: files}
}

func (h *attendanceHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	req, details := parseImportForm(r)
	if len(details) > 0 {
		response.BadRequest(w, "Invalid import request", details)
		return
	}

	result, err := h.attendanceService.Preview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.archive(r, req.Files)
	response.Success(w, result)
}

func parseImportForm(r *http.Request) (attendance.ImportRequest, map[string]string) {
	details := make(map[string]string)
	req := attendance.ImportRequest{
		Policy:     attendance.Policy(r.FormValue("policy")),
		IncludeApp: r.FormValue("include_app") == "true",
	}

	if v := r.FormValue("from_date"); v != "" {
		d, err := timeparse.ParseDate(v)
		if err != nil {
			details["from_date"] = "must be a valid date"
		}
		req.FromDate = d
	}
	if v := r.FormValue("to_date"); v != "" {
		d, err := timeparse.ParseDate(v)
		if err != nil {
			details["to_date"] = "must be a valid date"
		}
		req.ToDate = d
	}
	if v := r.FormValue("employee_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.EmployeeIDs = append(req.EmployeeIDs, id)
			}
		}
	}

	if r.MultipartForm != nil {
		for _, format := range uploadFields {
			for _, fh := range r.MultipartForm.File[string(format)] {
				data, err := readUpload(fh)
				if err != nil {
					details[string(format)] = fmt.Sprintf("failed to read %s", fh.Filename)
					continue
				}
				req.Files = append(req.Files, attendance.ImportFile{Format: format, Name: fh.Filename, Data: data})
			}
		}
	}
	return req, details
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// archive keeps a copy of every uploaded file. Failures are logged only.
func (h *attendanceHandlerImpl) archive(r *http.Request, files []attendance.ImportFile) {
	if h.files == nil || len(files) == 0 {
		return
	}
	batch := time.Now().UTC().Format("20060102") + "-" + uuid.NewString()
	for _, f := range files {
		key := storage.ImportKey(batch, string(f.Format)+"-"+f.Name)
		if _, err := h.files.Upload(r.Context(), bytes.NewReader(f.Data), key, "application/octet-stream"); err != nil {
			slog.Warn("Failed to archive attendance file", "file", f.Name, "error", err)
		}
	}
}

func (h *attendanceHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.Validate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) Commit(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.Commit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Attendance import queued", result)
}

func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	data, err := h.attendanceService.Export(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, xlsxMIME, "final-attendance.xlsx", data)
}

func (h *attendanceHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	var req attendance.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())
	req.RequestedBy = actor.Email
	if req.RequestedBy == "" {
		req.RequestedBy = actor.UserID
	}
	req.IsAdmin = actor.Role.IsAdmin()

	result, err := h.attendanceService.Correct(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance corrected", result)
}

func (h *attendanceHandlerImpl) ApproveSelfAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendance.SelfAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.ApproveSelfAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Self attendance approved", result)
}
