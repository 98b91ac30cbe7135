package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/domain/salary"
	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/response"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jwt"
)

type stubAttendance struct {
	attendance.AttendanceService
	preview    attendance.ImportRequest
	correction attendance.CorrectionRequest
}

func (s *stubAttendance) Preview(_ context.Context, req attendance.ImportRequest) (attendance.PreviewResponse, error) {
	s.preview = req
	return attendance.PreviewResponse{Records: []attendance.RecordRow{}}, nil
}

func (s *stubAttendance) Correct(_ context.Context, req attendance.CorrectionRequest) (attendance.RecordRow, error) {
	s.correction = req
	return attendance.RecordRow{EmployeeID: "EMP-001"}, nil
}

type stubPayroll struct {
	payroll.PayrollService
	runs int
}

func (s *stubPayroll) StartRun(_ context.Context, _ payroll.GenerateRequest) (payroll.RunResponse, error) {
	s.runs++
	return payroll.RunResponse{JobID: "job-1"}, nil
}

func (s *stubPayroll) Submit(_ context.Context, _ string) error {
	return payroll.ErrPayslipSubmitted
}

type stubJobs struct{}

func (stubJobs) Get(_ context.Context, id string) (job.JobRunResponse, error) {
	if id == "job-1" {
		return job.JobRunResponse{ID: id, Status: job.StatusCompleted, Progress: 100}, nil
	}
	return job.JobRunResponse{}, job.ErrJobNotFound
}

type stubEncashment struct{ salary.EncashmentService }

func (stubEncashment) Eligible(_ context.Context, _, _ int) ([]salary.EligibleEmployee, error) {
	return nil, salary.ErrInvalidPeriod
}

type routerFixture struct {
	jwt        jwt.Service
	attendance *stubAttendance
	payroll    *stubPayroll
	handler    http.Handler
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		jwt:        jwt.NewJWTService("test-secret", "1h"),
		attendance: &stubAttendance{},
		payroll:    &stubPayroll{},
	}
	f.handler = NewRouter(f.jwt, Handlers{
		Attendance: NewAttendanceHandler(f.attendance, nil),
		Payroll:    NewPayrollHandler(f.payroll),
		Encashment: NewEncashmentHandler(stubEncashment{}),
		Recurring:  NewRecurringHandler(nil),
		Job:        NewJobHandler(stubJobs{}),
	}, RouterOptions{})
	return f
}

func (f *routerFixture) do(t *testing.T, req *http.Request, role jwt.Role) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	if role != "" {
		token, _, err := f.jwt.GenerateAccessToken("user-1", "hr@example.com", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var body response.Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture()
	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsUnknownRole(t *testing.T) {
	f := newRouterFixture()
	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil), jwt.Role("employee"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, body.Success)
}

func TestRouter_RunsNeedManager(t *testing.T) {
	f := newRouterFixture()
	payload := `{"company_id":"ACME","year":2025,"month":3}`

	rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", bytes.NewBufferString(payload)), jwt.RoleHRUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.payroll.runs)

	rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", bytes.NewBufferString(payload)), jwt.RoleHRManager)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, 1, f.payroll.runs)
}

func TestRouter_ErrorKinds(t *testing.T) {
	f := newRouterFixture()

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil), jwt.RoleHRUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/payslips/p-1/submit", nil), jwt.RoleHRAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/encashments/eligible?year=2025&month=13", nil), jwt.RoleHRUser)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/encashments/eligible?year=x", nil), jwt.RoleHRUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandler_PreviewMultipart(t *testing.T) {
	f := newRouterFixture()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("from_date", "2025-03-01"))
	require.NoError(t, mw.WriteField("to_date", "2025-03-31"))
	require.NoError(t, mw.WriteField("policy", "direction"))
	require.NoError(t, mw.WriteField("employee_ids", "EMP-001, EMP-002"))
	part, err := mw.CreateFormFile("device_b", "punches.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/import/preview", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, body := f.do(t, req, jwt.RoleHRUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	got := f.attendance.preview
	require.Len(t, got.Files, 1)
	assert.Equal(t, attendance.FormatDeviceTable, got.Files[0].Format)
	assert.Equal(t, "punches.xlsx", got.Files[0].Name)
	assert.Equal(t, attendance.PolicyDirection, got.Policy)
	assert.Equal(t, []string{"EMP-001", "EMP-002"}, got.EmployeeIDs)
	assert.Equal(t, 31, got.ToDate.Day())
}

func TestAttendanceHandler_CorrectCarriesActor(t *testing.T) {
	f := newRouterFixture()
	payload := `{"attendance_id":"a-1","field":"in","time":"09:00","reason":"device fault"}`

	rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/attendance/corrections", bytes.NewBufferString(payload)), jwt.RoleHRAdmin)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hr@example.com", f.attendance.correction.RequestedBy)
	assert.True(t, f.attendance.correction.IsAdmin)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/attendance/corrections", bytes.NewBufferString(payload)), jwt.RoleHRManager)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, f.attendance.correction.IsAdmin)
}
