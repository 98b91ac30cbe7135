package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jwt"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Attendance AttendanceHandler
	Payroll    PayrollHandler
	Encashment EncashmentHandler
	Recurring  RecurringHandler
	Job        JobHandler
}

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireHR)

			r.Route("/attendance", func(r chi.Router) {
				r.Route("/import", func(r chi.Router) {
					r.Post("/preview", h.Attendance.Preview)
					r.Post("/validate", h.Attendance.Validate)
					r.Post("/commit", h.Attendance.Commit)
					r.Post("/export", h.Attendance.Export)
				})
				r.Post("/corrections", h.Attendance.Correct)
				r.Post("/self-attendance/approve", h.Attendance.ApproveSelfAttendance)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/breakdown", h.Payroll.Breakdown)

				// Managers and admins only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(jwt.RoleHRAdmin, jwt.RoleHRManager))
					r.Post("/runs", h.Payroll.StartRun)
					r.Post("/payslips/generate", h.Payroll.GeneratePayslips)
					r.Post("/payslips/{id}/regenerate", h.Payroll.RegeneratePayslip)
					r.Post("/payslips/{id}/submit", h.Payroll.SubmitPayslip)
					r.Post("/payslips/{id}/email", h.Payroll.EmailPayslip)
				})

				r.Get("/payslips/{id}", h.Payroll.GetPayslip)
				r.Get("/payslips/{id}/pdf", h.Payroll.DownloadPayslip)
			})

			r.Route("/encashments", func(r chi.Router) {
				r.Get("/eligible", h.Encashment.Eligible)
				r.Get("/due", h.Encashment.ListDue)
				r.With(middleware.RequireRole(jwt.RoleHRAdmin, jwt.RoleHRManager)).Post("/generate", h.Encashment.Generate)
			})

			r.Post("/recurring-components", h.Recurring.Schedule)
			r.Get("/jobs/{id}", h.Job.Get)
		})
	})
	return r
}

