package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/examportal/internal/auth/middleware"
	"github.com/mind-engage/examportal/internal/exam"
	"github.com/mind-engage/examportal/internal/rbac"
	"github.com/mind-engage/examportal/internal/storage"
	syncx "github.com/mind-engage/examportal/internal/sync"
	"github.com/mind-engage/examportal/internal/users"
)

type Deps struct {
	DB          *sql.DB // readiness probe
	Users       users.Store
	Exams       exam.Store
	Sessions    *auth.Sessions
	Blobs       storage.BlobStore
	Events      *syncx.EventRepo
	SyncToken   string
	CORSOrigins []string
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if d.Events != nil && d.SyncToken != "" {
		r.Get("/sync/events", SyncEventsHandler(d.Events, d.SyncToken))
	}

	r.Group(func(sr chi.Router) {
		sr.Use(d.Sessions.Middleware)

		sr.Get("/", HomeHandler())
		sr.Get("/login/", LoginPageHandler())
		sr.Post("/login/", LoginHandler(d.Users, d.Sessions))
		sr.Get("/signup/", SignupPageHandler())
		sr.Post("/signup/", SignupHandler(d.Users))
		sr.Get("/logout/", LogoutHandler(d.Sessions))
		sr.Post("/logout/", LogoutHandler(d.Sessions))

		sr.Group(func(pr chi.Router) {
			pr.Use(auth.RequireLogin)

			pr.Get("/media/*", MediaHandler(d.Blobs))
			pr.Get("/account/password/", ChangePasswordPageHandler())
			pr.Post("/account/password/", ChangePasswordHandler(d.Users))

			// student
			pr.With(rbac.Require("dashboard:student")).
				Get("/student/dashboard/", StudentDashboardHandler(d.Exams))
			pr.With(rbac.Require("profile:view-own")).
				Get("/student/profile/", StudentProfileHandler(d.Exams))
			pr.With(rbac.Require("profile:picture")).
				Post("/student/profile/picture/", UploadPictureHandler(d.Blobs, d.Users))
			pr.With(rbac.Require("result:view-own")).
				Get("/student/results/", StudentResultsHandler(d.Exams))
			pr.With(rbac.Require("attempt:create")).
				Get("/exam/{id}/take/", TakeExamHandler(d.Exams))
			pr.With(rbac.Require("attempt:submit")).
				Post("/exam/{attemptID}/submit/", SubmitExamHandler(d.Exams))
			pr.With(rbac.Require("attempt:submit")).
				Get("/exam/{attemptID}/submit/", func(w http.ResponseWriter, r *http.Request) {
					http.Redirect(w, r, "/student/dashboard/", http.StatusSeeOther)
				})

			// teacher
			pr.With(rbac.Require("dashboard:teacher")).
				Get("/teacher/dashboard/", TeacherDashboardHandler(d.Exams))
			pr.With(rbac.Require("exam:create")).
				Get("/teacher/create-exam/", CreateExamPageHandler())
			pr.With(rbac.Require("exam:create")).
				Post("/teacher/create-exam/", CreateExamHandler(d.Exams))
			pr.Route("/teacher/exam/{id}", func(er chi.Router) {
				er.With(rbac.Require("question:manage-own")).
					Get("/add-question/", AddQuestionPageHandler(d.Exams))
				er.With(rbac.Require("question:manage-own")).
					Post("/add-question/", AddQuestionHandler(d.Exams))
				er.With(rbac.Require("exam:manage-own")).
					Get("/view/", ViewExamHandler(d.Exams))
				er.With(rbac.Require("exam:manage-own")).
					Get("/delete/", DeleteExamPageHandler(d.Exams))
				er.With(rbac.Require("exam:manage-own")).
					Post("/delete/", DeleteExamHandler(d.Exams))
				er.With(rbac.Require("exam:manage-own")).
					Post("/toggle-active/", ToggleActiveHandler(d.Exams))
			})
			pr.With(rbac.Require("question:manage-own")).
				Post("/teacher/question/{id}/delete/", DeleteQuestionHandler(d.Exams))
			pr.With(rbac.Require("attempt:view-own-exams")).
				Get("/teacher/attempts/", ViewAttemptsHandler(d.Exams))
			pr.With(rbac.Require("attempt:view-own-exams")).
				Get("/teacher/attempt/{id}/grade/", GradeAttemptHandler(d.Exams))
		})
	})

	return r
}
