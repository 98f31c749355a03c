package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/middleware"
	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Enrollments   *EnrollmentHandler
	Reservations  *ReservationHandler
	Classes       *ClassHandler
	Courses       *CourseHandler
	Students      *StudentHandler
	Lecturers     *LecturerHandler
	Locations     *LocationHandler
	Sessions      *SessionHandler
	Grades        *GradeHandler
	Attendance    *AttendanceHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
	Wallet        *WalletHandler
	Status        *StatusHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes wires every endpoint under the API prefix. Staff-only
// mutations require the ADMIN role; lecturers can run their own classes.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/payments/callback", h.Payments.Callback)
	api.GET("/statuses", h.Status.Vocabulary)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.PUT("/auth/password", h.Auth.ChangePassword)
	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/enrollments", staff, h.Enrollments.List)
	protected.GET("/enrollments/:id", h.Enrollments.Get)
	protected.GET("/enrollments/:id/eligibility", h.Enrollments.Eligibility)
	protected.POST("/enrollments", admin, h.Enrollments.Register)
	protected.PUT("/enrollments/:id/cancel", admin, h.Enrollments.Cancel)
	protected.POST("/enrollments/:id/reserve", admin, h.Enrollments.Reserve)
	protected.POST("/enrollments/:id/retake", admin, h.Enrollments.Retake)
	protected.PUT("/enrollments/:id/change-class", admin, h.Enrollments.ChangeClass)
	protected.GET("/enrollments/:id/change-class/quote", admin, h.Enrollments.QuoteChange)

	protected.GET("/reservations", staff, h.Reservations.List)
	protected.GET("/reservations/:id", staff, h.Reservations.Get)
	protected.PUT("/reservations/:id/approve", admin, h.Reservations.Approve)
	protected.PUT("/reservations/:id/reject", admin, h.Reservations.Reject)
	protected.POST("/reservations/:id/continue", admin, h.Enrollments.Continue)

	protected.GET("/classes", h.Classes.List)
	protected.GET("/classes/:id", h.Classes.Get)
	protected.POST("/classes", admin, h.Classes.Create)
	protected.PUT("/classes/:id", admin, h.Classes.Update)
	protected.PUT("/classes/:id/status", admin, h.Classes.UpdateStatus)
	protected.POST("/classes/:id/complete", admin, h.Classes.Complete)
	protected.GET("/classes/:id/roster", staff, h.Classes.Roster)
	protected.GET("/classes/:id/grades", staff, h.Grades.ByClass)

	protected.GET("/courses", h.Courses.List)
	protected.GET("/courses/:id", h.Courses.Get)
	protected.POST("/courses", admin, h.Courses.Create)
	protected.PUT("/courses/:id", admin, h.Courses.Update)

	protected.GET("/students", staff, h.Students.List)
	protected.GET("/students/:id", middleware.RBAC("ADMIN", "LECTURER", "SELF"), h.Students.Get)
	protected.POST("/students", admin, h.Students.Create)
	protected.PUT("/students/:id", admin, h.Students.Update)
	protected.GET("/students/:id/enrollments", middleware.RBAC("ADMIN", "LECTURER", "SELF"), h.Students.Enrollments)

	protected.GET("/students/:id/wallet", middleware.RBAC("ADMIN", "SELF"), h.Wallet.Balance)
	protected.GET("/students/:id/wallet/transactions", middleware.RBAC("ADMIN", "SELF"), h.Wallet.History)
	protected.POST("/students/:id/wallet/credit", admin, h.Wallet.Credit)
	protected.POST("/students/:id/wallet/debit", admin, h.Wallet.Debit)

	protected.GET("/lecturers", h.Lecturers.List)
	protected.GET("/lecturers/:id", h.Lecturers.Get)
	protected.POST("/lecturers", admin, h.Lecturers.Create)
	protected.PUT("/lecturers/:id", admin, h.Lecturers.Update)

	protected.GET("/locations", h.Locations.List)
	protected.GET("/locations/:id", h.Locations.Get)
	protected.POST("/locations", admin, h.Locations.Create)
	protected.PUT("/locations/:id", admin, h.Locations.Update)

	protected.GET("/sessions", h.Sessions.List)
	protected.GET("/sessions/:id", h.Sessions.Get)
	protected.POST("/sessions", staff, h.Sessions.Create)
	protected.PUT("/sessions/:id/status", staff, h.Sessions.UpdateStatus)
	protected.GET("/sessions/:id/attendance", staff, h.Attendance.BySession)

	protected.POST("/grades", staff, h.Grades.Record)
	protected.GET("/grades/report", h.Grades.Report)

	protected.POST("/attendance", staff, h.Attendance.Mark)
	protected.GET("/attendance/history", h.Attendance.History)

	protected.GET("/payments", staff, h.Payments.List)
	protected.GET("/payments/:id", h.Payments.Get)
	protected.POST("/payments", admin, h.Payments.Start)
	protected.GET("/payments/:id/receipt", h.Payments.Receipt)

	protected.GET("/notifications", h.Notifications.List)
	protected.POST("/notifications/broadcast", admin, h.Notifications.Broadcast)
	protected.PUT("/notifications/:id/read", h.Notifications.MarkRead)

	protected.GET("/metrics/snapshot", admin, h.Metrics.Snapshot)
}
