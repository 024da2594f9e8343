package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uniportal-api/api/swagger"
	"github.com/noah-isme/uniportal-api/internal/handler"
	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/config"
	"github.com/noah-isme/uniportal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uniportal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uniportal-api/pkg/middleware/requestid"
)

type handlers struct {
	auth         *handler.AuthHandler
	superAdmin   *handler.SuperAdminHandler
	students     *handler.StudentHandler
	dashboard    *handler.DashboardHandler
	reference    *handler.ReferenceHandler
	registration *handler.RegistrationHandler
	payments     *handler.PaymentHandler
	metrics      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, log *zap.Logger, metrics *service.MetricsService, auth *service.AuthService, workspaces *service.WorkspaceManager, h handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/:app/signin", h.auth.Signin)
	api.POST("/payments/notifications", middleware.RequireFeature("checkout", cfg.Database.Enabled), h.payments.Notification)
	api.GET("/downloads/:token", middleware.RequireFeature("checkout", cfg.Database.Enabled), h.payments.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth, workspaces))
	secured.POST("/auth/signout", h.auth.Signout)
	secured.GET("/session/preferences", h.auth.Preferences)
	secured.PATCH("/session/preferences", h.auth.UpdatePreferences)
	secured.GET("/reference/:kind", h.reference.List)

	superAdmin := secured.Group("/super-admin")
	superAdmin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	superAdmin.GET("/universities", h.superAdmin.Universities)
	superAdmin.POST("/universities", middleware.Audit(log, "university.create"), h.superAdmin.CreateUniversity)
	superAdmin.GET("/payments", h.superAdmin.Payments)
	superAdmin.GET("/activity-logs", h.superAdmin.ActivityLogs)
	superAdmin.GET("/dashboard", h.dashboard.Get)
	superAdmin.PUT("/dashboard/series/:kind", h.dashboard.SetRange)
	superAdmin.GET("/ops/metrics", h.metrics.Summary)

	admins := secured.Group("/:app")
	admins.Use(middleware.RequireApp(models.AppUniversityAdmin, models.AppDepartmentAdmin))
	admins.GET("/students", h.students.List)
	admins.GET("/students/export", middleware.Audit(log, "students.export"), h.students.Export)

	student := secured.Group("/student")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	student.GET("/registration", h.registration.View)
	student.DELETE("/registration", h.registration.Reset)
	student.POST("/registration/picker", h.registration.OpenPicker)
	student.GET("/registration/picker", h.registration.Search)
	student.POST("/registration/picker/toggle", h.registration.Toggle)
	student.POST("/registration/picker/commit", h.registration.Commit)
	student.DELETE("/registration/picker", h.registration.CancelPicker)
	student.DELETE("/registration/courses/:code", h.registration.Remove)
	student.DELETE("/registration/courses", h.registration.RemoveAll)
	student.POST("/registration/confirmation", h.registration.BeginConfirmation)
	student.DELETE("/registration/confirmation", h.registration.CancelConfirmation)

	paid := student.Group("")
	paid.Use(middleware.RequireFeature("checkout", cfg.Database.Enabled))
	paid.POST("/registration/checkout", middleware.Audit(log, "registration.checkout"), h.registration.Checkout)
	paid.GET("/registrations", h.registration.Registrations)
	paid.GET("/registrations/:id", h.registration.Registration)

	return r
}
