package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/controllers"
	"github.com/ywy929/assay-dashboard-backend/middlewares"
)

type Controllers struct {
	Auth      *controllers.AuthController
	Assay     *controllers.AssayController
	Sync      *controllers.SyncController
	Analytics *controllers.AnalyticsController
	PDF       *controllers.PDFController
	Realtime  *controllers.RealtimeController
}

func SetupRouter(ctrl Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":     "Assay Dashboard",
			"version":     "1.0.0",
			"environment": config.Environment,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "environment": config.Environment})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.Refresh)
		auth.POST("/logout", ctrl.Auth.Logout)
		auth.POST("/change-password", ctrl.Auth.ChangePassword)
	}

	users := r.Group("/users")
	users.Use(middlewares.AuthMiddleware())
	{
		users.GET("/all", middlewares.RequireRoles("admin"), controllers.GetAllUsers)
		users.GET("/me", controllers.GetOwnProfile)
		users.GET("/names", controllers.GetUserNames)
		users.GET("/customers/names", controllers.GetCustomerNames)
		users.GET("/customers", middlewares.RequireRoles("admin", "worker", "boss"), controllers.GetCustomers)
		users.GET("/customers/:id", middlewares.RequireRoles("admin", "worker", "boss"), controllers.GetCustomerDetail)
		users.GET("/:id", middlewares.RequireRoles("admin"), controllers.GetUserByID)
	}

	assays := r.Group("/assay-results")
	assays.Use(middlewares.AuthMiddleware())
	{
		assays.GET("/my-results", ctrl.Assay.MyResults)
		assays.GET("/my-results/:id", ctrl.Assay.MyResultByID)
		assays.GET("/search", ctrl.Assay.Search)
		assays.GET("/all", middlewares.RequireRoles("admin"), ctrl.Assay.All)
		assays.GET("/user/:id", middlewares.RequireRoles("admin"), ctrl.Assay.ByUser)
		assays.PUT("/:id/mark-ready", middlewares.RequireRoles("admin", "worker", "boss"), ctrl.Assay.MarkReady)
	}

	analytics := r.Group("/analytics")
	analytics.Use(middlewares.AuthMiddleware())
	{
		analytics.GET("/date-range", ctrl.Analytics.DateRange)
		analytics.GET("/dashboard", ctrl.Analytics.Dashboard)
		analytics.GET("/efficiency", ctrl.Analytics.Efficiency)
		analytics.GET("/trend", ctrl.Analytics.Trend)
		analytics.GET("/customers/top", ctrl.Analytics.TopCustomers)
		analytics.GET("/trends/daily", ctrl.Analytics.DailyTrends)
		analytics.GET("/trends/monthly", ctrl.Analytics.MonthlyTrends)
		analytics.GET("/daily-report", middlewares.RequireRoles("admin", "boss"), ctrl.Analytics.DailyReport)
	}

	pdf := r.Group("/pdf")
	pdf.Use(middlewares.AuthMiddleware())
	{
		pdf.GET("/generate/single/:id", ctrl.PDF.Single)
		pdf.GET("/generate/batch", ctrl.PDF.Batch)
		pdf.GET("/generate/:formcode", ctrl.PDF.ByFormCode)
	}

	notifications := r.Group("/notifications")
	notifications.Use(middlewares.AuthMiddleware())
	{
		notifications.POST("/push-token", controllers.RegisterPushToken)
		notifications.DELETE("/push-token/:token", controllers.UnregisterPushToken)
		notifications.GET("", controllers.GetNotifications)
		notifications.GET("/stats", controllers.GetNotificationStats)
		notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
		notifications.PUT("/:id/read", controllers.MarkNotificationRead)
		notifications.DELETE("/:id", controllers.DeleteNotification)
	}

	sync := r.Group("/sync")
	sync.Use(middlewares.SyncGate())
	{
		sync.GET("/changes", ctrl.Sync.Changes)
		sync.POST("/push", ctrl.Sync.Push)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("/notifications", ctrl.Realtime.Notifications)
	}

	return r
}
