package main

import (
	"log"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/controllers"
	"github.com/ywy929/assay-dashboard-backend/routes"
	"github.com/ywy929/assay-dashboard-backend/services"
)

func main() {
	config.Load()
	config.InitDB()

	tokens := services.NewTokenCache()
	push := services.NewPushService(tokens)
	hub := services.NewRealtimeHub()
	notifier := services.NewNotificationService(push, hub)

	archive, err := services.NewArchiveService()
	if err != nil {
		log.Printf("certificate archival disabled: %v", err)
	}

	ctrl := routes.Controllers{
		Auth:      controllers.NewAuthController(services.NewAuthService(config.DB)),
		Assay:     controllers.NewAssayController(notifier),
		Sync:      controllers.NewSyncController(services.NewSyncService(config.DB, notifier)),
		Analytics: controllers.NewAnalyticsController(services.NewAnalyticsService(config.DB)),
		PDF:       controllers.NewPDFController(services.NewCertificateGenerator(), archive),
		Realtime:  controllers.NewRealtimeController(hub),
	}

	r := routes.SetupRouter(ctrl)

	log.Printf("starting server on port %s (%s)", config.Port, config.Environment)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
