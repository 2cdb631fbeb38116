package routes

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/interfaces/api/handlers"
)

// SetupRoutes mounts the administrative dispatch surface under /api/v1.
// There is no user-facing routing, auth, or pagination layer here; this is
// the internal control plane C2/C6/C7 are driven through.
func SetupRoutes(app *fiber.App, services *handlers.Services) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	dispatch := handlers.NewDispatchHandler(services.DriveManager, services.SyncExecutor)
	sched := handlers.NewSchedulerHandler(services.SchedulerService)

	api := app.Group("/api/v1")

	provider := api.Group("/provider")
	provider.Get("/user-info", dispatch.GetUserInfo)
	provider.Post("/list-disk", dispatch.ListDisk)
	provider.Post("/list-share", dispatch.ListShare)
	provider.Post("/mkdir", dispatch.Mkdir)
	provider.Post("/remove", dispatch.Remove)
	provider.Post("/transfer", dispatch.Transfer)
	provider.Get("/relationships", dispatch.GetRelationships)

	sync := api.Group("/sync")
	sync.Post("/:config_id/execute", dispatch.ExecuteSync)

	scheduler := api.Group("/scheduler")
	scheduler.Post("/refresh", sched.Refresh)
	scheduler.Get("/validate-cron", sched.ValidateCron)
	scheduler.Get("/status", sched.Status)
}
