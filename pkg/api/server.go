package api

import (
	"github.com/airhop/airhop/pkg/api/routes"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(listen string) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/api")

	group.Get("version", routes.APIVersion)
	group.Get("health", routes.Health)

	routes.JobsRouter(group.Group("/jobs"))
	routes.ItinerariesRouter(group.Group("/itineraries"))

	return webApp.Listen(listen)
}
