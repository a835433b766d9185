package routes

import (
	"context"

	"github.com/airhop/airhop/pkg/database"
	"github.com/airhop/airhop/pkg/scanner"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ItinerariesRouter(router fiber.Router) {
	router.Get("/latest", getLatestItineraries)
}

// getLatestItineraries serves the most recent run's archived results. The
// detailed query flag adds the failure keys and timing breakdown.
func getLatestItineraries(c *fiber.Ctx) error {
	runsCollection := database.GetCollection("scan_runs")

	findOptions := options.FindOne().SetSort(bson.M{"startedat": -1})

	var run *scanner.ScanRunRecord
	runsCollection.FindOne(context.Background(), bson.M{}, findOptions).Decode(&run)

	if run == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "No scan runs have completed yet",
		})
	}

	itinerariesCollection := database.GetCollection("available_itineraries")

	cursor, err := itinerariesCollection.Find(context.Background(), bson.M{"runid": run.RunID})
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load itineraries",
		})
	}

	itineraries := []scanner.ItineraryRecord{}
	if err := cursor.All(context.Background(), &itineraries); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not decode itineraries",
		})
	}

	groups := []string{"basic"}
	if c.Query("detailed") == "1" {
		groups = append(groups, "detailed")
	}

	response := struct {
		Run         *scanner.ScanRunRecord    `groups:"basic"`
		Itineraries []scanner.ItineraryRecord `groups:"basic"`
	}{
		Run:         run,
		Itineraries: itineraries,
	}

	responseReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, &response)

	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce itineraries",
		})
	}

	return c.JSON(responseReduced)
}
