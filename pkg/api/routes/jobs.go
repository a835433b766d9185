package routes

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/airhop/airhop/pkg/enumerator"
	"github.com/airhop/airhop/pkg/jobs"
	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

func JobsRouter(router fiber.Router) {
	router.Post("/", submitJob)
	router.Get("/estimate", getJobEstimate)
}

// Submissions stay pending until a consumer picks them up; resubmitting
// the same scan inside this window is rejected as a duplicate.
const pendingWindow = 30 * time.Minute

var (
	pendingMutex sync.Mutex
	pendingJobs  []*jobs.ScanJob
)

func isDuplicatePending(job *jobs.ScanJob) bool {
	pendingMutex.Lock()
	defer pendingMutex.Unlock()

	var stillPending []*jobs.ScanJob
	for _, pending := range pendingJobs {
		if time.Since(pending.SubmittedAt) < pendingWindow {
			stillPending = append(stillPending, pending)
		}
	}
	pendingJobs = stillPending

	for _, pending := range pendingJobs {
		if pending.Matches(job) {
			return true
		}
	}

	pendingJobs = append(pendingJobs, job)

	return false
}

func submitJob(c *fiber.Ctx) error {
	var job jobs.ScanJob
	if err := c.BodyParser(&job); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Could not parse scan job body",
		})
	}

	if err := job.ApplyDefaults(jobs.JobDefaults{}); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := job.Validate(time.Now()); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if isDuplicatePending(&job) {
		c.SendStatus(fiber.StatusConflict)
		return c.JSON(fiber.Map{
			"error": "An identical scan job is already pending",
		})
	}

	if err := jobs.Publish(&job); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not queue scan job",
		})
	}

	jobReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, &job)

	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce job",
		})
	}

	c.SendStatus(fiber.StatusAccepted)
	return c.JSON(jobReduced)
}

func getJobEstimate(c *fiber.Ctx) error {
	departures := splitAirportList(c.Query("departures"))
	destinations := splitAirportList(c.Query("destinations"))

	if len(departures) == 0 {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "At least one departure airport must be given",
		})
	}

	maxStops, _ := strconv.Atoi(c.Query("max_stops", "1"))
	tripType := jobs.TripType(c.Query("trip_type", string(jobs.TripTypeOneWay)))

	dataset, err := routegraph.DatasetFromDatabase(context.Background())
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load the route network",
		})
	}

	legEnumerator, err := enumerator.NewEnumerator(dataset.Graph(), dataset.AirportIndex(), departures, destinations)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var estimate enumerator.Estimate
	if tripType == jobs.TripTypeRoundTrip {
		estimate = enumerator.EstimateCheckingTime(legEnumerator.EnumerateRoundTrip())
	} else {
		estimate = enumerator.EstimateCheckingTime(legEnumerator.EnumerateOneStop(maxStops))
	}

	return c.JSON(estimate)
}

func splitAirportList(value string) []string {
	var codes []string
	for _, code := range strings.Split(value, ",") {
		code = strings.TrimSpace(strings.ToUpper(code))
		if code != "" {
			codes = append(codes, code)
		}
	}

	return codes
}
