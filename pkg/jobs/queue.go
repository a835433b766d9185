package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/airhop/airhop/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

const QueueName = "scan-jobs-queue"

// Scans run for minutes, one at a time per consumer
const queuePrefetch = 1
const queuePollDuration = 10 * time.Second

func OpenQueue() (rmq.Queue, error) {
	return redis_client.QueueConnection.OpenQueue(QueueName)
}

// Publish puts a validated job onto the scan queue.
func Publish(job *ScanJob) error {
	queue, err := OpenQueue()
	if err != nil {
		return err
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode scan job: %w", err)
	}

	if err := queue.PublishBytes(jobJSON); err != nil {
		return fmt.Errorf("failed to publish scan job: %w", err)
	}

	log.Info().Str("job", job.ID).Msg("Published scan job")

	return nil
}

// Handler runs one job to completion. Returning an error rejects the
// delivery instead of acknowledging it.
type Handler func(job *ScanJob) error

type jobConsumer struct {
	handler Handler
}

func (consumer *jobConsumer) Consume(delivery rmq.Delivery) {
	var job *ScanJob
	if err := json.Unmarshal([]byte(delivery.Payload()), &job); err != nil {
		log.Error().Err(err).Msg("Failed to decode scan job payload")
		if err := delivery.Reject(); err != nil {
			log.Error().Err(err).Msg("Failed to reject scan job")
		}
		return
	}

	log.Info().Str("job", job.ID).Msg("Picked up scan job")

	if err := consumer.handler(job); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Scan job failed")
		if err := delivery.Reject(); err != nil {
			log.Error().Err(err).Msg("Failed to reject scan job")
		}
		return
	}

	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to ack scan job")
	}
}

// StartConsuming attaches handler to the scan queue. Jobs are handled one
// at a time, a scan occupies its worker pool for the whole run.
func StartConsuming(handler Handler) error {
	queue, err := OpenQueue()
	if err != nil {
		return err
	}

	if err := queue.StartConsuming(queuePrefetch, queuePollDuration); err != nil {
		return err
	}

	if _, err := queue.AddConsumer("scan-jobs-consumer", &jobConsumer{handler: handler}); err != nil {
		return err
	}

	return nil
}
