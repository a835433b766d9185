package scanner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airhop/airhop/pkg/database"
	"github.com/airhop/airhop/pkg/elastic_client"
	"github.com/airhop/airhop/pkg/jobs"
	"github.com/airhop/airhop/pkg/redis_client"
	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "scanner",
		Usage: "Run availability scans against the route network",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run a single scan job from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path of the scan job file",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					file, err := os.Open(c.String("file"))
					if err != nil {
						return err
					}

					job, err := jobs.LoadJobYAML(file)
					file.Close()
					if err != nil {
						return err
					}

					if err := job.ApplyDefaults(jobs.JobDefaults{}); err != nil {
						return err
					}
					if err := job.Validate(time.Now()); err != nil {
						return err
					}

					jobScanner := NewScanner(GetConfig())

					result, err := jobScanner.Run(context.Background(), job)
					if err != nil {
						return err
					}

					elastic_client.WaitUntilQueueEmpty()

					log.Info().
						Str("run", result.RunID).
						Int("itineraries", len(result.Itineraries)).
						Str("report", result.ReportPath).
						Msg("Scan finished")

					return nil
				},
			},
			{
				Name:  "consume",
				Usage: "run an instance of the scan engine against the job queue",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					jobScanner := NewScanner(GetConfig())
					jobScanner.Cache = &routegraph.DatasetCache{}
					jobScanner.Cache.Setup()

					err := jobs.StartConsuming(func(job *jobs.ScanJob) error {
						_, err := jobScanner.Run(context.Background(), job)
						return err
					})
					if err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
		},
	}
}
