package dataimporter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/airhop/airhop/pkg/database"
	"github.com/airhop/airhop/pkg/routegraph"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Load airport & route network datasets into the database",
		Subcommands: []*cli.Command{
			{
				Name:  "file",
				Usage: "Import a dataset file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Usage:    "Type of the dataset file (airports, routes)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Path of the dataset file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "repeat-every",
						Usage: "Repeat this file import every X seconds",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					fileType := c.String("type")
					filePath := c.String("path")

					repeatEvery := c.String("repeat-every")
					repeat := repeatEvery != ""
					var repeatDuration time.Duration
					if repeat {
						var err error
						repeatDuration, err = time.ParseDuration(repeatEvery)

						if err != nil {
							return err
						}
					}

					for {
						startTime := time.Now()

						err := importFile(fileType, filePath)
						if err != nil {
							return err
						}
						if !repeat {
							break
						}

						executionDuration := time.Since(startTime)
						log.Info().Msgf("Operation took %s", executionDuration.String())

						waitTime := repeatDuration - executionDuration

						if waitTime.Seconds() > 0 {
							time.Sleep(waitTime)
						}
					}

					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the freshness of the imported route network",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					dataset, err := routegraph.DatasetFromDatabase(context.Background())
					if err != nil {
						return err
					}

					graph := dataset.Graph()

					log.Info().
						Int("airports", len(dataset.Airports)).
						Int("origins", len(graph)).
						Int("connections", graph.EdgeCount()).
						Time("refreshedat", dataset.RefreshedAt).
						Bool("stale", dataset.Stale(time.Now())).
						Msg("Route network status")

					return nil
				},
			},
		},
	}
}

func importFile(fileType string, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	switch fileType {
	case "airports":
		return ImportAirports(context.Background(), file)
	case "routes":
		return ImportRoutes(context.Background(), file)
	default:
		return fmt.Errorf("unknown dataset file type %q", fileType)
	}
}
