package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/verlofplanner/verlof/internal/app"
	"github.com/verlofplanner/verlof/internal/config"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/holiday"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	application := &cli.App{
		Name:  "verlof",
		Usage: "Plan leave days against public and school holidays.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "./config/application.yaml", Usage: "path of the YAML configuration file"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			holidaysCommand(),
			statsCommand(),
			resetCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := application.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration and applies its log level unless LOG_LEVEL is set.
func loadConfig(c *cli.Context) (config.Application, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if os.Getenv("LOG_LEVEL") == "" && cfg.Log.Level != "" {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return cfg, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		log.SetLevel(level)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApplication(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(ctx)
		},
	}
}

func holidaysCommand() *cli.Command {
	return &cli.Command{
		Name:  "holidays",
		Usage: "Print the public holidays of a year.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "year", Usage: "year to print, the current year by default"},
			&cli.BoolFlag{Name: "school", Usage: "print the school holidays instead"},
		},
		Action: func(c *cli.Context) error {
			year := c.Int("year")
			if year == 0 {
				year = utils.Today(&utils.SystemClock{}).Year()
			}
			if year < 1583 || year > 9999 {
				return fmt.Errorf("year %d is outside 1583-9999", year)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			if c.Bool("school") {
				for _, r := range holiday.SchoolHolidays(year) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.StartDate, r.EndDate, r.Name)
				}
			} else {
				for _, h := range holiday.PublicHolidays(year) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", h.Date, h.Date.Weekday(), h.Name)
				}
			}
			return w.Flush()
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print the leave day statistics of the current year.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "csv", Usage: "print the monthly statistics as CSV"},
		},
		Action: func(c *cli.Context) error {
			deps, closeRepo, err := openDependencies(c)
			if err != nil {
				return err
			}
			defer closeRepo()

			summary, err := deps.StatsService.GetStats(c.Context)
			if err != nil {
				return err
			}
			if c.Bool("csv") {
				out, err := deps.CsvStatsRenderer.RenderStats(summary)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(c.App.Writer, out)
				return err
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Year\t%d\n", summary.Year)
			fmt.Fprintf(w, "Budget\t%s\n", summary.Budget.String())
			fmt.Fprintf(w, "Planned\t%s\n", summary.Planned.String())
			fmt.Fprintf(w, "Remaining\t%s\n", summary.Remaining.String())
			fmt.Fprintf(w, "Planned in %d\t%s\n", summary.Year, summary.InYear.String())
			return w.Flush()
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Remove all planner data and seed the defaults again.",
		Action: func(c *cli.Context) error {
			deps, closeRepo, err := openDependencies(c)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := deps.Planner.Reset(c.Context); err != nil {
				return err
			}
			log.Info("planner data reset")
			return nil
		},
	}
}

func openDependencies(c *cli.Context) (*app.Dependencies, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	repo, closeRepo, err := app.OpenRepository(cfg)
	if err != nil {
		return nil, nil, err
	}
	deps, err := app.BuildDependencies(c.Context, repo, cfg)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return deps, closeRepo, nil
}
