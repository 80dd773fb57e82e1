package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sjsage522/foreclosureworker/internal"
	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/extract"
	"sjsage522/foreclosureworker/internal/pipeline"
	"sjsage522/foreclosureworker/logger"
	"sjsage522/foreclosureworker/services/store"
	"sjsage522/foreclosureworker/services/worker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeTown string
	scrapeJSON bool
	scrapeSave bool
	workerOnce bool
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeTown, "town", "", "town to search, passed verbatim to the search form")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "print the result as JSON instead of tables")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "upsert the result into the database")
	scrapeCmd.MarkFlagRequired("town")

	workerCmd.Flags().StringSliceVar(&overrides.Towns, "towns", nil, "towns to scrape each pass (default: TOWNS, else every reference town)")
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "run a single pass and exit")

	rootCmd.AddCommand(scrapeCmd, workerCmd, townsCmd)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --town <name>",
	Short: "Scrapes one town and prints its cases and defendant records.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		if !deps.Towns.Valid(scrapeTown) {
			if near, _ := deps.Towns.Suggest(scrapeTown); near != "" {
				logger.Warn("%q is not a reference town, did you mean %q?", scrapeTown, near)
			} else {
				logger.Warn("%q is not a reference town", scrapeTown)
			}
		}

		result, err := newPipeline(cfg, deps).Run(ctx, scrapeTown)
		if err != nil {
			return err
		}

		if scrapeSave {
			if deps.Store == nil {
				return fmt.Errorf("--save needs a database (DATABASE_URL or --db)")
			}
			if err := deps.Store.SaveResult(ctx, result.Cases, result.Defendants); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if scrapeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Cases      []crawler.ScrapedCase        `json:"cases"`
				Defendants []crawler.RawDefendantRecord `json:"defendants"`
			}{result.Cases, result.Defendants})
		}
		renderResult(out, result)
		return nil
	},
}

func renderResult(out io.Writer, result *pipeline.Result) {
	cases := newTable(out)
	cases.SetTitle("%s: %d cases", result.Town, len(result.Cases))
	cases.AppendHeader(table.Row{"Docket", "Case", "Detail URL"})
	for _, c := range result.Cases {
		cases.AppendRow(table.Row{c.DocketNumber, c.CaseName, c.DocketURL})
	}
	cases.Render()

	defendants := newTable(out)
	defendants.SetTitle("%d defendant records", len(result.Defendants))
	defendants.AppendHeader(table.Row{"Docket", "Slot", "Defendants", "Address", "Town", "State", "Zip"})
	for i := range result.Defendants {
		rec := &result.Defendants[i]
		defendants.AppendRow(table.Row{
			rec.DocketNumber, rec.SlotKey(), slotNames(rec), rec.Address, rec.Town, rec.State, rec.Zip,
		})
	}
	defendants.Render()

	if len(result.Failures) > 0 {
		failures := newTable(out)
		failures.SetTitle("%d cases skipped", len(result.Failures))
		failures.AppendHeader(table.Row{"Docket", "Error"})
		for _, f := range result.Failures {
			failures.AppendRow(table.Row{f.DocketNumber, f.Err.Error()})
		}
		failures.Render()
	}
}

func slotNames(rec *crawler.RawDefendantRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	var names []string
	for i := 1; i <= extract.MaxDefendants; i++ {
		if s := rec.Slot(i); s != nil {
			names = append(names, extract.SlotCode(i)+" "+*s)
		}
	}
	return strings.Join(names, "\n")
}

var workerCmd = &cobra.Command{
	Use:   "worker [--towns a,b] [--once]",
	Short: "Periodically scrapes towns, saving and publishing every result.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.ForWorker()

		deps, err := initializeDependencies(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		towns := cfg.Towns
		if len(towns) == 0 {
			towns = deps.Towns.Names()
		}

		log.Info().
			Str("environment", cfg.Environment).
			Int("towns", len(towns)).
			Dur("crawl_interval", cfg.CrawlInterval).
			Bool("chrome", cfg.UseChrome).
			Msg("Starting foreclosure worker")

		var results worker.ResultStore
		if deps.Store != nil {
			results = deps.Store
		}
		w := worker.NewWorker(
			ctx,
			newPipeline(cfg, deps),
			towns,
			results,
			deps.Publisher,
			deps.Journal,
			cfg.CrawlInterval,
		)

		if workerOnce {
			stats := w.RunOnce()
			log.Info().Interface("stats", stats).Msg("Single pass finished")
			return nil
		}

		err = w.Start()
		log.Info().Msg("Shutting down gracefully...")
		return err
	},
}

var townsCmd = &cobra.Command{
	Use:   "towns [name...]",
	Short: "Lists the reference towns, or checks the given names against them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var src extract.TownSource = extract.ConnecticutTowns
		if cfg.DatabaseURL != "" {
			st, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer (&internal.Dependencies{Store: st}).Cleanup()
			src = st
		}
		validator, err := extract.LoadTownValidator(ctx, src)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		if len(args) == 0 {
			t.AppendHeader(table.Row{"#", "Town"})
			for i, name := range validator.Names() {
				t.AppendRow(table.Row{i + 1, name})
			}
			t.Render()
			return nil
		}

		t.AppendHeader(table.Row{"Input", "Valid", "Closest", "Similarity"})
		for _, name := range args {
			near, score := validator.Suggest(name)
			t.AppendRow(table.Row{name, validator.Valid(name), near, fmt.Sprintf("%.2f", score)})
		}
		t.Render()
		return nil
	},
}
