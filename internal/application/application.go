package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mthomas-dev/vaccine-analytics/internal/api"
	"github.com/mthomas-dev/vaccine-analytics/internal/config"
	"github.com/mthomas-dev/vaccine-analytics/internal/dataset"
	"github.com/mthomas-dev/vaccine-analytics/internal/demand"
	"github.com/mthomas-dev/vaccine-analytics/internal/export"
	"github.com/mthomas-dev/vaccine-analytics/internal/keynumbers"
	"github.com/mthomas-dev/vaccine-analytics/internal/mi4a"
	"github.com/mthomas-dev/vaccine-analytics/internal/sharecalc"
	"github.com/mthomas-dev/vaccine-analytics/internal/storage"
	"github.com/mthomas-dev/vaccine-analytics/internal/supply"
)

// Snapshot file names expected under the input directory. A missing
// snapshot skips its pipeline; running a subset is normal when only one
// dataset was refreshed.
const (
	gaviSnapshotFile   = "gavi_shipments_2023.csv"
	demandSnapshotFile = "demand_total_required_supply_by_country.csv"
	supplySnapshotFile = "gvmr_for_one_campaign.xlsx"
	mi4aSnapshotFile   = "mi4a_public_database.xlsx"

	supplySheetName = "FOR ONE Campaign"
	mi4aSheetName   = "Vaccine Purchase Data"
)

// ErrNoSnapshots is returned when the input directory holds none of the
// expected snapshot files.
var ErrNoSnapshots = errors.New("no dataset snapshots found in input directory")

// App encapsulates the application dependencies and the preview server.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	calc    sharecalc.Calculator
	storage *storage.MemoryStorage
	server  *http.Server
}

// New initializes the application with all dependencies from the provided
// configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	calc, err := sharecalc.New(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("build share calculator: %w", err)
	}

	store := storage.NewMemoryStorage()
	handler := api.NewHandler(store, api.WithLogger(logger))
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.Server.EnableRequestLogging),
		api.WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	)

	addr := cfg.Server.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		calc:    calc,
		storage: store,
		server:  server,
	}, nil
}

// RunPipelines executes every pipeline whose snapshot is present, writes
// the chart artifacts and key numbers, and records the run in the results
// store. At least one snapshot must be present.
func (a *App) RunPipelines() (storage.Results, error) {
	results := storage.Results{
		GeneratedAt: time.Now().UTC(),
		KeyNumbers:  map[string]string{},
		Artifacts:   map[string]export.Table{},
	}

	ran := 0
	steps := []struct {
		name string
		file string
		run  func(path string, results *storage.Results) error
	}{
		{"gavi_supply", gaviSnapshotFile, a.runGavi},
		{"vaccine_demand", demandSnapshotFile, a.runDemand},
		{"who_supply", supplySnapshotFile, a.runSupply},
		{"mi4a", mi4aSnapshotFile, a.runMI4A},
	}

	for _, step := range steps {
		path := filepath.Join(a.cfg.InputDir, step.file)
		if _, err := os.Stat(path); err != nil {
			a.logger.Info("snapshot absent, skipping pipeline",
				zap.String("pipeline", step.name),
				zap.String("path", path),
			)
			continue
		}

		a.logger.Info("running pipeline", zap.String("pipeline", step.name))
		if err := step.run(path, &results); err != nil {
			return storage.Results{}, fmt.Errorf("%s pipeline: %w", step.name, err)
		}
		ran++
	}

	if ran == 0 {
		return storage.Results{}, fmt.Errorf("%w: %s", ErrNoSnapshots, a.cfg.InputDir)
	}

	for _, diagnostic := range results.Diagnostics {
		a.logger.Warn("data quality finding", zap.String("finding", diagnostic))
	}

	knStore := keynumbers.NewStore(filepath.Join(a.cfg.OutputDir, "key_numbers.json"))
	if err := knStore.Update(results.KeyNumbers); err != nil {
		return storage.Results{}, fmt.Errorf("update key numbers: %w", err)
	}

	a.storage.Put(results)
	a.logger.Info("pipeline run complete",
		zap.Int("pipelines", ran),
		zap.Int("key_numbers", len(results.KeyNumbers)),
		zap.Int("diagnostics", len(results.Diagnostics)),
	)
	return results, nil
}

func (a *App) runGavi(path string, results *storage.Results) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	lines, issues, err := dataset.ReadShipmentLines(f)
	if err != nil {
		return fmt.Errorf("read shipment lines: %w", err)
	}
	results.Diagnostics = append(results.Diagnostics, prefixAll("gavi_supply", issues)...)

	calcResult, err := a.calc.Calculate(lines)
	if err != nil {
		return err
	}

	for _, issue := range calcResult.Diagnostics.SkippedRows {
		results.Diagnostics = append(results.Diagnostics,
			fmt.Sprintf("gavi_supply: row %d excluded: %s", issue.Row, issue.Reason))
	}
	for _, country := range calcResult.Diagnostics.MissingCountries {
		results.Diagnostics = append(results.Diagnostics,
			fmt.Sprintf("gavi_supply: transition country %q has no aggregate; check source spelling", country))
	}

	table := shareTable(calcResult)
	results.Artifacts["gavi_vaccine_supply"] = table
	if err := export.WriteWorkbook(filepath.Join(a.cfg.OutputDir, "gavi_vaccine_supply.xlsx"), "Shares", table); err != nil {
		return err
	}

	results.KeyNumbers["share_of_gavi_vaccine_supply_for_six_transitioning_countries"] =
		keynumbers.Percent(calcResult.TransitionShare)
	return nil
}

func (a *App) runDemand(path string, results *storage.Results) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, issues, err := dataset.ReadDemandRows(f)
	if err != nil {
		return fmt.Errorf("read demand rows: %w", err)
	}
	results.Diagnostics = append(results.Diagnostics, prefixAll("vaccine_demand", issues)...)

	out, err := demand.Run(rows, demand.Options{
		LastMeasuredYear: a.cfg.Demand.LastMeasuredYear,
		TargetYear:       a.cfg.Demand.TargetYear,
	})
	if err != nil {
		return err
	}
	results.Diagnostics = append(results.Diagnostics, prefixAll("vaccine_demand", out.Issues)...)

	results.Artifacts["vaccine_demand_by_region_year"] = out.Table
	if err := export.WriteCSV(filepath.Join(a.cfg.OutputDir, "vaccine_demand_by_region_year.csv"), out.Table); err != nil {
		return err
	}

	indicator := fmt.Sprintf("africa_share_of_global_vaccine_demand_%d", a.cfg.Demand.TargetYear)
	results.KeyNumbers[indicator] = keynumbers.Percent(out.AfricaShareTarget)
	return nil
}

func (a *App) runSupply(path string, results *storage.Results) error {
	grid, err := dataset.ReadWorkbookRows(path, supplySheetName)
	if err != nil {
		return err
	}

	out, err := supply.Run(grid, a.cfg.SupplyTable)
	if err != nil {
		return err
	}
	results.Diagnostics = append(results.Diagnostics, prefixAll("who_supply", out.Issues)...)

	results.Artifacts["african_vaccine_supply"] = out.Table
	if err := export.WriteCSV(filepath.Join(a.cfg.OutputDir, "african_vaccine_supply.csv"), out.Table); err != nil {
		return err
	}

	for name, value := range out.KeyNumbers {
		results.KeyNumbers[name] = value
	}
	return nil
}

func (a *App) runMI4A(path string, results *storage.Results) error {
	grid, err := dataset.ReadWorkbookRows(path, mi4aSheetName)
	if err != nil {
		return err
	}

	rows, issues, err := dataset.ParsePurchaseRows(grid)
	if err != nil {
		return err
	}
	results.Diagnostics = append(results.Diagnostics, prefixAll("mi4a", issues)...)

	out, err := mi4a.Run(rows, mi4a.YearRange{From: a.cfg.MI4A.FromYear, To: a.cfg.MI4A.ToYear})
	if err != nil {
		return err
	}
	if !out.Check.Match {
		results.Diagnostics = append(results.Diagnostics, fmt.Sprintf(
			"mi4a: aggregated total %v does not reconcile with source total %v",
			out.Check.AggregatedTotal, out.Check.SourceTotal))
	}

	results.Artifacts["vaccine_production_by_region"] = out.Table
	return export.WriteCSV(filepath.Join(a.cfg.OutputDir, "vaccine_production_by_region.csv"), out.Table)
}

// shareTable renders per-country aggregates and shares in descending dose
// order, the layout the charting tool expects.
func shareTable(result *sharecalc.Result) export.Table {
	countries := make([]string, 0, len(result.Aggregates))
	for country := range result.Aggregates {
		countries = append(countries, country)
	}
	sort.Slice(countries, func(i, j int) bool {
		if result.Aggregates[countries[i]] != result.Aggregates[countries[j]] {
			return result.Aggregates[countries[i]] > result.Aggregates[countries[j]]
		}
		return countries[i] < countries[j]
	})

	table := export.Table{
		Header: []string{"country", "total_quantity_in_doses", "total_quantity_in_doses_share_of_total"},
	}
	for _, country := range countries {
		table.Rows = append(table.Rows, []string{
			country,
			strconv.FormatFloat(result.Aggregates[country], 'f', -1, 64),
			strconv.FormatFloat(result.Shares[country], 'f', -1, 64),
		})
	}
	return table
}

func prefixAll(pipeline string, issues []string) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, pipeline+": "+issue)
	}
	return out
}

// StartServer starts the preview server in a goroutine and logs the
// listening address.
func (a *App) StartServer() error {
	go func() {
		a.logger.Info("preview server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Storage returns the results store backing the preview server.
func (a *App) Storage() storage.Storage {
	return a.storage
}
