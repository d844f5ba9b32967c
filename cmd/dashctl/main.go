package main

import (
	"fmt"
	"os"
	"strings"

	"scdb-dashboard/config"
	"scdb-dashboard/models"
	"scdb-dashboard/repository"
	"scdb-dashboard/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	datasetPath string
	layoutPath  string
	debug       bool

	termFrom      int
	termTo        int
	filterArgs    []string
	columnsArg    string
	barVariable   string
	trendVariable string
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Supreme Court Database dashboard",
	Long: `dashctl serves the interactive case dashboard and runs the same
filters headlessly: export the filtered table or print counts.`,
	SilenceUsage: true,
}

func init() {
	config.LoadDotEnv()

	defaultDataset := os.Getenv("DATASET_PATH")
	if defaultDataset == "" {
		defaultDataset = "SCDB_2024_01_caseCentered_Citation.csv"
	}

	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", defaultDataset, "Path to the case-centered CSV")
	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", os.Getenv("DASHBOARD_CONFIG"), "Dashboard layout YAML (default: built-in)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug logging")

	rootCmd.AddCommand(serveCmd, exportCmd, summaryCmd)
}

// addStateFlags registers the flags that mirror the dashboard controls
func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&termFrom, "from", 0, "First term (default: earliest)")
	cmd.Flags().IntVar(&termTo, "to", 0, "Last term (default: latest)")
	cmd.Flags().StringArrayVarP(&filterArgs, "filter", "f", nil, "Category filter column=value[,value...] (repeatable)")
	cmd.Flags().StringVar(&columnsArg, "columns", "", "Comma-separated table columns (default: layout default)")
	cmd.Flags().StringVar(&barVariable, "bar", "", "Bar chart variable")
	cmd.Flags().StringVar(&trendVariable, "trend", "", "Trend chart variable")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	mode := config.ModeProduction
	if debug {
		mode = config.ModeDebug
	}
	return config.NewLogger(mode, os.Stderr)
}

func loadDashboard(logger zerolog.Logger) (*service.DashboardService, *repository.CaseRepository, error) {
	layout, err := config.LoadLayout(layoutPath)
	if err != nil {
		return nil, nil, err
	}
	cases, err := repository.LoadCaseRepository(datasetPath, layout)
	if err != nil {
		return nil, nil, err
	}
	dashboard := service.NewDashboardService(
		service.WithCaseRepository(cases),
		service.WithDashboardLogger(logger),
	)
	return dashboard, cases, nil
}

// stateFromFlags builds a dashboard state from command-line values
func stateFromFlags(from, to int, filters []string, columns, bar, trend string) (models.DashboardState, error) {
	state := models.DashboardState{
		Selection: models.FilterSelection{
			TermStart:  from,
			TermEnd:    to,
			Categories: map[string][]string{},
		},
		BarVariable:   bar,
		TrendVariable: trend,
	}

	for _, f := range filters {
		col, values, ok := strings.Cut(f, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return models.DashboardState{}, fmt.Errorf("invalid filter %q, expected column=value[,value...]", f)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				state.Selection.Categories[col] = append(state.Selection.Categories[col], v)
			}
		}
	}

	if columns != "" {
		for _, c := range strings.Split(columns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				state.Columns = append(state.Columns, c)
			}
		}
	}
	return state, nil
}
