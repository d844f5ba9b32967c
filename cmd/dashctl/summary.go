package main

import (
	"fmt"
	"io"
	"strconv"

	"scdb-dashboard/service"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print case counts per term and per bar variable value",
	RunE:  runSummary,
}

func init() {
	addStateFlags(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	dashboard, _, err := loadDashboard(logger)
	if err != nil {
		return err
	}
	state, err := stateFromFlags(termFrom, termTo, filterArgs, columnsArg, barVariable, trendVariable)
	if err != nil {
		return err
	}

	result, err := dashboard.Compute(state)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}

	writeSummary(cmd.OutOrStdout(), result)
	return nil
}

func writeSummary(w io.Writer, result *service.DashboardResult) {
	sel := result.State.Selection
	fmt.Fprintf(w, "%d cases, terms %d-%d\n\n", result.Matched, sel.TermStart, sel.TermEnd)

	terms := tablewriter.NewWriter(w)
	terms.SetHeader([]string{"Term", "Cases"})
	for _, tc := range result.TimeSeries {
		terms.Append([]string{strconv.Itoa(tc.Term), strconv.Itoa(tc.Count)})
	}
	terms.Render()

	fmt.Fprintln(w)

	bars := tablewriter.NewWriter(w)
	bars.SetHeader([]string{result.State.BarVariable, "Cases"})
	for _, c := range result.Bar {
		bars.Append([]string{c.Value, strconv.Itoa(c.Count)})
	}
	bars.Render()
}
