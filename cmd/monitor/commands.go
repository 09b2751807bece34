package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/monitoring"
	"github.com/matiks/matiks-monitor/internal/storage"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Rescore the stored history with the current lexicon and re-render the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		monitor, err := newMonitoringService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		count, err := monitor.RenderDashboard(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Rendered %s from %d rows\n", monitoring.DashboardHTML, count)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fetch every source once and report raw and normalized counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		monitor, err := newMonitoringService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		return writeProbeTable(os.Stdout, monitor.Probe(cmd.Context()))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last cycle outcome and stored objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		monitor, err := newMonitoringService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		status, err := monitor.LastStatus(cmd.Context())
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("No cycle has run yet")
			return nil
		}
		if err != nil {
			return err
		}
		if err := writeStatusTable(os.Stdout, status); err != nil {
			return err
		}

		objects, err := monitor.StoredObjects(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("\nStored objects:")
		for _, location := range objects {
			fmt.Printf("  %s\n", location)
		}
		return nil
	},
}

func writeProbeTable(w io.Writer, results []monitoring.StageResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Source", "Enabled", "Raw", "Kept", "Demo", "Error")

	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		row := []string{
			r.Source,
			strconv.FormatBool(r.Enabled),
			strconv.Itoa(r.Raw),
			strconv.Itoa(r.Kept),
			strconv.FormatBool(r.Demo),
			errText,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	return table.Render()
}

func writeStatusTable(w io.Writer, status *models.RunStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	rows := [][]string{
		{"ok", strconv.FormatBool(status.OK)},
		{"started_at", status.StartedAt},
		{"finished_at", status.FinishedAt},
	}
	if status.OK {
		rows = append(rows,
			[]string{"rows_total", strconv.Itoa(status.RowsTotal)},
			[]string{"rows_new", strconv.Itoa(status.RowsNew)},
			[]string{"rows_added", strconv.Itoa(status.RowsAdded)},
			[]string{"source_errors", strconv.Itoa(status.SourceErrors)},
			[]string{"combined_csv", status.CombinedCSV},
			[]string{"dashboard_html", status.DashboardHTML},
		)
	} else {
		rows = append(rows, []string{"error", status.Error})
	}

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	return table.Render()
}
