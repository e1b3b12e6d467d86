package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
)

// renderReport prints the model x variant matrix and returns the failure count.
func renderReport(models []string, variants []requestVariant, results []sweepResult) int {
	byModel := make(map[string]map[string]sweepResult, len(models))
	failed := 0
	for _, res := range results {
		if byModel[res.Model] == nil {
			byModel[res.Model] = make(map[string]sweepResult)
		}
		byModel[res.Model][res.Variant] = res
		if !res.Success && !res.Skipped {
			failed++
		}
	}

	header := []string{"model"}
	for _, variant := range variants {
		header = append(header, variant.Key)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for _, model := range models {
		row := []string{model}
		for _, variant := range variants {
			row = append(row, formatCell(byModel[model][variant.Key]))
		}
		table.Append(row)
	}
	fmt.Println()
	table.Render()

	passed := len(results) - failed
	fmt.Printf("\nRequests: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)

	for _, res := range results {
		if !res.Success && !res.Skipped {
			fmt.Printf("- %s / %s (HTTP %d): %s\n", res.Model, res.Variant, res.StatusCode, res.Reason)
		}
	}
	return failed
}

func formatCell(res sweepResult) string {
	switch {
	case res.Model == "":
		return "-"
	case res.Success:
		return fmt.Sprintf("PASS %.2fs", res.Duration.Truncate(10*time.Millisecond).Seconds())
	case res.Skipped:
		return "SKIP"
	default:
		return fmt.Sprintf("FAIL %d", res.StatusCode)
	}
}
