package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"gitstrap/internal/exitcodes"
	"gitstrap/internal/history"
)

func main() {
	// Parse command-line flags
	dbPath := flag.String("db", "/var/lib/gitstrap/history.db", "Path to run-history database")
	recent := flag.Int("recent", 0, "Show N most recent bootstrap runs")
	run := flag.Int64("run", 0, "Show the full result set of one run by id")
	stats := flag.Bool("stats", false, "Show failure statistics")
	days := flag.Int("days", 30, "Number of days for statistics (default: 30)")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	db, err := history.NewRunDB(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	switch {
	case *stats:
		showStats(db, *days, *jsonOutput)
	case *recent > 0:
		showRecent(db, *recent, *jsonOutput)
	case *run > 0:
		showRun(db, *run, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  gitstrap-history --recent 10     # Show 10 most recent runs")
		fmt.Println("  gitstrap-history --run 42        # Show result set of run 42")
		fmt.Println("  gitstrap-history --stats         # Show failure statistics")
		os.Exit(exitcodes.InvalidConfig)
	}
}

func showRecent(db *history.RunDB, limit int, jsonOutput bool) {
	runs, err := db.GetRecentRuns(limit)
	if err != nil {
		log.Fatalf("ERROR: Failed to get recent runs: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTAGE\tEXIT\tBRANCH\tCOMMIT\tLOG")
	for _, r := range runs {
		commit := r.CommitRef
		if len(commit) > 10 {
			commit = commit[:10]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.StageReached,
			r.ExitCode, r.Branch, commit, r.LogPath)
	}
	w.Flush()
}

func showRun(db *history.RunDB, runID int64, jsonOutput bool) {
	results, err := db.GetRunResults(runID)
	if err != nil {
		log.Fatalf("ERROR: Failed to get run %d: %v", runID, err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tEXIT\tTIMESTAMP")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Label, r.ExitCode, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func showStats(db *history.RunDB, days int, jsonOutput bool) {
	stats, err := db.GetFailureStats(days)
	if err != nil {
		log.Fatalf("ERROR: Failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Bootstrap Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Total Runs: %d\n", stats.TotalRuns)
	fmt.Printf("Failures:   %d\n\n", stats.Failures)

	if len(stats.ByCode) > 0 {
		fmt.Println("By Exit Code:")
		for code, count := range stats.ByCode {
			fmt.Printf("  %-6d %d\n", code, count)
		}
		fmt.Println()
	}
	if len(stats.ByStage) > 0 {
		fmt.Println("By Furthest Stage:")
		for stage, count := range stats.ByStage {
			fmt.Printf("  %-22s %d\n", stage, count)
		}
	}
}
