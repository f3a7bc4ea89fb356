package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/replay"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the reasoner history database (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	cfgPath := flag.String("config", "", "YAML or TOML config used in DB mode")
	last := flag.Int("last", 50, "DB mode: replay N most recent sessions")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/reasoner.db [--config file] [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *cfgPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	cfg, err := f.ToConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	fmt.Printf("Fixture: %s (%d cases)\n\n", f.Description, len(f.Cases))
	results := replay.Replay(context.Background(), cfg, f.Cases, nil)
	printResults(results)

	s := replay.Summarize(results)
	printSummary(s)
	if s.Passed != s.TotalCases {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region db-mode

// runDBMode re-runs recorded problems with the current configuration and
// reports sessions whose final level or terminal state no longer matches.
func runDBMode(dbPath, cfgPath string, last int) int {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}

	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	sessions, err := store.ListSessions(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list sessions: %v\n", err)
		return 2
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return 0
	}

	cases := make([]replay.FixtureCase, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		cases = append(cases, replay.FixtureCase{
			Name:    s.SessionID,
			Problem: s.Problem,
			Domain:  s.Domain,
		})
	}

	results := replay.Replay(context.Background(), cfg, cases, nil)

	drift := 0
	fmt.Printf("%-12s  %-10s  %-10s  %-8s  %-8s  %s\n", "Session", "Recorded", "Replayed", "Was", "Now", "Result")
	fmt.Printf("%-12s+-%-10s+-%-10s+-%-8s+-%-8s+-%s\n", "------------", "----------", "----------", "--------", "--------", "--------")
	for i, r := range results {
		rec := sessions[len(sessions)-1-i]
		result := "pass"
		switch {
		case r.State != rec.State:
			result = "state drift"
		case r.Level != "" && rec.Level != "" && rec.Level != r.Level:
			result = "level drift"
		}
		if result != "pass" {
			drift++
		}
		fmt.Printf("%-12s  %-10s  %-10s  %-8s  %-8s  %s\n",
			shortID(rec.SessionID), rec.State, r.State, rec.Level, r.Level, result)
	}
	fmt.Printf("\n%d of %d sessions drifted\n", drift, len(results))
	if drift > 0 {
		return 1
	}
	return 0
}

// #endregion db-mode

// #region output

func printResults(results []replay.ReplayResult) {
	fmt.Printf("%-24s  %-10s  %8s  %8s  %-8s  %5s  %s\n", "Case", "State", "Base", "Final", "Level", "Steps", "Result")
	fmt.Printf("%-24s+-%-10s+-%8s+-%8s+-%-8s+-%5s+-%s\n",
		"------------------------", "----------", "--------", "--------", "--------", "-----", "--------")
	for _, r := range results {
		fmt.Printf("%-24s  %-10s  %8.4f  %8.4f  %-8s  %5d  %s\n",
			r.Name, r.State, r.Base, r.Final, r.Level, len(r.Steps), r.Action)
		if r.Action != "pass" && r.Reason != "" {
			fmt.Printf("    %s\n", r.Reason)
		}
	}
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("\nSummary: %d cases, %d passed, %d mismatched, %d errors\n",
		s.TotalCases, s.Passed, s.Mismatches, s.Errors)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
