package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/logging"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the reasoner history database")
	last := flag.Int("last", 20, "show N most recent sessions")
	session := flag.String("session", "", "show single session detail")
	domain := flag.String("baseline", "", "show the decay-weighted complexity baseline for a domain")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/reasoner.db [--last N] [--session id] [--baseline domain] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *session != "":
		err = runDetailMode(store, *session, *jsonOut)
	case *domain != "":
		err = runBaselineMode(store, *domain, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID  string  `json:"session_id"`
	Domain     string  `json:"domain"`
	State      string  `json:"state"`
	Complexity float64 `json:"complexity"`
	Level      string  `json:"level"`
	Steps      int     `json:"steps"`
	CreatedAt  string  `json:"created_at"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	// Store returns DESC, reverse for chronological.
	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		rows[len(sessions)-1-i] = listRow{
			SessionID:  s.SessionID,
			Domain:     s.Domain,
			State:      s.State,
			Complexity: s.Complexity,
			Level:      string(s.Level),
			Steps:      s.StepCount,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		if err := printJSON(rows); err != nil {
			return err
		}
	} else {
		printListTable(rows)
	}

	counts, err := store.RecommendationCounts("")
	if err != nil {
		return err
	}
	if !jsonOut && len(counts) > 0 {
		fmt.Printf("\nReflection recommendations (all sessions):\n")
		printCounts(counts)
	}
	return nil
}

func printListTable(rows []listRow) {
	fmt.Printf("%-12s  %-12s  %-10s  %10s  %-8s  %5s  %s\n",
		"Session", "Domain", "State", "Complexity", "Level", "Steps", "Time")
	fmt.Printf("%-12s+-%-12s+-%-10s+-%10s+-%-8s+-%5s+-%s\n",
		"------------", "------------", "----------", "----------", "--------", "-----", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-12s  %-10s  %10.4f  %-8s  %5d  %s\n",
			shortID(r.SessionID), r.Domain, r.State, r.Complexity, r.Level, r.Steps, r.CreatedAt)
	}
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Session         reasoning.SessionRecord          `json:"session"`
	Reflections     []reasoning.ReflectionSession    `json:"reflections"`
	Adjustments     []reasoning.ComplexityAdjustment `json:"adjustments"`
	Decisions       []logging.ProvenanceEntry        `json:"decisions"`
	Recommendations map[reasoning.Recommendation]int `json:"recommendations"`
}

func runDetailMode(store *state.Store, sessionID string, jsonOut bool) error {
	rec, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	refl, err := store.ListReflections(sessionID)
	if err != nil {
		return err
	}
	adjs, err := store.ListAdjustments(sessionID)
	if err != nil {
		return err
	}
	decisions, err := logging.ListDecisions(store.DB(), sessionID)
	if err != nil {
		return err
	}
	counts, err := store.RecommendationCounts(sessionID)
	if err != nil {
		return err
	}

	out := detailOutput{Session: rec, Decisions: decisions, Recommendations: counts}
	for _, r := range refl {
		out.Reflections = append(out.Reflections, r.Session)
	}
	for _, a := range adjs {
		out.Adjustments = append(out.Adjustments, a.Adjustment)
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:    %s\n", rec.SessionID)
	fmt.Printf("Problem:    %s\n", rec.Problem)
	fmt.Printf("Domain:     %s\n", rec.Domain)
	fmt.Printf("State:      %s\n", rec.State)
	fmt.Printf("Complexity: %.4f (%s)\n", rec.Complexity, rec.Level)
	fmt.Printf("Steps:      %d\n", rec.StepCount)
	fmt.Printf("Created:    %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	if rec.Error != "" {
		fmt.Printf("Error:      %s\n", rec.Error)
	}

	if len(out.Reflections) > 0 {
		fmt.Printf("\nReflections:\n")
		for _, r := range out.Reflections {
			fmt.Printf("  steps %d-%d  score=%.2f  valid=%v  -> %s\n",
				r.StepRange.Start, r.StepRange.End, r.OverallScore, r.IsValid, r.Recommendation)
		}
		printCounts(counts)
	}

	if len(out.Adjustments) > 0 {
		fmt.Printf("\nComplexity adjustments:\n")
		for _, a := range out.Adjustments {
			fmt.Printf("  %s -> %s  (%s, confidence %.2f) %s\n", a.From, a.To, a.Type, a.Confidence, a.Reason)
		}
	}

	if len(decisions) > 0 {
		fmt.Printf("\nDecisions:\n")
		for _, d := range decisions {
			step := d.StepID
			if step == "" {
				step = "-"
			}
			fmt.Printf("  [%-10s] %-10s %-24s %s\n", d.Source, step, d.Decision, d.Reason)
		}
	}
	return nil
}

// #endregion detail-mode

// #region baseline-mode

func runBaselineMode(store *state.Store, domain string, jsonOut bool) error {
	b, ok, err := store.DomainBaseline(domain)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "not enough completed sessions in %q for a baseline\n", domain)
		return nil
	}
	if jsonOut {
		return printJSON(b)
	}
	fmt.Printf("Domain:     %s\n", b.Domain)
	fmt.Printf("Baseline:   %.4f (%s)\n", b.Complexity, reasoning.LevelForScore(b.Complexity))
	fmt.Printf("Samples:    %d\n", b.Samples)
	return nil
}

// #endregion baseline-mode

// #region output

func printCounts(counts map[reasoning.Recommendation]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s %d\n", k, counts[reasoning.Recommendation(k)])
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
