package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cognicore/labelhier/pkg/labelhier"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

type reportOut struct {
	RunID          string          `json:"run_id"`
	Pruned         int             `json:"pruned"`
	Roots          int             `json:"roots"`
	FrequentRoots  int             `json:"frequent_roots"`
	RealRoots      int             `json:"real_roots"`
	Partition      []partitionOut  `json:"partition"`
	Merges         []mergeOut      `json:"merges"`
	Unresolved     []string        `json:"unresolved"`
	Cohesion       []cohesionOut   `json:"cohesion"`
	Violations     []string        `json:"violations,omitempty"`
	StopCandidates []candidateJSON `json:"stopword_candidates,omitempty"`
}

type mergeOut struct {
	Label        string   `json:"label"`
	Replacements []string `json:"replacements"`
}

type partitionOut struct {
	Label     string   `json:"label"`
	Roots     []string `json:"roots"`
	RealRoots []string `json:"real_roots"`
}

type cohesionOut struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type candidateJSON struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

func literals(keys []ngram.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func topCohesion(rep *labelhier.Report, n int) []cohesionOut {
	keys := rep.Cohesion.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return rep.Cohesion[keys[i]] > rep.Cohesion[keys[j]]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make([]cohesionOut, len(keys))
	for i, k := range keys {
		out[i] = cohesionOut{Label: k.String(), Score: rep.Cohesion[k]}
	}
	return out
}

// partitions lists the root partition of each real label in label order.
func partitions(rep *labelhier.Report, n int) []partitionOut {
	keys := make([]ngram.Key, 0, len(rep.Partition))
	for k := range rep.Partition {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make([]partitionOut, len(keys))
	for i, k := range keys {
		d := rep.Partition[k]
		out[i] = partitionOut{Label: k.String(), Roots: literals(d.Roots.Sorted()), RealRoots: literals(d.RealRoots.Sorted())}
	}
	return out
}

func reportJSON(rep *labelhier.Report, top int) reportOut {
	out := reportOut{
		RunID:         rep.RunID,
		Pruned:        len(rep.Prune.Removed),
		Roots:         len(rep.Roots),
		FrequentRoots: len(rep.FrequentRoots),
		RealRoots:     len(rep.RealRoots),
		Partition:     partitions(rep, top),
		Merges:        []mergeOut{},
		Unresolved:    literals(rep.Mapping.Unresolved()),
		Cohesion:      topCohesion(rep, top),
		Violations:    literals(rep.Violations),
	}
	for _, e := range rep.Mapping.Entries() {
		out.Merges = append(out.Merges, mergeOut{Label: e.Label.String(), Replacements: literals(e.Replacements)})
	}
	for _, c := range rep.StopCandidates {
		out.StopCandidates = append(out.StopCandidates, candidateJSON{Token: c.Token, Score: c.Score})
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printReport(rep *labelhier.Report, top int) {
	fmt.Printf("Run:         %s\n", rep.RunID)
	fmt.Printf("Pruned:      %d nodes in %d passes\n", len(rep.Prune.Removed), rep.Prune.Passes)
	fmt.Printf("Roots:       %d (%d frequent, %d real)\n", len(rep.Roots), len(rep.FrequentRoots), len(rep.RealRoots))
	fmt.Printf("Merged:      %d labels (%d unresolved)\n", rep.Mapping.Len(), len(rep.Mapping.Unresolved()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tROOTS\tREAL ROOTS")
	for _, p := range partitions(rep, top) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Label, strings.Join(p.Roots, " "), strings.Join(p.RealRoots, " "))
	}
	w.Flush()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tREPLACEMENTS")
	for i, e := range rep.Mapping.Entries() {
		if top > 0 && i >= top {
			fmt.Fprintf(w, "...\t%d more\n", rep.Mapping.Len()-top)
			break
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Label, strings.Join(literals(e.Replacements), " "))
	}
	w.Flush()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tCOHESION")
	for _, c := range topCohesion(rep, top) {
		fmt.Fprintf(w, "%s\t%.3f\n", c.Label, c.Score)
	}
	w.Flush()

	if len(rep.StopCandidates) > 0 {
		fmt.Println("\nStopword candidates:")
		for _, c := range rep.StopCandidates {
			fmt.Printf("  %-20s %.3f\n", c.Token, c.Score)
		}
	}
}

type runOut struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"created_at"`
	Source    string        `json:"source"`
	Config    string        `json:"config"`
	Merges    int           `json:"merges"`
	Roots     []rootOut     `json:"roots"`
	Cohesion  []cohesionOut `json:"cohesion"`
}

type rootOut struct {
	Label string   `json:"label"`
	Roots []string `json:"roots"`
}

func runJSON(run store.Run, roots []store.RootEntry, cohesion []store.Cohesion) runOut {
	out := runOut{
		ID:        run.ID,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		Source:    run.Source,
		Config:    run.Config,
		Merges:    len(run.Merges),
		Roots:     []rootOut{},
		Cohesion:  []cohesionOut{},
	}
	for _, r := range roots {
		out.Roots = append(out.Roots, rootOut{Label: r.Label.String(), Roots: literals(r.Roots)})
	}
	for _, c := range cohesion {
		out.Cohesion = append(out.Cohesion, cohesionOut{Label: c.Label.String(), Score: c.Score})
	}
	return out
}

func printRun(r runOut) {
	fmt.Printf("Run:     %s\n", r.ID)
	fmt.Printf("Created: %s\n", r.CreatedAt)
	fmt.Printf("Source:  %s\n", r.Source)
	fmt.Printf("Merges:  %d\n", r.Merges)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tROOTS")
	for _, e := range r.Roots {
		fmt.Fprintf(w, "%s\t%s\n", e.Label, strings.Join(e.Roots, " "))
	}
	w.Flush()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nLABEL\tCOHESION")
	for _, c := range r.Cohesion {
		fmt.Fprintf(w, "%s\t%.3f\n", c.Label, c.Score)
	}
	w.Flush()
}

func printRuns(runs []store.RunInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tNODES\tEDGES\tPRUNED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Nodes, r.Edges, r.Pruned)
	}
	w.Flush()
}
