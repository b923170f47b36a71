package trpo

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// report accumulates named diagnostics for one iteration and prints
// them as an aligned table. Only the root worker prints; other workers'
// reports are silent so that the console carries one copy of the run.
type report struct {
	silent bool
	vals   map[string]string
}

func newReport(silent bool) *report {
	return &report{silent: silent, vals: make(map[string]string)}
}

// record stores one diagnostic for the next dump
func (r *report) record(key string, value interface{}) {
	switch v := value.(type) {
	case float64:
		r.vals[key] = fmt.Sprintf("%-8.3g", v)
	case int:
		r.vals[key] = fmt.Sprintf("%d", v)
	default:
		r.vals[key] = fmt.Sprintf("%v", v)
	}
}

// dump prints all recorded diagnostics as a table and clears them
func (r *report) dump() {
	defer func() { r.vals = make(map[string]string) }()
	if r.silent {
		return
	}

	keys := make([]string, 0, len(r.vals))
	keyWidth, valWidth := 0, 0
	for k, v := range r.vals {
		keys = append(keys, k)
		if len(k) > keyWidth {
			keyWidth = len(k)
		}
		if len(v) > valWidth {
			valWidth = len(v)
		}
	}
	sort.Strings(keys)

	dashes := make([]byte, keyWidth+valWidth+7)
	for i := range dashes {
		dashes[i] = '-'
	}
	fmt.Fprintln(os.Stdout, string(dashes))
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "| %-*s | %-*s |\n", keyWidth, k, valWidth,
			r.vals[k])
	}
	fmt.Fprintln(os.Stdout, string(dashes))
}

// logln prints a line of progress output, suppressed off the root
// worker
func (r *report) logln(args ...interface{}) {
	if r.silent {
		return
	}
	fmt.Fprintln(os.Stdout, args...)
}

// timed runs f under a named stopwatch, printing the elapsed time on
// completion
func (r *report) timed(name string, f func() error) error {
	if r.silent {
		return f()
	}
	fmt.Fprintf(os.Stdout, "%s...\n", name)
	start := time.Now()
	err := f()
	fmt.Fprintf(os.Stdout, "done in %.3f seconds\n",
		time.Since(start).Seconds())
	return err
}
