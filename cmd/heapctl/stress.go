package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/stress"
	"github.com/joshuapare/heapkit/pkg/malloc"
)

var (
	stressSeed       int64
	stressSlots      int
	stressRequests   int
	stressMaxRequest int
	stressMaxSize    int
	stressSkew       int
	stressBacking    string
	stressChecks     string
	stressTrace      bool
	stressRelease    bool
	stressLang       string
	stressDumpFree   bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().Int64Var(&stressSeed, "seed", 0, "Random seed (0 = derive from the clock)")
	cmd.Flags().IntVar(&stressSlots, "slots", stress.DefaultSlots, "Number of job slots")
	cmd.Flags().IntVarP(&stressRequests, "requests", "n", stress.DefaultRequests, "Number of steps")
	cmd.Flags().IntVar(&stressMaxRequest, "max-request", stress.DefaultMaxRequest, "Requests are drawn from [1, max-request)")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 64<<20, "Heap reservation in bytes")
	cmd.Flags().IntVar(&stressSkew, "skew", 0, "Initial break offset within the reservation")
	cmd.Flags().StringVar(&stressBacking, "backing", "os", "Heap backing: os or memory")
	cmd.Flags().StringVar(&stressChecks, "checks", "default", "Invariant checks: default, on or off")
	cmd.Flags().BoolVar(&stressTrace, "trace", false, "Trace every allocator call to stderr")
	cmd.Flags().BoolVar(&stressRelease, "release", false, "Free every live slot at the end")
	cmd.Flags().StringVar(&stressLang, "lang", "en", "Language tag for number formatting")
	cmd.Flags().BoolVar(&stressDumpFree, "dump-free", false, "Print the free list after the run")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized allocation workload",
		Long: `The stress command fills random job slots with Calloc, verifies their
contents by hash on every revisit, and then frees or reallocates them.
It reports the peak live payload, the heap size and the utilization.

Example:
  heapctl stress
  heapctl stress --seed 42 --slots 64 -n 100000 --checks on
  heapctl stress --skew 3 --backing memory --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

type stressResult struct {
	Seed        int64         `json:"seed"`
	Report      stress.Report `json:"report"`
	Utilization float64       `json:"utilization"`
	Stats       malloc.Stats  `json:"stats"`
	Error       string        `json:"error,omitempty"`
}

func runStress() error {
	backing, err := parseBacking(stressBacking)
	if err != nil {
		return err
	}
	checks, err := alloc.ParseCheckMode(stressChecks)
	if err != nil {
		return err
	}
	tag, err := language.Parse(stressLang)
	if err != nil {
		return fmt.Errorf("invalid --lang: %w", err)
	}

	opts := &malloc.Options{
		MaxSize: stressMaxSize,
		Skew:    stressSkew,
		Backing: backing,
		Checks:  checks,
		OnFatal: alloc.Exit,
	}
	if stressTrace {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	m, err := malloc.New(opts)
	if err != nil {
		return err
	}
	defer m.Close()

	seed := stressSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	printVerbose("Seed: %d\n", seed)

	cfg := stress.Config{
		Seed:       seed,
		Slots:      stressSlots,
		Requests:   stressRequests,
		MaxRequest: stressMaxRequest,
		Release:    stressRelease,
	}
	if verbose && !quiet && !jsonOut {
		cfg.OnEvent = func(e stress.Event) { fmt.Println(e) }
	}

	report, runErr := stress.Run(m, cfg)

	if jsonOut {
		res := stressResult{Seed: seed, Report: report, Utilization: report.Utilization(), Stats: m.Stats()}
		if runErr != nil {
			res.Error = runErr.Error()
		}
		if err := printJSON(res); err != nil {
			return err
		}
		return runErr
	}

	if !quiet {
		if err := report.Print(os.Stdout, tag); err != nil {
			return err
		}
	}
	if verbose && !quiet {
		m.PrintStats(os.Stdout)
	}
	if stressDumpFree && !quiet {
		if err := m.DumpFreeList(os.Stdout); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr == nil {
		printInfo("ok\n")
	}
	return runErr
}

func parseBacking(s string) (malloc.Backing, error) {
	switch s {
	case "os":
		return malloc.BackingOS, nil
	case "memory", "mem":
		return malloc.BackingMemory, nil
	default:
		return 0, fmt.Errorf("unknown backing %q (want os or memory)", s)
	}
}
