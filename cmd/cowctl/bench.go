package main

import (
	"fmt"
	"time"

	"github.com/joshuapare/cowchunk/chunk"
	"github.com/joshuapare/cowchunk/internal/logger"
	"github.com/spf13/cobra"
)

var (
	benchCopies int
	benchWrite  float64
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVarP(&benchCopies, "copies", "n", 256, "Number of copies per strategy")
	cmd.Flags().Float64Var(&benchWrite, "write-fraction", 0.25, "Fraction of copies written after copying (0..1)")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Compare eager and lazy copies",
		Long: `The bench command copies one source chunk repeatedly with each strategy
and then writes to a fraction of the copies. Lazy copies pay for a private
copy only when written.

Example:
  cowctl bench
  cowctl bench -n 1000 --write-fraction 0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

type benchResult struct {
	Strategy     string        `json:"strategy"`
	Copies       int           `json:"copies"`
	Written      int           `json:"written"`
	CopyTime     time.Duration `json:"copy_ns"`
	WriteTime    time.Duration `json:"write_ns"`
	PerCopy      time.Duration `json:"per_copy_ns"`
	Materialized int64         `json:"materialized"`
}

func runBench() error {
	if benchCopies <= 0 {
		return fmt.Errorf("--copies must be positive, got %d", benchCopies)
	}
	if benchWrite < 0 || benchWrite > 1 {
		return fmt.Errorf("--write-fraction must be within [0, 1], got %g", benchWrite)
	}
	written := int(float64(benchCopies) * benchWrite)

	var results []benchResult
	for _, lazy := range []bool{false, true} {
		r, err := benchStrategy(lazy, benchCopies, written)
		if err != nil {
			return err
		}
		results = append(results, r)
	}

	if jsonOut {
		return printJSON(results)
	}

	printInfo("\nCopying %s chunks of %s, writing %s of them:\n\n",
		formatCount(int64(benchCopies)), formatBytes(int64(cfg.ChunkSize)), formatCount(int64(written)))
	printInfo("  %-8s %14s %14s %14s %14s\n", "strategy", "copy", "write", "per copy", "materialized")
	for _, r := range results {
		printInfo("  %-8s %14s %14s %14s %14s\n",
			r.Strategy, r.CopyTime, r.WriteTime, r.PerCopy, formatCount(r.Materialized))
	}
	return nil
}

func benchStrategy(lazy bool, copies, written int) (benchResult, error) {
	rt, err := chunk.Startup(runtimeOptions())
	if err != nil {
		return benchResult{}, fmt.Errorf("failed to start runtime: %w", err)
	}
	defer rt.Close()

	src, err := rt.Alloc()
	if err != nil {
		return benchResult{}, err
	}
	if err := src.Fill(0xA5); err != nil {
		return benchResult{}, err
	}

	copyFn, name := rt.CopyEager, "eager"
	if lazy {
		copyFn, name = rt.CopyLazy, "lazy"
	}

	dsts := make([]*chunk.Chunk, 0, copies)
	start := time.Now()
	for i := 0; i < copies; i++ {
		c, err := copyFn(src)
		if err != nil {
			return benchResult{}, fmt.Errorf("%s copy %d: %w", name, i, err)
		}
		dsts = append(dsts, c)
	}
	copyTime := time.Since(start)

	start = time.Now()
	for i := 0; i < written; i++ {
		if err := dsts[i].PutUint64At(0, uint64(i)); err != nil {
			return benchResult{}, fmt.Errorf("%s write %d: %w", name, i, err)
		}
	}
	writeTime := time.Since(start)

	materialized := rt.Stats().Materialized
	printVerbose("%s: %d copies in %s\n", name, copies, copyTime)
	logger.Info("bench strategy done",
		"strategy", name, "copies", copies, "written", written,
		"copy_time", copyTime, "write_time", writeTime, "materialized", materialized)
	return benchResult{
		Strategy:     name,
		Copies:       copies,
		Written:      written,
		CopyTime:     copyTime,
		WriteTime:    writeTime,
		PerCopy:      perOp(copyTime+writeTime, copies),
		Materialized: materialized,
	}, nil
}
