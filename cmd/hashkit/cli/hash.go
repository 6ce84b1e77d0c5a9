package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/lifecycle"
)

type hashJob struct {
	index int
	spec  common.FileAndRangeSpec
}

type hashResult struct {
	index int
	spec  common.FileAndRangeSpec
	value hashvalue.HashValue
	size  int64
	err   error
}

func newHashCommand() *cobra.Command {
	o := &algoOptions{}
	var (
		increment string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "hash [flags] file[#range]...",
		Short: "Hash files or file ranges",
		Long: `Hash each file and print "<hash> <size> <file>" lines.

A file may carry a range: "file#100" (first 100 bytes), "file#100-200",
"file#100-", "file#10%-20%". With --increment every file is split into
consecutive percentage ranges instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, format, err := o.function()
			if err != nil {
				return err
			}
			specs, err := hashSpecs(args, increment)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = io.MultiWriter(out, file)
			}

			results := hashAll(cmd.Context(), f, specs, o.progressFunc(cmd))
			for _, r := range results {
				if r.err != nil {
					return fmt.Errorf("%s: %w", r.spec.String(), r.err)
				}
				encoded, err := r.value.Encode(format)
				if err != nil {
					return err
				}
				line := common.ChecksumLine{Hash: encoded, ByteCount: r.size, Spec: r.spec}
				if _, err := fmt.Fprintln(out, line.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	o.addFlags(cmd)
	cmd.Flags().StringVar(&increment, "increment", "", "Hash consecutive ranges of this percentage (e.g. 10%)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the checksum lines to this file")
	return cmd
}

func hashSpecs(args []string, increment string) ([]common.FileAndRangeSpec, error) {
	var percent float64
	if increment != "" {
		p, err := common.ParsePercent(increment)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("%w: increment %q", common.ErrInvalidRange, increment)
		}
		percent = p
	}

	var specs []common.FileAndRangeSpec
	for _, arg := range args {
		var spec common.FileAndRangeSpec
		if err := spec.Parse(arg); err != nil {
			return nil, err
		}
		if percent == 0 {
			specs = append(specs, spec)
			continue
		}
		if !spec.IsWhole() {
			return nil, fmt.Errorf("%w: %s: --increment needs whole files", common.ErrInvalidRange, arg)
		}
		specs = append(specs, common.IncrementalRanges(spec.FilePath, percent)...)
	}
	return specs, nil
}

func (o *algoOptions) progressFunc(cmd *cobra.Command) common.ProgressFunc {
	if !o.progress {
		return lifecycle.MakeDefaultLifecycle
	}
	bars := &lifecycle.ProgressBars{Writer: cmd.ErrOrStderr()}
	return bars.Make
}

// hashAll hashes every spec on one worker per CPU. Results come back in
// the order of specs.
func hashAll(ctx context.Context, f hashfunc.HashFunction, specs []common.FileAndRangeSpec, progress common.ProgressFunc) []hashResult {
	jobs := make(chan hashJob, len(specs))
	resultsChan := make(chan hashResult, len(specs))
	var wg sync.WaitGroup

	numWorkers := min(runtime.NumCPU(), len(specs))
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				value, size, err := hashRange(ctx, f, job.spec, progress)
				resultsChan <- hashResult{index: job.index, spec: job.spec, value: value, size: size, err: err}
			}
		}()
	}

	for i, spec := range specs {
		jobs <- hashJob{index: i, spec: spec}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]hashResult, len(specs))
	for r := range resultsChan {
		results[r.index] = r
	}
	return results
}

func hashRange(ctx context.Context, f hashfunc.HashFunction, spec common.FileAndRangeSpec, progress common.ProgressFunc) (hashvalue.HashValue, int64, error) {
	r, size, closer, err := spec.Open()
	if err != nil {
		return hashvalue.HashValue{}, 0, err
	}
	defer closer.Close()

	logger.Debug("hashing", "file", spec.FilePath, "range", spec.String(), "size", size)
	lc := progress(spec, size)
	lc.OnStart(spec, size)
	value, err := f.ComputeHashReader(ctx, &common.LifecycleReader{Reader: r, Lifecycle: lc})
	lc.OnEnd(err)
	return value, size, err
}
