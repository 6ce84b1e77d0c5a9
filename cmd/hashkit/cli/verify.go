package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/hashvalue"
)

// ErrVerifyFailed is returned when at least one file does not match.
var ErrVerifyFailed = errors.New("verification failed")

type expectation struct {
	line  common.ChecksumLine
	value hashvalue.HashValue
}

func newVerifyCommand() *cobra.Command {
	o := &algoOptions{}
	var (
		expect string
		check  string
	)
	cmd := &cobra.Command{
		Use:   "verify [flags] (--expect value file[#range] | --check sums-file)",
		Short: "Verify files against expected hashes",
		Long: `Verify one file against --expect, or every line of a checksum file
written by 'hashkit hash' with --check. Paths in a checksum file are
relative to the checksum file. Hashes are compared in constant time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, format, err := o.function()
			if err != nil {
				return err
			}

			var expected []expectation
			switch {
			case check != "":
				if len(args) != 0 {
					return fmt.Errorf("--check takes no file arguments")
				}
				expected, err = readChecksumFile(check, f, format)
			case expect != "":
				if len(args) != 1 {
					return fmt.Errorf("--expect needs exactly one file")
				}
				var e expectation
				e.line.ByteCount = -1
				if err = e.line.Spec.Parse(args[0]); err == nil {
					e.value, err = parseExpected(f, format, expect)
				}
				expected = []expectation{e}
			default:
				return fmt.Errorf("one of --expect or --check is required")
			}
			if err != nil {
				return err
			}

			specs := make([]common.FileAndRangeSpec, len(expected))
			for i, e := range expected {
				specs[i] = e.line.Spec
			}
			results := hashAll(cmd.Context(), f, specs, o.progressFunc(cmd))

			failed := 0
			out := cmd.OutOrStdout()
			for i, r := range results {
				e := expected[i]
				switch {
				case r.err != nil:
					failed++
					fmt.Fprintf(out, "%s: FAILED (%v)\n", r.spec.String(), r.err)
				case e.line.ByteCount >= 0 && e.line.ByteCount != r.size:
					failed++
					fmt.Fprintf(out, "%s: FAILED (size %d, expected %d)\n", r.spec.String(), r.size, e.line.ByteCount)
				case !r.value.Equal(e.value):
					failed++
					fmt.Fprintf(out, "%s: FAILED\n", r.spec.String())
					logger.Debug("hash mismatch", "file", r.spec.String(), "got", r.value)
				default:
					fmt.Fprintf(out, "%s: OK\n", r.spec.String())
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", ErrVerifyFailed, failed, len(results))
			}
			return nil
		},
	}
	o.addFlags(cmd)
	cmd.Flags().StringVarP(&expect, "expect", "e", "", "Expected hash of the single file argument")
	cmd.Flags().StringVarP(&check, "check", "c", "", "Checksum file to verify")
	cmd.MarkFlagsMutuallyExclusive("expect", "check")
	return cmd
}

func parseExpected(f hashfunc.HashFunction, format hashvalue.Format, s string) (hashvalue.HashValue, error) {
	return hashvalue.Parse(format, s, f.HashSizeInBits(), hashvalue.NotApplicable)
}

func readChecksumFile(path string, f hashfunc.HashFunction, format hashvalue.Format) ([]expectation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dir := filepath.Dir(path)
	var out []expectation
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		line, err := common.ParseChecksumLine(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if !filepath.IsAbs(line.Spec.FilePath) {
			line.Spec.FilePath = filepath.Join(dir, line.Spec.FilePath)
		}
		value, err := parseExpected(f, format, line.Hash)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, expectation{line: line, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no checksum lines", path)
	}
	return out, nil
}
