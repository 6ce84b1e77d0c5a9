// Package lifecycle provides the progress reporting lifecycles used by the
// CLI.
package lifecycle

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/guilt/hashkit/pkg/common"
)

// DefaultLifecycle is a no-op lifecycle.
var DefaultLifecycle = common.FileLifecycle{
	OnStart: func(common.FileAndRangeSpec, int64) {},
	OnChunk: func(int64) {},
	OnEnd:   func(error) {},
}

// MakeDefaultLifecycle returns DefaultLifecycle. It satisfies
// common.ProgressFunc.
func MakeDefaultLifecycle(common.FileAndRangeSpec, int64) common.FileLifecycle {
	return DefaultLifecycle
}

// ProgressBars builds one progress bar per hashed range. Bars are written
// to Writer; ranges hashed concurrently share it under a lock.
type ProgressBars struct {
	Writer io.Writer
	mu     sync.Mutex
}

// Make satisfies common.ProgressFunc.
func (p *ProgressBars) Make(spec common.FileAndRangeSpec, size int64) common.FileLifecycle {
	desc := fmt.Sprintf("Hashing %s", spec.DisplayName())
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(&lockedWriter{p: p}),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			p.write([]byte("\n"))
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return common.FileLifecycle{
		OnStart: func(common.FileAndRangeSpec, int64) {},
		OnChunk: func(n int64) {
			bar.Add64(n)
		},
		OnEnd: func(err error) {
			if err != nil {
				bar.Exit()
				return
			}
			bar.Finish()
		},
	}
}

func (p *ProgressBars) write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Writer.Write(b)
}

type lockedWriter struct {
	p *ProgressBars
}

func (w *lockedWriter) Write(b []byte) (int, error) {
	return w.p.write(b)
}
