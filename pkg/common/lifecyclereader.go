package common

import "io"

// LifecycleReader reports every successful read to its lifecycle.
type LifecycleReader struct {
	Reader    io.Reader
	Lifecycle FileLifecycle
}

// Read implements io.Reader.
func (lr *LifecycleReader) Read(p []byte) (n int, err error) {
	n, err = lr.Reader.Read(p)
	if n > 0 && lr.Lifecycle.OnChunk != nil {
		lr.Lifecycle.OnChunk(int64(n))
	}
	return n, err
}
