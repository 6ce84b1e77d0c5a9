package common

// FileLifecycle receives progress callbacks while one range is hashed.
type FileLifecycle struct {
	OnStart func(spec FileAndRangeSpec, size int64)
	OnChunk func(bytes int64)
	OnEnd   func(err error)
}

// ProgressFunc creates a FileLifecycle for a file range of size bytes.
type ProgressFunc func(spec FileAndRangeSpec, size int64) FileLifecycle
