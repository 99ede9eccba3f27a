// Package codec provides compression and decompression for shard files.
package codec

import "io"

// Codec provides compression and decompression functionality.
//
// Shard files are appended to across many batches, so every codec must
// produce output that stays readable when independently written streams
// are concatenated onto the same file.
type Codec interface {
	// Name returns the compression name recorded in store metadata.
	// Returns empty string for no compression.
	Name() string
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}
