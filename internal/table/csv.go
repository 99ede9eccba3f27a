package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrNoHeader indicates the input has no header line.
var ErrNoHeader = errors.New("table: missing header")

// Read parses a whole CSV stream: one header line followed by data rows.
// A header-only stream yields a batch with no rows.
func Read(r io.Reader) (Batch, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Batch{}, ErrNoHeader
		}
		return Batch{}, fmt.Errorf("reading header: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("reading rows: %w", err)
	}
	return Batch{Columns: header, Rows: rows}, nil
}

// ReadHeader parses only the header line of a CSV stream.
func ReadHeader(r io.Reader) ([]string, error) {
	header, err := newReader(r).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return header, nil
}

// Write encodes a batch as CSV, with or without its header line.
func Write(w io.Writer, b Batch, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(b.Columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, row := range b.Rows {
		if len(row) == 1 && row[0] == "" {
			// encoding/csv writes a lone empty field as a blank line,
			// which readers skip. Quote it so the row survives.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("writing rows: %w", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("writing rows: %w", err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// WriteHeader writes only the header line.
func WriteHeader(w io.Writer, columns []string) error {
	return Write(w, Batch{Columns: columns}, true)
}

// ChunkReader splits a CSV stream into batches of at most a fixed number
// of rows, each carrying the stream's header.
type ChunkReader struct {
	cr        *csv.Reader
	header    []string
	chunkRows int
	done      bool
}

// NewChunkReader reads the header from r and returns a reader yielding
// chunks of at most chunkRows rows.
func NewChunkReader(r io.Reader, chunkRows int) (*ChunkReader, error) {
	if chunkRows <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkRows)
	}
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return &ChunkReader{cr: cr, header: header, chunkRows: chunkRows}, nil
}

// Header returns the column names of the stream.
func (c *ChunkReader) Header() []string {
	return c.header
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
func (c *ChunkReader) Next() (Batch, error) {
	if c.done {
		return Batch{}, io.EOF
	}
	b := Batch{Columns: c.header, Rows: make([][]string, 0, min(c.chunkRows, 4096))}
	for len(b.Rows) < c.chunkRows {
		row, err := c.cr.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return Batch{}, fmt.Errorf("reading rows: %w", err)
		}
		b.Rows = append(b.Rows, row)
	}
	if len(b.Rows) == 0 {
		return Batch{}, io.EOF
	}
	return b, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0
	return cr
}
