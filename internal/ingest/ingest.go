// Package ingest loads CSV sources into a store in fixed-size chunks.
//
// A source is a local path or an http(s) URL. Sources ending in .gz or
// .zst are decompressed on the fly. Each chunk may be rewritten by a
// preprocessing hook before it is appended.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/table"
)

// DefaultChunkRows is the number of rows appended per chunk.
const DefaultChunkRows = 1_000_000

// Appender receives chunks. *shardpile.Store implements it.
type Appender interface {
	Append(ctx context.Context, b table.Batch) (shardpile.AppendResult, error)
}

// PreprocessFunc rewrites a chunk before it is appended.
type PreprocessFunc func(table.Batch) (table.Batch, error)

// Summary describes a finished ingest.
type Summary struct {
	Rows          int64
	Chunks        int
	ShardsCreated int
	Elapsed       time.Duration
}

// Ingester reads CSV sources into a store.
type Ingester struct {
	chunkRows  int
	preprocess PreprocessFunc
	progress   ProgressFunc
	downloader *Downloader
	tempDir    string
	logger     *zap.Logger
}

// Option configures the Ingester.
type Option func(*Ingester)

// WithChunkRows sets the number of rows per appended chunk.
func WithChunkRows(n int) Option {
	return func(in *Ingester) { in.chunkRows = n }
}

// WithPreprocess sets a hook applied to every chunk.
func WithPreprocess(fn PreprocessFunc) Option {
	return func(in *Ingester) { in.preprocess = fn }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(in *Ingester) { in.progress = fn }
}

// WithDownloader sets the downloader used for URL sources.
func WithDownloader(d *Downloader) Option {
	return func(in *Ingester) { in.downloader = d }
}

// WithTempDir sets where URL sources are downloaded to.
func WithTempDir(dir string) Option {
	return func(in *Ingester) { in.tempDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// New creates an Ingester with the given options.
func New(opts ...Option) *Ingester {
	in := &Ingester{
		chunkRows: DefaultChunkRows,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.downloader == nil {
		in.downloader = NewDownloader()
	}
	return in
}

// Ingest appends every row of source to dst. URL sources are downloaded
// to a temporary file first, which is removed afterwards.
func (in *Ingester) Ingest(ctx context.Context, dst Appender, source string) (Summary, error) {
	start := time.Now()
	if !isURL(source) {
		return in.ingestFile(ctx, dst, source, start)
	}

	u, err := url.Parse(source)
	if err != nil {
		in.fail(err)
		return Summary{}, fmt.Errorf("parsing source URL: %w", err)
	}
	tmp, err := os.MkdirTemp(in.tempDir, "shardpile-ingest-*")
	if err != nil {
		return Summary{}, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	local := filepath.Join(tmp, "source"+sourceExt(u.Path))
	in.report(Progress{Phase: PhaseDownload, StartTime: start})
	in.logger.Info("downloading source", zap.String("url", source))
	if err := in.downloader.DownloadToFile(ctx, source, local, in.progress); err != nil {
		in.fail(err)
		return Summary{}, fmt.Errorf("downloading source: %w", err)
	}
	return in.ingestFile(ctx, dst, local, start)
}

func (in *Ingester) ingestFile(ctx context.Context, dst Appender, name string, start time.Time) (Summary, error) {
	f, err := os.Open(name)
	if err != nil {
		in.fail(err)
		return Summary{}, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	var bytesRead atomic.Int64
	var r io.Reader = newProgressReader(f, &bytesRead)
	switch sourceExt(name) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			in.fail(err)
			return Summary{}, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			in.fail(err)
			return Summary{}, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return in.run(ctx, dst, r, &bytesRead, start)
}

// IngestReader appends every row of an uncompressed CSV stream to dst.
func (in *Ingester) IngestReader(ctx context.Context, dst Appender, r io.Reader) (Summary, error) {
	var bytesRead atomic.Int64
	return in.run(ctx, dst, newProgressReader(r, &bytesRead), &bytesRead, time.Now())
}

func (in *Ingester) run(ctx context.Context, dst Appender, r io.Reader, bytesRead *atomic.Int64, start time.Time) (Summary, error) {
	cr, err := table.NewChunkReader(r, in.chunkRows)
	if err != nil {
		in.fail(err)
		return Summary{}, fmt.Errorf("reading source: %w", err)
	}

	var sum Summary
	var rowsRead int64
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		chunk, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			in.fail(err)
			return sum, fmt.Errorf("reading chunk %d: %w", sum.Chunks, err)
		}
		rowsRead += int64(chunk.Len())

		if in.preprocess != nil {
			chunk, err = in.preprocess(chunk)
			if err != nil {
				in.fail(err)
				return sum, fmt.Errorf("preprocessing chunk %d: %w", sum.Chunks, err)
			}
		}

		res, err := dst.Append(ctx, chunk)
		if err != nil {
			in.fail(err)
			return sum, fmt.Errorf("appending chunk %d: %w", sum.Chunks, err)
		}
		sum.Chunks++
		sum.Rows += int64(res.Rows)
		sum.ShardsCreated += res.ShardsCreated

		in.report(Progress{
			Phase:       PhasePartition,
			BytesRead:   bytesRead.Load(),
			RowsRead:    rowsRead,
			RowsWritten: sum.Rows,
			Chunks:      sum.Chunks,
			StartTime:   start,
		})
	}

	sum.Elapsed = time.Since(start)
	in.report(Progress{
		Phase:         PhaseDone,
		BytesRead:     bytesRead.Load(),
		RowsRead:      rowsRead,
		RowsWritten:   sum.Rows,
		Chunks:        sum.Chunks,
		ShardsCreated: sum.ShardsCreated,
		StartTime:     start,
	})
	in.logger.Info("ingested source",
		zap.Int64("rows", sum.Rows),
		zap.Int("chunks", sum.Chunks),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}

func (in *Ingester) report(p Progress) {
	if in.progress != nil {
		in.progress(p)
	}
}

func (in *Ingester) fail(err error) {
	in.report(Progress{Phase: PhaseError, Error: err})
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// sourceExt returns the compression extension of a source name, or the
// empty string.
func sourceExt(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".gz", ".zst":
		return ext
	}
	return ""
}
