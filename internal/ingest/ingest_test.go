package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/table"
)

func sampleCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString("user,amount\n")
	for i := range rows {
		fmt.Fprintf(&sb, "u%d,%d\n", i%7, i)
	}
	return sb.String()
}

func newStore(t *testing.T) *shardpile.Store {
	t.Helper()
	layout, err := shardpile.Create(filepath.Join(t.TempDir(), "store"), "user", 5, shardpile.CompressionGzip)
	if err != nil {
		t.Fatal(err)
	}
	s, err := layout.Init(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func storeRows(t *testing.T, s *shardpile.Store) int {
	t.Helper()
	all, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return all.Len()
}

func TestIngestReader_Chunks(t *testing.T) {
	s := newStore(t)
	var phases []string
	in := New(WithChunkRows(10), WithProgress(func(p Progress) { phases = append(phases, p.Phase) }))

	sum, err := in.IngestReader(context.Background(), s, strings.NewReader(sampleCSV(25)))
	if err != nil {
		t.Fatalf("IngestReader() error = %v", err)
	}
	if sum.Rows != 25 || sum.Chunks != 3 || sum.ShardsCreated != 5 {
		t.Errorf("Summary = %+v, want 25 rows, 3 chunks, 5 shards created", sum)
	}
	if got := storeRows(t, s); got != 25 {
		t.Errorf("store rows = %d, want 25", got)
	}
	want := []string{PhasePartition, PhasePartition, PhasePartition, PhaseDone}
	if strings.Join(phases, ",") != strings.Join(want, ",") {
		t.Errorf("phases = %v, want %v", phases, want)
	}
}

func TestIngestReader_Preprocess(t *testing.T) {
	s := newStore(t)
	dropOdd := func(b table.Batch) (table.Batch, error) {
		var keep []int
		for i, row := range b.Rows {
			if row[1][len(row[1])-1]%2 == 0 {
				keep = append(keep, i)
			}
		}
		return b.Select(keep), nil
	}

	sum, err := New(WithChunkRows(4), WithPreprocess(dropOdd)).
		IngestReader(context.Background(), s, strings.NewReader(sampleCSV(20)))
	if err != nil {
		t.Fatalf("IngestReader() error = %v", err)
	}
	if sum.Rows != 10 {
		t.Errorf("Summary.Rows = %d, want 10", sum.Rows)
	}
	if got := storeRows(t, s); got != 10 {
		t.Errorf("store rows = %d, want 10", got)
	}
}

func TestIngest_CompressedFiles(t *testing.T) {
	data := sampleCSV(40)

	gzPath := filepath.Join(t.TempDir(), "events.csv.gz")
	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write([]byte(data))
	gw.Close()
	if err := os.WriteFile(gzPath, gzBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	zstPath := filepath.Join(t.TempDir(), "events.csv.zst")
	var zstBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zstBuf)
	if err != nil {
		t.Fatal(err)
	}
	zw.Write([]byte(data))
	zw.Close()
	if err := os.WriteFile(zstPath, zstBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	plainPath := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(plainPath, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	for _, source := range []string{gzPath, zstPath, plainPath} {
		t.Run(filepath.Base(source), func(t *testing.T) {
			s := newStore(t)
			sum, err := New(WithChunkRows(16)).Ingest(context.Background(), s, source)
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if sum.Rows != 40 {
				t.Errorf("Summary.Rows = %d, want 40", sum.Rows)
			}
			if got := storeRows(t, s); got != 40 {
				t.Errorf("store rows = %d, want 40", got)
			}
		})
	}
}

func TestIngest_URL(t *testing.T) {
	data := []byte(sampleCSV(30))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	s := newStore(t)
	var sawDownload bool
	in := New(WithTempDir(t.TempDir()), WithProgress(func(p Progress) {
		if p.Phase == PhaseDownload {
			sawDownload = true
		}
	}))

	sum, err := in.Ingest(context.Background(), s, srv.URL+"/events.csv")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if sum.Rows != 30 {
		t.Errorf("Summary.Rows = %d, want 30", sum.Rows)
	}
	if !sawDownload {
		t.Error("no download progress reported")
	}
}

type failingAppender struct{ err error }

func (f failingAppender) Append(context.Context, table.Batch) (shardpile.AppendResult, error) {
	return shardpile.AppendResult{}, f.err
}

func TestIngest_AppendError(t *testing.T) {
	boom := errors.New("disk full")
	var reported error
	in := New(WithProgress(func(p Progress) {
		if p.Phase == PhaseError {
			reported = p.Error
		}
	}))

	_, err := in.IngestReader(context.Background(), failingAppender{boom}, strings.NewReader(sampleCSV(3)))
	if !errors.Is(err, boom) {
		t.Errorf("IngestReader() error = %v, want %v", err, boom)
	}
	if !errors.Is(reported, boom) {
		t.Errorf("reported error = %v, want %v", reported, boom)
	}
}

func TestIngest_EmptySource(t *testing.T) {
	_, err := New().IngestReader(context.Background(), failingAppender{}, strings.NewReader(""))
	if !errors.Is(err, table.ErrNoHeader) {
		t.Errorf("IngestReader() error = %v, want ErrNoHeader", err)
	}
}

func TestIngest_MissingFile(t *testing.T) {
	_, err := New().Ingest(context.Background(), failingAppender{}, filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Ingest() error = %v, want os.ErrNotExist", err)
	}
}

func TestIngest_MalformedURL(t *testing.T) {
	var phases []string
	in := New(WithProgress(func(p Progress) { phases = append(phases, p.Phase) }))

	_, err := in.Ingest(context.Background(), failingAppender{}, "http://bad host/x.csv")
	if err == nil || !strings.Contains(err.Error(), "parsing source URL") {
		t.Fatalf("Ingest() error = %v, want URL parse error", err)
	}
	if len(phases) != 1 || phases[0] != PhaseError {
		t.Errorf("progress phases = %v, want [%s]", phases, PhaseError)
	}
}

func TestSourceExt(t *testing.T) {
	tests := map[string]string{
		"a.csv":        "",
		"a.csv.gz":     ".gz",
		"a.CSV.GZ":     ".gz",
		"/x/y.csv.zst": ".zst",
		"/x/y.tar.bz2": "",
		"https/host/a": "",
	}
	for name, want := range tests {
		if got := sourceExt(name); got != want {
			t.Errorf("sourceExt(%q) = %q, want %q", name, got, want)
		}
	}
}
