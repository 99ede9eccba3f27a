package table

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	b := New([]string{"key", "value", "note"},
		[]string{"a", "1", "plain"},
		[]string{"b", "2", "with, comma"},
		[]string{"", "3", `with "quotes"`},
		[]string{"d", "4", "multi\nline"},
	)

	var buf bytes.Buffer
	if err := Write(&buf, b, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("Read() = %v, want %v", got, b)
	}
}

func TestWrite_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	b := New([]string{"key", "value"}, []string{"a", "1"})
	if err := Write(&buf, b, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := buf.String(); got != "a,1\n" {
		t.Errorf("Write() = %q, want %q", got, "a,1\n")
	}
}

func TestWrite_SingleEmptyCell(t *testing.T) {
	b := New([]string{"key"}, []string{"x"}, []string{""}, []string{"y"})

	var buf bytes.Buffer
	if err := Write(&buf, b, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Len() != 3 || got.Rows[1][0] != "" {
		t.Errorf("Read() = %v, want the empty row preserved", got.Rows)
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	got, err := Read(strings.NewReader("key,value\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got.Columns, []string{"key", "value"}) || got.Len() != 0 {
		t.Errorf("Read() = %v, want header only", got)
	}
}

func TestRead_Empty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("Read() error = %v, want ErrNoHeader", err)
	}
}

func TestRead_Ragged(t *testing.T) {
	if _, err := Read(strings.NewReader("a,b\n1,2\n3\n")); err == nil {
		t.Error("Read() expected error for ragged row")
	}
}

func TestReadHeader(t *testing.T) {
	got, err := ReadHeader(strings.NewReader("key,value\na,1\n"))
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"key", "value"}) {
		t.Errorf("ReadHeader() = %v", got)
	}
}

func TestChunkReader(t *testing.T) {
	input := "k,v\na,1\nb,2\nc,3\nd,4\ne,5\n"
	cr, err := NewChunkReader(strings.NewReader(input), 2)
	if err != nil {
		t.Fatalf("NewChunkReader() error = %v", err)
	}

	var sizes []int
	for {
		b, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !reflect.DeepEqual(b.Columns, []string{"k", "v"}) {
			t.Errorf("chunk header = %v", b.Columns)
		}
		sizes = append(sizes, b.Len())
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Errorf("chunk sizes = %v, want [2 2 1]", sizes)
	}
}

func TestChunkReader_InvalidSize(t *testing.T) {
	if _, err := NewChunkReader(strings.NewReader("k\n"), 0); err == nil {
		t.Error("NewChunkReader() expected error for zero chunk size")
	}
}
