package table

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

type label string

func (l label) String() string { return "label:" + string(l) }

func TestCanonical(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: NullToken},
		{name: "string", in: "abc", want: "abc"},
		{name: "empty string", in: "", want: ""},
		{name: "int", in: 42, want: "42"},
		{name: "negative int64", in: int64(-7), want: "-7"},
		{name: "uint8", in: uint8(255), want: "255"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "whole float", in: 3.0, want: "3"},
		{name: "float32", in: float32(0.1), want: "0.1"},
		{name: "NaN", in: math.NaN(), want: NullToken},
		{name: "bool", in: true, want: "true"},
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "time", in: ts, want: "2024-03-01T12:30:00.0000005Z"},
		{name: "nil time pointer", in: (*time.Time)(nil), want: NullToken},
		{name: "stringer", in: label("x"), want: "label:x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.in)
			if err != nil {
				t.Fatalf("Canonical() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonical(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonical_Unsupported(t *testing.T) {
	_, err := Canonical([]string{"composite", "key"})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("Canonical() error = %v, want ErrUnsupportedValue", err)
	}
}

func TestCanonical_Stable(t *testing.T) {
	for i := 0; i < 3; i++ {
		if s, _ := Canonical(0.30000000000000004); s != "0.30000000000000004" {
			t.Fatalf("Canonical() = %q", s)
		}
	}
}

func TestFromRecords(t *testing.T) {
	b, err := FromRecords([]string{"key", "value"}, [][]any{
		{"a", 1},
		{nil, 2.5},
	})
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	want := New([]string{"key", "value"}, []string{"a", "1"}, []string{"", "2.5"})
	if !reflect.DeepEqual(b, want) {
		t.Errorf("FromRecords() = %v, want %v", b, want)
	}
}

func TestFromRecords_Ragged(t *testing.T) {
	_, err := FromRecords([]string{"key", "value"}, [][]any{{"a"}})
	if !errors.Is(err, ErrRaggedRow) {
		t.Errorf("FromRecords() error = %v, want ErrRaggedRow", err)
	}
}

func TestBatch_ColumnIndex(t *testing.T) {
	b := New([]string{"key", "value", "key2"})
	if idx, err := b.ColumnIndex("value"); err != nil || idx != 1 {
		t.Errorf("ColumnIndex(value) = %d, %v", idx, err)
	}
	if _, err := b.ColumnIndex("missing"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("ColumnIndex(missing) error = %v, want ErrNoColumn", err)
	}

	dup := New([]string{"key", "key"})
	if _, err := dup.ColumnIndex("key"); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("ColumnIndex(key) error = %v, want ErrDuplicateColumn", err)
	}
}

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		batch   Batch
		wantErr error
	}{
		{name: "ok", batch: New([]string{"a", "b"}, []string{"1", "2"})},
		{name: "empty", batch: New([]string{"a"})},
		{name: "ragged", batch: New([]string{"a", "b"}, []string{"1"}), wantErr: ErrRaggedRow},
		{name: "duplicate", batch: New([]string{"a", "a"}), wantErr: ErrDuplicateColumn},
		{name: "crlf cell", batch: New([]string{"a", "b"}, []string{"x\r\ny", "2"}), wantErr: ErrCarriageReturn},
		{name: "lone cr", batch: New([]string{"a"}, []string{"x\r"}), wantErr: ErrCarriageReturn},
		{name: "cr header", batch: New([]string{"a\r"}), wantErr: ErrCarriageReturn},
		{name: "newline cell", batch: New([]string{"a"}, []string{"x\ny"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBatch_SelectAndColumn(t *testing.T) {
	b := New([]string{"k", "v"},
		[]string{"a", "0"},
		[]string{"b", "1"},
		[]string{"c", "2"},
	)
	sel := b.Select([]int{2, 0})
	keys, err := sel.Column("k")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"c", "a"}) {
		t.Errorf("Column() = %v, want [c a]", keys)
	}
}

func TestConcat(t *testing.T) {
	a := New([]string{"k"}, []string{"1"})
	b := New([]string{"k"}, []string{"2"}, []string{"3"})
	got, err := Concat(a, b)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("Concat().Len() = %d, want 3", got.Len())
	}

	if _, err := Concat(a, New([]string{"other"})); err == nil {
		t.Error("Concat() expected error for mismatched headers")
	}
}
