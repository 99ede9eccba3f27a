// Package shardpath resolves shard IDs to file names and back.
//
// A shard file is named by its zero-padded decimal ID, the table extension
// and, for compressed stores, the codec extension: with 13 shards and gzip
// the files are 00.csv.gz through 12.csv.gz. The padding width is the
// number of digits in the largest ID, so lexicographic and numeric order
// of shard files coincide.
package shardpath

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// TableExt is the extension of uncompressed shard files.
const TableExt = "csv"

// Entry is a shard ID and the path of its file.
type Entry struct {
	ID   int
	Path string
}

// Width returns the number of digits needed to print totalShards-1.
func Width(totalShards int) int {
	if totalShards <= 1 {
		return 1
	}
	return len(strconv.Itoa(totalShards - 1))
}

// Suffix returns the file suffix shared by all shards, including the
// leading dot.
func Suffix(codecExt string) string {
	if codecExt == "" {
		return "." + TableExt
	}
	return "." + TableExt + "." + codecExt
}

// Name returns the file name of a shard.
func Name(shardID, totalShards int, codecExt string) string {
	return fmt.Sprintf("%0*d", Width(totalShards), shardID) + Suffix(codecExt)
}

// Path returns the path of a shard file inside dir.
func Path(dir string, shardID, totalShards int, codecExt string) string {
	return filepath.Join(dir, Name(shardID, totalShards, codecExt))
}

// Parse extracts the shard ID from a file name. It reports false for any
// name Name would not produce for this configuration.
func Parse(name string, totalShards int, codecExt string) (int, bool) {
	digits, ok := strings.CutSuffix(name, Suffix(codecExt))
	if !ok || len(digits) != Width(totalShards) {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id >= totalShards {
		return 0, false
	}
	return id, true
}

// IsShardName reports whether name looks like a shard file of any
// configuration: digits, the table extension and an optional codec
// extension.
func IsShardName(name string) bool {
	digits, rest, ok := strings.Cut(name, "."+TableExt)
	if !ok || digits == "" || strings.Trim(digits, "0123456789") != "" {
		return false
	}
	return rest == "" || (strings.HasPrefix(rest, ".") && !strings.Contains(rest[1:], "."))
}

// All returns an entry for every shard ID of the configuration, whether or
// not its file exists.
func All(dir string, totalShards int, codecExt string) []Entry {
	entries := make([]Entry, totalShards)
	for id := range entries {
		entries[id] = Entry{ID: id, Path: Path(dir, id, totalShards, codecExt)}
	}
	return entries
}

// Scan lists the shard files present in dir, sorted by ID. Files that do
// not parse as shard names are ignored.
func Scan(dir string, totalShards int, codecExt string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		id, ok := Parse(de.Name(), totalShards, codecExt)
		if !ok {
			continue
		}
		entries = append(entries, Entry{ID: id, Path: filepath.Join(dir, de.Name())})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}
