package gcsbackend

import "testing"

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var c config
			WithPrefix(tt.input)(&c)
			if c.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", c.prefix, tt.want)
			}
		})
	}
}

func TestBackend_keyAndName(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		key    string
	}{
		{"", "meta.json", "meta.json"},
		{"", "07.csv.gz", "07.csv.gz"},
		{"data/v1/", "07.csv.gz", "data/v1/07.csv.gz"},
	}

	for _, tt := range tests {
		b := &Backend{prefix: tt.prefix}
		if got := b.key(tt.name); got != tt.key {
			t.Errorf("key(%q) = %q, want %q", tt.name, got, tt.key)
		}
		if got := b.name(tt.key); got != tt.name {
			t.Errorf("name(%q) = %q, want %q", tt.key, got, tt.name)
		}
	}
}
