package backend

import "testing"

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"/a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizePrefix(tt.input); got != tt.want {
				t.Errorf("NormalizePrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		input   string
		want    Location
		wantErr bool
	}{
		{"gs://bucket", Location{Scheme: "gs", Bucket: "bucket"}, false},
		{"gs://bucket/", Location{Scheme: "gs", Bucket: "bucket"}, false},
		{"gs://bucket/a/b", Location{Scheme: "gs", Bucket: "bucket", Prefix: "a/b/"}, false},
		{"s3://data/events/", Location{Scheme: "s3", Bucket: "data", Prefix: "events/"}, false},
		{"bucket/prefix", Location{}, true},
		{"http://bucket/prefix", Location{}, true},
		{"gs:///prefix", Location{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseURL(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
