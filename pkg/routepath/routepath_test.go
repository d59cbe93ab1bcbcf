package routepath

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "root", input: "/", want: "/"},
		{name: "empty becomes root", input: "", want: "/"},
		{name: "simple", input: "/quick-start", want: "/quick-start"},
		{name: "trailing slash", input: "/framework/", want: "/framework"},
		{name: "double slash", input: "/case//library", want: "/case/library"},
		{name: "dot segments", input: "/a/./b/../c", want: "/a/c"},
		{name: "no leading slash", input: "feedback", want: "/feedback"},
		{name: "query dropped", input: "/diagnosis?step=2", want: "/diagnosis"},
		{name: "escapes root", input: "/../secret", wantErr: ErrPathEscapesRoot},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "nul byte", input: "/a%00b", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%zz", wantErr: ErrInvalidPercentEscape},
		{name: "truncated escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr error
	}{
		{"/", nil},
		{"/mva-template", nil},
		{"/docs/intro", nil},
		{"", ErrEmptyPattern},
		{"/about/", ErrNotCanonical},
		{"about", ErrNotCanonical},
		{"/a?b=1", ErrQueryInPattern},
		{"/users/:id", ErrDynamicSegment},
		{"/files/*rest", ErrDynamicSegment},
	}

	for _, tt := range tests {
		err := ValidatePattern(tt.pattern)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidatePattern(%q) = %v, want %v", tt.pattern, err, tt.wantErr)
		}
	}
}

func TestIsWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"*", true},
		{"/*", true},
		{"/*slug", true},
		{"/:pathMatch(.*)*", true},
		{"/", false},
		{"/about", false},
		{"/docs/*", false},
		{"/:id", false},
		{"/:(.*)*", false},
	}

	for _, tt := range tests {
		if got := IsWildcard(tt.pattern); got != tt.want {
			t.Errorf("IsWildcard(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestSegments(t *testing.T) {
	if got := Segments("/"); got != nil {
		t.Errorf("Segments(/) = %v, want nil", got)
	}
	got := Segments("/a/b/c")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Segments(/a/b/c) = %v", got)
	}
}
