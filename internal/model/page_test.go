package model

import (
	"testing"
)

// TestResponseOK tests the OK method.
func TestResponseOK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *Response
		want bool
	}{
		{"200", &Response{StatusCode: 200}, true},
		{"204", &Response{StatusCode: 204}, false},
		{"301", &Response{StatusCode: 301}, false},
		{"404", &Response{StatusCode: 404}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.resp.OK(); got != tt.want {
				t.Errorf("OK() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestResponseEffectiveURL tests redirect handling.
func TestResponseEffectiveURL(t *testing.T) {
	t.Parallel()

	t.Run("final URL wins", func(t *testing.T) {
		t.Parallel()

		r := &Response{URL: "https://ics.uci.edu/a", FinalURL: "https://www.ics.uci.edu/a/"}
		if got := r.EffectiveURL(); got != "https://www.ics.uci.edu/a/" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("falls back to requested URL", func(t *testing.T) {
		t.Parallel()

		r := &Response{URL: "https://ics.uci.edu/a"}
		if got := r.EffectiveURL(); got != "https://ics.uci.edu/a" {
			t.Errorf("got %q", got)
		}
	})
}

// TestResponseIsHTML tests content type detection.
func TestResponseIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/pdf", false},
		{"image/png", false},
		{"text/plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()

			r := &Response{ContentType: tt.contentType}
			if got := r.IsHTML(); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}
