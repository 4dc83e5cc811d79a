package logutil

import "testing"

func TestSanitizeForLog(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with\nnewline", "with newline"},
		{"crlf\r\ninjection", "crlf  injection"},
		{"tab\there", "tab here"},
		{"bell\x07char", "bellchar"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeForLog(tc.in); got != tc.want {
			t.Errorf("SanitizeForLog(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abcdefghij", 5); got != "abcde..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("got %q", got)
	}
}
