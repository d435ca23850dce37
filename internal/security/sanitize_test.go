package security

import "testing"

func TestSanitizeTextStripsMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello <script>alert(1)</script>world", "hello world"},
		{"<SCRIPT src='x'>x</SCRIPT>plain", "plain"},
		{"<style>body{}</style>text", "text"},
		{"<b>bold</b>", "bold"},
		{`<img src=x onerror="alert(1)">`, ""},
		{"visit javascript:alert(1) now", "visit alert(1) now"},
		{"data:text/html;base64,xxx", "text/html;base64,xxx"},
		{"plain text stays", "plain text stays"},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"hello <script>alert(1)</script>world",
		"<div onclick='x()'>hi</div>",
		"normal sentence",
	}
	for _, in := range inputs {
		once := SanitizeText(in)
		if twice := SanitizeText(once); twice != once {
			t.Errorf("SanitizeText not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"../../etc/passwd", "....etcpasswd"},
		{"my  report  .pdf", "my report .pdf"},
		{"notes<>:?.txt", "notes.txt"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectSuspiciousInput(t *testing.T) {
	suspicious := []string{
		"<script>alert(1)</script>",
		"click javascript:void(0)",
		"x onload=evil()",
		"eval(atob('xxx'))",
		"document.cookie",
		"window.location = 'http://evil'",
	}
	for _, in := range suspicious {
		if !DetectSuspiciousInput(in) {
			t.Errorf("DetectSuspiciousInput(%q) = false, want true", in)
		}
	}
	benign := []string{
		"How do I balance a binary tree?",
		"Summarise chapter 3 for me",
		"What does O(n log n) mean?",
	}
	for _, in := range benign {
		if DetectSuspiciousInput(in) {
			t.Errorf("DetectSuspiciousInput(%q) = true, want false", in)
		}
	}
}

func TestSniffMaliciousSignature(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		bad  bool
	}{
		{"pe", []byte{0x4D, 0x5A, 0x90, 0x00}, true},
		{"zip", []byte{0x50, 0x4B, 0x03, 0x04, 0x14}, true},
		{"elf", []byte{0x7F, 0x45, 0x4C, 0x46}, true},
		{"java", []byte{0xCA, 0xFE, 0xBA, 0xBE}, true},
		{"text", []byte("hello world"), false},
		{"short", []byte{0x4D}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		if _, bad := SniffMaliciousSignature(tc.data); bad != tc.bad {
			t.Errorf("%s: SniffMaliciousSignature = %v, want %v", tc.name, bad, tc.bad)
		}
	}
}
