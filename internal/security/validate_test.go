package security

import (
	"strings"
	"testing"
)

func TestValidInstitutionalEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"tp012345@mail.apu.edu.my", true},
		{"someone@gmail.com", false},
		{"tp012345@mail.apu.edu.my.evil.com", false},
		{"not-an-email", false},
		{"", false},
		{"two@@mail.apu.edu.my", false},
	}
	for _, tc := range cases {
		if got := ValidInstitutionalEmail(tc.email, ""); got != tc.want {
			t.Errorf("ValidInstitutionalEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestValidInstitutionalEmailCustomDomain(t *testing.T) {
	if !ValidInstitutionalEmail("a@student.example.edu", "@student.example.edu") {
		t.Fatalf("custom domain should be accepted")
	}
	if ValidInstitutionalEmail("a@mail.apu.edu.my", "@student.example.edu") {
		t.Fatalf("default domain should fail against a custom suffix")
	}
}

func TestValidEmailLengthBound(t *testing.T) {
	long := strings.Repeat("a", MaxEmailLen) + "@x.co"
	if ValidEmail(long) {
		t.Fatalf("over-length email should be rejected")
	}
}

func TestValidPassword(t *testing.T) {
	if ValidPassword("12345") {
		t.Fatalf("5-char password should be rejected")
	}
	if !ValidPassword("123456") {
		t.Fatalf("6-char password should be accepted")
	}
	if ValidPassword(strings.Repeat("x", MaxPasswordLen+1)) {
		t.Fatalf("over-length password should be rejected")
	}
}

func TestValidFilename(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"lecture notes.pdf", true},
		{"report_v2.final.docx", true},
		{"../../etc/passwd", false},
		{"notes/evil.txt", false},
		{"a\x00b.txt", false},
		{"", false},
		{strings.Repeat("a", MaxFilenameLen+1), false},
	}
	for _, tc := range cases {
		if got := ValidFilename(tc.name); got != tc.want {
			t.Errorf("ValidFilename(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidFileSize(t *testing.T) {
	if ValidFileSize(0) {
		t.Fatalf("empty file should be rejected")
	}
	if !ValidFileSize(MaxFileSize) {
		t.Fatalf("file at the limit should be accepted")
	}
	if ValidFileSize(MaxFileSize + 1) {
		t.Fatalf("oversized file should be rejected")
	}
}

func TestValidUUID(t *testing.T) {
	if !ValidUUID("4b8f6f26-9d51-4c59-9f0e-6d6b3f2d1a11") {
		t.Fatalf("well-formed uuid should be accepted")
	}
	if ValidUUID("00000000-0000-0000-0000-000000000000") {
		t.Fatalf("nil uuid should be rejected")
	}
	if ValidUUID("not-a-uuid") {
		t.Fatalf("garbage should be rejected")
	}
}

func TestValidFileType(t *testing.T) {
	if !ValidFileType("application/pdf") {
		t.Fatalf("pdf should be allowed")
	}
	if ValidFileType("application/x-msdownload") {
		t.Fatalf("executables should not be allowed")
	}
}
