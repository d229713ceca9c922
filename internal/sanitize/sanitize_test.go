package sanitize

import "testing"

func TestText_StripsMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain.jpg", "plain.jpg"},
		{"<script>alert(1)</script>cat.png", "cat.png"},
		{"  spaced.gif  ", "spaced.gif"},
		{`<img src=x onerror=alert(1)>`, ""},
		{"a<b>bold</b>c", "aboldc"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextN_TruncatesOnRuneBoundary(t *testing.T) {
	got := TextN("héllo", 3)
	// "h" (1 byte) + "é" (2 bytes) = 3 bytes; must not split é.
	if got != "hé" {
		t.Errorf("TextN = %q, want %q", got, "hé")
	}

	if got := TextN("short", 100); got != "short" {
		t.Errorf("TextN should not touch short strings, got %q", got)
	}
}
