package categories

import "testing"

func TestParsePath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantOK  bool
	}{
		{"Media/Music", "Media/Music", true},
		{"/Media/Music/", "Media/Music", true},
		{"  Media / Music ", "Media/Music", true},
		{"", "", false},
		{"///", "", false},
		{"Media//Music", "", false},
	}
	for _, c := range cases {
		got, ok := ParsePath(c.in)
		if ok != c.wantOK {
			t.Errorf("ParsePath(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got.String() != c.want {
			t.Errorf("ParsePath(%q) = %q, want %q", c.in, got.String(), c.want)
		}
	}
}

func TestCategoryPathEqualCaseInsensitive(t *testing.T) {
	a := CategoryPath{"Media", "Music"}
	b := CategoryPath{"media", "MUSIC"}
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v case-insensitively", a, b)
	}
	if a.Equal(CategoryPath{"Media"}) {
		t.Fatalf("different lengths should not be equal")
	}
}

func TestUnknownSentinel(t *testing.T) {
	if !Unknown.IsUnknown() {
		t.Fatalf("Unknown.IsUnknown() should be true")
	}
	if (CategoryPath{"Media"}).IsUnknown() {
		t.Fatalf("Media should not be unknown")
	}
}
