package geoip

import "testing"

func TestLabel(t *testing.T) {
	cases := map[[2]string]string{
		{"Jakarta", "ID"}: "Jakarta, ID",
		{"", "ID"}:        "ID",
		{"Jakarta", ""}:   "Jakarta",
		{"", ""}:          "",
	}
	for in, want := range cases {
		if got := label(in[0], in[1]); got != want {
			t.Errorf("label(%q,%q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestNilLocator(t *testing.T) {
	var l *Locator
	if got := l.Locate("8.8.8.8"); got != "" {
		t.Errorf("nil locator returned %q", got)
	}
	if err := l.Close(); err != nil {
		t.Error(err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/GeoLite2-City.mmdb"); err == nil {
		t.Error("expected error")
	}
}
