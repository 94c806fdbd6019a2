package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key=abc , broken, =x, team=core ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "core" {
		t.Fatalf("parseHeaders: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}

func TestParseRatioClamps(t *testing.T) {
	cases := map[string]float64{"0.25": 0.25, "-1": 0, "3": 1}
	for in, want := range cases {
		got, err := parseRatio(in)
		if err != nil || got != want {
			t.Fatalf("parseRatio(%q): got=%v err=%v want=%v", in, got, err, want)
		}
	}
	if _, err := parseRatio("nope"); err == nil {
		t.Fatalf("expected parse error")
	}
}
