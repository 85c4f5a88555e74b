package main

import "testing"

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestParsePositions(t *testing.T) {
	got, err := parsePositions("1.25, 3")
	if err != nil || len(got) != 2 || got[0] != 1.25 || got[1] != 3 {
		t.Fatalf("got %v err=%v", got, err)
	}
	for _, bad := range []string{"", "1", "1,2,3", "a,b"} {
		if _, err := parsePositions(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
