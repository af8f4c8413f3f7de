package models

import "testing"

func TestDisplayCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"600519.SH", "600519"},
		{"000001.SZ", "000001"},
		{"0700.HK", "0700"},
		{"AAPL", "AAPL"},
		{"  600000.SH  ", "600000"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DisplayCode(tc.in); got != tc.want {
			t.Fatalf("DisplayCode(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}
