package main

import "testing"

func TestAtoiOrZero(t *testing.T) {
	cases := map[string]int{
		"0":   0,
		"80":  80,
		"24":  24,
		"":    0,
		"12a": 0,
		"-1":  0,
	}
	for in, want := range cases {
		if got := atoiOrZero(in); got != want {
			t.Errorf("atoiOrZero(%q) = %d, want %d", in, got, want)
		}
	}
}
