// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"resolve", "reslove", 2},
		{"manifest", "manfest", 1},
	}
	for _, test := range tests {
		t.Run(test.a+"->"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if reverse := levenshtein(test.b, test.a); reverse != test.want {
				t.Errorf("levenshtein is not symmetric for %q, %q", test.a, test.b)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "pack"}, {Name: "resolve"}, {Name: "check"}, {Name: "manifest"}}
	tests := map[string]string{
		"pakc":     "pack",
		"chekc":    "check",
		"manifets": "manifest",
		"zzzzzzzz": "",
	}
	for input, want := range tests {
		if got := suggestCommand(input, commands); got != want {
			t.Errorf("suggestCommand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	flagSet.String("output", "", "")
	flagSet.Int("level", 6, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--outptu", "x"}, "--output"},
		{[]string{"--levle=3"}, "--level"},
		{[]string{"--output", "x", "--completely-different"}, ""},
		{[]string{"--", "--outptu"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
