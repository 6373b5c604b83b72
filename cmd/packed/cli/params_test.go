// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestBindFlags(t *testing.T) {
	var params struct {
		JSONOutput
		Root    string   `flag:"root,r" desc:"asset root"`
		Level   int      `flag:"level" desc:"level" default:"6"`
		Inline  bool     `flag:"inline" desc:"force inline"`
		Include []string `flag:"include" desc:"include pattern"`
		Ignored string
	}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if params.Level != 6 {
		t.Errorf("default level = %d, want 6", params.Level)
	}

	err := flagSet.Parse([]string{"-r", "assets", "--inline", "--include", "a,b.png", "--include", "*.txt", "--json"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Root != "assets" || !params.Inline || !params.OutputJSON {
		t.Errorf("params = %+v", params)
	}
	if len(params.Include) != 2 || params.Include[0] != "a,b.png" {
		t.Errorf("include = %q, want patterns kept whole", params.Include)
	}
	if flagSet.Lookup("Ignored") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlagsRejectsBadInput(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(struct{}{}, flagSet); err == nil {
		t.Error("a non-pointer should be rejected")
	}
	var unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported, flagSet); err == nil {
		t.Error("an unsupported field type should be rejected")
	}
	var badDefault struct {
		Level int `flag:"level" default:"six"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("an unparseable default should be rejected")
	}
}
