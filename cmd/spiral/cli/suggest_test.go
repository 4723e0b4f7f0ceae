// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "metadata"},
		{Name: "resolve"},
		{Name: "script"},
		{Name: "verify"},
		{Name: "capability"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"resovle", "resolve"},
		{"scirpt", "script"},
		{"verfy", "verify"},
		{"metdata", "metadata"},
		{"capabilty", "capability"},
		{"zzzzzzzzz", ""},
		{"x", ""},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := suggestCommand(test.input, commands); got != test.want {
				t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestSuggestFlag(t *testing.T) {
	newFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.IntSlice("dims", nil, "")
		flagSet.String("direction", "", "")
		flagSet.Bool("json", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"substitution", []string{"--dirs", "8"}, "--dims"},
		{"transposition", []string{"--jsno"}, "--json"},
		{"with value", []string{"--directon=inverse"}, "--direction"},
		{"known flags skipped", []string{"--json", "--dimz", "4"}, "--dims"},
		{"nothing close", []string{"--completely-unrelated"}, ""},
		{"no flags", []string{"positional"}, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := suggestFlag(test.args, newFlagSet()); got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
