//go:build !debug

package main

import (
	"github.com/spf13/cobra"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/vm"
)

func addDebugFlags(cmd *cobra.Command) {}

func getDebugOptions(unit *bytecode.Unit) ([]vm.Option, error) {
	return nil, nil
}
