//go:build debug

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/vm"
)

// Debug instrumentation flags. These exist only in builds with the "debug"
// tag; a release binary does not accept them.

func addDebugFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("trace", false, "Trace each executed instruction to stderr")
	cmd.Flags().StringSlice("break", nil, "Breakpoints as function:pc (may repeat)")
}

func getDebugOptions(unit *bytecode.Unit) ([]vm.Option, error) {
	trace := viper.GetBool("trace")
	breaks := viper.GetStringSlice("break")
	if !trace && len(breaks) == 0 {
		return nil, nil
	}
	session := vm.NewSession()
	if trace {
		session.SetStepMode(vm.StepInto)
	}
	for _, spec := range breaks {
		name, pcText, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid breakpoint %q (want function:pc)", spec)
		}
		index, found := unit.FunctionIndex(name)
		if !found {
			return nil, fmt.Errorf("invalid breakpoint %q: no function named %q", spec, name)
		}
		pc, err := strconv.Atoi(pcText)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint %q: %w", spec, err)
		}
		session.AddBreakpoint(index, pc)
	}
	session.AttachSink(&vm.WriterSink{W: os.Stderr})
	return []vm.Option{vm.WithDebugSession(session)}, nil
}
