package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/vm"
)

func init() {
	runCmd.Flags().StringP("entry", "e", "main", "Entry point function name")
	runCmd.Flags().Int64P("budget", "b", 0, "Maximum instructions to execute (0 = unlimited)")
	runCmd.Flags().Duration("timeout", 0, "Execution timeout (0 = none)")
	runCmd.Flags().Int("max-frame-depth", 0, "Maximum call depth (0 = default)")
	runCmd.Flags().Bool("timing", false, "Show execution time")
	runCmd.Flags().StringP("output", "o", "", "Output format (json or text)")
	addDebugFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a compiled Ember unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := loadUnit(args[0])
		if err != nil {
			return err
		}

		var options []vm.Option
		if budget := viper.GetInt64("budget"); budget > 0 {
			options = append(options, vm.WithInstructionBudget(budget))
		}
		if depth := viper.GetInt("max-frame-depth"); depth > 0 {
			options = append(options, vm.WithMaxFrameDepth(depth))
		}
		debugOptions, err := getDebugOptions(unit)
		if err != nil {
			return err
		}
		options = append(options, debugOptions...)

		machine, err := vm.New(unit, options...)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if timeout := viper.GetDuration("timeout"); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		result, err := machine.Run(ctx, viper.GetString("entry"))
		elapsed := time.Since(start)
		if err != nil {
			if fault, ok := errz.AsFault(err); ok {
				fatal(fault.FriendlyMessage())
			}
			return err
		}

		log.Debug().
			Int64("instructions", machine.InstructionCount()).
			Dur("elapsed", elapsed).
			Msg("run complete")
		if viper.GetBool("timing") {
			fmt.Printf("%v\n", elapsed)
		}

		output, err := getOutput(result, viper.GetString("output"))
		if err != nil {
			return err
		}
		if output != "" {
			fmt.Println(output)
		}
		return nil
	},
}
