package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emberlang/ember/dis"
)

func init() {
	disCmd.Flags().StringP("func", "f", "", "Disassemble only the named function")
	rootCmd.AddCommand(disCmd)
}

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Disassemble Ember bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := loadUnit(args[0])
		if err != nil {
			return err
		}
		if name := viper.GetString("func"); name != "" {
			index, ok := unit.FunctionIndex(name)
			if !ok {
				return fmt.Errorf("no function named %q", name)
			}
			instructions, err := dis.Disassemble(unit, unit.Function(index))
			if err != nil {
				return err
			}
			dis.Print(instructions, os.Stdout)
			return nil
		}
		return dis.PrintUnit(unit, os.Stdout)
	},
}
