// Package main implements the wiz command-line driver: output-format
// and target inference from the requested file extension, `-D` define
// folding, and the glue between internal/compiler, internal/format and
// internal/debugfmt that turns one entry file into a finished ROM
// image and (optionally) a symbol file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/resource"
)

var (
	flagOutput      string
	flagSystem      string
	flagFormat      string
	flagDebugFormat string
	flagIncludeDirs []string
	flagDefines     []string
	flagColor       string
)

var rootCmd = &cobra.Command{
	Use:   "wiz <input> [-o output]",
	Short: "wiz compiles a program against one retro target and writes a ROM image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report := diag.NewReport()
		report.SetColorizer(diag.NewColorizer(diag.ParseColorMode(flagColor), os.Stderr))

		opts := options{
			Input:       args[0],
			Output:      flagOutput,
			SystemName:  flagSystem,
			FormatName:  flagFormat,
			DebugFormat: flagDebugFormat,
			IncludeDirs: flagIncludeDirs,
			Defines:     flagDefines,
			platforms:   newPlatformRegistry(),
			resources:   resource.FileManager{},
			frontend:    unimplementedFrontend{},
		}

		code := Run(opts, report, cmd.ErrOrStderr())
		if code != 0 {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return exitError{code}
		}
		return nil
	},
}

// exitError carries a process exit code through cobra's error return
// without printing an extra "Error:" line; Run has already rendered
// every diagnostic itself.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file path (default: input's name with the target extension)")
	rootCmd.Flags().StringVar(&flagSystem, "system", "", "target platform (mos6502, z80, gb, wdc65816, spc700)")
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "output container format (bin, nes, gb, sfc, smc, sms, gg)")
	rootCmd.Flags().StringVar(&flagDebugFormat, "debug-format", "", "debug symbol format (mlb, rgbds, wla)")
	rootCmd.Flags().StringArrayVarP(&flagIncludeDirs, "include", "I", nil, "additional import search directory")
	rootCmd.Flags().StringArrayVarP(&flagDefines, "define", "D", nil, "predefine key[=value] ahead of the program")
	rootCmd.Flags().StringVar(&flagColor, "color", "auto", "diagnostic coloring: auto, none, ansi")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(exitError); ok {
			os.Exit(ee.code)
		}
		os.Exit(2)
	}
}
