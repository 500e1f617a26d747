package main

import (
	"github.com/spf13/cobra"

	"github.com/pthm/hxview/lib/generator"
)

func newGenerateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Generate state codecs for //hxview:state structs",
		Long: `Generate writes HXEncode and HXDecode methods for every struct marked
with a //hxview:state comment into <file>_hx.go next to its source.

  hxview generate ./...                    All packages
  hxview generate ./components/counter     One package
  hxview generate --dry-run ./...          Preview`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := generator.New(generator.Options{DryRun: dryRun, Out: cmd.OutOrStdout()})
			return gen.Generate(packagesOrAll(args)...)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be generated without writing files")
	return cmd
}

func newCleanCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clean [packages]",
		Short: "Remove generated files (*_hx.go)",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := generator.New(generator.Options{DryRun: dryRun, Out: cmd.OutOrStdout()})
			return gen.Clean(packagesOrAll(args)...)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed")
	return cmd
}

func packagesOrAll(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}
