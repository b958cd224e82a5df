// makegen [dir], makegen gen [dir]
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/makegen-build/makegen/internal/config"
	"github.com/makegen-build/makegen/internal/makefile"
	"github.com/makegen-build/makegen/internal/msg"
	"github.com/makegen-build/makegen/internal/scan"
	"github.com/makegen-build/makegen/internal/vcs"
)

// newGenerator resolves, configures and scans the target directory.
func newGenerator(dir string) (*makefile.Generator, error) {
	tree, err := scan.NewTree(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(tree.Path)
	if err != nil {
		return nil, err
	}
	if err := tree.Scan(cfg.Scan.Exclude); err != nil {
		return nil, err
	}
	return &makefile.Generator{
		Tree:     tree,
		Config:   cfg,
		Now:      time.Now(),
		Revision: vcs.Revision(tree.Path),
	}, nil
}

func generate(dir string) error {
	g, err := newGenerator(dir)
	if err != nil {
		return err
	}
	return g.Write()
}

func doGen(cmd *cobra.Command, args []string) {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	if err := generate(dir); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "makegen [source dir]",
	Short: "Makefile generator for C and C++ source directories",
	Long:  `Scans a directory of C/C++ sources and writes a Makefile with compile, link, clean and per-object header dependency rules. If no directory is given, uses the current one.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doGen,
}

var genCmd = &cobra.Command{
	Use:   "gen [source dir]",
	Short: "Generate the Makefile",
	Long:  `Generate the Makefile. If no directory is given, uses the current one.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doGen,
}

func init() {
	// makegen gen subcommand
	rootCmd.AddCommand(genCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
