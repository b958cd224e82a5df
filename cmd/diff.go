// makegen diff [dir]
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/makegen-build/makegen/internal/makefile"
	"github.com/makegen-build/makegen/internal/msg"
)

func doDiff(cmd *cobra.Command, args []string) {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	g, err := newGenerator(dir)
	if err != nil {
		msg.Fatal("%v", err)
	}
	fresh, err := g.Render()
	if err != nil {
		msg.Fatal("%v", err)
	}

	existing, err := os.ReadFile(filepath.Join(g.Tree.Path, makefile.Filename))
	if errors.Is(err, os.ErrNotExist) {
		msg.Warn("no %s in %s yet, run makegen to create one", makefile.Filename, g.Tree.Path)
		os.Exit(1)
	}
	if err != nil {
		msg.Fatal("%v", err)
	}

	// the timestamp banner differs on every run, compare everything below it
	oldBody := makefile.StripHeader(string(existing))
	newBody := makefile.StripHeader(fresh)
	if oldBody == newBody {
		msg.Info("%s is up to date", makefile.Filename)
		return
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldBody, newBody, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	fmt.Fprint(&msg.IndentWriter{Indent: "  ", W: os.Stdout}, dmp.DiffPrettyText(diffs))
	os.Exit(1)
}

var diffCmd = &cobra.Command{
	Use:   "diff [source dir]",
	Short: "Show how the Makefile would change",
	Long:  `Regenerate the Makefile in memory and show a diff against the existing one. Never writes. Exits non-zero when the Makefile is missing or stale.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doDiff,
}

func init() {
	// makegen diff subcommand
	rootCmd.AddCommand(diffCmd)
}
