// Package makefile renders a scanned source tree into Makefile text.
package makefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/makegen-build/makegen/internal/config"
	"github.com/makegen-build/makegen/internal/scan"
)

const (
	// Filename of the generated build description.
	Filename = "Makefile"
	// FlagsFilename is the optional per-tree flag override file. Its
	// non-blank lines replace the whole default flags block verbatim.
	FlagsFilename = "header.txt"

	timeLayout = "Mon Jan 02 03:04:05 2006"
)

// Generator renders one Makefile. Now and Revision only affect the top
// banner; everything below it is a pure function of the tree and config.
type Generator struct {
	Tree     *scan.Tree
	Config   *config.Config
	Now      time.Time
	Revision string
}

// Render produces the complete Makefile text, or fails without producing
// anything. Target resolution runs first so a tree without an entry point
// never yields partial output.
func (g *Generator) Render() (string, error) {
	tc, err := g.Tree.ResolveTarget()
	if err != nil {
		return "", err
	}
	edges, err := g.Tree.ResolveAll()
	if err != nil {
		return "", err
	}
	flags, err := g.flagsBlock()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	write(&sb, banner(g.title()))
	write(&sb, section("Definitions", g.definitions(flags)))
	write(&sb, section("Targets", g.targets(tc)))
	write(&sb, section("Dependencies", dependencies(edges)))
	write(&sb, section("Miscellaneous", g.misc()))
	return sb.String(), nil
}

// Write renders the Makefile and writes it into the scanned directory,
// overwriting any previous one.
func (g *Generator) Write() error {
	out, err := g.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.Tree.Path, Filename), []byte(out), 0644)
}

func section(title, body string) string {
	return banner(title) + body + ender(title)
}

func (g *Generator) title() string {
	title := g.Now.Format(timeLayout)
	if g.Revision != "" {
		title += " @ " + g.Revision
	}
	return title
}

// StripHeader drops the leading timestamp banner, leaving only the content
// that is deterministic across runs.
func StripHeader(text string) string {
	rest := text
	for range 4 {
		_, after, ok := strings.Cut(rest, "\n")
		if !ok {
			return text
		}
		rest = after
	}
	return rest
}

// definitions renders the Definitions section body: suffix rules, tool
// variables, the flags block, and the file-list variables.
func (g *Generator) definitions(flags string) string {
	var sb strings.Builder
	write(&sb, suffixRules())

	tc := g.Config.Toolchain
	write(&sb, varDef("CC", tc.CC), varDef("CXX", tc.CXX))
	writeln(&sb)
	write(&sb, varDef("RM", tc.RM), varDef("AR", tc.AR))
	write(&sb, varDef("LINK.c", "$(CC) $(CFLAGS) $(CPPFLAGS) $(LDFLAGS)"))
	write(&sb, varDef("LINK.cc", "$(CXX) $(CXXFLAGS) $(CPPFLAGS) $(LDFLAGS)"))
	write(&sb, varDef("COMPILE.c", "$(CC) $(CFLAGS) $(CPPFLAGS) -c"))
	write(&sb, varDef("COMPILE.cc", "$(CXX) $(CXXFLAGS) $(CPPFLAGS) -c"))
	write(&sb, varDef("CPP", "$(CPP) $(CPPFLAGS) "))
	writeln(&sb)

	write(&sb, flags)
	writeln(&sb)
	writeln(&sb)

	write(&sb, varDef("CPP_FILES", g.Tree.Set(scan.ExtCpp).Joined))
	write(&sb, varDef("C_FILES", g.Tree.Set(scan.ExtC).Joined))
	write(&sb, varDef("PS_FILES", g.Tree.Set(scan.ExtPs).Joined))
	write(&sb, varDef("S_FILES", g.Tree.Set(scan.ExtS).Joined))
	write(&sb, varDef("H_FILES", g.Tree.Set(scan.ExtH).Joined))
	write(&sb, varDef("SOURCEFILES", "$(H_FILES) $(CPP_FILES) $(C_FILES) $(S_FILES)"))
	writeln(&sb, ".PRECIOUS:\t$(SOURCEFILES)")
	write(&sb, varDef("OBJFILES", g.Tree.Objects.Joined))
	return sb.String()
}

// flagsBlock returns the compiler-flag block: header.txt verbatim when
// present, the configured defaults otherwise.
func (g *Generator) flagsBlock() (string, error) {
	data, err := os.ReadFile(filepath.Join(g.Tree.Path, FlagsFilename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	var title, flags string
	if err == nil {
		title = "Flags from 'header.txt'"
		for line := range strings.Lines(string(data)) {
			line = strings.TrimSpace(line)
			if line != "" {
				flags += line + "\n"
			}
		}
	} else {
		title = "Default Flags (create your own with a 'header.txt' file)"
		f := g.Config.Flags
		flags = varDef("CXXFLAGS", f.Cxxflags) + varDef("CFLAGS", f.Cflags)
		flags += varDef("CLIBFLAGS", f.Clibflags) + varDef("CCLIBFLAGS", f.Cclibflags)
	}
	return banner(title) + flags + "\n" + ender(title), nil
}

// targets renders the all target and the entry-point link rule.
func (g *Generator) targets(tc scan.Toolchain) string {
	stem := g.Tree.Main.Stem
	obj := stem + scan.ExtObj

	var sb strings.Builder
	write(&sb, "all:\t", stem, "\n\n")
	write(&sb, stem, ":\t", obj, " $(OBJFILES)\n\t")
	write(&sb, tc.Compiler, " ", tc.Flags, " -o ", stem, " ", obj, " $(OBJFILES) ", tc.LibFlags, "\n\n")
	return sb.String()
}

// dependencies renders one line per compiled object listing the headers its
// source includes.
func dependencies(edges []scan.DependencyEdge) string {
	var sb strings.Builder
	for _, edge := range edges {
		write(&sb, edge.Object, ": ")
		for _, header := range edge.Headers {
			write(&sb, header, " ")
		}
		writeln(&sb)
	}
	return sb.String()
}

// misc renders the clean and realclean pseudo-targets.
func (g *Generator) misc() string {
	stem := g.Tree.Main.Stem
	obj := stem + scan.ExtObj

	var sb strings.Builder
	write(&sb, "clean:\n\t$(RM) $(OBJFILES) ", obj, " core\n\n")
	write(&sb, "realclean:\tclean\n\t$(RM) ", stem, "\n")
	return sb.String()
}
