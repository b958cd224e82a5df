package makefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makegen-build/makegen/internal/config"
	"github.com/makegen-build/makegen/internal/scan"
)

var testTime = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func newTestGenerator(t *testing.T, files map[string]string) *Generator {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	tree, err := scan.NewTree(dir)
	require.NoError(t, err)
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.NoError(t, tree.Scan(cfg.Scan.Exclude))

	return &Generator{Tree: tree, Config: cfg, Now: testTime}
}

func scenarioFiles() map[string]string {
	return map[string]string{
		"main.cpp": "int main() { return 0; }\n",
		"util.cpp": "#include \"util.h\"\nvoid f() {}\n",
		"util.h":   "void f();\n",
	}
}

func TestRenderScenario(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, scenarioFiles()).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "all:\tmain\n\nmain:\tmain.o $(OBJFILES)\n\t$(CXX) $(CXXFLAGS) -o main main.o $(OBJFILES) $(CCLIBFLAGS)\n")
	assert.Contains(t, out, "util.o: util.h \n")
	assert.Contains(t, out, "OBJFILES =\tutil.o \n")
	assert.Contains(t, out, "CPP_FILES =\tmain.cpp util.cpp \n")
	assert.Contains(t, out, "H_FILES =\tutil.h \n")
	assert.Contains(t, out, "SOURCEFILES =\t$(H_FILES) $(CPP_FILES) $(C_FILES) $(S_FILES)\n")
	assert.Contains(t, out, ".PRECIOUS:\t$(SOURCEFILES)\n")
}

func TestRenderCEntryPointLinksWithCC(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, map[string]string{
		"main.c": "int main(void) { return 0; }\n",
	}).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "main:\tmain.o $(OBJFILES)\n\t$(CC) $(CFLAGS) -o main main.o $(OBJFILES) $(CLIBFLAGS)\n")
}

func TestRenderSectionOrder(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, scenarioFiles()).Render()
	require.NoError(t, err)

	var last int
	for _, title := range []string{"Definitions", "Targets", "Dependencies", "Miscellaneous"} {
		idx := strings.Index(out, "# "+title+" #\n")
		require.GreaterOrEqual(t, idx, 0, title)
		assert.Greater(t, idx, last, title)
		last = idx
	}
}

func TestBannerBorderMatchesTitleLength(t *testing.T) {
	t.Parallel()

	lines := strings.Split(banner("Targets"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "# "+strings.Repeat("#", len("Targets"))+" #", lines[0])
	assert.Equal(t, "# Targets #", lines[1])
	assert.Equal(t, lines[0], lines[2])
	assert.Equal(t, lines[0], strings.TrimSuffix(ender("Targets"), "\n\n"))
}

func TestRenderSuffixRules(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, scenarioFiles()).Render()
	require.NoError(t, err)

	assert.Contains(t, out, ".SUFFIXES:\t.a .o .c .C .cpp .s .S\n")
	assert.Contains(t, out, ".c.o:\n\t$(COMPILE.c) $<\n")
	assert.Contains(t, out, ".cpp.o:\n\t$(COMPILE.cc) $<\n")
	assert.Contains(t, out, ".s.o:\n\t$(COMPILE.cc) $<\n")
	assert.Contains(t, out, ".S.s:\n\t$(CPP) -o $*.s $<\n")
	assert.Contains(t, out, ".c.a:\n\t$(COMPILE.c) -o $% $<\n\t$(AR) $(ARFLAGS) $@ $%\n\t$(RM) $%\n")
}

func TestRenderDefaultFlagsBlock(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, scenarioFiles()).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "Default Flags (create your own with a 'header.txt' file)")
	assert.Contains(t, out, "CXXFLAGS =\t-ggdb\nCFLAGS =\t-ggdb\nCLIBFLAGS =\t-lm\nCCLIBFLAGS =\t\n")
}

func TestRenderHeaderTxtWinsOverDefaults(t *testing.T) {
	t.Parallel()

	files := scenarioFiles()
	files[FlagsFilename] = "CFLAGS = -O2\n\nCXXFLAGS = -O3\n"
	out, err := newTestGenerator(t, files).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "Flags from 'header.txt'")
	assert.Contains(t, out, "CFLAGS = -O2\nCXXFLAGS = -O3\n")
	assert.NotContains(t, out, "Default Flags")
}

func TestRenderConfiguredToolsAndFlags(t *testing.T) {
	t.Parallel()

	files := scenarioFiles()
	files[config.Filename] = "[toolchain]\ncxx = \"clang++\"\n\n[flags]\ncxxflags = \"-O2 -Wall\"\n"
	out, err := newTestGenerator(t, files).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "CXX =\tclang++\n")
	assert.Contains(t, out, "CXXFLAGS =\t-O2 -Wall\n")
}

func TestRenderNoEntryPoint(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, map[string]string{"util.c": "void f(void) {}\n"})

	_, err := g.Render()
	assert.True(t, errors.Is(err, scan.ErrNoEntryPoint))

	// nothing may be written on failure
	require.Error(t, g.Write())
	_, err = os.Stat(filepath.Join(g.Tree.Path, Filename))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRenderRoundTripBelowTimestamp(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, scenarioFiles())
	first, err := g.Render()
	require.NoError(t, err)

	g.Now = g.Now.Add(3 * time.Hour)
	second, err := g.Render()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, StripHeader(first), StripHeader(second))
}

func TestRenderTimestampTitle(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, scenarioFiles())
	g.Revision = "abc12345"
	out, err := g.Render()
	require.NoError(t, err)

	title := "Sat Mar 14 09:26:53 2026 @ abc12345"
	assert.True(t, strings.HasPrefix(out, banner(title)))
}

func TestWriteOverwritesMakefile(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, scenarioFiles())
	path := filepath.Join(g.Tree.Path, Filename)
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, g.Write())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "all:\tmain\n")
}

func TestRenderMisc(t *testing.T) {
	t.Parallel()

	out, err := newTestGenerator(t, scenarioFiles()).Render()
	require.NoError(t, err)

	assert.Contains(t, out, "clean:\n\t$(RM) $(OBJFILES) main.o core\n\n")
	assert.Contains(t, out, "realclean:\tclean\n\t$(RM) main\n")
}
