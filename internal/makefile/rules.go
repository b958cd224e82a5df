package makefile

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// banner wraps a title in a comment box whose border length equals the
// title's length.
func banner(title string) string {
	border := "# " + strings.Repeat("#", len(title)) + " #\n"
	return border + "# " + title + " #\n" + border + "\n"
}

// ender closes a section opened by banner.
func ender(title string) string {
	return "# " + strings.Repeat("#", len(title)) + " #\n\n"
}

// varDef renders one Makefile variable definition.
func varDef(name, val string) string {
	return name + " =\t" + val + "\n"
}

// cxxLike reports whether a suffix compiles with the C++ rule variables.
func cxxLike(suffix string) bool {
	return suffix == ".cpp" || suffix == ".C" || suffix == ".s"
}

// objectRule emits the double-suffix rule compiling suffix files to objects.
func objectRule(suffix string) string {
	rule := suffix + ".o:\n\t"
	compile := ".c"
	if cxxLike(suffix) {
		compile = ".cc"
	}
	return rule + "$(COMPILE" + compile + ") $<\n"
}

// assemblyRule emits the rule producing assembly from preprocessed sources.
func assemblyRule(suffix string) string {
	return suffix + ".s:\n\t$(CPP) -o $*.s $<\n"
}

// archiveRule emits the rule compiling suffix files straight into a static
// library member.
func archiveRule(suffix string) string {
	rule := suffix + ".a:\n\t"
	compile := ".c"
	if cxxLike(suffix) {
		compile = ".cc"
	}
	rule += "$(COMPILE" + compile + ") -o $% $<\n\t"
	rule += "$(AR) $(ARFLAGS) $@ $%\n\t"
	rule += "$(RM) $%\n"
	return rule
}

// suffixRules renders the .SUFFIXES declaration and every implicit rule.
func suffixRules() string {
	var sb strings.Builder
	writeln(&sb, ".SUFFIXES:")
	writeln(&sb, ".SUFFIXES:\t.a .o .c .C .cpp .s .S")
	write(&sb, objectRule(".c"), objectRule(".C"), objectRule(".cpp"))
	write(&sb, assemblyRule(".S"), objectRule(".s"))
	write(&sb, archiveRule(".c"), archiveRule(".C"), archiveRule(".cpp"))
	writeln(&sb)
	return sb.String()
}
