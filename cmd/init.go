// makegen init [name], makegen new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/makegen-build/makegen/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

// initIn scaffolds a flat project in an existing directory. The layout is
// flat on purpose: the generator scans a single directory.
func initIn(dir, name, lang string) {
	writefile(`[toolchain]
cc = "gcc"
cxx = "g++"

[flags]
cflags = "-ggdb"
cxxflags = "-ggdb"

[scan]
exclude = []
`, dir, "Makegen.toml")

	if lang == "c" {
		writefile(`#include <stdio.h>
#include "`+name+`.h"

int main(void) {
    greet();
    return 0;
}
`, dir, "main.c")
		writefile(`#include <stdio.h>
#include "`+name+`.h"

void greet(void) {
    puts("Hello, World!");
}
`, dir, name+".c")
		writefile(`#ifndef GREET_H
#define GREET_H

void greet(void);

#endif
`, dir, name+".h")
	} else {
		writefile(`#include <iostream>
#include "`+name+`.h"

int main() {
    greet();
    return 0;
}
`, dir, "main.cpp")
		writefile(`#include <iostream>
#include "`+name+`.h"

void greet() {
    std::cout << "Hello, World!\n";
}
`, dir, name+".cpp")
		writefile(`#ifndef GREET_H
#define GREET_H

void greet();

#endif
`, dir, name+".h")
	}

	writefile(name+`
Makefile
*.o
`, dir, ".gitignore")

	program := programName()
	fmt.Printf("You can now do %s to generate the Makefile.\n", color.HiCyanString(program+" "+dir))
}

func programName() string {
	if len(os.Args) == 0 {
		return "makegen"
	}
	basename := filepath.Base(os.Args[0])
	ext := filepath.Ext(basename)
	return basename[:len(basename)-len(ext)]
}

var flagLang EnumValue = NewEnumValue("c", map[string]string{
	"c":   "Scaffold a C project (default)",
	"cpp": "Scaffold a C++ project",
})

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Scaffold a new project in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], flagLang.Value())
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Scaffold a new project in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), flagLang.Value())
	},
}

func init() {
	// makegen init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().VarP(&flagLang, "lang", "l", "Project language, one of "+flagLang.HelpString())
	initCmd.RegisterFlagCompletionFunc("lang", flagLang.CompletionFunc())

	// makegen new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().VarP(&flagLang, "lang", "l", "Project language, one of "+flagLang.HelpString())
	newCmd.RegisterFlagCompletionFunc("lang", flagLang.CompletionFunc())
}
