// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asmlens/disasm/disasm"
)

// osFileReader is the default disasm.FileReader: it resolves relative paths
// against root and reads the whole file, splitting on newlines. Together
// with the listing read in the render command, it is the only file I/O in
// this repository — the analyzer core keeps file I/O an external
// collaborator.
type osFileReader struct {
	root string
}

func (r osFileReader) ReadLines(path string) ([]string, bool) {
	p := path
	if r.root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	return lines, true
}

var command = &cobra.Command{
	Use: "disasm",
}

var renderCommand = &cobra.Command{
	Use:  "render source",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dialectFlag, _ := cmd.PersistentFlags().GetString("dialect")
		dark, _ := cmd.PersistentFlags().GetBool("dark")
		colored, _ := cmd.PersistentFlags().GetBool("color")
		srcRoot, _ := cmd.PersistentFlags().GetString("src-root")
		block, _ := cmd.PersistentFlags().GetInt("block")

		dialect, err := disasm.ParseDialect(dialectFlag)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		d := disasm.NewDisassembler()
		ok, err := d.Initialize(string(data), dialect, osFileReader{root: srcRoot}, dark, colored)
		if !ok {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if block >= 0 {
			fmt.Print(d.GetOrRenderBlock(block))
			return
		}
		fmt.Print(d.RenderFullText())
	},
}

func init() {
	renderCommand.PersistentFlags().StringP("dialect", "d", "intel", "assembly dialect: intel, arm, wasm, llvmir")
	renderCommand.PersistentFlags().Bool("dark", true, "use the dark color theme")
	renderCommand.PersistentFlags().Bool("color", true, "emit <color=#RRGGBB> tags")
	renderCommand.PersistentFlags().String("src-root", "", "root directory for resolving .file/.cv_file paths")
	renderCommand.PersistentFlags().IntP("block", "b", -1, "render only this block index instead of the full listing")
	command.AddCommand(renderCommand)
}

func main() {
	if err := command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
