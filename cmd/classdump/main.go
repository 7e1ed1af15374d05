// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	classfile "github.com/binspector/classfile"
	"github.com/spf13/cobra"
)

var (
	wantText        bool
	wantJSON        bool
	wantInfo        bool
	wantSections    bool
	wantSymbols     bool
	wantImports     bool
	wantEntrypoints bool
	wantStrings     bool
	wantLibraries   bool
)

func prettyPrint(buf []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return pretty.String()
}

func dumpFile(filename string, cmd *cobra.Command) {
	log.Printf("processing %s", filename)

	cf, err := classfile.New(filename, &classfile.Options{})
	if err != nil {
		log.Printf("error opening %s: %v", filename, err)
		return
	}
	defer cf.Close()

	if wantText {
		fmt.Println(classfile.RenderText(cf))
	}
	if wantJSON {
		buf, _ := classfile.RenderJSON(cf)
		fmt.Println(prettyPrint(buf))
	}
	if wantInfo {
		buf, _ := json.Marshal(cf.Info())
		fmt.Println(prettyPrint(buf))
	}
	if wantSections {
		buf, _ := json.Marshal(cf.Sections())
		fmt.Println(prettyPrint(buf))
	}
	if wantSymbols {
		symbols := append(cf.MethodsAsSymbols(), cf.FieldsAsSymbols()...)
		symbols = append(symbols, cf.ConstPoolAsSymbols()...)
		buf, _ := json.Marshal(symbols)
		fmt.Println(prettyPrint(buf))
	}
	if wantImports {
		buf, _ := json.Marshal(cf.ConstPoolAsImports())
		fmt.Println(prettyPrint(buf))
	}
	if wantEntrypoints {
		buf, _ := json.Marshal(cf.Entrypoints())
		fmt.Println(prettyPrint(buf))
	}
	if wantStrings {
		buf, _ := json.Marshal(cf.Strings())
		fmt.Println(prettyPrint(buf))
	}
	if wantLibraries {
		buf, _ := json.Marshal(cf.Libraries())
		fmt.Println(prettyPrint(buf))
	}
}

func dump(cmd *cobra.Command, args []string) {
	for _, path := range args {
		dumpFile(path, cmd)
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "classdump",
		Short: "A Java class file parser",
		Long:  "A Java .class file parser built for binary-analysis toolkits",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("You are using version 0.0.1")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Dumps a class file",
		Args:  cobra.MinimumNArgs(1),
		Run:   dump,
	}

	dumpCmd.Flags().BoolVarP(&wantText, "text", "", false, "print the text renderer output")
	dumpCmd.Flags().BoolVarP(&wantJSON, "json", "", false, "print the full JSON document")
	dumpCmd.Flags().BoolVarP(&wantInfo, "info", "", false, "print class-level info")
	dumpCmd.Flags().BoolVarP(&wantSections, "sections", "", false, "print sections")
	dumpCmd.Flags().BoolVarP(&wantSymbols, "symbols", "", false, "print symbols")
	dumpCmd.Flags().BoolVarP(&wantImports, "imports", "", false, "print imports")
	dumpCmd.Flags().BoolVarP(&wantEntrypoints, "entrypoints", "", false, "print entrypoints")
	dumpCmd.Flags().BoolVarP(&wantStrings, "strings", "", false, "print strings")
	dumpCmd.Flags().BoolVarP(&wantLibraries, "libraries", "", false, "print libraries")

	rootCmd.AddCommand(versionCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
