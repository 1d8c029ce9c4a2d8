package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/raphamorim/jam/colors"
	"github.com/raphamorim/jam/internal/diagnostics"
	"github.com/raphamorim/jam/internal/pipeline"
	"github.com/raphamorim/jam/internal/target"
)

const version = "0.1.0"

func main() {
	run := flag.Bool("run", false, "Run the compiled program (handled by the external driver)")
	targetInfo := flag.Bool("target-info", false, "Show target information")
	targetTriple := flag.String("target", "", "Target triple (default: host)")
	output := flag.String("o", "", "Output path for the textual IR (default: input with .ll)")
	debug := flag.Bool("d", false, "Enable debug output")
	showVersion := flag.Bool("v", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Jam compiler version %s\n", version)
		os.Exit(0)
	}

	tgt := target.Host()
	if *targetTriple != "" {
		tgt = target.Parse(*targetTriple)
	}

	if *targetInfo {
		printTargetInfo(tgt)
	}

	args := flag.Args()
	if len(args) < 1 {
		if *targetInfo {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Usage: jam [options] <file>")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	inputPath := args[0]
	src, err := os.ReadFile(inputPath)
	if err != nil {
		colors.BOLD_RED.Fprintf(os.Stderr, "error")
		fmt.Fprintf(os.Stderr, ": could not open file: %s\n", inputPath)
		os.Exit(1)
	}

	bag := diagnostics.NewDiagnosticBag()
	module, err := pipeline.Compile(inputPath, string(src), pipeline.Options{Target: tgt, Debug: *debug}, bag)
	if err != nil || bag.HasErrors() {
		bag.EmitAll()
		os.Exit(1)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = replaceExt(inputPath, ".ll")
	}
	if err := os.WriteFile(outputPath, []byte(module.String()), 0o644); err != nil {
		colors.BOLD_RED.Fprintf(os.Stderr, "error")
		fmt.Fprintf(os.Stderr, ": could not write output: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		colors.GREEN.Printf("wrote %s\n", outputPath)
	}

	if *run {
		// JIT execution lives in the external driver, not in this binary
		fmt.Fprintln(os.Stderr, "note: -run is handled by the execution driver; emitted IR to "+outputPath)
	}

	bag.EmitAll() // surfaces scanner warnings, if any
}

func printTargetInfo(tgt target.Target) {
	fmt.Println("Target Information:")
	fmt.Printf("  Name: %s\n", tgt.Name())
	fmt.Printf("  Triple: %s\n", tgt.TripleString())
	fmt.Printf("  Pointer size: %d bytes\n", tgt.PointerSize())
	fmt.Printf("  Libc: %s\n", tgt.LibCName())
	fmt.Printf("  Requires PIC: %s\n", yesNo(tgt.RequiresPIC()))
	fmt.Printf("  Requires PIE: %s\n", yesNo(tgt.RequiresPIE()))
	fmt.Printf("  Uses C ABI: %s\n", yesNo(tgt.UsesCABI()))
	fmt.Println()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i] + ext
	}
	return path + ext
}
