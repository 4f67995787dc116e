// ibotool is a CLI utility for extracting point index buffers from YAML
// mesh documents.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/drawcache/internal/config"
	"github.com/Faultbox/drawcache/internal/logger"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("logger: %v", err)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(cfg, args)
	case "extract", "x":
		cmdExtract(cfg, args)
	case "subdiv":
		cmdSubdiv(cfg, args)
	case "verify":
		cmdVerify(cfg, args)
	case "bench":
		cmdBench(cfg, args)
	case "grid":
		cmdGrid(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ibotool - point index buffer extraction utility

Usage:
  ibotool [global options] <command> [options]

Commands:
  info <mesh.yaml>                   Show mesh counts and slot layout
  extract [-o out] [-q] <mesh.yaml>  Extract the point buffer and list points
  subdiv [-level N] <mesh.yaml>      Extract the point buffer of the refined mesh
  verify <mesh.yaml>                 Compare serial and parallel extraction
  bench [-n N] <mesh.yaml>           Time repeated extraction
  grid [-w W] [-h H] [-o out]        Write a synthetic quad grid

Global options:
  -config <path>   Config file
  -debug           Debug logging
  -workers <n>     Extraction workers (0 = one per CPU)
  -chunk <n>       Face chunk size
  -subdiv <level>  Extract through a refined mesh
  -no-hide         Ignore hidden vertex flags

Examples:
  ibotool grid -w 64 -h 64 -o grid.yaml
  ibotool -workers 8 extract -q grid.yaml
  ibotool -subdiv 2 verify grid.yaml
  ibotool bench -n 500 grid.yaml`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
