// Command slotmark builds static sites from markdown content and slot-based
// HTML layouts.
package main

import (
	"fmt"
	"os"

	"github.com/slotmark/slotmark/cmd/slotmark/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "build":
		err = commands.BuildCommand(args)
	case "validate":
		err = commands.ValidateCommand(args)
	case "version":
		fmt.Printf("slotmark version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("slotmark - Markdown content through slot-based layouts")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  slotmark build [directory]       Render the site to the output directory")
	fmt.Println("  slotmark validate [directory]    Check content files for problems")
	fmt.Println("  slotmark version                 Show version")
	fmt.Println("  slotmark help                    Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  slotmark build                   # Build the site in the current directory")
	fmt.Println("  slotmark build ./site            # Build a specific directory")
	fmt.Println("  slotmark build --no-cache        # Ignore the render cache")
	fmt.Println("  slotmark validate                # Validate content in the current directory")
	fmt.Println("  slotmark validate ./site/content # Validate a specific directory")
}
