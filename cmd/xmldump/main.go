// Package main provides xmldump, which prints the converted mapping of an XML
// file for inspecting collection shards and auxiliary files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"byweb/internal/xmltree"
)

func main() {
	inputPath := flag.String("input", "", "Path to the XML file")
	format := flag.String("format", "yaml", "Output format: yaml or json")
	path := flag.String("path", "", "Dotted path to print, e.g. dataset.document.0")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: xmldump -input <file.xml> [-format yaml|json] [-path a.b.0]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	root, err := xmltree.ParseFile(*inputPath)
	if err != nil {
		log.Fatalf("Error parsing %s: %v\n", *inputPath, err)
	}

	value := xmltree.Convert(root)

	if *path != "" {
		found, ok := xmltree.Lookup(value, *path)
		if !ok {
			log.Fatalf("Path %q not found\n", *path)
		}

		value = found
	}

	var out []byte

	switch *format {
	case "yaml":
		out, err = yaml.Marshal(value)
	case "json":
		out, err = json.MarshalIndent(value, "", "  ")
		out = append(out, '\n')
	default:
		log.Fatalf("Unknown format: %s\n", *format)
	}

	if err != nil {
		log.Fatalf("Error marshaling: %v\n", err)
	}

	if _, err := os.Stdout.Write(out); err != nil {
		log.Fatalf("Error writing output: %v\n", err)
	}
}
