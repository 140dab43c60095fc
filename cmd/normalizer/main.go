// Package main provides the normalizer command-line tool that cleans a single
// page the way the pipeline does.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"byweb/internal/extract"
	"byweb/internal/normalizer"
)

func main() {
	inputPath := flag.String("input", "", "Path to an HTML page or a base64 payload")
	isBase64 := flag.Bool("base64", false, "Input is base64 as stored in the content field")
	fallback := flag.String("encoding", "windows-1251", "Fallback encoding for undeclared pages")
	maxChars := flag.Int("max-chars", normalizer.DefaultMaxChars, "Characters kept before cleaning")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: normalizer -input <page.html> [-base64] [-encoding windows-1251] [-max-chars 1000]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	if *isBase64 {
		content, err = extract.DecodeBase64(string(content))
		if err != nil {
			log.Fatalf("Error decoding base64: %v\n", err)
		}
	}

	var enc encoding.Encoding

	if *fallback != "" {
		enc, err = htmlindex.Get(*fallback)
		if err != nil {
			log.Fatalf("Unknown encoding %q: %v\n", *fallback, err)
		}
	}

	page, charset, err := extract.DecodeHTML(content, enc)
	if err != nil {
		log.Fatalf("Error decoding page: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "🔍 Charset: %s\n", charset)

	text, err := extract.VisibleText(page)
	if err != nil {
		log.Fatalf("Error parsing HTML: %v\n", err)
	}

	fmt.Println(normalizer.NewProcessorWithLimit(*maxChars).Process(text))
}
