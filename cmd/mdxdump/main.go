// Package main provides a command-line utility to inspect MDX dictionary
// files. It prints header metadata and can resolve a single key for
// debugging.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scigolib/mdict"
)

func main() {
	// Define command-line flags
	key := flag.String("key", "", "Headword to look up; its record bytes go to stdout")
	encoding := flag.String("encoding", "utf-8", "Fallback encoding label when the header declares none")
	resource := flag.Bool("resource", false, "Treat the file as an MDD resource archive")
	listKeys := flag.Bool("keys", false, "List every headword in index order")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: mdxdump [flags] <file.mdx>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	opts := []mdict.Option{mdict.WithDefaultEncoding(*encoding)}
	if *resource {
		opts = append(opts, mdict.WithResourceKeys())
	}

	d, err := mdict.Open(args[0], opts...)
	if err != nil {
		log.Fatalf("Failed to open dictionary: %v", err)
	}
	defer d.Close()

	keys := d.Keys()
	fmt.Fprintf(os.Stderr, "Title:     %s\n", d.Title())
	fmt.Fprintf(os.Stderr, "Encoding:  %s\n", d.Encoding())
	fmt.Fprintf(os.Stderr, "Encrypted: %d\n", d.Encrypted())
	fmt.Fprintf(os.Stderr, "Entries:   %d\n", len(keys))

	if *listKeys {
		for _, k := range keys {
			fmt.Println(k)
		}
	}

	if *key != "" {
		data, err := d.Lookup(*key)
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		if data == nil {
			log.Fatalf("Key %q not found", *key)
		}
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("Write failed: %v", err)
		}
	}
}
