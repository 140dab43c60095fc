// Package main provides the signer command-line tool for verifying and
// re-signing shard snapshots.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"byweb/internal/checkpoint"
	"byweb/internal/config"
	"byweb/pkg/metadata"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to YAML configuration")
	shard := flag.Int("shard", -1, "Only check this shard (default: all)")
	resign := flag.Bool("resign", false, "Re-sign snapshots whose sidecar is missing or stale")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v\n", err)
	}

	store := checkpoint.NewStore(cfg.Checkpoint.Dir)

	shards := cfg.Shards()
	if *shard >= 0 {
		shards = []int{*shard}
	}

	fmt.Printf("📂 Checking %d snapshots in %s\n", len(shards), store.Dir())

	var valid, missing, broken int

	for _, i := range shards {
		docs, meta, err := store.Load(i)

		switch {
		case err == nil:
			valid++
			fmt.Printf("✅ shard %d: %d documents, %d skipped, signed %s\n",
				i, len(docs), meta.Skipped, meta.LastModify.Format("2006-01-02 15:04:05"))

			continue
		case errors.Is(err, checkpoint.ErrNoSnapshot) && !errors.Is(err, metadata.ErrNoMetadata):
			missing++

			continue
		}

		fmt.Printf("❌ shard %d: %v\n", i, err)

		if !*resign {
			broken++

			continue
		}

		fmt.Printf("✍️  Re-signing shard %d...\n", i)

		meta, err = store.Resign(i)
		if err != nil {
			broken++
			fmt.Printf("❌ shard %d: %v\n", i, err)

			continue
		}

		valid++
		fmt.Printf("✅ shard %d: re-signed with %d documents\n", i, meta.Documents)
	}

	fmt.Printf("📊 %d valid, %d missing, %d broken\n", valid, missing, broken)

	if broken > 0 {
		os.Exit(1)
	}
}
