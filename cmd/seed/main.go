package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/mirrortube/coordinator/internal/config"
	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
)

// seed partitions a newline-delimited video-ID corpus into fixed-size
// batches and inserts the batch rows the coordination server dispatches.
func main() {
	var (
		corpusPath = flag.String("file", "", "newline-delimited video ID corpus (required)")
		configPath = flag.String("config", os.Getenv("CONFIG_PATH"), "config file path")
	)
	flag.Parse()

	if *corpusPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.NewDefault()
	logger.SetDefaultLogger(logg)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logg.Fatalf("Failed to initialize database: %v", err)
	}
	batchRepo := repository.NewBatchRepository(db)

	f, err := os.Open(*corpusPath)
	if err != nil {
		logg.Fatalf("Failed to open corpus: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	batchSize := cfg.Protocol.BatchSize

	var (
		videos []string
		line   int64
		total  int
	)
	startLine := int64(1)

	flush := func(endLine int64) {
		if len(videos) == 0 {
			return
		}
		batch := domain.Batch{
			ID:        uuid.New().String(),
			StartCtid: fmt.Sprintf("(%d)", startLine),
			EndCtid:   fmt.Sprintf("(%d)", endLine),
			Videos:    append(domain.StringArray{}, videos...),
		}
		if err := batchRepo.Create(ctx, []domain.Batch{batch}); err != nil {
			logg.Fatalf("Failed to insert batch at line %d: %v", startLine, err)
		}
		total++
		videos = videos[:0]
		startLine = endLine + 1
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := scanner.Text()
		line++
		if id == "" {
			continue
		}
		videos = append(videos, id)
		if len(videos) >= batchSize {
			flush(line)
		}
	}
	if err := scanner.Err(); err != nil {
		logg.Fatalf("Failed to read corpus: %v", err)
	}
	flush(line)

	logg.Infof("Seeded %d batches (batch_size=%d) from %s", total, batchSize, *corpusPath)
}
