package models

import (
	"fmt"
	"time"
)

// Stage names a pipeline step that can drop a shard or a document.
type Stage string

// Pipeline stages.
const (
	StageDecompress Stage = "decompress"
	StageRepair     Stage = "repair"
	StageParse      Stage = "parse"
	StageExtract    Stage = "extract"
	StageCheckpoint Stage = "checkpoint"
)

// Skip explains why a shard or a document was dropped.
type Skip struct {
	Reason error
	Stage  Stage
}

// Error implements error.
func (s *Skip) Error() string {
	return fmt.Sprintf("%s: %v", s.Stage, s.Reason)
}

// Unwrap exposes the reason to errors.Is / errors.As.
func (s *Skip) Unwrap() error {
	return s.Reason
}

// DocumentSkip records a document dropped during extraction. Position is
// the index of the document inside its shard.
type DocumentSkip struct {
	Skip
	DocID    string
	Position int
}

// ShardStatus is the outcome of one shard.
type ShardStatus string

// Shard outcomes.
const (
	ShardProcessed ShardStatus = "processed"
	ShardResumed   ShardStatus = "resumed"
	ShardSkipped   ShardStatus = "skipped"
)

// ShardResult is everything the pipeline learned about one shard.
type ShardResult struct {
	Skip      *Skip
	Documents []Document
	Dropped   []DocumentSkip
	Duration  time.Duration
	Index     int
	Status    ShardStatus
}

// Ok reports whether the shard produced a snapshot.
func (r *ShardResult) Ok() bool {
	return r.Status != ShardSkipped
}
