// Package config provides configuration management for the byweb pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"byweb/internal/archive"
)

// DefaultPath is where the CLI looks for a config when none is given.
const DefaultPath = "configs/byweb.yaml"

// Configuration validation errors.
var (
	ErrMissingArchiveDir      = errors.New("input.archive_dir is required")
	ErrInvalidArchivePattern  = errors.New("input.archive_pattern must contain exactly one %d verb")
	ErrInvalidXMLPattern      = errors.New("input.xml_pattern must contain exactly one %d verb")
	ErrInvalidShardCount      = errors.New("input.shard_count must be at least 1")
	ErrInvalidCompression     = errors.New("input.compression must be one of: auto, bzip2, gzip")
	ErrInvalidChunkSize       = errors.New("input.chunk_size_kb must be at least 1")
	ErrMissingWorkDir         = errors.New("input.work_dir is required")
	ErrRepairShardOutOfRange  = errors.New("repairs[].shard is outside the configured shards")
	ErrRepairNoStrategies     = errors.New("repairs[].strategies must not be empty")
	ErrUnknownRepairStrategy  = errors.New("unknown repair strategy")
	ErrDuplicateRepairShard   = errors.New("repairs[].shard listed twice")
	ErrInvalidMaxChars        = errors.New("extract.max_chars must be at least 1")
	ErrMissingDocumentPath    = errors.New("extract.document_path is required")
	ErrMissingExtractField    = errors.New("extract.id_field and extract.content_field are required")
	ErrMissingCheckpointDir   = errors.New("checkpoint.dir is required")
	ErrMissingOutputDir       = errors.New("output.dir is required")
	ErrMissingOutputFile      = errors.New("output.documents is required")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("logging.format must be 'text' or 'json'")
	ErrMissingTablesSelectors = errors.New("tables element and attribute names are required")
)

// Repair strategy names accepted in repairs[].strategies.
const (
	RepairEncodeURL = "encode_url"
	RepairCloseRoot = "close_root"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Extract    ExtractConfig    `yaml:"extract"`
	Tables     TablesConfig     `yaml:"tables"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Repairs    []RepairConfig   `yaml:"repairs"`
}

// InputConfig locates the archive shards and auxiliary files.
type InputConfig struct {
	ArchiveDir     string `yaml:"archive_dir"`
	ArchivePattern string `yaml:"archive_pattern"`
	Compression    string `yaml:"compression"`
	WorkDir        string `yaml:"work_dir"`
	XMLPattern     string `yaml:"xml_pattern"`
	RootTag        string `yaml:"root_tag"`
	TasksFile      string `yaml:"tasks_file"`
	RelevanceFile  string `yaml:"relevance_file"`
	ShardCount     int    `yaml:"shard_count"`
	ChunkSizeKb    int    `yaml:"chunk_size_kb"`
	KeepXML        bool   `yaml:"keep_xml"`
}

// RepairConfig lists the fixes applied to one known-bad shard.
type RepairConfig struct {
	Strategies []string `yaml:"strategies"`
	Shard      int      `yaml:"shard"`
}

// ExtractConfig names the document fields and text limits.
type ExtractConfig struct {
	DocumentPath     string `yaml:"document_path"`
	IDField          string `yaml:"id_field"`
	ContentField     string `yaml:"content_field"`
	URLField         string `yaml:"url_field"`
	FallbackEncoding string `yaml:"fallback_encoding"`
	MaxChars         int    `yaml:"max_chars"`
}

// TablesConfig names the elements of the task and relevance files.
type TablesConfig struct {
	TaskElement     string `yaml:"task_element"`
	TaskIDAttr      string `yaml:"task_id_attr"`
	QueryField      string `yaml:"query_field"`
	DocumentElement string `yaml:"document_element"`
	DocumentIDAttr  string `yaml:"document_id_attr"`
	RelevanceAttr   string `yaml:"relevance_attr"`
	NoneLabel       string `yaml:"none_label"`
	JudgedOnly      bool   `yaml:"judged_only"`
}

// CheckpointConfig controls per-shard snapshots.
type CheckpointConfig struct {
	Dir            string `yaml:"dir"`
	IgnoreExisting bool   `yaml:"ignore_existing"`
}

// OutputConfig names the exported CSV files.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Documents string `yaml:"documents"`
	Tasks     string `yaml:"tasks"`
	Relevance string `yaml:"relevance"`
	Report    string `yaml:"report"`
	Gzip      bool   `yaml:"gzip"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	ShowProgress bool   `yaml:"show_progress"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used for the byweb2007 collection.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	setString(&c.Input.ArchiveDir, "byweb2007")
	setString(&c.Input.ArchivePattern, "byweb.xml.%d.bz2")
	setString(&c.Input.Compression, "auto")
	setString(&c.Input.WorkDir, "work")
	setString(&c.Input.XMLPattern, "byweb%d.xml")
	setString(&c.Input.RootTag, "dataset")
	setInt(&c.Input.ShardCount, 36)
	setInt(&c.Input.ChunkSizeKb, 100)

	setString(&c.Extract.DocumentPath, "dataset.document")
	setString(&c.Extract.IDField, "docID")
	setString(&c.Extract.ContentField, "content")
	setString(&c.Extract.URLField, "docURL")
	setString(&c.Extract.FallbackEncoding, "windows-1251")
	setInt(&c.Extract.MaxChars, 1000)

	setString(&c.Tables.TaskElement, "task")
	setString(&c.Tables.TaskIDAttr, "id")
	setString(&c.Tables.QueryField, "querytext")
	setString(&c.Tables.DocumentElement, "document")
	setString(&c.Tables.DocumentIDAttr, "id")
	setString(&c.Tables.RelevanceAttr, "relevance")
	setString(&c.Tables.NoneLabel, "none")

	setString(&c.Checkpoint.Dir, "pickled_docs")

	setString(&c.Output.Dir, ".")
	setString(&c.Output.Documents, "byweb2007.csv")

	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "text")
}

func setString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Input.ArchiveDir == "" {
		return ErrMissingArchiveDir
	}

	if strings.Count(c.Input.ArchivePattern, "%d") != 1 {
		return ErrInvalidArchivePattern
	}

	if strings.Count(c.Input.XMLPattern, "%d") != 1 {
		return ErrInvalidXMLPattern
	}

	if c.Input.ShardCount < 1 {
		return ErrInvalidShardCount
	}

	switch c.Input.Compression {
	case "auto", "bzip2", "gzip":
	default:
		return ErrInvalidCompression
	}

	if c.Input.ChunkSizeKb < 1 {
		return ErrInvalidChunkSize
	}

	if c.Input.WorkDir == "" {
		return ErrMissingWorkDir
	}

	seen := make(map[int]bool)

	for i, r := range c.Repairs {
		if r.Shard < 0 || r.Shard >= c.Input.ShardCount {
			return fmt.Errorf("%w: repairs[%d] shard %d", ErrRepairShardOutOfRange, i, r.Shard)
		}

		if seen[r.Shard] {
			return fmt.Errorf("%w: shard %d", ErrDuplicateRepairShard, r.Shard)
		}

		seen[r.Shard] = true

		if len(r.Strategies) == 0 {
			return fmt.Errorf("%w: repairs[%d]", ErrRepairNoStrategies, i)
		}

		for _, s := range r.Strategies {
			if s != RepairEncodeURL && s != RepairCloseRoot {
				return fmt.Errorf("%w: repairs[%d] %q", ErrUnknownRepairStrategy, i, s)
			}
		}
	}

	if c.Extract.MaxChars < 1 {
		return ErrInvalidMaxChars
	}

	if c.Extract.DocumentPath == "" {
		return ErrMissingDocumentPath
	}

	if c.Extract.IDField == "" || c.Extract.ContentField == "" {
		return ErrMissingExtractField
	}

	t := c.Tables
	if t.TaskElement == "" || t.TaskIDAttr == "" || t.QueryField == "" ||
		t.DocumentElement == "" || t.DocumentIDAttr == "" || t.RelevanceAttr == "" {
		return ErrMissingTablesSelectors
	}

	if c.Checkpoint.Dir == "" {
		return ErrMissingCheckpointDir
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Output.Documents == "" {
		return ErrMissingOutputFile
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// Shards returns the shard indices in processing order.
func (c *Config) Shards() []int {
	shards := make([]int, c.Input.ShardCount)
	for i := range shards {
		shards[i] = i
	}

	return shards
}

// ArchivePath returns the compressed file for shard i.
func (c *Config) ArchivePath(i int) string {
	return filepath.Join(c.Input.ArchiveDir, archive.ShardPath(c.Input.ArchivePattern, i))
}

// XMLPath returns the decompressed file for shard i.
func (c *Config) XMLPath(i int) string {
	return archive.DecompressedPath(c.Input.WorkDir, c.Input.XMLPattern, i)
}

// ChunkSize returns the decompression read size in bytes.
func (c *Config) ChunkSize() int {
	return c.Input.ChunkSizeKb * 1024
}

// OutputPath joins name onto the output directory. Gzip output gets a .gz
// suffix. An empty name yields "".
func (c *Config) OutputPath(name string) string {
	if name == "" {
		return ""
	}

	path := filepath.Join(c.Output.Dir, name)
	if c.Output.Gzip && !strings.HasSuffix(path, ".gz") {
		path += ".gz"
	}

	return path
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Shards: %d, Archives: %s, Repairs: %d, Output: %s}",
		c.Input.ShardCount,
		c.Input.ArchiveDir,
		len(c.Repairs),
		c.Output.Dir,
	)
}
