// Package pipeline runs the byweb preparation end to end: shards to
// snapshots, snapshots to validated tables, tables to CSV.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"

	"byweb/internal/archive"
	"byweb/internal/checkpoint"
	"byweb/internal/config"
	"byweb/internal/export"
	"byweb/internal/extract"
	"byweb/internal/formatter"
	"byweb/internal/logger"
	"byweb/internal/metrics"
	"byweb/internal/models"
	"byweb/internal/repair"
	"byweb/internal/tables"
	"byweb/internal/validator"
	"byweb/internal/xmltree"
)

// ErrDocumentsNotFound is returned when a shard has nothing at the
// configured document path.
var ErrDocumentsNotFound = errors.New("no documents at document path")

// Summary describes a finished run.
type Summary struct {
	Validation  *validator.ValidationResult
	Report      string
	Shards      []models.ShardResult
	Outputs     []export.Stats
	TableErrors []error
	Documents   int
	Tasks       int
	Judged      int
	Duration    time.Duration
}

// Skipped returns the shards that produced no snapshot.
func (s *Summary) Skipped() []models.ShardResult {
	var out []models.ShardResult

	for _, r := range s.Shards {
		if !r.Ok() {
			out = append(out, r)
		}
	}

	return out
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress draws a per-shard progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) {
		p.progress = w
	}
}

// WithMetrics records into m instead of a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg       *config.Config
	log       *logger.Logger
	plan      *repair.Plan
	repairer  *repair.Repairer
	extractor *extract.Extractor
	builder   *tables.Builder
	store     *checkpoint.Store
	validator *validator.RecordValidator
	metrics   *metrics.Metrics
	progress  io.Writer
}

// New builds a pipeline from a validated configuration.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Pipeline, error) {
	plan, err := repair.NewPlan(cfg.Repairs)
	if err != nil {
		return nil, err
	}

	ex, err := extract.New(extract.Options{
		IDField:          cfg.Extract.IDField,
		ContentField:     cfg.Extract.ContentField,
		FallbackEncoding: cfg.Extract.FallbackEncoding,
		MaxChars:         cfg.Extract.MaxChars,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		log:       log,
		plan:      plan,
		repairer:  repair.NewRepairer(cfg.Input.RootTag, cfg.Extract.URLField),
		extractor: ex,
		builder: tables.NewBuilder(tables.Options{
			TaskElement:     cfg.Tables.TaskElement,
			TaskIDAttr:      cfg.Tables.TaskIDAttr,
			QueryField:      cfg.Tables.QueryField,
			DocumentElement: cfg.Tables.DocumentElement,
			DocumentIDAttr:  cfg.Tables.DocumentIDAttr,
			RelevanceAttr:   cfg.Tables.RelevanceAttr,
			NoneLabel:       cfg.Tables.NoneLabel,
		}),
		store:     checkpoint.NewStore(cfg.Checkpoint.Dir),
		validator: validator.NewRecordValidator(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	return p, nil
}

// Reset deletes every snapshot so the next run starts from scratch.
func (p *Pipeline) Reset() error {
	p.log.Info("🧹 Removing snapshots", "dir", p.store.Dir())

	return p.store.Reset()
}

// Run processes every shard, then builds and exports the tables. Shard and
// document failures are recorded in the summary; an error means no complete
// output was produced.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	p.log.Info("🚀 Starting byweb pipeline",
		"shards", p.cfg.Input.ShardCount,
		"archives", p.cfg.Input.ArchiveDir,
		"repairs", p.plan.Len())

	// Phase 1: shards
	p.log.Info("Phase 1: Extracting shards...")

	var done []int

	for _, i := range p.cfg.Shards() {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("interrupted before shard %d: %w", i, err)
		}

		res := p.ProcessShard(i)
		p.metrics.ObserveShard(&res)
		summary.Shards = append(summary.Shards, res)

		if res.Ok() {
			done = append(done, i)
		}
	}

	// Phase 2: merge and validate
	p.log.Info("Phase 2: Merging snapshots...", "shards", len(done))

	docs, _, err := p.store.LoadAll(done)
	if err != nil {
		return summary, fmt.Errorf("failed to merge snapshots: %w", err)
	}

	docs, result := p.validator.ValidateDocuments(docs)
	summary.Validation = result
	summary.Documents = len(docs)

	// Phase 3: tables
	p.log.Info("Phase 3: Building tables...")

	var outputs []namedTable

	outputs = append(outputs, namedTable{p.cfg.Output.Documents, tables.DocumentTable(docs)})

	tasks, err := p.loadTasks()
	if err != nil {
		p.log.Warn("⚠️  Task table skipped", "file", p.cfg.Input.TasksFile, "error", err)
		summary.TableErrors = append(summary.TableErrors, err)
	} else if tasks != nil {
		summary.Tasks = len(tasks)
		outputs = append(outputs, namedTable{p.cfg.Output.Tasks, tables.TaskTable(tasks)})
	}

	judgments, order, err := p.loadJudgments()
	if err != nil {
		p.log.Warn("⚠️  Relevance table skipped", "file", p.cfg.Input.RelevanceFile, "error", err)
		summary.TableErrors = append(summary.TableErrors, err)
	} else if judgments != nil {
		p.validator.ValidateJudgments(judgments, docs, result)

		var extra []string
		if !p.cfg.Tables.JudgedOnly {
			extra = documentIDs(docs)
		}

		columns := append(tables.TaskIDs(tasks), order...)
		summary.Judged = len(judgments)
		outputs = append(outputs, namedTable{p.cfg.Output.Relevance, p.builder.Relevance(judgments, columns, extra)})
	}

	p.logValidation(result)

	// Phase 4: export
	p.log.Info("Phase 4: Exporting...")

	for _, out := range outputs {
		if out.name == "" {
			continue
		}

		stats, err := export.WriteTable(p.cfg.OutputPath(out.name), out.table)
		if err != nil {
			return summary, err
		}

		p.log.Info("✅ Wrote table", "path", stats.Path, "rows", stats.Rows)
		summary.Outputs = append(summary.Outputs, stats)
	}

	summary.Report = formatter.ShardReport(summary.Shards)

	if p.cfg.Output.Report != "" {
		path := filepath.Join(p.cfg.Output.Dir, p.cfg.Output.Report)
		if err := os.WriteFile(path, []byte(summary.Report), 0644); err != nil {
			return summary, fmt.Errorf("failed to write report: %w", err)
		}
	}

	if p.cfg.Metrics.Textfile != "" {
		if err := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
			p.log.Warn("⚠️  Metrics not written", "error", err)
		}
	}

	summary.Duration = time.Since(start)

	p.log.Info("✨ Pipeline complete",
		"documents", summary.Documents,
		"skipped_shards", len(summary.Skipped()),
		"duration", summary.Duration)

	return summary, nil
}

type namedTable struct {
	name  string
	table models.Table
}

// ProcessShard turns shard i into a snapshot, or resumes it from one.
func (p *Pipeline) ProcessShard(i int) models.ShardResult {
	start := time.Now()
	res := models.ShardResult{Index: i}
	log := p.log.With("shard", i)

	if !p.cfg.Checkpoint.IgnoreExisting && p.store.Exists(i) {
		docs, meta, err := p.store.Load(i)
		if err == nil {
			res.Status = models.ShardResumed
			res.Documents = docs
			res.Duration = time.Since(start)
			log.Info("⏭️  Resumed from snapshot", "documents", len(docs), "created", meta.LastModify)

			return res
		}

		log.Warn("⚠️  Snapshot unusable, reprocessing", "error", err)
	}

	xmlPath := p.cfg.XMLPath(i)

	stats, err := archive.Decompress(p.cfg.ArchivePath(i), xmlPath, archive.Options{
		Format:    archive.Format(p.cfg.Input.Compression),
		ChunkSize: p.cfg.ChunkSize(),
	})
	if err != nil {
		return p.skip(log, res, start, models.StageDecompress, err)
	}

	p.metrics.ObserveBytes(stats.CompressedBytes, stats.DecompressedBytes)
	log.Debug("Decompressed", "format", stats.Format, "bytes", stats.DecompressedBytes, "duration", stats.Duration)

	if !p.cfg.Input.KeepXML {
		defer func() {
			if err := os.Remove(xmlPath); err != nil && !os.IsNotExist(err) {
				log.Warn("⚠️  Could not remove decompressed file", "path", xmlPath, "error", err)
			}
		}()
	}

	if strategies := p.plan.For(i); len(strategies) > 0 {
		fixed, err := p.repairer.Apply(xmlPath, strategies)
		if err != nil {
			return p.skip(log, res, start, models.StageRepair, err)
		}

		log.Info("🔧 Repaired", "strategies", fixed.Applied, "urls", fixed.URLsEncoded, "root_closed", fixed.RootClosed)
	}

	root, err := xmltree.ParseFile(xmlPath)
	if err != nil {
		return p.skip(log, res, start, models.StageParse, err)
	}

	value, ok := xmltree.Lookup(xmltree.Convert(root), p.cfg.Extract.DocumentPath)
	if !ok {
		return p.skip(log, res, start, models.StageParse,
			fmt.Errorf("%w: %s", ErrDocumentsNotFound, p.cfg.Extract.DocumentPath))
	}

	items := value.Items()

	var progress extract.Progress

	bar := p.newBar(len(items), i)
	if bar != nil {
		progress = bar
	}

	batch := p.extractor.All(items, progress)

	if bar != nil {
		_ = bar.Finish()
	}

	for _, d := range batch.Dropped {
		log.Warn("⚠️  Document skipped", "position", d.Position, "doc_id", d.DocID, "stage", d.Stage, "reason", d.Reason)
	}

	if _, err := p.store.Save(i, batch.Documents, len(batch.Dropped)); err != nil {
		res.Dropped = batch.Dropped

		return p.skip(log, res, start, models.StageCheckpoint, err)
	}

	res.Status = models.ShardProcessed
	res.Documents = batch.Documents
	res.Dropped = batch.Dropped
	res.Duration = time.Since(start)

	log.Info("✅ Shard done", "documents", len(res.Documents), "skipped", len(res.Dropped), "duration", res.Duration)

	return res
}

func (p *Pipeline) skip(log *logger.Logger, res models.ShardResult, start time.Time, stage models.Stage, err error) models.ShardResult {
	res.Status = models.ShardSkipped
	res.Skip = &models.Skip{Stage: stage, Reason: err}
	res.Duration = time.Since(start)

	log.Warn("⚠️  Shard skipped", "stage", stage, "reason", err)

	return res
}

func (p *Pipeline) newBar(n, shard int) *progressbar.ProgressBar {
	if p.progress == nil || n == 0 {
		return nil
	}

	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionSetDescription(fmt.Sprintf("shard %d", shard)),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// loadTasks returns nil, nil when no task file is configured.
func (p *Pipeline) loadTasks() ([]models.Task, error) {
	if p.cfg.Input.TasksFile == "" {
		return nil, nil
	}

	root, err := loadValue(p.cfg.Input.TasksFile)
	if err != nil {
		return nil, err
	}

	return p.builder.Tasks(root)
}

// loadJudgments returns nil judgments when no relevance file is configured.
func (p *Pipeline) loadJudgments() (models.Judgments, []string, error) {
	if p.cfg.Input.RelevanceFile == "" {
		return nil, nil, nil
	}

	root, err := loadValue(p.cfg.Input.RelevanceFile)
	if err != nil {
		return nil, nil, err
	}

	return p.builder.Judgments(root)
}

func (p *Pipeline) logValidation(result *validator.ValidationResult) {
	for _, e := range result.Errors {
		p.log.Error("❌ Validation error", "error", e)
	}

	for _, w := range result.Warnings {
		p.log.Warn("⚠️  " + w)
	}

	p.log.Info("📊 Validation",
		"documents", result.Stats.UniqueDocuments,
		"duplicates", result.Stats.DuplicateDocuments,
		"empty", result.Stats.EmptyDocuments,
		"judged", result.Stats.JudgedDocuments,
		"unknown_judged", result.Stats.UnknownJudged)
}

func loadValue(path string) (xmltree.Value, error) {
	root, err := xmltree.ParseFile(path)
	if err != nil {
		return xmltree.Value{}, err
	}

	return xmltree.Convert(root), nil
}

func documentIDs(docs []models.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = strconv.FormatInt(d.ID, 10)
	}

	return ids
}
