package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sert121/sql-datagen/internal/archive"
	"github.com/sert121/sql-datagen/internal/catalog"
	"github.com/sert121/sql-datagen/internal/completion"
	"github.com/sert121/sql-datagen/internal/observability"
	"github.com/sert121/sql-datagen/internal/prompt"
)

var ErrNoTables = errors.New("no tables left after deny-list filtering")

type Archiver interface {
	Archive(ctx context.Context, run archive.Run) (archive.Result, error)
}

type Request struct {
	DatabaseName string
	// SchemaName selects the target schema; empty falls back to the second
	// schema of the catalog.
	SchemaName string
	// TableName selects the table; empty takes the first remaining table.
	TableName      string
	PromptOverride string
	DenyList       catalog.DenyList
	DryRun         bool
}

type Result struct {
	RunID      string `json:"run_id"`
	Database   string `json:"database"`
	Schema     string `json:"schema"`
	Table      string `json:"table"`
	Prompt     string `json:"prompt"`
	Text       string `json:"text,omitempty"`
	Questions  int    `json:"questions"`
	ArchiveKey string `json:"archive_key,omitempty"`
	DryRun     bool   `json:"dry_run"`
}

type Runner struct {
	Catalog   catalog.Source
	Completer completion.Completer
	Composer  *prompt.Composer
	// Archiver is optional.
	Archiver Archiver
	Model    string
	// CatalogTimeout bounds the catalog query; zero means no extra deadline.
	CatalogTimeout time.Duration
	Logger         *slog.Logger
	Clock          func() time.Time
	NewRunID       func() string
}

func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	r.ensureDefaults()
	if r.Completer == nil && !req.DryRun {
		return Result{}, fmt.Errorf("completer is required")
	}

	runID := r.NewRunID()
	ctx = observability.ContextWithRunID(ctx, runID)
	logger := observability.RunLogger(ctx, r.Logger, req.DatabaseName, req.SchemaName, req.TableName)
	defer func() { observability.MarkRunFinished(r.Clock()) }()

	tables, schema, err := r.tables(ctx, req)
	if err != nil {
		return Result{}, err
	}
	table, err := pickTable(tables, req.TableName)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:    runID,
		Database: req.DatabaseName,
		Schema:   schema.Name,
		Table:    table.TableName,
		DryRun:   req.DryRun,
	}

	start := r.Clock()
	result.Prompt, err = r.Composer.Compose(table, req.PromptOverride)
	observability.ObserveStage(observability.StageCompose, r.Clock().Sub(start))
	if err != nil {
		return Result{}, err
	}
	logger.DebugContext(ctx, "prompt composed",
		slog.String("schema", result.Schema),
		slog.String("table", result.Table),
		slog.Int("columns", len(table.TableColumns)),
		slog.Bool("override", strings.TrimSpace(req.PromptOverride) != ""),
	)
	if req.DryRun {
		return result, nil
	}

	start = r.Clock()
	result.Text, err = r.Completer.Complete(ctx, prompt.SystemInstruction, result.Prompt)
	observability.ObserveStage(observability.StageComplete, r.Clock().Sub(start))
	if err != nil {
		observability.ObserveCompletion(err, 0)
		return Result{}, fmt.Errorf("generate questions for %q: %w", result.Table, err)
	}
	result.Questions = len(archive.SplitQuestions(result.Text))
	observability.ObserveCompletion(nil, result.Questions)
	logger.InfoContext(ctx, "questions generated",
		slog.String("table", result.Table),
		slog.Int("questions", result.Questions),
	)

	if r.Archiver == nil {
		return result, nil
	}
	start = r.Clock()
	archived, err := r.Archiver.Archive(ctx, archive.Run{
		RunID:    runID,
		Database: result.Database,
		Schema:   result.Schema,
		Table:    result.Table,
		Model:    r.Model,
		Text:     result.Text,
	})
	observability.ObserveStage(observability.StageArchive, r.Clock().Sub(start))
	if err != nil {
		// The generated text is still returned so the caller can print it.
		return result, fmt.Errorf("archive run: %w", err)
	}
	result.ArchiveKey = archived.Key
	return result, nil
}

// Tables returns the deny-list filtered table list of the selected schema.
func (r *Runner) Tables(ctx context.Context, req Request) ([]catalog.TableSummary, error) {
	r.ensureDefaults()
	tables, _, err := r.tables(ctx, req)
	return tables, err
}

// Tree returns the whole catalog tree without selecting a schema.
func (r *Runner) Tree(ctx context.Context, req Request) (catalog.Database, error) {
	r.ensureDefaults()
	return r.load(ctx, req.DatabaseName)
}

func (r *Runner) tables(ctx context.Context, req Request) ([]catalog.TableSummary, catalog.Schema, error) {
	db, err := r.load(ctx, req.DatabaseName)
	if err != nil {
		return nil, catalog.Schema{}, err
	}

	start := r.Clock()
	schema, err := catalog.SelectSchema(db, req.SchemaName)
	if err != nil {
		return nil, catalog.Schema{}, err
	}
	tables := req.DenyList.Filter(catalog.ExtractTables(schema))
	observability.ObserveStage(observability.StageExtract, r.Clock().Sub(start))
	observability.SetExtractedTables(len(tables))

	r.Logger.DebugContext(ctx, "tables extracted",
		slog.String("run_id", observability.RunIDFromContext(ctx)),
		slog.String("schema", schema.Name),
		slog.Int("tables", len(schema.Tables)),
		slog.Int("kept", len(tables)),
		slog.Int("deny_list", req.DenyList.Len()),
	)
	return tables, schema, nil
}

func (r *Runner) load(ctx context.Context, databaseName string) (catalog.Database, error) {
	if r.Catalog == nil {
		return catalog.Database{}, fmt.Errorf("catalog source is required")
	}
	if strings.TrimSpace(databaseName) == "" {
		return catalog.Database{}, fmt.Errorf("database name is required")
	}
	if r.CatalogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CatalogTimeout)
		defer cancel()
	}

	start := r.Clock()
	db, err := r.Catalog.LoadDatabase(ctx, databaseName)
	observability.ObserveStage(observability.StageIntrospect, r.Clock().Sub(start))
	if err != nil {
		return catalog.Database{}, fmt.Errorf("introspect %q: %w", databaseName, err)
	}
	observability.SetCatalogMetrics(len(db.Schemata), db.RelationCount(), db.ColumnCount())
	r.Logger.InfoContext(ctx, "catalog loaded",
		slog.String("run_id", observability.RunIDFromContext(ctx)),
		slog.String("database", databaseName),
		slog.Int("schemas", len(db.Schemata)),
		slog.Int("relations", db.RelationCount()),
		slog.Int("columns", db.ColumnCount()),
		slog.String("duration", r.Clock().Sub(start).String()),
	)
	return db, nil
}

func (r *Runner) ensureDefaults() {
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	if r.Clock == nil {
		r.Clock = time.Now
	}
	if r.NewRunID == nil {
		r.NewRunID = func() string { return uuid.NewString() }
	}
	if r.Composer == nil {
		// The default template always parses.
		r.Composer, _ = prompt.NewComposer("", prompt.DefaultQuestionCount)
	}
}

func pickTable(tables []catalog.TableSummary, name string) (catalog.TableSummary, error) {
	if name != "" {
		return catalog.FindTable(tables, name)
	}
	if len(tables) == 0 {
		return catalog.TableSummary{}, ErrNoTables
	}
	return tables[0], nil
}
