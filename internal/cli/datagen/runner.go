package datagen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sert121/sql-datagen/internal/catalog"
	"github.com/sert121/sql-datagen/internal/pipeline"
)

type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	Tables(ctx context.Context, req pipeline.Request) ([]catalog.TableSummary, error)
	Tree(ctx context.Context, req pipeline.Request) (catalog.Database, error)
}

// Options carry the configured defaults; flags override them per invocation.
type Options struct {
	Pipeline     Pipeline
	Database     string
	Schema       string
	Table        string
	DenyListFile string
	Stdout       io.Writer
	Stderr       io.Writer
}

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

type commonFlags struct {
	database     string
	schema       string
	denyListFile string
	noDenyList   bool
}

type generateFlags struct {
	table   string
	prompt  string
	dryRun  bool
	jsonOut bool
}

// Run executes one invocation and returns the process exit code: 0 on
// success, 1 on a pipeline error, 2 on a usage error.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	if defaults.Pipeline == nil {
		_, _ = fmt.Fprintln(stderr, "pipeline is not configured")
		return 1
	}

	root := newRootCmd(defaults, stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	var usage usageError
	if errors.As(err, &usage) {
		_, _ = fmt.Fprintf(stderr, "%v\n\n", err)
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func newRootCmd(defaults Options, stdout io.Writer) *cobra.Command {
	common := &commonFlags{}
	gen := &generateFlags{}

	root := &cobra.Command{
		Use:           "datagen",
		Short:         "Generate analytical questions from a PostgreSQL catalog",
		Long:          "datagen introspects a PostgreSQL catalog, picks one table and asks a chat model for candidate analytical questions about it.",
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), defaults.Pipeline, common, gen, stdout)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&common.database, "database", defaults.Database, "database whose catalog is introspected")
	pf.StringVar(&common.schema, "schema", defaults.Schema, "target schema (empty selects the second schema)")
	pf.StringVar(&common.denyListFile, "deny-list", defaults.DenyListFile, "YAML file listing excluded tables (default: built-in list)")
	pf.BoolVar(&common.noDenyList, "no-deny-list", false, "do not exclude any table")
	bindGenerateFlags(root, gen, defaults.Table)

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions for one table (default command)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), defaults.Pipeline, common, gen, stdout)
		},
	}
	bindGenerateFlags(generate, gen, defaults.Table)

	tables := &cobra.Command{
		Use:   "tables",
		Short: "Print the filtered table list of the target schema as JSON",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(common)
			if err != nil {
				return err
			}
			list, err := defaults.Pipeline.Tables(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(stdout, list)
		},
	}

	tree := &cobra.Command{
		Use:   "tree",
		Short: "Print the whole catalog tree as JSON",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(common)
			if err != nil {
				return err
			}
			db, err := defaults.Pipeline.Tree(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(stdout, db)
		},
	}

	root.AddCommand(generate, tables, tree)
	return root
}

func bindGenerateFlags(cmd *cobra.Command, gen *generateFlags, defaultTable string) {
	f := cmd.Flags()
	f.StringVar(&gen.table, "table", defaultTable, "table to generate questions for (empty takes the first allowed table)")
	f.StringVar(&gen.prompt, "prompt", "", "use this prompt verbatim instead of the template")
	f.BoolVar(&gen.dryRun, "dry-run", false, "print the composed prompt without calling the model")
	f.BoolVar(&gen.jsonOut, "json", false, "print the run result as JSON")
}

func runGenerate(ctx context.Context, p Pipeline, common *commonFlags, gen *generateFlags, stdout io.Writer) error {
	req, err := buildRequest(common)
	if err != nil {
		return err
	}
	req.TableName = strings.TrimSpace(gen.table)
	req.PromptOverride = gen.prompt
	req.DryRun = gen.dryRun

	result, runErr := p.Run(ctx, req)
	if gen.jsonOut {
		if result.RunID != "" {
			if err := writeJSON(stdout, result); err != nil {
				return err
			}
		}
		return runErr
	}
	switch {
	case result.DryRun:
		_, _ = fmt.Fprintln(stdout, result.Prompt)
	case result.Text != "":
		_, _ = fmt.Fprintln(stdout, result.Text)
	}
	return runErr
}

func buildRequest(common *commonFlags) (pipeline.Request, error) {
	database := strings.TrimSpace(common.database)
	if database == "" {
		return pipeline.Request{}, usageError{err: fmt.Errorf("--database is required")}
	}
	req := pipeline.Request{
		DatabaseName: database,
		SchemaName:   strings.TrimSpace(common.schema),
	}
	switch {
	case common.noDenyList:
		req.DenyList = catalog.NewDenyList()
	case strings.TrimSpace(common.denyListFile) != "":
		denyList, err := catalog.LoadDenyList(strings.TrimSpace(common.denyListFile))
		if err != nil {
			return pipeline.Request{}, err
		}
		req.DenyList = denyList
	default:
		req.DenyList = catalog.DefaultDenyList()
	}
	return req, nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError{err: fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	formatted, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(formatted))
	return err
}
