package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/jamesprial/pmkin-mcp/internal/config"
	"github.com/jamesprial/pmkin-mcp/internal/pmkin"
)

const rootUsage = `pmkin - query the pmkin content API

USAGE:
  pmkin [-env <file>] <command> [flags]

GLOBAL FLAGS:
  -env <file>   Load environment variables from file (default: .env if present)

COMMANDS:
  find-category               Find a category by ID
  list-categories             List all categories
  find-document               Find a document by ID
  find-document-by-slug       Find a document by slug
  list-documents              List all documents
  list-documents-in-category  List the documents in a category
  help                        Show help for any command

ENVIRONMENT:
  PMKIN_TOKEN         API token (required)
  PMKIN_GRAPHQL_URL   Endpoint override (default: https://content.pmkin.io/graphql)
`

var commandUsage = map[string]string{
	"find-category": `find-category FLAGS:
  -id <id>      Category ID (required)
`,
	"list-categories": `list-categories takes no flags.
`,
	"find-document": `find-document FLAGS:
  -id <id>      Document ID (required)
`,
	"find-document-by-slug": `find-document-by-slug FLAGS:
  -slug <slug>  Document slug (required)
`,
	"list-documents": `list-documents takes no flags.
`,
	"list-documents-in-category": `list-documents-in-category FLAGS:
  -category <id>     Category ID (required)
  -include-drafts    Include unpublished documents. When omitted the
                     service default applies.
`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("pmkin", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	envFile := global.String("env", "", "environment file")
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	if cmd == "help" {
		return cmdHelp(stdout, cmdArgs)
	}
	if _, ok := commandUsage[cmd]; !ok {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err := loadEnv(*envFile); err != nil {
		return err
	}

	var (
		result any
		err    error
	)
	switch cmd {
	case "find-category":
		result, err = cmdFindCategory(ctx, cmdArgs, stderr)
	case "list-categories":
		result, err = cmdListCategories(ctx, cmdArgs, stderr)
	case "find-document":
		result, err = cmdFindDocument(ctx, cmdArgs, stderr)
	case "find-document-by-slug":
		result, err = cmdFindDocumentBySlug(ctx, cmdArgs, stderr)
	case "list-documents":
		result, err = cmdListDocuments(ctx, cmdArgs, stderr)
	case "list-documents-in-category":
		result, err = cmdListDocumentsInCategory(ctx, cmdArgs, stderr)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintf(stdout, "%s\n", out)
	return err
}

func cmdHelp(stdout io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	usage, ok := commandUsage[args[0]]
	if !ok {
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	fmt.Fprint(stdout, usage)
	return nil
}

// loadEnv loads file, or .env when file is empty. Only an explicitly named
// file has to exist.
func loadEnv(file string) error {
	if file == "" {
		_, err := config.LoadDotEnv()
		return err
	}
	loaded, err := config.LoadDotEnv(file)
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		return fmt.Errorf("env file %q not found", file)
	}
	return nil
}

// newService builds a client from PMKIN_TOKEN and PMKIN_GRAPHQL_URL.
func newService() (pmkin.ContentService, error) {
	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if cfg.GraphQL.Token == "" {
		return nil, fmt.Errorf("PMKIN_TOKEN is not set")
	}
	return pmkin.NewFromConfig(cfg.GraphQL)
}

// parseFlags parses args with fs and prints the command usage on failure.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(new(bytes.Buffer))
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, commandUsage[fs.Name()])
		return err
	}
	if fs.NArg() > 0 {
		fmt.Fprint(stderr, commandUsage[fs.Name()])
		return fmt.Errorf("%s: unexpected arguments %v", fs.Name(), fs.Args())
	}
	return nil
}

func requireFlag(fs *flag.FlagSet, name, value string, stderr io.Writer) error {
	if value == "" {
		fmt.Fprint(stderr, commandUsage[fs.Name()])
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func cmdFindCategory(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("find-category", flag.ContinueOnError)
	id := fs.String("id", "", "category ID")
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}
	if err := requireFlag(fs, "id", *id, stderr); err != nil {
		return nil, err
	}

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	category, err := svc.FindCategory(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, fmt.Errorf("category %q not found", *id)
	}
	return category, nil
}

func cmdListCategories(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("list-categories", flag.ContinueOnError)
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	categories, err := svc.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func cmdFindDocument(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("find-document", flag.ContinueOnError)
	id := fs.String("id", "", "document ID")
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}
	if err := requireFlag(fs, "id", *id, stderr); err != nil {
		return nil, err
	}

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	doc, err := svc.FindDocument(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %q not found", *id)
	}
	return doc, nil
}

func cmdFindDocumentBySlug(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("find-document-by-slug", flag.ContinueOnError)
	slug := fs.String("slug", "", "document slug")
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}
	if err := requireFlag(fs, "slug", *slug, stderr); err != nil {
		return nil, err
	}

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	doc, err := svc.FindDocumentBySlug(ctx, *slug)
	if err != nil {
		return nil, fmt.Errorf("find document by slug: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %q not found", *slug)
	}
	return doc, nil
}

func cmdListDocuments(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("list-documents", flag.ContinueOnError)
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func cmdListDocumentsInCategory(ctx context.Context, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("list-documents-in-category", flag.ContinueOnError)
	categoryID := fs.String("category", "", "category ID")
	includeDrafts := fs.Bool("include-drafts", false, "include unpublished documents")
	if err := parseFlags(fs, args, stderr); err != nil {
		return nil, err
	}
	if err := requireFlag(fs, "category", *categoryID, stderr); err != nil {
		return nil, err
	}

	var opts []pmkin.ListOption
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "include-drafts" {
			opts = append(opts, pmkin.IncludeDrafts(*includeDrafts))
		}
	})

	svc, err := newService()
	if err != nil {
		return nil, err
	}
	docs, err := svc.ListDocumentsInCategory(ctx, *categoryID, opts...)
	if err != nil {
		return nil, fmt.Errorf("list documents in category: %w", err)
	}
	return docs, nil
}
