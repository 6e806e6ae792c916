package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/insightdelivered/mpesa-statement-converter/internal/api"
	"github.com/insightdelivered/mpesa-statement-converter/internal/ingest"
	"github.com/insightdelivered/mpesa-statement-converter/internal/logger"
	"github.com/insightdelivered/mpesa-statement-converter/internal/summary"
	"github.com/insightdelivered/mpesa-statement-converter/internal/writer"
)

const version = "1.0.0"

// Globals holds options shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" env:"MPESA_LOG_LEVEL" default:"info" help:"Log level (trace, debug, info, warn, error)."`
	LogFormat string `name:"log-format" env:"MPESA_LOG_FORMAT" default:"console" help:"Log output format (console or json)."`
}

var cli struct {
	Globals Globals `embed:""`

	Convert convertCmd `cmd:"" help:"Convert M-PESA statements, messages or spreadsheets to CSV."`
	Serve   serveCmd   `cmd:"" help:"Run the HTTP API."`
	Version versionCmd `cmd:"" help:"Print version and exit."`
}

type convertCmd struct {
	Files    []string `arg:"" name:"file" help:"PDF, image, spreadsheet or .txt files to convert."`
	Output   string   `short:"o" help:"Output CSV path (defaults to the input name with a .csv extension; only valid with one input)."`
	Password string   `env:"MPESA_PDF_PASSWORD" help:"Password for encrypted PDF statements."`
	NoHeader bool     `name:"no-header" help:"Omit the metadata rows at the top of the CSV."`
	Debug    bool     `help:"Print how every input line was classified."`
}

func (c *convertCmd) Run(g *Globals) error {
	if c.Output != "" && len(c.Files) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	log := logger.New(logger.Options{Level: g.LogLevel, Format: g.LogFormat})
	ctx := logger.WithContext(context.Background(), log)

	for _, path := range c.Files {
		if err := c.convertFile(ctx, path); err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
	}
	return nil
}

func (c *convertCmd) convertFile(ctx context.Context, inputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("input file not readable: %w", err)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	stmt, err := ingest.Load(ctx, inputPath, data, ingest.Options{
		Password: c.Password,
		Trace:    c.Debug,
	})
	if err != nil {
		return err
	}

	for _, dl := range stmt.DebugLines {
		fmt.Printf("  %4d %-12s %-16s %s\n", dl.LineNum, dl.Result, dl.Method, dl.Text)
	}

	fmt.Printf("  Source: %s\n", stmt.Source)
	fmt.Printf("  Found %d transaction(s)\n", len(stmt.Transactions))

	if len(stmt.Transactions) == 0 {
		fmt.Println("  Warning: No transactions found. The input does not look like M-PESA messages or a statement.")
		return nil
	}

	outPath := c.Output
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	}

	w := &writer.CSVWriter{IncludeHeader: !c.NoHeader}
	if err := w.WriteToFile(outPath, stmt); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	s := summary.Summarize(stmt.Transactions)
	fmt.Printf("  Money in:  %.2f\n", s.TotalIn)
	fmt.Printf("  Money out: %.2f\n", s.TotalOut)
	fmt.Printf("  Net:       %.2f\n", s.Net)
	fmt.Printf("  Persona:   %s (%s)\n", s.Insight.Persona, s.Insight.Tip)

	fmt.Println("  Done.")
	return nil
}

type serveCmd struct {
	Addr      string `env:"MPESA_ADDR" default:":8080" help:"Address to listen on."`
	BodyLimit int    `name:"body-limit" env:"MPESA_BODY_LIMIT" default:"10485760" help:"Maximum upload size in bytes."`
}

func (s *serveCmd) Run(g *Globals) error {
	log := logger.New(logger.Options{Level: g.LogLevel, Format: g.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := api.New(api.Config{BodyLimit: s.BodyLimit, Version: version}, log)
	app := api.NewApp(h)

	log.Info().Str("addr", s.Addr).Str("version", version).Msg("starting server")
	if err := api.Serve(ctx, app, s.Addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Printf("mpesa-statement-converter v%s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("mpesa-statement-converter"),
		kong.Description("Converts M-PESA SMS messages, PDF statements and spreadsheets into CSV."),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
