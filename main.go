package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/psychstudy/internal/bot"
	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/config"
	"github.com/example/psychstudy/internal/console"
	"github.com/example/psychstudy/internal/database"
	"github.com/example/psychstudy/internal/excel"
	"github.com/example/psychstudy/internal/session"
	"github.com/example/psychstudy/internal/spaced_repetition"
)

const usage = `Usage:
  psychstudy [bot]                      run the Telegram bot
  psychstudy console [-ephemeral] [-learner name]
                                        study in the terminal
  psychstudy import <file> [out.json]   convert an XLSX/CSV sheet into a catalog`

func main() {
	cfg := config.Load()

	cmd := "bot"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "bot":
		err = runBot(cfg)
	case "console":
		err = runConsole(cfg, args)
	case "import":
		err = runImport(cfg, args)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runBot(cfg *config.Config) error {
	// Cancel the context on Ctrl+C or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(cfg.DBType, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	catalog := cardstore.LoadCatalog(ctx, cfg.CatalogSource)

	b, err := bot.New(cfg, db, catalog)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	defer b.Stop()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot error: %w", err)
	}
	log.Println("Bot stopped successfully")
	return nil
}

func runConsole(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	ephemeral := fs.Bool("ephemeral", false, "Keep progress in memory only")
	learner := fs.String("learner", "console", "Storage namespace for progress")
	fs.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var kv cardstore.KeyValue
	if *ephemeral {
		kv = cardstore.NewMemoryKV()
	} else {
		db, err := database.Connect(cfg.DBType, cfg.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		kv = database.NewKVRepository(db, *learner)
	}

	sm2 := spaced_repetition.NewSM2()
	sm2.PassThreshold = spaced_repetition.Rating(cfg.PassThreshold)

	catalog := cardstore.LoadCatalog(ctx, cfg.CatalogSource)
	scheduler := session.NewScheduler(cardstore.New(kv), session.WithSM2(sm2))
	return console.New(scheduler, catalog, os.Stdout).Run(os.Stdin)
}

func runImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	sheet := fs.String("sheet", "Sheet1", "Worksheet to read from an XLSX file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("import needs a source file")
	}
	out := cfg.CatalogSource
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = fs.Arg(0)
	importCfg.SheetName = *sheet

	result, err := excel.ImportCards(importCfg)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		log.Printf("Skipped: %s", e)
	}

	if err := excel.WriteCatalog(out, result.Cards); err != nil {
		return err
	}
	fmt.Printf("Imported %d of %d rows into %s\n", len(result.Cards), result.TotalProcessed, out)
	return nil
}
