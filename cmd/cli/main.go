package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/completion"
	"github.com/dvloznov/mahjong-ledger/internal/config"
	"github.com/dvloznov/mahjong-ledger/internal/gcsuploader"
	"github.com/dvloznov/mahjong-ledger/internal/infra"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		run("extract", os.Args[2:], runExtract)
	case "import":
		run("import", os.Args[2:], runImport)
	case "export":
		run("export", os.Args[2:], runExport)
	case "records":
		run("records", os.Args[2:], runRecords)
	case "circles":
		run("circles", os.Args[2:], runCircles)
	case "delete-all":
		run("delete-all", os.Args[2:], runDeleteAll)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Mahjong Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract     Extract win/loss records from free text")
	fmt.Println("  import      Import a backup file (local path or gs:// URI)")
	fmt.Println("  export      Export all records as a backup file")
	fmt.Println("  records     List records, newest first")
	fmt.Println("  circles     List circles")
	fmt.Println("  delete-all  Delete every record (circles are kept)")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env carries what every subcommand needs.
type env struct {
	ctx   context.Context
	log   zerolog.Logger
	cfg   config.Config
	svc   *ledger.Service
	owner string
}

type command func(e *env) error

// run registers the common flags and the command's own, parses args, wires
// the service and executes the command.
func run(name string, args []string, cmd func(fs *flag.FlagSet) command) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("MAHJONG_CONFIG"), "Path to YAML config file")
	owner := fs.String("owner", envOr("MAHJONG_OWNER", "local"), "Owner id to act as")
	driver := fs.String("store", "", "Store driver override (memory, bolt, bigquery)")
	exec := cmd(fs)
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Store.Driver = strings.ToLower(*driver)
	} else if cfg.Store.Driver == config.DriverMemory {
		// A CLI session against an in-memory store would lose everything on exit.
		cfg.Store.Driver = config.DriverBolt
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	recordStore, err := infra.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer recordStore.Close()

	backend, err := completion.NewBackend(cfg.Completion.Provider, cfg.Completion.APIKey, cfg.Completion.Model, cfg.Completion.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure completion backend")
	}
	extractor := completion.NewClient(backend, cfg.Completion.Timeout)

	e := &env{
		ctx:   ctx,
		log:   log,
		cfg:   cfg,
		svc:   ledger.NewService(recordStore, extractor),
		owner: *owner,
	}

	if err := exec(e); err != nil {
		printErr("%s failed: %v", name, describe(err))
		recordStore.Close()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// describe turns well-known failures into operator guidance.
func describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, completion.ErrMissingCredential):
		return "no completion API key configured (set MAHJONG_COMPLETION_API_KEY or the provider key)"
	case errors.Is(err, completion.ErrTimeout):
		return "the completion service did not answer in time, try again"
	case store.IsUnauthorized(err):
		return "the store rejected the session, re-authenticate and retry"
	default:
		return err.Error()
	}
}

func runExtract(fs *flag.FlagSet) command {
	text := fs.String("text", "", "Free text to extract from (reads stdin when empty)")
	save := fs.Bool("save", false, "Save the extracted records")

	return func(e *env) error {
		input := *text
		if input == "" {
			data, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			input = string(data)
		}

		records, err := e.svc.Extract(e.ctx, e.owner, input)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No records found in the text.")
			return nil
		}

		for i, r := range records {
			printParsed(os.Stdout, i+1, len(records), r)
		}

		if !*save {
			fmt.Println("\nRun again with -save to store these records.")
			return nil
		}

		saved, err := e.svc.SaveParsed(e.ctx, e.owner, records)
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved %d record(s).\n", len(saved))
		return nil
	}
}

func runImport(fs *flag.FlagSet) command {
	in := fs.String("in", "", "Backup file path or gs://bucket/object URI")

	return func(e *env) error {
		if *in == "" {
			return fmt.Errorf("-in is required")
		}

		var data []byte
		var err error
		if gcsuploader.IsGCSURI(*in) {
			data, err = gcsuploader.FetchFromGCS(e.ctx, *in)
		} else {
			data, err = os.ReadFile(*in)
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", *in, err)
		}

		res, err := e.svc.Import(e.ctx, e.owner, string(data))
		if err != nil {
			return err
		}

		printImportResult(os.Stdout, res)
		return nil
	}
}

func runExport(fs *flag.FlagSet) command {
	out := fs.String("out", "", "Output file path or gs://bucket/object URI (stdout when empty)")
	cloud := fs.Bool("gcs", false, "Upload to the configured backup bucket under a generated name")

	return func(e *env) error {
		text, err := e.svc.Export(e.ctx, e.owner)
		if err != nil {
			return err
		}

		target := *out
		if *cloud {
			if e.cfg.Backup.Bucket == "" {
				return fmt.Errorf("-gcs needs backup.bucket or GCS_BUCKET")
			}
			target = gcsuploader.BackupURI(e.cfg.Backup.Bucket, e.owner, time.Now())
		}

		switch {
		case target == "":
			fmt.Print(text)
		case gcsuploader.IsGCSURI(target):
			if err := gcsuploader.UploadBackup(e.ctx, target, []byte(text)); err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", target)
		default:
			if err := os.WriteFile(target, []byte(text), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			fmt.Printf("Exported to %s\n", target)
		}
		return nil
	}
}

func runRecords(fs *flag.FlagSet) command {
	circleID := fs.String("circle", "", "Only show records in this circle id")

	return func(e *env) error {
		cs, err := e.svc.ListCircles(e.ctx, e.owner)
		if err != nil {
			return err
		}
		records, err := e.svc.ListRecords(e.ctx, e.owner, *circleID)
		if err != nil {
			return err
		}
		printRecords(os.Stdout, records, cs)
		return nil
	}
}

func runCircles(fs *flag.FlagSet) command {
	return func(e *env) error {
		cs, err := e.svc.ListCircles(e.ctx, e.owner)
		if err != nil {
			return err
		}
		records, err := e.svc.ListRecords(e.ctx, e.owner, "")
		if err != nil {
			return err
		}
		printCircles(os.Stdout, cs, records)
		return nil
	}
}

func runDeleteAll(fs *flag.FlagSet) command {
	yes := fs.Bool("yes", false, "Confirm deleting every record")

	return func(e *env) error {
		if !*yes {
			return fmt.Errorf("refusing to delete without -yes")
		}
		if err := e.svc.DeleteAllRecords(e.ctx, e.owner); err != nil {
			return err
		}
		e.log.Info().Str("owner_id", e.owner).Msg("All records deleted")
		fmt.Println("All records deleted.")
		return nil
	}
}
