package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/OCAP2/gunplay/internal/config"
	"github.com/OCAP2/gunplay/internal/database"
	"github.com/OCAP2/gunplay/internal/storage/memory"
	gormstorage "github.com/OCAP2/gunplay/internal/storage/gorm"
	"github.com/OCAP2/gunplay/internal/weapon"
)

const usage = `usage: gunplay <command> [flags] [args]

commands:
  run <scenario.yaml>            play a scenario and journal it
  validate <catalog.yaml|dir>... check weapon catalogs
  export <sqlite.db> <session>   write a journaled session as JSON
  sessions <sqlite.db>           list the sessions of a journal
  version                        print the version
`

// errUsage marks command line mistakes; they exit with status 2.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return 2
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "run":
		err = runCmd(ctx, args[1:], out)
	case "validate":
		err = validateCmd(args[1:], out)
	case "export":
		err = exportCmd(args[1:], out)
	case "sessions":
		err = sessionsCmd(args[1:], out)
	case "version":
		fmt.Fprintf(out, "gunplay %s (built %s)\n", Version, BuildDate)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(errOut, "Error: %v\n\n%s", err, usage)
		return 2
	default:
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s", errUsage, err)
	}
	return nil
}

// runCmd plays one scenario. Flags override the config file.
func runCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("run")
	configDir := fs.StringP("config", "c", ".", "directory holding "+config.FileName)
	fs.String("storage", "", "journal backend: memory, sqlite or postgres")
	fs.StringP("out", "o", "", "directory for session exports and journal dumps")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
	fs.String("logs-dir", "", "directory for log files; empty logs to stdout")
	fs.Bool("realtime", false, "pace the run to wall time")
	fs.Bool("monitor", true, "sample performance while running")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: run takes exactly one scenario file", errUsage)
	}

	if err := config.Load(*configDir); err != nil {
		return err
	}
	for flag, keys := range map[string][]string{
		"storage":    {"storage.type"},
		"out":        {"storage.memory.outputDir", "storage.sqlite.outputDir"},
		"log-level":  {"logLevel"},
		"log-format": {"logFormat"},
		"logs-dir":   {"logsDir"},
		"realtime":   {"realtime"},
		"monitor":    {"monitor.enabled"},
	} {
		for _, key := range keys {
			if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
	}

	a, err := newApp(time.Now())
	if err != nil {
		return err
	}
	defer a.close()
	return a.play(ctx, fs.Arg(0), out)
}

// validateCmd loads every catalog given, files or directories of them,
// and reports each one.
func validateCmd(args []string, out io.Writer) error {
	fs := newFlagSet("validate")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: validate takes at least one catalog", errUsage)
	}

	failed := 0
	for _, path := range fs.Args() {
		cat, err := loadCatalog(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: invalid\n  %s\n", path, strings.ReplaceAll(err.Error(), "\n", "\n  "))
			continue
		}
		grenade := "no grenade"
		if cat.Grenade != nil {
			grenade = "grenade " + cat.Grenade.Prefab
		}
		fmt.Fprintf(out, "%s: ok, %d weapons (%s), %s\n", path, len(cat.Weapons), strings.Join(cat.Names(), ", "), grenade)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d catalogs invalid", failed, fs.NArg())
	}
	return nil
}

func loadCatalog(path string) (*weapon.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return weapon.LoadCatalogDir(path)
	}
	return weapon.LoadCatalog(path)
}

// exportCmd replays a journaled session from a sqlite dump into the JSON
// exporter.
func exportCmd(args []string, out io.Writer) error {
	fs := newFlagSet("export")
	outDir := fs.StringP("out", "o", ".", "directory to write the export to")
	compress := fs.Bool("compress", false, "gzip the export")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: export takes a journal and a session id", errUsage)
	}
	id, err := strconv.ParseUint(fs.Arg(1), 10, 0)
	if err != nil || id == 0 {
		return fmt.Errorf("%w: bad session id %q", errUsage, fs.Arg(1))
	}

	db, closeDB, err := openJournal(fs.Arg(0))
	if err != nil {
		return err
	}
	defer closeDB()

	dst := memory.New(config.MemoryConfig{OutputDir: *outDir, CompressOutput: *compress})
	if err := gormstorage.Replay(db, uint(id), dst); err != nil {
		return err
	}
	fmt.Fprintln(out, dst.ExportedFilePath())
	return nil
}

// sessionsCmd lists the sessions of a sqlite dump, newest first.
func sessionsCmd(args []string, out io.Writer) error {
	fs := newFlagSet("sessions")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: sessions takes one journal", errUsage)
	}

	db, closeDB, err := openJournal(fs.Arg(0))
	if err != nil {
		return err
	}
	defer closeDB()

	sessions, err := gormstorage.Sessions(db)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTARTED\tTICK RATE\tSCENARIO")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%s\n", s.ID, s.Name, s.StartTime.UTC().Format(time.RFC3339), s.TickRate, s.Scenario)
	}
	return tw.Flush()
}

// openJournal opens an existing sqlite journal file. sqlite would create
// a missing one, so its absence is checked first.
func openJournal(path string) (db *gorm.DB, closeDB func(), err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}
	db, err = database.GetSqliteDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}
