// Package main is the entry point for the stis-uploader application
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/myusername/stis-uploader/internal/config"
	"github.com/myusername/stis-uploader/internal/utils"
	"github.com/myusername/stis-uploader/pkg/filler"
	"github.com/myusername/stis-uploader/pkg/models"
	"github.com/myusername/stis-uploader/pkg/parser"
	"github.com/myusername/stis-uploader/pkg/scraper"
)

// Version is set during build using ldflags
var (
	version = "dev"
)

const bootLogName = "stis_boot.log"

type options struct {
	xlsx       string
	team       string
	envFile    string
	reportPath string
	headless   bool
	dryRun     bool
	version    bool
}

// usageError marks failures caused by how the program was called
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func main() {
	boot("=== start ===")
	boot("argv: " + strings.Join(os.Args, " "))
	defer func() {
		if r := recover(); r != nil {
			boot(fmt.Sprintf("CRASH: %v\n%s", r, debug.Stack()))
			boot("=== end ===")
			panic(r)
		}
	}()

	code := 0
	if err := run(os.Args[1:], os.Stdout); err != nil {
		code = report(err)
	} else {
		boot("finished OK")
	}
	boot("=== end ===")
	os.Exit(code)
}

// report prints a failure for the user and returns the exit code
func report(err error) int {
	boot("ERROR: " + err.Error())

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Startup failed right away (bad or incomplete arguments?): %v\n", err)
		fmt.Fprintf(os.Stderr, "Check how the tool is called. %s in %s or next to the program has details.\n", bootLogName, os.TempDir())
		return 2
	}
	var ce *parser.ConfigError
	if errors.As(err, &ce) {
		fmt.Fprintf(os.Stderr, "The workbook is not set up correctly: %v\n", err)
		return 1
	}
	var sve *filler.SubmitValidationError
	if errors.As(err, &sve) {
		fmt.Fprintf(os.Stderr, "The registry rejected the match header: %s\n", strings.Join(sve.Messages, "; "))
		return 1
	}
	var ne *filler.NavigationError
	if errors.As(err, &ne) && ne.Dumped {
		fmt.Fprintf(os.Stderr, "Error: %v\nThe page was saved next to the workbook (*.online_dump.html, *.online_dump.png).\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Error: %v\nDetails are in %s.\n", err, bootLogName)
	return 1
}

// parseFlags reads the command line. --xlsx and --excel are the same flag;
// the browser window is shown unless --headless is given.
func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("stis-uploader", flag.ContinueOnError)
	fs.StringVar(&opts.xlsx, "xlsx", "", "Path to the match workbook")
	fs.StringVar(&opts.xlsx, "excel", "", "Alias of --xlsx")
	fs.StringVar(&opts.team, "team", "", "Team name as written in the Teams table")
	headed := fs.Bool("headed", true, "Show the browser window and leave it open at the end (default)")
	fs.BoolVar(&opts.headless, "headless", false, "Run the browser without a window and close it at the end")
	fs.StringVar(&opts.envFile, "env", "", "Settings file (default: .env next to the workbook, then in the working directory)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Read and print the lineup without opening the browser")
	fs.StringVar(&opts.reportPath, "report", "", "Write a CSV report of the run to this file")
	fs.BoolVar(&opts.version, "version", false, "Print version information and exit")

	if err := fs.Parse(args); err != nil {
		return opts, &usageError{msg: err.Error()}
	}
	if opts.version {
		return opts, nil
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["headed"] && set["headless"] && *headed == opts.headless {
		return opts, &usageError{msg: "--headed and --headless contradict each other"}
	}
	if set["headed"] && !set["headless"] {
		opts.headless = !*headed
	}
	if fs.NArg() > 0 {
		return opts, &usageError{msg: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	if opts.xlsx == "" {
		return opts, &usageError{msg: "missing --xlsx"}
	}
	if opts.team == "" {
		return opts, &usageError{msg: "missing --team"}
	}
	return opts, nil
}

// logPath is the run log written next to the workbook
func logPath(xlsxPath string, now time.Time) string {
	stem := strings.TrimSuffix(xlsxPath, filepath.Ext(xlsxPath))
	return fmt.Sprintf("%s_stis_%s.log", stem, now.Format("20060102_150405"))
}

// setupLogging sends the standard logger to stdout and the run log file
func setupLogging(xlsxPath string, stdout io.Writer) (func(), error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	path := logPath(xlsxPath, time.Now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(stdout)
		return func() {}, fmt.Errorf("failed to create log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(stdout, f))
	log.Printf("Logging to %s", path)
	return func() {
		log.SetOutput(stdout)
		f.Close()
	}, nil
}

// envFiles lists the settings files to try, most specific first
func envFiles(opts options, xlsxPath string) []string {
	if opts.envFile != "" {
		return []string{opts.envFile}
	}
	return []string{filepath.Join(filepath.Dir(xlsxPath), ".env"), ".env"}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "stis-uploader version %s\n", version)
		return nil
	}

	xlsxPath, err := filepath.Abs(opts.xlsx)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("bad workbook path %q: %v", opts.xlsx, err)}
	}
	if _, err := os.Stat(xlsxPath); err != nil {
		return &usageError{msg: fmt.Sprintf("workbook does not exist: %s", xlsxPath)}
	}

	closeLog, err := setupLogging(xlsxPath, stdout)
	if err != nil {
		log.Printf("Continuing without a log file: %v", err)
	}
	defer closeLog()

	runID := uuid.NewString()
	log.Println("==== stis-uploader start ====")
	defer log.Println("==== stis-uploader end ====")
	log.Printf("Version: %s", version)
	log.Printf("Run: %s", runID)
	log.Printf("XLSX: %s", xlsxPath)
	log.Printf("Team: %s", opts.team)
	log.Printf("Headless: %v", opts.headless)

	cfg, err := config.Load(envFiles(opts, xlsxPath)...)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	wb, err := parser.Open(xlsxPath)
	if err != nil {
		return err
	}
	defer wb.Close()

	creds, team, err := wb.Config(opts.team, models.Credentials{Login: cfg.Login, Password: cfg.Password})
	if err != nil {
		return err
	}
	log.Printf("Login OK; team: %s ID: %s", team.Name, team.ID)

	lineup, err := wb.Lineup()
	if err != nil {
		return err
	}
	log.Printf("Lineup: %d doubles, %d singles", len(lineup.Doubles), len(lineup.Singles))
	utils.DisplayLineup(stdout, team, lineup)

	if opts.dryRun {
		log.Println("Dry run, not opening the browser")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Launching browser, headless = %v", opts.headless)
	browser, err := scraper.Launch(ctx, cfg, opts.headless)
	if err != nil {
		return err
	}
	defer browser.Close()

	f := filler.New(browser, filler.Options{Config: cfg, WorkbookPath: xlsxPath, RunID: runID})
	rep, runErr := f.Run(ctx, creds, team, lineup)
	utils.DisplayReport(stdout, rep)

	if opts.reportPath != "" {
		if err := utils.SaveReportToCSV(rep, opts.reportPath); err != nil {
			log.Printf("Error saving CSV report: %v", err)
		} else {
			log.Printf("Saved report to %s", opts.reportPath)
		}
	}
	if runErr != nil {
		return runErr
	}

	if !opts.headless {
		log.Println("Leaving browser open for manual finish")
		fmt.Fprintln(stdout, "✅ Online form loaded, finish it by hand. Close the browser window when done.")
		if err := browser.WaitClosed(ctx); err != nil {
			log.Printf("Stopped waiting for the browser: %v", err)
		}
	}
	return nil
}

// boot appends a line to the boot logs in the temp directory and next to
// the executable. It works before flags are parsed and never fails.
func boot(msg string) {
	line := time.Now().Format("2006-01-02 15:04:05") + " " + msg + "\n"
	for _, path := range bootLogPaths() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			continue
		}
		f.WriteString(line)
		f.Close()
	}
}

func bootLogPaths() []string {
	paths := []string{filepath.Join(os.TempDir(), bootLogName)}
	if exe, err := os.Executable(); err == nil {
		if p := filepath.Join(filepath.Dir(exe), bootLogName); p != paths[0] {
			paths = append(paths, p)
		}
	}
	return paths
}
