package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/internal/config"
	"github.com/dapurmbg/kitchen-attendance/pkg/capture"
	"github.com/dapurmbg/kitchen-attendance/pkg/clients/geminiclient"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/services"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/workflow"
	"github.com/dapurmbg/kitchen-attendance/pkg/db"
	"github.com/dapurmbg/kitchen-attendance/pkg/statefile"
	"github.com/dapurmbg/kitchen-attendance/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg       *config.Config
	table     schedule.Table
	evaluator *schedule.Evaluator
	database  *db.DB
	gemini    *geminiclient.Client
	logger    *zap.Logger
	ctx       context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Dapur MBG attendance CLI - volunteer check-in and check-out tracking",
		Long: `A CLI tool for tracking volunteer attendance at a community kitchen:
clock-in/clock-out with shift-timing rules, photo verification, and
AI-assisted operational reporting.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects kitchen_config.<env>.yaml when present)")

	rootCmd.AddCommand(checkInCmd())
	rootCmd.AddCommand(checkOutCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(volunteersCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(kioskCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, state store, and the Gemini client
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	logEnv := env
	if logEnv == "" {
		logEnv = "local"
	}
	app.logger, err = logging.InitLogger(logEnv)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", logEnv))

	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded", zap.String("site", app.cfg.SiteName))

	app.table, err = app.cfg.ShiftTable()
	if err != nil {
		return fmt.Errorf("failed to build shift table: %w", err)
	}
	app.evaluator = schedule.NewEvaluator(app.table, app.cfg.ArrivalBuffer(), app.cfg.EarlyWindow())

	state, err := statefile.Open(app.cfg.StatePath, app.logger)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	app.database, err = db.NewDB(state, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.logger.Info("Local state loaded", zap.String("path", state.Path()))

	// The Gemini client is optional: without an API key every AI call falls
	// back to its neutral result and attendance still works
	if app.cfg.GeminiAPIKey != "" {
		app.gemini, err = geminiclient.NewClient(app.ctx, app.cfg.GeminiAPIKey, app.cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
		app.logger.Debug("Gemini client initialized", zap.String("model", app.cfg.Gemini.Model))
	} else {
		app.logger.Warn("GEMINI_API_KEY not set, AI features will use fallbacks")
	}

	return nil
}

// newWorkflow wires an attendance workflow from the app dependencies
func newWorkflow(navigate func()) *workflow.Workflow {
	var camera capture.Camera
	switch {
	case app.cfg.Camera.PhotoPath != "":
		camera = capture.NewFileCamera(app.cfg.Camera.PhotoPath)
	case len(app.cfg.Camera.CaptureCommand) > 0:
		camera = capture.NewCommandCamera(app.cfg.Camera.CaptureCommand)
	}

	var verifier workflow.PhotoVerifier
	if app.gemini != nil {
		verifier = app.gemini
	}

	return workflow.New(workflow.Options{
		Records:    app.database,
		Volunteers: app.database,
		Evaluator:  app.evaluator,
		Verifier:   verifier,
		Camera:     camera,
		Locator: capture.NewStaticLocator(model.Location{
			Latitude:  app.cfg.Location.Latitude,
			Longitude: app.cfg.Location.Longitude,
			Accuracy:  app.cfg.Location.Accuracy,
		}),
		Logger:        app.logger,
		PhotoDir:      "photos",
		VerifyTimeout: app.cfg.GeminiTimeout(),
		CommitDelay:   time.Second,
		Navigate:      navigate,
	})
}

func checkInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <volunteer-name>",
		Short: "Clock a volunteer in (shift-timing rules apply)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttendance(args[0], model.ClockIn)
		},
	}
}

func checkOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <volunteer-name>",
		Short: "Clock a volunteer out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttendance(args[0], model.ClockOut)
		},
	}
}

func runAttendance(query string, eventType model.EventType) error {
	wf := newWorkflow(nil)

	result, err := services.RunAttendance(app.ctx, wf, app.logger, query, eventType)
	if errors.Is(err, workflow.ErrTooEarly) {
		fmt.Printf("\n✗ %v\n\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *workflow.Result) {
	record := result.Record

	fmt.Printf("\n✓ Attendance recorded!\n\n")
	fmt.Printf("Volunteer:  %s (%s)\n", record.VolunteerName, record.Activity)
	fmt.Printf("Event:      %s\n", record.Type)
	fmt.Printf("Status:     %s\n", record.Status)
	fmt.Printf("Time:       %s\n", record.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Location:   %.5f, %.5f (±%.0fm)\n",
		record.Location.Latitude, record.Location.Longitude, record.Location.Accuracy)
	if record.PhotoRef != "" {
		fmt.Printf("Photo:      %s\n", record.PhotoRef)
	}
	fmt.Printf("Verified:   %t\n", record.IsVerified)
	if record.VerificationNote != "" {
		fmt.Printf("Note:       %s\n", record.VerificationNote)
	}
	fmt.Println()
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name> <phone> <role>",
		Short: "Register a new volunteer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteer, err := services.RegisterVolunteer(app.database, app.table, app.logger,
				args[0], args[1], args[2])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Volunteer registered: %s (%s), role %s\n\n",
				volunteer.Name, volunteer.Phone, volunteer.DefaultRole)
			return nil
		},
	}
}

func volunteersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volunteers",
		Short: "List registered volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteers := app.database.Volunteers()

			fmt.Printf("\nFound %d volunteers:\n\n", len(volunteers))
			for _, v := range volunteers {
				fmt.Printf("- %s (%s) - %s - joined %s\n",
					v.Name, v.DefaultRole, v.Phone, v.JoinDate.Format("2006-01-02"))
			}
			fmt.Println()
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show attendance records, newest first (defaults to today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			date, _ := cmd.Flags().GetString("date")

			var records []model.AttendanceRecord
			switch {
			case all:
				records = app.database.Records()
			case date != "":
				day, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
				}
				records = app.database.OnDate(day)
			default:
				records = app.database.Today(time.Now())
			}

			printHistory(records)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Show the entire attendance log")
	cmd.Flags().String("date", "", "Show records for a specific day (YYYY-MM-DD)")

	return cmd
}

func printHistory(records []model.AttendanceRecord) {
	fmt.Printf("\n%d records:\n\n", len(records))
	for _, r := range records {
		marker := "✓"
		if !r.IsVerified {
			marker = "⚠"
		}
		fmt.Printf("%s %s  %-9s %-8s %s (%s)\n",
			marker,
			r.Timestamp.Format("2006-01-02 15:04"),
			r.Type, r.Status, r.VolunteerName, r.Activity)
		if r.VerificationNote != "" {
			fmt.Printf("    %s\n", r.VerificationNote)
		}
	}
	fmt.Println()
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's attendance stats and the AI operations analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var analyzer services.OperationalAnalyzer
			if app.gemini != nil {
				analyzer = app.gemini
			}

			result := services.Dashboard(app.ctx, app.database, app.database,
				analyzer, app.table, app.logger, time.Now())

			fmt.Printf("\n%s — today\n\n", app.cfg.SiteName)
			fmt.Printf("Present:          %d volunteers\n", result.PresentToday)
			fmt.Printf("Late arrivals:    %d\n", result.LateToday)
			fmt.Printf("Registered total: %d\n", result.TotalVolunteers)
			fmt.Printf("Target portions:  %d (Makan Bergizi Gratis)\n\n", result.TargetPortions)

			fmt.Printf("AI Analysis:\n")
			fmt.Printf("  %s\n", result.Analysis.Summary)
			fmt.Printf("  Attendance rate:    %.1f%%\n", result.Analysis.AttendanceRate)
			fmt.Printf("  Predicted portions: %d\n", result.Analysis.PredictedPortions)
			if len(result.Analysis.RoleBreakdown) > 0 {
				fmt.Printf("  Role breakdown:\n")
				for role, count := range result.Analysis.RoleBreakdown {
					fmt.Printf("    %-14s %d\n", role, count)
				}
			}
			for _, anomaly := range result.Analysis.Anomalies {
				fmt.Printf("  ⚠ %s\n", anomaly)
			}
			fmt.Println()
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate the coordinator's daily operational report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var generator services.ReportGenerator
			if app.gemini != nil {
				generator = app.gemini
			}

			report := services.DailyReport(app.ctx, app.database, generator, app.logger)
			fmt.Printf("\n%s\n\n", report)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the attendance log to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			if err := services.ExportRecords(app.database.Records(), out, app.logger); err != nil {
				return err
			}
			fmt.Printf("\n✓ Exported to %s\n\n", out)
			return nil
		},
	}

	cmd.Flags().String("out", "attendance.xlsx", "Output file path")

	return cmd
}

const houseRules = `Peraturan & Jadwal Operasional

1. Relawan WAJIB HADIR 30 MENIT SEBELUM jam operasional role masing-masing.
2. APD (Masker, Apron, Hairnet) wajib dipakai sebelum foto absensi.
3. Jika nama Anda tidak ada di database, wajib lapor admin untuk input data baru.
4. Kehadiran minimal 80% untuk bonus insentif.
5. Sistem AI akan mendeteksi otomatis jika Anda terlambat atau pulang awal.`

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the house rules and operational schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accept, _ := cmd.Flags().GetBool("accept")

			fmt.Printf("\n%s\n\n", houseRules)
			fmt.Println("Jadwal:")
			for _, role := range app.table.Roles() {
				window, _ := app.table.Lookup(role)
				fmt.Printf("  %-14s %s-%s  %s\n", role, window.Start, window.End, window.Description)
			}
			fmt.Println()

			if accept {
				if err := app.database.AcceptRules(); err != nil {
					return err
				}
				fmt.Println("✓ Rules accepted")
			} else if !app.database.RulesAccepted() {
				fmt.Println("Rules not yet accepted. Run 'rules --accept' to confirm.")
			}
			return nil
		},
	}

	cmd.Flags().Bool("accept", false, "Record acceptance of the house rules")

	return cmd
}

func kioskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kiosk",
		Short: "Start an interactive attendance session",
		Long: `Start an interactive attendance kiosk: search for a volunteer, clock in
or out with live timing checks, retry a capture, or switch volunteer.
The session keeps running until you type 'exit' or 'quit'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKiosk()
		},
	}
}

func runKiosk() error {
	scanner := bufio.NewScanner(os.Stdin)

	// One-time rules gate on first launch
	if !app.database.RulesAccepted() {
		fmt.Printf("\n%s\n\n", houseRules)
		fmt.Print("Type 'setuju' to accept the rules and continue: ")
		if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "setuju") {
			fmt.Println("Rules not accepted. Exiting.")
			return nil
		}
		if err := app.database.AcceptRules(); err != nil {
			return err
		}
		fmt.Println("✓ Rules accepted")
	}

	wf := newWorkflow(func() {
		fmt.Println("\n--- Riwayat hari ini ---")
		printHistory(app.database.Today(time.Now()))
		fmt.Print("> ")
	})
	defer wf.Reset()

	fmt.Println("\n🍲 Attendance kiosk —", app.cfg.SiteName)
	fmt.Println("Type 'help' for commands, 'exit' or 'quit' to leave")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		verb := strings.ToLower(parts[0])
		rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

		if verb == "exit" || verb == "quit" {
			fmt.Println("👋 Sampai jumpa!")
			return scanner.Err()
		}

		switch wf.State() {
		case workflow.StateSelectingVolunteer:
			handleSelection(wf, scanner, verb, rest)
		case workflow.StateCapturingInput:
			handleCapture(wf, verb)
		case workflow.StateRecordCommitted:
			handleCommitted(wf, verb)
		default:
			fmt.Println("⏳ Processing, please wait...")
		}
	}

	return scanner.Err()
}

func handleSelection(wf *workflow.Workflow, scanner *bufio.Scanner, verb, rest string) {
	switch verb {
	case "help":
		fmt.Println("  search <name>   find volunteers by name")
		fmt.Println("  list            show all volunteers")
		fmt.Println("  exit            leave the kiosk")
	case "search", "list":
		matches := wf.FilterVolunteers(rest)
		if len(matches) == 0 {
			fmt.Println("No volunteers found. Ask the admin to register you.")
			return
		}
		for i, v := range matches {
			fmt.Printf("  %2d. %s (%s)\n", i+1, v.Name, v.DefaultRole)
		}
		fmt.Print("Select number (or blank to cancel): ")
		if !scanner.Scan() {
			return
		}
		choice := strings.TrimSpace(scanner.Text())
		if choice == "" {
			return
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(matches) {
			fmt.Println("❌ Invalid selection")
			return
		}
		selected := matches[n-1]
		wf.Select(selected)
		if window, ok := app.table.Lookup(selected.DefaultRole); ok {
			fmt.Printf("Shift %s: %s-%s (%s)\n",
				selected.DefaultRole, window.Start, window.End, window.Description)
		}
		fmt.Println("Commands: in, out, status, back")
	default:
		fmt.Println("❌ Unknown command (type 'help')")
	}
}

func handleCapture(wf *workflow.Workflow, verb string) {
	switch verb {
	case "in", "out":
		eventType := model.ClockIn
		if verb == "out" {
			eventType = model.ClockOut
		}
		commitFromKiosk(wf, eventType)
	case "status":
		if wf.LocationReady() {
			fmt.Println("📍 Location fix acquired")
		} else {
			fmt.Println("📍 Searching for location...")
		}
	case "back":
		wf.Reset()
		fmt.Println("Back to volunteer selection")
	case "help":
		fmt.Println("  in       clock in")
		fmt.Println("  out      clock out")
		fmt.Println("  status   show location acquisition status")
		fmt.Println("  back     change volunteer")
	default:
		fmt.Println("❌ Unknown command (type 'help')")
	}
}

func commitFromKiosk(wf *workflow.Workflow, eventType model.EventType) {
	var result *workflow.Result
	var err error
	if eventType == model.ClockIn {
		result, err = wf.ClockIn(app.ctx)
	} else {
		result, err = wf.ClockOut(app.ctx)
	}

	switch {
	case errors.Is(err, workflow.ErrNoLocationFix):
		fmt.Println("📍 Sistem belum siap: searching for location...")
	case errors.Is(err, workflow.ErrTooEarly):
		fmt.Printf("✗ %v\n", err)
	case err != nil:
		fmt.Printf("❌ Error: %v\n", err)
	default:
		printResult(result)
		fmt.Println("Commands: retry, done")
	}
}

func handleCommitted(wf *workflow.Workflow, verb string) {
	switch verb {
	case "retry":
		if err := wf.Retry(); err != nil {
			fmt.Printf("❌ Error: %v\n", err)
			return
		}
		fmt.Println("Capture discarded. Commands: in, out, status, back")
	case "done", "back":
		wf.Reset()
		fmt.Println("Back to volunteer selection")
	case "help":
		fmt.Println("  retry    discard the capture and try again")
		fmt.Println("  done     finish and return to volunteer selection")
	default:
		fmt.Println("❌ Unknown command (type 'help')")
	}
}
