package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskrules/pkg/auth"
	"github.com/harrisonrobin/taskrules/pkg/colors"
	"github.com/harrisonrobin/taskrules/pkg/config"
	"github.com/harrisonrobin/taskrules/pkg/engine"
	"github.com/harrisonrobin/taskrules/pkg/export"
	"github.com/harrisonrobin/taskrules/pkg/google"
	"github.com/harrisonrobin/taskrules/pkg/index"
	"github.com/harrisonrobin/taskrules/pkg/ingest"
	"github.com/harrisonrobin/taskrules/pkg/model"
	"github.com/harrisonrobin/taskrules/pkg/overdue"
	"github.com/harrisonrobin/taskrules/pkg/rules"
)

var rootCmd = &cobra.Command{
	Use:   "taskrules",
	Short: "Rule-driven task normalization and calendar sync",
	Long: `taskrules ingests task data from JSON, CSV or extracted document text,
applies a user-editable rule set to derive properties (project, assignee,
time window, priority, label), and can push the processed tasks onto a
Google Calendar.`,
	SilenceUsage: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Parse a rules/tasks/people file and report what it contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		saveRules, _ := cmd.Flags().GetBool("save-rules")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		format, err := ingest.DetectFormat(filepath.Base(args[0]), "")
		if err != nil {
			return err
		}

		result := ingest.Parse(string(data), format)
		log.Info("parsed",
			"format", format,
			"rules", len(result.Rules),
			"tasks", len(result.Tasks),
			"people", len(result.People),
			"errors", len(result.Errors))
		for _, e := range result.Errors {
			log.Warn(e)
		}

		if saveRules && len(result.Rules) > 0 {
			store, err := rules.Open()
			if err != nil {
				return err
			}
			for _, r := range result.Rules {
				store.Add(r)
			}
			if err := store.Save(); err != nil {
				return err
			}
			log.Info("saved rules to store", "added", len(result.Rules))
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Apply the rule store to tasks and print the processed tasks",
	Long: `Reads a tagged-object JSON document (or any supported format when a file
name with a recognizable suffix is given; stdin is treated as JSON), runs
every task through the enabled rules, and prints the processed tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := readTasks(cmd, args)
		if err != nil {
			return err
		}

		store, err := rules.Open()
		if err != nil {
			return err
		}
		eng := engine.New(store.Rules)
		return writeJSON(cmd.OutOrStdout(), eng.ProcessTasks(tasks))
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule store",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := rules.Open()
		if err != nil {
			return err
		}
		for _, r := range store.Rules {
			state := " "
			if !r.Enabled {
				state = "-"
			}
			effects := make([]string, 0, len(r.Then))
			for k, v := range r.Then {
				effects = append(effects, fmt.Sprintf("%s=%s", k, v))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s if %q then %s\n", state, r.ID, r.If, strings.Join(effects, ", "))
		}
		return store.Save() // persists the seeded defaults on first run
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a rule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		condition, _ := cmd.Flags().GetString("if")
		effects, _ := cmd.Flags().GetStringArray("then")
		if condition == "" || len(effects) == 0 {
			return fmt.Errorf("both --if and at least one --then key=value are required")
		}

		then := model.Properties{}
		for _, pair := range effects {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("invalid --then %q: expected key=value", pair)
			}
			then[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}

		store, err := rules.Open()
		if err != nil {
			return err
		}
		rule := model.Rule{
			ID:      "rule-" + uuid.NewString(),
			If:      condition,
			Then:    then,
			Enabled: true,
		}
		store.Add(rule)
		if err := store.Save(); err != nil {
			return err
		}
		log.Info("rule added", "id", rule.ID)
		return nil
	},
}

func ruleToggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rules.Open()
			if err != nil {
				return err
			}
			if !store.SetEnabled(args[0], enabled) {
				return fmt.Errorf("no rule with id %q", args[0])
			}
			return store.Save()
		},
	}
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <rule-id>",
	Short: "Remove a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rules.Open()
		if err != nil {
			return err
		}
		if !store.Remove(args[0]) {
			return fmt.Errorf("no rule with id %q", args[0])
		}
		return store.Save()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Process tasks and sync them to Google Calendar",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tasks, err := readTasks(cmd, args)
		if err != nil {
			return err
		}
		store, err := rules.Open()
		if err != nil {
			return err
		}
		processed := engine.New(store.Rules).ProcessTasks(tasks)

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		calendarName, _ := cmd.Flags().GetString("calendar")
		if calendarName == "" {
			calendarName = cfg.Calendar
		}

		evtIndex, err := index.NewEventIndex()
		if err != nil {
			log.Warn("failed to open event index", "err", err)
		}
		sweepTable, err := overdue.NewTable()
		if err != nil {
			log.Warn("failed to open overdue sweep table", "err", err)
		}
		palette, err := colors.NewCache()
		if err != nil {
			log.Warn("failed to open project color cache", "err", err)
		}

		client, err := google.NewClient(ctx, calendarName, evtIndex)
		if err != nil {
			return err
		}

		// Re-title events whose scheduled time has passed since last run.
		if sweepTable != nil {
			for _, entry := range sweepTable.Sweep(time.Now()) {
				patch := &calendar.Event{Summary: "! " + entry.Title}
				if _, err := client.PatchEvent(entry.EventID, patch); err != nil {
					log.Warn("sweep: could not patch event", "event", entry.EventID, "err", err)
				}
			}
			if err := sweepTable.Save(); err != nil {
				log.Warn("failed to save sweep table", "err", err)
			}
		}

		synced := 0
		for _, t := range processed {
			event, err := export.EventFromTask(&t, palette)
			if err != nil {
				log.Warn("skipping task", "task", t.ID, "err", err)
				continue
			}
			created, err := client.SyncEvent(t.ID, event)
			if err != nil {
				log.Error("sync failed", "task", t.ID, "err", err)
				continue
			}
			synced++
			if sweepTable != nil && t.Status == model.StatusPending {
				if scheduled, ok := export.StartTime(&t); ok {
					sweepTable.Track(t.ID, created.Id, t.Title, scheduled)
				}
			}
		}
		log.Info("export complete", "calendar", calendarName, "synced", synced, "total", len(processed))

		if sweepTable != nil {
			if err := sweepTable.Save(); err != nil {
				log.Warn("failed to save sweep table", "err", err)
			}
		}
		if evtIndex != nil {
			if err := evtIndex.Save(); err != nil {
				log.Warn("failed to save event index", "err", err)
			}
		}
		if palette != nil {
			if err := palette.Save(); err != nil {
				log.Warn("failed to save color cache", "err", err)
			}
		}
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Calendar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		xdgHome, err := auth.GetXdgHome()
		if err != nil {
			return err
		}
		tokenPath := filepath.Join(xdgHome, auth.TokenFile)
		if _, err := os.Stat(tokenPath); err == nil {
			log.Info("removing existing token", "path", tokenPath)
			if err := os.Remove(tokenPath); err != nil {
				return fmt.Errorf("could not delete token file %s: %w", tokenPath, err)
			}
		}

		if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		log.Info("authentication successful", "token", tokenPath)
		return nil
	},
}

var setCalendarCmd = &cobra.Command{
	Use:   "set-calendar <name>",
	Short: "Set the default Google Calendar name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(&config.Config{Calendar: args[0]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
		return nil
	},
}

// readTasks loads tasks from a file (format detected by suffix) or, with no
// argument, from stdin treated as a tagged-object JSON document.
func readTasks(cmd *cobra.Command, args []string) ([]model.Task, error) {
	var content []byte
	format := ingest.FormatTagged
	var err error

	if len(args) == 1 {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		format, err = ingest.DetectFormat(filepath.Base(args[0]), "")
		if err != nil {
			return nil, err
		}
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
	}

	result := ingest.Parse(string(content), format)
	for _, e := range result.Errors {
		log.Warn(e)
	}
	return result.Tasks, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ingestCmd.Flags().Bool("json", false, "print the full parse result as JSON")
	ingestCmd.Flags().Bool("save-rules", false, "merge ingested rules into the rule store")
	rulesAddCmd.Flags().String("if", "", "rule condition phrase")
	rulesAddCmd.Flags().StringArray("then", nil, "effect as key=value (repeatable)")
	exportCmd.Flags().String("calendar", "", "Google Calendar name (overrides config)")

	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd,
		ruleToggleCmd("enable", "Enable a rule", true),
		ruleToggleCmd("disable", "Disable a rule", false),
		rulesRemoveCmd)
	rootCmd.AddCommand(ingestCmd, processCmd, rulesCmd, exportCmd, authCmd, setCalendarCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
