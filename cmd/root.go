package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curator/assets"
	"curator/config"
	"curator/history"
	"curator/llm"
	"curator/task"
	"curator/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curator is an AI-driven file management assistant",
	Long: `Curator runs inside any project folder and turns natural-language
instructions into concrete, reversible file-management actions: moving and
renaming files, running workspace commands, and chaining several such steps
into one plan. Every destructive action is proposed first and can be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath, err := workspace.Detect()
		if err != nil {
			return fmt.Errorf("error detecting workspace: %w", err)
		}

		cfg, err := config.LoadConfig(workspacePath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		if err := workspace.EnsureCuratorDir(workspacePath); err != nil {
			return fmt.Errorf("error creating .curator directory: %w", err)
		}

		logger, err := newLogger(workspacePath)
		if err != nil {
			return fmt.Errorf("error creating logger: %w", err)
		}
		defer logger.Sync()

		adapter, err := llm.CreateAdapter(cfg.Model, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return err
		}

		store := assets.NewStore(workspacePath, logger)
		registry := task.DefaultRegistry(store, logger, cfg.EnableShell,
			time.Duration(cfg.CommandTimeout)*time.Second)

		hist, err := history.NewManager(workspacePath, logger)
		if err != nil {
			return fmt.Errorf("error creating history: %w", err)
		}

		app := &session{
			workspacePath: workspacePath,
			cfg:           cfg,
			log:           logger,
			adapter:       adapter,
			registry:      registry,
			hist:          hist,
		}
		return app.loop()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newLogger writes structured logs into the workspace so the interactive
// loop stays clean.
func newLogger(workspacePath string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{filepath.Join(workspacePath, ".curator", "curator.log")}
	logCfg.ErrorOutputPaths = logCfg.OutputPaths
	return logCfg.Build()
}

// session holds the state of one interactive run.
type session struct {
	workspacePath string
	cfg           *config.Config
	log           *zap.Logger
	adapter       llm.Adapter
	registry      *task.Registry
	hist          *history.Manager

	selection []string
	reader    *bufio.Scanner
}

func (s *session) loop() error {
	s.reader = bufio.NewScanner(os.Stdin)

	color.Cyan("curator: %s", s.workspacePath)
	fmt.Println("Type an instruction, or: select <paths...>, use <Tool> <instruction>, undo, redo, history, clear, quit")

	for {
		fmt.Print("> ")
		if !s.reader.Scan() {
			return nil
		}
		line := strings.TrimSpace(s.reader.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "select":
			s.selection = fields[1:]
			fmt.Printf("Selected %d files.\n", len(s.selection))
		case "selection":
			for _, p := range s.selection {
				fmt.Println("  " + p)
			}
		case "undo":
			s.undo()
		case "redo":
			s.redo()
		case "history":
			s.showHistory()
		case "clear":
			s.hist.Clear()
			fmt.Println("History cleared.")
		case "use":
			if len(fields) < 3 {
				color.Yellow("Usage: use <Tool> <instruction>")
				continue
			}
			s.runSingle(fields[1], strings.Join(fields[2:], " "))
		default:
			s.orchestrate(line)
		}
	}
}

// runSingle drives one task through its full propose/confirm/execute cycle.
func (s *session) runSingle(tool, instruction string) {
	t, err := s.registry.New(tool)
	if err != nil {
		color.Red("%v", err)
		return
	}

	rec := s.hist.Add(instruction, s.selection, t)

	prompt := t.GeneratePrompt(instruction, s.selection)
	if prompt == instruction {
		// Degenerate path: the task needs a selection and has none.
		color.Yellow("Nothing selected. Use 'select <paths...>' first.")
		s.hist.UpdateStatus(rec.ID, "No selection")
		return
	}

	resp, err := s.adapter.Send(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		color.Red("Model request failed: %v", err)
		s.hist.UpdateStatus(rec.ID, "Error")
		return
	}

	if err := t.ProcessResponse(resp.Content); err != nil {
		color.Red("%s", t.Status())
		s.hist.UpdateStatus(rec.ID, t.Status())
		return
	}

	if !s.confirmTask(t) {
		s.hist.UpdateStatus(rec.ID, "Declined")
		return
	}

	t.Execute()
	fmt.Println(t.Status())
	s.hist.UpdateStatus(rec.ID, t.Status())
}

// orchestrate decomposes a goal into steps and drives them, gated per step
// unless auto_chain is enabled.
func (s *session) orchestrate(goal string) {
	mode := task.ModeManual
	if s.cfg.AutoChain {
		mode = task.ModeAuto
	}
	o := task.NewOrchestrator(s.registry, s.adapter, s.log, mode)

	rec := s.hist.Add(goal, s.selection, o)

	prompt := o.GeneratePrompt(goal, s.selection)
	resp, err := s.adapter.Send(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		color.Red("Model request failed: %v", err)
		s.hist.UpdateStatus(rec.ID, "Error")
		return
	}

	if err := o.ProcessResponse(resp.Content); err != nil {
		color.Red("%s", o.Status())
		s.hist.UpdateStatus(rec.ID, o.Status())
		return
	}

	color.Cyan("Plan:")
	for _, line := range o.ProposalSummary() {
		fmt.Println("  " + line)
	}

	if s.cfg.AutoChain {
		o.Execute()
		fmt.Println(o.Status())
		s.hist.UpdateStatus(rec.ID, o.Status())
		return
	}

	for !o.Done() {
		sub, i, err := o.ProposeNext(context.Background(), s.selection)
		if err != nil {
			color.Red("%v", err)
			break
		}
		if sub == nil {
			break
		}

		color.Cyan("Step %d: %s", i+1, sub.Name())
		if !s.confirmTask(sub) {
			o.SkipCurrent()
			continue
		}
		o.ConfirmCurrent()
		fmt.Println(sub.Status())
	}
	s.hist.UpdateStatus(rec.ID, o.Status())
}

// confirmTask shows the proposal and asks for a y/n answer.
func (s *session) confirmTask(t task.Task) bool {
	lines := t.ProposalSummary()
	if len(lines) == 0 {
		color.Yellow("Nothing to do.")
		return false
	}

	color.Cyan("Proposed:")
	for _, line := range lines {
		fmt.Println("  " + line)
	}
	fmt.Print("Apply? [y/N] ")

	if !s.reader.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.reader.Text()))
	return answer == "y" || answer == "yes"
}

func (s *session) undo() {
	rec := s.hist.LastUndoable()
	if rec == nil {
		color.Yellow("Nothing to undo.")
		return
	}
	rec.Task.Undo()
	fmt.Println(rec.Task.Status())
	s.hist.UpdateStatus(rec.ID, rec.Task.Status())
}

func (s *session) redo() {
	rec := s.hist.LastUndone()
	if rec == nil {
		color.Yellow("Nothing to redo.")
		return
	}
	rec.Task.Execute()
	fmt.Println(rec.Task.Status())
	s.hist.UpdateStatus(rec.ID, rec.Task.Status())
}

func (s *session) showHistory() {
	records := s.hist.All()
	if len(records) == 0 {
		fmt.Println("No interactions yet.")
		return
	}
	for _, rec := range records {
		state := ""
		if rec.Task != nil {
			state = string(rec.Task.State())
		}
		fmt.Printf("  %s  %-10s %s: %s\n",
			rec.CreatedAt.Format("15:04:05"), state, rec.Instruction, rec.Status)
	}
}
