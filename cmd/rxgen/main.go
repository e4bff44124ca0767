package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rxgen/internal/cache"
	"rxgen/internal/pipeline"
	"rxgen/internal/project"
	"rxgen/internal/watch"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Create an rxgen.yaml for the current project",
		usage: "rxgen init [dir]",
		long: `Create an rxgen.yaml configuration file in dir (default ".").

Prompts for package patterns, template directories and cache settings.

Errors if the file already exists.
`,
		run: runInit,
	},
	{
		name:  "check",
		short: "Analyze models and report diagnostics without generating",
		usage: "rxgen check [dir] [--report]",
		long: `Run the full analysis over every configured package and print
the complete diagnostic list. Nothing is written to the source tree.

With --report, also writes a machine-readable YAML report to the
path configured as report: in rxgen.yaml.

Exits non-zero when any error-severity diagnostic is found.
`,
		run: runCheck,
	},
	{
		name:  "generate",
		short: "Generate companion files for every valid model",
		usage: "rxgen generate [dir] [--no-cache]",
		long: `Analyze every configured package and write the generated
companion files and the package registry next to the sources.

Models with error diagnostics are skipped and reported as a single
suppression notice each; valid models in the same package still
generate. Packages whose inputs are unchanged since the last run are
skipped unless --no-cache is given.
`,
		run: runGenerate,
	},
	{
		name:  "watch",
		short: "Watch sources and regenerate on change",
		usage: "rxgen watch [dir]",
		long: `Watch the project tree and re-run generation whenever a source,
template or configuration file changes. Stop with Ctrl-C.
`,
		run: runWatch,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "rxgen — reactive view-model code generation\n\n")
	fmt.Fprintf(w, "Usage:\n  rxgen <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'rxgen help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "rxgen: unknown command %q\n\nRun 'rxgen help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'rxgen help' for usage.", args[0])
}

// splitArgs separates the optional positional dir from flags. Unknown
// flags are rejected so a typo never silently runs with defaults.
func splitArgs(args []string, known ...string) (dir string, flags map[string]bool, err error) {
	dir = "."
	flags = make(map[string]bool)
	for _, a := range args {
		if strings.HasPrefix(a, "--") {
			ok := false
			for _, k := range known {
				if a == k {
					flags[a] = true
					ok = true
				}
			}
			if !ok {
				return "", nil, fmt.Errorf("unknown flag %s", a)
			}
			continue
		}
		dir = a
	}
	return dir, flags, nil
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, project.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	answers, err := promptQuestions([]wizardQuestion{
		{key: "packages", prompt: "Package patterns (comma separated)", fallback: "./..."},
		{key: "templates", prompt: "Template directories (comma separated, empty for none)"},
		{key: "cache", prompt: "Enable the incremental cache? (y/n)", fallback: "y"},
	})
	if err != nil {
		return err
	}

	cfg := project.DefaultConfig()
	cfg.Packages = splitList(answers["packages"], "./...")
	cfg.Templates = splitList(answers["templates"], "")
	cfg.Cache = !strings.HasPrefix(strings.ToLower(answers["cache"]), "n")
	if err := cfg.Save(dir); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func splitList(s, fallback string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && fallback != "" {
		out = []string{fallback}
	}
	return out
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func runCheck(args []string) error {
	root, flags, err := splitArgs(args, "--report")
	if err != nil {
		return fmt.Errorf("usage: rxgen check [dir] [--report]: %w", err)
	}
	cfg, err := project.LoadConfig(root)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(root, cfg, pipeline.Options{})
	if err != nil {
		return err
	}
	printDiagnostics(os.Stdout, res.Bag.Items())
	fmt.Printf("%d models checked, %s\n", res.Models, summarize(res.Bag.Items()))

	if flags["--report"] {
		path := filepath.Join(root, cfg.Report)
		if err := writeReport(path, res.Bag.Items()); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", path)
	}
	if res.Bag.HasErrors() {
		return fmt.Errorf("check failed")
	}
	return nil
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

func runGenerate(args []string) error {
	root, flags, err := splitArgs(args, "--no-cache")
	if err != nil {
		return fmt.Errorf("usage: rxgen generate [dir] [--no-cache]: %w", err)
	}
	cfg, err := project.LoadConfig(root)
	if err != nil {
		return err
	}

	var c *cache.Cache
	if cfg.Cache && !flags["--no-cache"] {
		c, err = cache.Open()
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	res, err := pipeline.Run(root, cfg, pipeline.Options{Generate: true, Cache: c})
	if err != nil {
		return err
	}
	printDiagnostics(os.Stdout, res.Bag.Items())
	for _, path := range res.Written {
		fmt.Printf("  wrote %s\n", path)
	}
	if res.Skipped > 0 {
		fmt.Printf("  %d packages up to date\n", res.Skipped)
	}
	fmt.Printf("%d models, %s\n", res.Models, summarize(res.Bag.Items()))
	if res.Bag.HasErrors() {
		return fmt.Errorf("generation incomplete")
	}
	return nil
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func runWatch(args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	cfg, err := project.LoadConfig(root)
	if err != nil {
		return err
	}
	var c *cache.Cache
	if cfg.Cache {
		if c, err = cache.Open(); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() error {
		// Config may have changed between runs.
		cfg, err := project.LoadConfig(root)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(root, cfg, pipeline.Options{Generate: true, Cache: c})
		if err != nil {
			return err
		}
		printDiagnostics(os.Stdout, res.Bag.Items())
		fmt.Printf("%d models, %d written, %d up to date\n",
			res.Models, len(res.Written), res.Skipped)
		return nil
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	fmt.Printf("watching %s (Ctrl-C to stop)\n", root)
	return watch.Watch(ctx, root, cfg, run)
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

// wizardQuestion is one init-wizard prompt.
type wizardQuestion struct {
	key      string
	prompt   string
	fallback string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []wizardQuestion
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []wizardQuestion) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.fallback
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question key,
// falling back to each question's default on empty input.
func promptQuestions(questions []wizardQuestion) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("init cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		v := final.inputs[i].Value()
		if v == "" {
			v = q.fallback
		}
		answers[q.key] = v
	}
	return answers, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
