// Slip CLI - evaluate Slip programs from files, one-liners, or a REPL.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	"github.com/slip-lang/slip/history"
	"github.com/slip-lang/slip/interp"
	"github.com/slip-lang/slip/manifest"
	"github.com/slip-lang/slip/session"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	interactive := flag.Bool("i", false, "Start interactive REPL")
	expr := flag.String("e", "", "Evaluate the given program text and exit")
	configDir := flag.String("config", ".", "Directory to search for slip.toml")
	noHistory := flag.Bool("no-history", false, "Disable the evaluation history store")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides slip.toml)")
	savePath := flag.String("save", "", "Save a snapshot to this path before exiting")
	loadPath := flag.String("load", "", "Restore a snapshot from this path at startup")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: slip [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Evaluates Slip programs from the given files, -e text, or a REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  slip -i                      # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  slip -e '1 2 add =' \n")
		fmt.Fprintf(os.Stderr, "  slip prog.slip -save out.image\n")
	}
	flag.Parse()

	cfg, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	v := cfg.Log.Verbosity
	if *verbosity >= 0 {
		v = *verbosity
	}
	commonlog.Configure(v, nil)

	var store *history.Store
	if cfg.History.Enabled && !*noHistory {
		store, err = history.Open(cfg.HistoryPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	sess, err := session.New(session.Options{
		History:   store,
		StepLimit: cfg.Session.StepLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating session: %v\n", err)
		os.Exit(1)
	}

	if *loadPath != "" {
		if err := sess.LoadSnapshot(*loadPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	exitCode := 0

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			os.Exit(1)
		}
		if err := sess.Eval(string(data)); err != nil {
			reportCondition(err)
			exitCode = 1
			break
		}
		if sess.Halted() {
			break
		}
	}

	if *expr != "" && exitCode == 0 && !sess.Halted() {
		if err := sess.Eval(*expr); err != nil {
			reportCondition(err)
			exitCode = 1
		}
	}

	if *interactive && exitCode == 0 && !sess.Halted() {
		repl(sess, store, cfg.Session.Prompt)
	}

	if *savePath != "" {
		if _, err := sess.SaveSnapshot(*savePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

// repl runs the interactive loop until quit or EOF.
func repl(sess *session.Session, store *history.Store, prompt string) {
	if prompt == "" {
		prompt = "slip> "
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if store != nil {
		if sources, err := store.Sources(200); err == nil {
			for _, src := range sources {
				line.AppendHistory(src)
			}
		}
	}

	for {
		p := prompt
		if d := sess.Depth(); d > 0 {
			p = fmt.Sprintf("slip[%d]> ", d)
		}
		input, err := line.Prompt(p)
		if err != nil {
			// EOF or interrupt ends the REPL.
			fmt.Println()
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := sess.Eval(input); err != nil {
			reportCondition(err)
		}
		if sess.Halted() {
			return
		}
	}
}

// reportCondition prints an unhandled condition with its diagnostics.
func reportCondition(err error) {
	cond, ok := err.(*interp.Condition)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", cond.Error())
	if len(cond.Operands) > 0 {
		parts := make([]string, len(cond.Operands))
		for i, t := range cond.Operands {
			parts[i] = t.String()
		}
		fmt.Fprintf(os.Stderr, "Operand stack: %s\n", strings.Join(parts, " "))
	}
}
