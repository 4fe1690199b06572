package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/memcard"
	"github.com/chzyer/readline"
)

const maxMounts = 8

var (
	errNoMount   = errors.New("no card mounted")
	errNoSlots   = errors.New("no free mount slots")
	errQuit      = errors.New("quit")
	errBadMount  = errors.New("no such mount")
	errArguments = errors.New("wrong number of arguments")
)

type mount struct {
	file    string
	card    memcard.Card
	changed bool
}

type shell struct {
	format string
	logger *log.Logger
	mounts [maxMounts]*mount
	target int
	out    io.Writer
}

type shellCommand struct {
	args  int
	usage string
	fn    func(*shell, []string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"mount":   {1, "mount FILE", (*shell).cmdMount},
		"unmount": {0, "unmount", (*shell).cmdUnmount},
		"cards":   {0, "cards", (*shell).cmdCards},
		"use":     {1, "use MOUNT", (*shell).cmdUse},
		"ls":      {0, "ls", (*shell).cmdList},
		"rm":      {1, "rm SLOT", (*shell).cmdDelete},
		"cp":      {2, "cp SLOT MOUNT", (*shell).cmdCopy},
		"write":   {0, "write", (*shell).cmdWrite},
		"help":    {0, "help", (*shell).cmdHelp},
		"quit":    {0, "quit", (*shell).cmdQuit},
	}
}

func newShell(format string, logger *log.Logger) *shell {
	return &shell{
		format: format,
		logger: logger,
		target: -1,
		out:    os.Stdout,
	}
}

func (sh *shell) printf(format string, a ...interface{}) {
	fmt.Fprintf(sh.out, format, a...)
}

func (sh *shell) prompt() string {
	if sh.target == -1 || sh.mounts[sh.target] == nil {
		return "memcard:<no mount>> "
	}
	m := sh.mounts[sh.target]
	return fmt.Sprintf("memcard:%d:%s:%s> ", sh.target, m.card.Format(), filepath.Base(m.file))
}

func (sh *shell) current() (*mount, error) {
	if sh.target == -1 || sh.mounts[sh.target] == nil {
		return nil, errNoMount
	}
	return sh.mounts[sh.target], nil
}

func (sh *shell) mounted(arg string) (*mount, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n >= maxMounts || sh.mounts[n] == nil {
		return nil, errBadMount
	}
	return sh.mounts[n], nil
}

func (sh *shell) mount(file string) error {
	free := -1
	for i, m := range sh.mounts {
		if m == nil {
			if free == -1 {
				free = i
			}
		} else if m.file == file {
			sh.target = i
			return nil
		}
	}
	if free == -1 {
		return errNoSlots
	}

	card, err := openCard(sh.format, file, sh.logger)
	if err != nil {
		return err
	}

	sh.mounts[free] = &mount{file: file, card: card}
	sh.target = free

	return nil
}

func (sh *shell) cmdMount(args []string) error {
	if err := sh.mount(args[0]); err != nil {
		return err
	}
	sh.printf("Mounted %s as %d\n", args[0], sh.target)
	return nil
}

func (sh *shell) cmdUnmount(args []string) error {
	m, err := sh.current()
	if err != nil {
		return err
	}
	if m.changed {
		sh.printf("Discarding changes to %s\n", m.file)
	}
	sh.mounts[sh.target] = nil
	sh.target = -1
	for i, m := range sh.mounts {
		if m != nil {
			sh.target = i
			break
		}
	}
	return nil
}

func (sh *shell) cmdCards(args []string) error {
	for i, m := range sh.mounts {
		if m == nil {
			continue
		}
		flag := " "
		if i == sh.target {
			flag = "*"
		}
		changed := ""
		if m.changed {
			changed = " (modified)"
		}
		sh.printf("%s%d  %-4s  %s%s\n", flag, i, m.card.Format(), m.file, changed)
	}
	return nil
}

func (sh *shell) cmdUse(args []string) error {
	if _, err := sh.mounted(args[0]); err != nil {
		return err
	}
	sh.target, _ = strconv.Atoi(args[0])
	return nil
}

func (sh *shell) cmdList(args []string) error {
	m, err := sh.current()
	if err != nil {
		return err
	}
	listCard(sh.printf, m.card)
	return nil
}

func (sh *shell) cmdDelete(args []string) error {
	m, err := sh.current()
	if err != nil {
		return err
	}
	e, err := findEntry(m.card, args[0])
	if err != nil {
		return err
	}
	if err := m.card.Delete(e); err != nil {
		return err
	}
	m.changed = true
	return nil
}

func (sh *shell) cmdCopy(args []string) error {
	m, err := sh.current()
	if err != nil {
		return err
	}
	e, err := findEntry(m.card, args[0])
	if err != nil {
		return err
	}
	dst, err := sh.mounted(args[1])
	if err != nil {
		return err
	}
	if dst.card.Format() != m.card.Format() {
		return memcard.ErrFormatMismatch
	}
	copied, err := dst.card.Copy(e)
	if err != nil {
		return err
	}
	dst.changed = true
	sh.printf("Copied %q to slot %d\n", copied.Name(), copied.Index())
	return nil
}

func (sh *shell) cmdWrite(args []string) error {
	m, err := sh.current()
	if err != nil {
		return err
	}
	if err := memcard.WriteFile(m.card, m.file); err != nil {
		return err
	}
	m.changed = false
	return nil
}

func (sh *shell) cmdHelp(args []string) error {
	for _, name := range []string{"mount", "unmount", "cards", "use", "ls", "rm", "cp", "write", "help", "quit"} {
		sh.printf("%s\n", shellCommands[name].usage)
	}
	return nil
}

func (sh *shell) cmdQuit(args []string) error {
	return errQuit
}

// process runs one line of input
func (sh *shell) process(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := shellCommands[fields[0]]
	if !ok {
		return fmt.Errorf("unrecognized command: %s", fields[0])
	}
	if len(fields)-1 != cmd.args {
		return fmt.Errorf("%w, usage: %s", errArguments, cmd.usage)
	}

	return cmd.fn(sh, fields[1:])
}

func (sh *shell) completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for name := range shellCommands {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (sh *shell) run() error {
	var history string
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".memcard_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       sh.prompt(),
		HistoryFile:  history,
		AutoComplete: sh.completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sh.out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			return nil
		}

		switch err := sh.process(line); err {
		case nil:
		case errQuit:
			return nil
		default:
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}

		rl.SetPrompt(sh.prompt())
	}
}
