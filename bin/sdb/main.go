package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pattyshack/sdb"
	"github.com/pattyshack/sdb/config"
	"github.com/pattyshack/sdb/registers"
)

type command struct {
	name string
	run  func(*sdb.Process, []string) error
}

var (
	commands = []command{
		{
			name: "continue",
			run:  runContinue,
		},
		{
			name: "register",
			run:  runRegister,
		},
		{
			name: "status",
			run:  runStatus,
		},
	}
)

func runContinue(process *sdb.Process, args []string) error {
	err := process.Resume()
	if err != nil {
		return err
	}

	reason, err := process.WaitOnSignal()
	if err != nil {
		return err
	}

	fmt.Println(reason)

	if reason.State == sdb.Stopped {
		fmt.Println("pc:", process.ReadRegister(registers.ProgramCounter))
	}

	return nil
}

func runRegister(process *sdb.Process, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf(
			"expected: register read <name> | register read all | " +
				"register write <name> <value>")
	}

	switch args[0] {
	case "read":
		if len(args) < 2 || args[1] == "all" {
			for _, info := range registers.OrderedInfos {
				// Sub-registers alias their parents and only add noise here.
				if info.Class == registers.SubGeneralClass {
					continue
				}

				fmt.Printf("%10s: %s\n", info.Name, process.ReadRegister(info))
			}
			return nil
		}

		info, ok := registers.ByName(args[1])
		if !ok {
			return fmt.Errorf("no such register: %s", args[1])
		}

		fmt.Println(process.ReadRegister(info))
		return nil
	case "write":
		if len(args) != 3 {
			return fmt.Errorf("expected: register write <name> <value>")
		}

		info, ok := registers.ByName(args[1])
		if !ok {
			return fmt.Errorf("no such register: %s", args[1])
		}

		value, err := info.ParseValue(args[2])
		if err != nil {
			return err
		}

		return process.WriteRegister(info, value)
	default:
		return fmt.Errorf("invalid register subcommand: %s", args[0])
	}
}

func runStatus(process *sdb.Process, args []string) error {
	status, err := process.GetStatus()
	if err != nil {
		return err
	}

	fmt.Printf("process %d status: %c\n", process.Pid(), status)
	return nil
}

func repl(process *sdb.Process, cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "sdb > ",
		HistoryFile: cfg.HistoryFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	lastLine := ""
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}
		lastLine = line

		if line == "" {
			continue
		}

		args := strings.Split(line, " ")
		if args[0] == "" {
			fmt.Println("invalid command: (empty string)")
		}

		found := false
		for _, cmd := range commands {
			if strings.HasPrefix(cmd.name, args[0]) {
				found = true
				err := cmd.run(process, args[1:])
				if err != nil {
					fmt.Println(err)
				}
			}
		}

		if !found {
			fmt.Println("invalid command:", args[0])
		}
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	err = cfg.SetupLogger()
	if err != nil {
		logrus.Fatal(err)
	}

	root := &cobra.Command{
		Use:           "sdb",
		Short:         "A native process debugger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "attach <pid>",
			Short: "Attach to a running process",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pid, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid pid (%s): %w", args[0], err)
				}

				process, err := sdb.Attach(pid)
				if err != nil {
					return err
				}
				defer process.Close()

				fmt.Println("attached to process", process.Pid())
				return repl(process, cfg)
			},
		},
		&cobra.Command{
			Use:   "run <path>",
			Short: "Launch a program under trace control",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				process, err := sdb.Launch(args[0], true, nil)
				if err != nil {
					return err
				}
				defer process.Close()

				fmt.Println("launched process", process.Pid())
				return repl(process, cfg)
			},
		})

	err = root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
