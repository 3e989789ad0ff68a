package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorboard/core/whiteboard"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         dbOpener
	sanitizer  whiteboard.Sanitizer
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]               - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  sanitize -file PATH                     - sanitize a JSON command array")
	_, _ = fmt.Fprintln(cli.out, "  score -commands PATH -spec PATH [-w W -h H] - score a JSON command array against a JSON|YAML spec")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sanitizeCmd := cli.newFlagSet("sanitize")
	sanitizeFile := sanitizeCmd.String("file", "", "Path of the JSON command array (\"-\" for stdin).")

	scoreCmd := cli.newFlagSet("score")
	scoreCommands := scoreCmd.String("commands", "", "Path of the JSON command array (\"-\" for stdin).")
	scoreSpec := scoreCmd.String("spec", "", "Path of the validation spec (.json, .yaml or .yml).")
	scoreWidth := scoreCmd.Float64("w", 0, "Canvas width.")
	scoreHeight := scoreCmd.Float64("h", 0, "Canvas height.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "sanitize":
		if err := sanitizeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *sanitizeFile == "" {
			sanitizeCmd.Usage()
			return errHelp
		}
		return cli.sanitize(*sanitizeFile)
	case "score":
		if err := scoreCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *scoreCommands == "" || *scoreSpec == "" {
			scoreCmd.Usage()
			return errHelp
		}
		return cli.score(*scoreCommands, *scoreSpec, whiteboard.Canvas{Width: *scoreWidth, Height: *scoreHeight})
	default:
		cli.printUsage()
		return errHelp
	}
}
