package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/transcript"
)

const defaultActor = "admin-cli"

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sql.DB
	out         io.Writer
	registry    *gradescale.Registry
	grading     *grading.Service
	transcripts *transcript.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                          - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  ensurescale                                     - install the standard grade scale if there is no default one")
	fmt.Fprintln(cli.out, "  importscale -file FILE [-default] [-actor ID]   - create a grade scale from a YAML file")
	fmt.Fprintln(cli.out, "  finalize -class ID -actor ID                    - compute and lock the grades of a class")
	fmt.Fprintln(cli.out, "  unfinalize -class ID -actor ID -reason TEXT     - unlock the grades of a class")
	fmt.Fprintln(cli.out, "  transcript -student ID [-official]              - print a student's transcript as JSON")
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

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "ensurescale":
		return cli.ensureScale()

	case "importscale":
		cmd := cli.newFlagSet("importscale")
		file := cmd.String("file", "", "YAML file holding the scale name, description and definitions.")
		asDefault := cmd.Bool("default", false, "Make the imported scale the default one.")
		actor := cmd.String("actor", defaultActor, "The id of the operator, for the audit trail.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.importScale(*file, *asDefault, *actor)

	case "finalize":
		cmd := cli.newFlagSet("finalize")
		classID := cmd.String("class", "", "The class id.")
		actor := cmd.String("actor", "", "The id of the registrar finalizing the grades.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *classID == "" || *actor == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.finalize(*classID, *actor)

	case "unfinalize":
		cmd := cli.newFlagSet("unfinalize")
		classID := cmd.String("class", "", "The class id.")
		actor := cmd.String("actor", "", "The id of the registrar unlocking the grades.")
		reason := cmd.String("reason", "", "Why the grades are unlocked.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *classID == "" || *actor == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.unfinalize(*classID, *reason, *actor)

	case "transcript":
		cmd := cli.newFlagSet("transcript")
		studentID := cmd.String("student", "", "The student id.")
		official := cmd.Bool("official", false, "Generate an official transcript; fails when holds block it.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *studentID == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.transcript(*studentID, *official)

	default:
		cli.printUsage()
		return errHelp
	}
}
