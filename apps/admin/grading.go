package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) finalize(classID, actorID string) error {
	grades, err := cli.grading.FinalizeClass(context.Background(), classID, actorID)
	if err != nil {
		return err
	}
	for _, g := range grades {
		fmt.Fprintf(cli.out, "%s\t%6.2f\t%-2s\t%.1f\n", g.EnrollmentID, g.TotalPercentage, g.Letter, g.GradePoints)
	}
	fmt.Fprintf(cli.out, "finalized %d enrollments of class %s\n", len(grades), classID)
	return nil
}

func (cli *commandLine) unfinalize(classID, reason, actorID string) error {
	n, err := cli.grading.UnfinalizeClass(context.Background(), classID, reason, actorID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "unfinalized %d enrollments of class %s\n", n, classID)
	return nil
}

func (cli *commandLine) transcript(studentID string, official bool) error {
	trans, err := cli.transcripts.Generate(context.Background(), studentID, official)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(trans), "encoding transcript")
}
