package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/asprotests/hums-sub000/core/gradescale"
)

func (cli *commandLine) ensureScale() error {
	scale, err := cli.registry.EnsureDefaultScale(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "default grade scale: %q (%s)\n", scale.Name, scale.ID)
	return nil
}

// importScale creates a scale from a YAML file, eg:
//
//	name: Pass/Fail
//	definitions:
//	  - {letter: P, min_percentage: 50, max_percentage: 100, grade_points: 4}
//	  - {letter: F, min_percentage: 0, max_percentage: 49.99, grade_points: 0}
func (cli *commandLine) importScale(path string, asDefault bool, actorID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading scale file")
	}
	var ns gradescale.NewScale
	if err = yaml.Unmarshal(data, &ns); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	if asDefault {
		ns.IsDefault = true
	}

	scale, err := cli.registry.CreateScale(context.Background(), ns, actorID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported grade scale %q (%s) with %d definitions\n", scale.Name, scale.ID, len(scale.Definitions))
	return nil
}
