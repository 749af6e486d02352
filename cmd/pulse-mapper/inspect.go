package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"pulse-mapper/internal/library"
	"pulse-mapper/internal/match"
	"pulse-mapper/internal/pulse"
)

type templateInfo struct {
	Name         string   `json:"name" yaml:"name"`
	Kind         string   `json:"kind" yaml:"kind"`
	Parameters   []string `json:"parameters" yaml:"parameters"`
	Channels     []string `json:"channels" yaml:"channels"`
	Measurements []string `json:"measurements" yaml:"measurements"`
	Declarations []string `json:"declarations,omitempty" yaml:"declarations,omitempty"`
	Duration     string   `json:"duration" yaml:"duration"`
}

func describe(name string, t pulse.Template) templateInfo {
	info := templateInfo{
		Name:         name,
		Kind:         string(t.Kind()),
		Parameters:   t.ParameterNames().Sorted(),
		Channels:     t.ChannelOrder(),
		Measurements: t.MeasurementNames().Sorted(),
		Duration:     t.DurationExpression().String(),
	}

	for _, d := range t.MeasurementDeclarations() {
		info.Declarations = append(info.Declarations, d.String())
	}

	return info
}

func (i templateInfo) writeText(w io.Writer) {
	fmt.Fprintf(w, "%s (%s)\n", i.Name, i.Kind)
	fmt.Fprintf(w, "  parameters:   %s\n", strings.Join(i.Parameters, ", "))
	fmt.Fprintf(w, "  channels:     %s\n", strings.Join(i.Channels, ", "))
	fmt.Fprintf(w, "  measurements: %s\n", strings.Join(i.Measurements, ", "))
	for _, d := range i.Declarations {
		fmt.Fprintf(w, "    %s\n", d)
	}
	fmt.Fprintf(w, "  duration:     %s\n", i.Duration)
}

func (a *app) newInspectCmd() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "inspect FILE [NAME...]",
		Short: "Show the namespaces of templates in a library",
		Long: `Builds the library and prints, for each named template (all of them
when no name is given), its kind, parameter names, channel order,
measurement names and declarations, and duration expression.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadLibrary(args[0])
			if err != nil {
				return err
			}

			names := args[1:]
			if len(names) == 0 {
				names = lib.Names()
			}

			templates, err := lookup(lib, names)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if dump {
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
				for i, t := range templates {
					fmt.Fprintf(out, "%s: %s", names[i], cfg.Sdump(t))
				}
				return nil
			}

			infos := make([]templateInfo, len(templates))
			for i, t := range templates {
				infos[i] = describe(names[i], t)
			}

			return a.render(out, infos, func(w io.Writer) error {
				for _, info := range infos {
					info.writeText(w)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "dump the built template values")

	return cmd
}

func loadLibrary(path string) (*library.Library, error) {
	f, err := library.LoadFile(path)
	if err != nil {
		return nil, err
	}

	return library.Build(f)
}

func lookup(lib *library.Library, names []string) ([]pulse.Template, error) {
	templates := make([]pulse.Template, len(names))

	for i, name := range names {
		t, ok := lib.Get(name)
		if !ok {
			msg := fmt.Sprintf("template %q is not defined", name)
			if s := match.Suggest(name, lib.Names(), 3); len(s) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
			}
			return nil, errors.New(msg)
		}
		templates[i] = t
	}

	return templates, nil
}
