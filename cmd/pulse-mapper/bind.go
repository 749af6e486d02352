package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulse-mapper/internal/expression"
	"pulse-mapper/internal/pulse"
)

type bindResult struct {
	Template    string         `json:"template" yaml:"template"`
	Program     *pulse.Program `json:"program,omitempty" yaml:"program,omitempty"`
	Diagnostics []string       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func (a *app) newBindCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "bind FILE NAME",
		Short: "Instantiate a template with concrete parameter values",
		Long: `Binds every parameter of the template to a value given with --set and
runs the checks that need values: non-negative durations, increasing point
times, measurement windows inside their template, equal channel durations
and integral repetition counts. Prints the duration, channels and
measurement windows of the result.

Values are constant expressions, e.g. --set t_meas=100 --set phase=pi/2.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(sets)
			if err != nil {
				return err
			}

			lib, err := loadLibrary(args[0])
			if err != nil {
				return err
			}

			templates, err := lookup(lib, args[1:])
			if err != nil {
				return err
			}

			return a.bind(cmd.OutOrStdout(), args[1], templates[0], values)
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "parameter value as name=expression (repeatable)")

	return cmd
}

func (a *app) bind(out io.Writer, name string, t pulse.Template, values map[string]float64) error {
	prog, diags := pulse.Instantiate(t, values)

	res := bindResult{Template: name, Program: prog}
	for _, d := range diags.Errors {
		res.Diagnostics = append(res.Diagnostics, d.String())
	}

	a.logger.Debug("template bound",
		zap.String("template", name),
		zap.Int("values", len(values)),
		zap.Int("errors", len(diags.Errors)))

	err := a.render(out, res, func(w io.Writer) error {
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "error: %s\n", d)
		}
		if prog != nil {
			writeProgram(w, name, prog)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return diags.Error()
}

func writeProgram(w io.Writer, name string, p *pulse.Program) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  duration: %g\n", p.Duration)
	fmt.Fprintf(w, "  channels: %s\n", strings.Join(p.Channels, ", "))

	names := make([]string, 0, len(p.Windows))
	for n := range p.Windows {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		ws := p.Windows[n]
		fmt.Fprintf(w, "  %s:", n)
		for i := range ws.Begins {
			fmt.Fprintf(w, " [%g, +%g]", ws.Begins[i], ws.Lengths[i])
		}
		fmt.Fprintln(w)
	}
}

// parseValues parses name=expression pairs into parameter values.
func parseValues(sets []string) (map[string]float64, error) {
	values := make(map[string]float64, len(sets))

	for _, s := range sets {
		name, src, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=expression", s)
		}

		e, err := expression.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}

		v, err := e.Evaluate(nil)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}

		values[name] = v
	}

	return values, nil
}
