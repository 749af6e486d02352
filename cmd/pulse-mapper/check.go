package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pulse-mapper/internal/diagnostic"
	"pulse-mapper/internal/library"
)

var errCheckFailed = errors.New("check failed")

type checkResult struct {
	File      string   `json:"file" yaml:"file"`
	Templates int      `json:"templates" yaml:"templates"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r checkResult) ok() bool {
	return len(r.Errors) == 0
}

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate template libraries and build every template",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	results, err := checkFiles(commandContext(cmd), args, a.logger)
	if err != nil {
		return err
	}

	err = a.render(cmd.OutOrStdout(), results, func(w io.Writer) error {
		for _, r := range results {
			if r.ok() {
				fmt.Fprintf(w, "ok    %s (%d templates)\n", r.File, r.Templates)
			} else {
				fmt.Fprintf(w, "FAIL  %s\n", r.File)
			}

			for _, e := range r.Errors {
				fmt.Fprintf(w, "  error: %s\n", e)
			}
			for _, wn := range r.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", wn)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if !r.ok() {
			return errCheckFailed
		}
	}

	return nil
}

// checkFiles checks the files concurrently; results keep the argument order.
func checkFiles(ctx context.Context, paths []string, logger *zap.Logger) ([]checkResult, error) {
	results := make([]checkResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = checkFile(path)
			logger.Debug("checked library",
				zap.String("file", path),
				zap.Int("errors", len(results[i].Errors)))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func checkFile(path string) checkResult {
	res := checkResult{File: path}

	f, err := library.LoadFile(path)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}

	diags := library.Validate(f)
	res.Errors = diagnosticStrings(diags.Errors)
	res.Warnings = diagnosticStrings(diags.Warnings)

	if diags.HasErrors() {
		return res
	}

	lib, err := library.Build(f)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	res.Templates = lib.Len()

	return res
}

func diagnosticStrings(ds []diagnostic.Diagnostic) []string {
	if len(ds) == 0 {
		return nil
	}

	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}

	return out
}
