package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulse-mapper/internal/store"
)

func (a *app) newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the template store",
		Long: `Saves built templates to the configured store (store.driver: sqlite or
file) and reads them back. A stored template keeps the whole document it
was built from, so it can be inspected and bound without the library file.`,
	}

	cmd.AddCommand(
		a.newStoreSaveCmd(),
		a.newStoreListCmd(),
		a.newStoreShowCmd(),
		a.newStoreBindCmd(),
		a.newStoreDeleteCmd(),
	)

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(fn func(s store.Store) error) (err error) {
	s, err := a.openStore()
	if err != nil {
		return err
	}

	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(s)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func (a *app) newStoreSaveCmd() *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "save FILE NAME...",
		Short: "Build templates from a library and save them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args[1:]
			if as != "" && len(names) > 1 {
				return fmt.Errorf("--as needs exactly one template name")
			}

			lib, err := loadLibrary(args[0])
			if err != nil {
				return err
			}

			templates, err := lookup(lib, names)
			if err != nil {
				return err
			}

			return a.withStore(func(s store.Store) error {
				for i, t := range templates {
					name := names[i]
					if as != "" {
						name = as
					}

					rec, err := store.NewRecord(name, t)
					if err != nil {
						return err
					}

					if err := s.Save(commandContext(cmd), rec); err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s) %s\n", rec.Name, rec.Kind, rec.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "store the template under another name")

	return cmd
}

type recordSummary struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Kind       string    `json:"kind" yaml:"kind"`
	Parameters []string  `json:"parameters" yaml:"parameters"`
	Channels   []string  `json:"channels" yaml:"channels"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

func (a *app) newStoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s store.Store) error {
				records, err := s.List(commandContext(cmd))
				if err != nil {
					return err
				}

				summaries := make([]recordSummary, len(records))
				for i, r := range records {
					summaries[i] = recordSummary{
						ID:         r.ID.String(),
						Name:       r.Name,
						Kind:       string(r.Kind),
						Parameters: r.Parameters,
						Channels:   r.Channels,
						UpdatedAt:  r.UpdatedAt,
					}
				}

				return a.render(cmd.OutOrStdout(), summaries, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "NAME\tKIND\tCHANNELS\tPARAMETERS\tUPDATED")
					for _, r := range summaries {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
							r.Name, r.Kind,
							strings.Join(r.Channels, ","),
							strings.Join(r.Parameters, ","),
							r.UpdatedAt.Format(time.RFC3339))
					}
					return tw.Flush()
				})
			})
		},
	}
}

func (a *app) newStoreShowCmd() *cobra.Command {
	var document bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s store.Store) error {
				rec, err := s.Load(commandContext(cmd), args[0])
				if err != nil {
					return err
				}

				if document {
					_, err := io.WriteString(cmd.OutOrStdout(), rec.Document)
					return err
				}

				t, err := rec.Template()
				if err != nil {
					return err
				}

				info := describe(rec.Name, t)

				return a.render(cmd.OutOrStdout(), info, func(w io.Writer) error {
					info.writeText(w)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&document, "document", false, "print the stored library document")

	return cmd
}

func (a *app) newStoreBindCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "bind NAME",
		Short: "Instantiate a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(sets)
			if err != nil {
				return err
			}

			return a.withStore(func(s store.Store) error {
				rec, err := s.Load(commandContext(cmd), args[0])
				if err != nil {
					return err
				}

				t, err := rec.Template()
				if err != nil {
					return err
				}

				return a.bind(cmd.OutOrStdout(), rec.Name, t, values)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "parameter value as name=expression (repeatable)")

	return cmd
}

func (a *app) newStoreDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Delete stored templates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s store.Store) error {
				for _, name := range args {
					if err := s.Delete(commandContext(cmd), name); err != nil {
						return err
					}

					a.logger.Debug("deleted stored template", zap.String("name", name))
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
				}
				return nil
			})
		},
	}
}
