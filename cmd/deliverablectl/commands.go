package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/dto"
	"github.com/Olprog59/go-deliverables/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errConfirmRequired = errors.New("delete not confirmed: run again with --yes")

// now is replaced in tests
var now = time.Now

func newListCmd(opts *rootOptions) *cobra.Command {
	var search, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deliverables, newest first",
		Long: `List all deliverables ordered by creation date, newest first.

--search keeps the rows whose name contains the text, ignoring case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc deliverableService) error {
				res := svc.Search(ctx, search)
				if res.Error != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Error)
				}
				return writeList(cmd.OutOrStdout(), format, res)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive name filter")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one deliverable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc deliverableService) error {
				d, ok := svc.Find(ctx, args[0])
				if !ok {
					return errors.New(service.MsgNotFound)
				}
				return writeRecord(cmd.OutOrStdout(), format, d)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

// recordFlags binds one flag per editable field.
func recordFlags(fs *pflag.FlagSet, req *dto.DeliverableRequest) {
	fs.StringVar(&req.Name, "name", "", "deliverable name (required)")
	fs.StringVar(&req.Lead, "lead", "", "lead (required)")
	fs.StringVar(&req.CoordinatingStaff, "staff", "", "coordinating staff")
	fs.StringVar(&req.Field, "field", "", "field (required)")
	fs.StringVar(&req.StartDate, "start", "", "start date YYYY-MM-DD (default today)")
	fs.StringVar(&req.EndDate, "end", "", "end date YYYY-MM-DD (default today)")
	fs.StringVar(&req.Description, "description", "", "description")
	fs.StringVar(&req.Keywords, "keywords", "", "keywords")
	fs.StringVar(&req.StorageLink, "link", "", "storage link")
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var req dto.DeliverableRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a deliverable",
		Example: `  deliverablectl add --name "Annual report" --lead Alice --field Economics \
    --start 2025-01-01 --end 2025-06-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := req.ToInput(now())
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc deliverableService) error {
				return report(cmd, svc.Create(ctx, in))
			})
		},
	}
	recordFlags(cmd.Flags(), &req)
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var req dto.DeliverableRequest

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a deliverable",
		Long: `Update a deliverable. Only the flags given on the command line change;
the other fields keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc deliverableService) error {
				current, ok := svc.Find(ctx, args[0])
				if !ok {
					return errors.New(service.MsgNotFound)
				}
				in, err := mergeChanged(cmd.Flags(), current.Input(), req)
				if err != nil {
					return err
				}
				return report(cmd, svc.Update(ctx, current.ID, in))
			})
		},
	}
	recordFlags(cmd.Flags(), &req)
	return cmd
}

// mergeChanged overlays the flags set on the command line onto in.
func mergeChanged(fs *pflag.FlagSet, in domain.DeliverableInput, req dto.DeliverableRequest) (domain.DeliverableInput, error) {
	text := map[string]*string{
		"name":        &in.Name,
		"lead":        &in.Lead,
		"staff":       &in.CoordinatingStaff,
		"field":       &in.Field,
		"description": &in.Description,
		"keywords":    &in.Keywords,
		"link":        &in.StorageLink,
	}
	values := map[string]string{
		"name":        req.Name,
		"lead":        req.Lead,
		"staff":       req.CoordinatingStaff,
		"field":       req.Field,
		"description": req.Description,
		"keywords":    req.Keywords,
		"link":        req.StorageLink,
	}
	for name, dst := range text {
		if fs.Changed(name) {
			*dst = values[name]
		}
	}

	if fs.Changed("start") {
		t, err := domain.ParseDate(req.StartDate)
		if err != nil {
			return in, fmt.Errorf("start: %w", err)
		}
		in.StartDate = t
	}
	if fs.Changed("end") {
		t, err := domain.ParseDate(req.EndDate)
		if err != nil {
			return in, fmt.Errorf("end: %w", err)
		}
		in.EndDate = t
	}
	return in, nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a deliverable",
		Long: `Delete a deliverable. Without --yes the command only names the record
that would be removed and deletes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc deliverableService) error {
				d, ok := svc.Find(ctx, args[0])
				if !ok {
					return errors.New(service.MsgNotFound)
				}
				if !yes {
					fmt.Fprintf(cmd.OutOrStdout(), "About to delete %s.\n", domain.SelectionLabel(d))
					return errConfirmRequired
				}
				return report(cmd, svc.Delete(ctx, d.ID))
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

// report prints the outcome of a write; a failed write becomes the command error.
func report(cmd *cobra.Command, out service.Outcome) error {
	if !out.OK {
		for _, msg := range out.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), "  -", msg)
		}
		return errors.New(out.Message)
	}

	if out.Record != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Message, domain.SelectionLabel(*out.Record))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	return nil
}
