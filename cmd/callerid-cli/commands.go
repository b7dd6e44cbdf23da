package main

import (
	"context"
	"encoding/json"
	"io"

	"callerid/internal/client/blocksync"
	"callerid/internal/core/normalize"
	"callerid/internal/platform/config"
	perr "callerid/internal/platform/errors"
	rdom "callerid/internal/services/api/reputation/domain"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "callerid-cli",
		Short:         "Caller identification and block management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		lookupCmd(),
		reportCmd(),
		retractCmd(),
		blockCmd(),
		unblockCmd(),
		syncBlocksCmd(),
		syncContactsCmd(),
	)
	return root
}

// withApp wires the client for one command and tears it down afterwards
func withApp(fn func(ctx context.Context, a *app, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, config.New().Prefix("CALLERID_"))
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, cmd.OutOrStdout(), args)
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <number>",
		Short: "Resolve who is calling",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.pipeline.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, struct {
				Blocked bool `json:"blocked"`
				Result  any  `json:"result"`
			}{a.blocks.IsBlocked(res.Number), res})
		}),
	}
}

func reportCmd() *cobra.Command {
	var tag, comment, location string
	cmd := &cobra.Command{
		Use:   "report <number>",
		Short: "Report a number as spam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.remote.Report(ctx, rdom.ReportInput{
				Number:   args[0],
				Tag:      tag,
				Comment:  comment,
				Location: location,
			})
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	cmd.Flags().StringVar(&tag, "tag", "Spam", "report category")
	cmd.Flags().StringVar(&comment, "comment", "", "free text comment")
	cmd.Flags().StringVar(&location, "location", "", "where the call claimed to come from")
	return cmd
}

func retractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retract <number>",
		Short: "Withdraw your spam report",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.remote.Retract(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
}

func blockCmd() *cobra.Command {
	var reason string
	var alsoReport bool
	cmd := &cobra.Command{
		Use:   "block <number>",
		Short: "Block a number on this device and on the server",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.syncer.Block(ctx, args[0], reason, alsoReport)
			if blocksync.IsUnsynced(err) {
				// the device block holds; report it and still fail the command
				if werr := printJSON(out, res); werr != nil {
					return werr
				}
				return err
			}
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the number is blocked")
	cmd.Flags().BoolVar(&alsoReport, "also-report", false, "nudge the number's spam score")
	return cmd
}

func unblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <number>",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			res, err := a.syncer.Unblock(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
}

func syncBlocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-blocks",
		Short: "Replace the local block list with the server's",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			n, err := a.syncer.Reconcile(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]int{"blocks": n})
		}),
	}
}

func syncContactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-contacts",
		Short: "Upload address book names for crowd resolution",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			book, err := a.loadContacts(ctx)
			if err != nil {
				return err
			}
			entries := make([]rdom.ContactEntry, 0, len(book))
			for _, c := range book {
				if _, err := normalize.Key(c.Number); err != nil || c.Name == "" {
					continue
				}
				entries = append(entries, rdom.ContactEntry{Number: c.Number, Name: c.Name})
			}
			if len(entries) == 0 {
				return perr.InvalidArgf("no usable contacts to sync")
			}
			res, err := a.remote.SyncContacts(ctx, entries)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
