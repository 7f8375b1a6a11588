package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/coursetrack-api/internal/bootstrap"
)

type connectFunc func() (*bootstrap.Container, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "coursectl",
		Short:         "Operate the CourseTrack notification pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for the whole command")

	root.AddCommand(
		newOverdueCheckCmd(connect),
		newQueuesCmd(connect),
		newDeliveryCmd(connect),
		newSeedCmd(connect),
	)
	return root
}

// withContainer opens the dependency graph for the duration of one command.
func withContainer(cmd *cobra.Command, connect connectFunc, run func(ctx context.Context, c *bootstrap.Container) error) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c, err := connect()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer c.Close()

	return run(ctx, c)
}

func newOverdueCheckCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue-check",
		Short: "Scan for overdue activity logs and enqueue reminders and alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, connect, func(ctx context.Context, c *bootstrap.Container) error {
				count, err := c.Notifications.CheckOverdueActivityLogs(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "overdue activity logs: %d\n", count)
				return nil
			})
		},
	}
}

func newQueuesCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "Show pending jobs per notification queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, connect, func(ctx context.Context, c *bootstrap.Container) error {
				lengths, err := c.Queue.Lengths(ctx)
				if err != nil {
					return err
				}

				names := make([]string, 0, len(lengths))
				byName := make(map[string]int64, len(lengths))
				for t, n := range lengths {
					names = append(names, string(t))
					byName[string(t)] = n
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d\n", name, byName[name])
				}
				return nil
			})
		},
	}
}

func newDeliveryCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delivery JOB_ID",
		Short: "Print the recorded delivery outcome of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, connect, func(ctx context.Context, c *bootstrap.Container) error {
				status, err := c.Queue.DeliveryStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if status == nil {
					return fmt.Errorf("no delivery status recorded for %s", args[0])
				}
				return writeJSON(cmd.OutOrStdout(), status)
			})
		},
	}
}

func newSeedCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo managers, facilitators and activity logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, _ := cmd.Flags().GetString("token")
			return withContainer(cmd, connect, func(ctx context.Context, c *bootstrap.Container) error {
				if token == "" {
					token = c.Config.SeedToken
				}
				result, err := c.Seed.SeedDemo(ctx, token)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().String("token", "", "Seed token (defaults to seed.token)")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
