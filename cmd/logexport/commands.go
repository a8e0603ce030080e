package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/admin"
	"github.com/ajitpratap0/logexport/internal/destination"
	"github.com/ajitpratap0/logexport/internal/notify"
	"github.com/ajitpratap0/logexport/internal/orchestrator"
	"github.com/ajitpratap0/logexport/internal/provision"
	"github.com/ajitpratap0/logexport/pkg/config"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

func newRunCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one export cycle now",
		Long: `Run one export cycle against the configuration table, exactly as the
scheduled function does, and print the per log group results.

Example:
  LOGS_CONFIG_TABLE_NAME=log-export-config logexport run --timeout 2m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			report, err := orch.Run(ctx, newInvocationID())
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "Budget for the cycle; entries that cannot start in time are deferred")
	return cmd
}

func printReport(cmd *cobra.Command, report *orchestrator.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Window: %s - %s\n", report.Window.Start.Format(time.RFC3339), report.Window.End.Format(time.RFC3339))
	for _, r := range report.Results {
		switch {
		case r.TaskID != "":
			fmt.Fprintf(out, "%-16s %s -> %s (task %s)\n", r.Status, r.LogGroupName, r.Destination, r.TaskID)
		case r.Error != "":
			fmt.Fprintf(out, "%-16s %s: %s\n", r.Status, r.LogGroupName, r.Error)
		default:
			fmt.Fprintf(out, "%-16s %s\n", r.Status, r.LogGroupName)
		}
	}
	fmt.Fprintf(out, "\n%s: %d started, %d failed, %d deferred, %d skipped\n", report.Message(),
		report.Count(orchestrator.StatusStarted),
		report.Count(orchestrator.StatusFailed),
		report.Count(orchestrator.StatusDeferred),
		report.Count(orchestrator.StatusSkipped))
}

func newAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add [table-name]",
		Short: "Interactively add log groups to the configuration table",
		Long: `List the account's log groups, select some by index, 'all' or /regex/,
and store them with a destination bucket and optional prefix.

The table name defaults to LOGS_CONFIG_TABLE_NAME.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				a.cfg.Store.TableName = args[0]
			}
			table, err := a.configTable()
			if err != nil {
				return err
			}

			session := admin.NewSession(a.cloudWatch(), table, cmd.InOrStdin(), cmd.OutOrStdout())
			summary, err := session.Add(ctx)
			if err != nil {
				return err
			}
			if len(summary.Added) == 0 && len(summary.Failed) > 0 {
				return fmt.Errorf("no log groups were added")
			}
			return nil
		},
	}
}

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured log groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			table, err := a.configTable()
			if err != nil {
				return err
			}
			_, err = admin.List(ctx, table, cmd.OutOrStdout())
			return err
		},
	}
}

func newRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <log-group>...",
		Short: "Remove log groups from the configuration table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			table, err := a.configTable()
			if err != nil {
				return err
			}
			_, err = admin.Remove(ctx, table, args, cmd.OutOrStdout())
			return err
		},
	}
}

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every configured destination bucket is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			table, err := a.configTable()
			if err != nil {
				return err
			}
			entries, err := table.ListEntries(ctx)
			if err != nil {
				return err
			}

			checks := destination.NewChecker(s3.NewFromConfig(a.aws)).CheckEntries(ctx, entries)
			out := cmd.OutOrStdout()
			failed := 0
			for _, c := range checks {
				if c.Accessible {
					fmt.Fprintf(out, "OK    %s (%d log groups)\n", c.Bucket, len(c.LogGroups))
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL  %s [%s] %v\n", c.Bucket, c.ErrorType, c.Err)
				for _, g := range c.LogGroups {
					fmt.Fprintf(out, "      - %s\n", g)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d destination buckets are not accessible", failed, len(checks))
			}
			return nil
		},
	}
}

func newNotificationsCmd(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Follow artifact notifications from the notification queue",
		Long: `Long-poll the notification queue (NOTIFICATION_QUEUE_URL) and print one
line per object written by an export task. Processed messages are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath, true)
			if err != nil {
				return err
			}
			if a.cfg.Notify.QueueURL == "" {
				return fmt.Errorf("notification queue URL is required (set %s)", config.EnvQueueURL)
			}
			defer a.close(ctx)

			consumer := notify.NewConsumer(sqs.NewFromConfig(a.aws), a.cfg.Notify.QueueURL,
				a.cfg.Notify.WaitTime, a.cfg.Notify.MaxMessages)
			out := cmd.OutOrStdout()
			handle := func(_ context.Context, m notify.Message) error {
				fmt.Fprintf(out, "%s %s s3://%s/%s (%d bytes)\n",
					m.Timestamp.Format(time.RFC3339), m.EventType, m.Bucket, m.ObjectKey, m.Size)
				return nil
			}

			if once {
				n, err := consumer.Poll(ctx, handle)
				logger.Debug("poll finished", zap.Int("artifacts", n))
				return err
			}
			return consumer.Run(ctx, handle)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Receive a single batch and exit")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var valuesPath, savePath, format string
	opts := provision.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Render the CloudFormation template for the exporter",
		Long: `Render the CloudFormation template that deploys the destination bucket,
configuration table, function and schedule. A values file (YAML, with
${VAR} and ${VAR:-default} substitution) overrides the defaults; flags
override the values file.

Example:
  logexport template --notifications --lease > template.yaml
  logexport template --time-range 60 --save-values values.yaml > template.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if valuesPath != "" {
				fileOpts := provision.DefaultOptions()
				if err := config.Load(valuesPath, &fileOpts); err != nil {
					return err
				}
				applyChangedFlags(cmd, &fileOpts, opts)
				opts = fileOpts
			}

			tmpl, err := provision.Build(opts)
			if err != nil {
				return err
			}
			if savePath != "" {
				if err := config.Save(savePath, opts); err != nil {
					return err
				}
			}

			var data []byte
			switch format {
			case "yaml":
				data, err = provision.ToYAML(tmpl)
			case "json":
				data, err = provision.ToJSON(tmpl)
			default:
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&valuesPath, "values", "f", "", "YAML values file")
	cmd.Flags().StringVar(&savePath, "save-values", "", "Write the resolved values to this file for later use with -f")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml or json)")
	cmd.Flags().StringVar(&opts.ScheduleExpression, "schedule", opts.ScheduleExpression, "EventBridge schedule expression")
	cmd.Flags().IntVar(&opts.TimeRangeMinutes, "time-range", opts.TimeRangeMinutes, "Export window in minutes")
	cmd.Flags().IntVar(&opts.TransitionDays, "transition-days", opts.TransitionDays, "Days before exports move to Glacier")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", opts.Concurrency, "Export submissions in flight per run")
	cmd.Flags().IntVar(&opts.FunctionTimeout, "function-timeout", opts.FunctionTimeout, "Function timeout in seconds")
	cmd.Flags().IntVar(&opts.FunctionMemory, "function-memory", opts.FunctionMemory, "Function memory in MB")
	cmd.Flags().StringVar(&opts.Architecture, "architecture", opts.Architecture, "Function architecture (arm64 or x86_64)")
	cmd.Flags().BoolVar(&opts.Notifications, "notifications", false, "Add the artifact notification queue")
	cmd.Flags().BoolVar(&opts.Lease, "lease", false, "Add the lease table guarding overlapping runs")
	return cmd
}

// applyChangedFlags copies explicitly set flags from flagOpts over dst
func applyChangedFlags(cmd *cobra.Command, dst *provision.Options, flagOpts provision.Options) {
	changed := cmd.Flags().Changed
	if changed("schedule") {
		dst.ScheduleExpression = flagOpts.ScheduleExpression
	}
	if changed("time-range") {
		dst.TimeRangeMinutes = flagOpts.TimeRangeMinutes
	}
	if changed("transition-days") {
		dst.TransitionDays = flagOpts.TransitionDays
	}
	if changed("concurrency") {
		dst.Concurrency = flagOpts.Concurrency
	}
	if changed("function-timeout") {
		dst.FunctionTimeout = flagOpts.FunctionTimeout
	}
	if changed("function-memory") {
		dst.FunctionMemory = flagOpts.FunctionMemory
	}
	if changed("architecture") {
		dst.Architecture = flagOpts.Architecture
	}
	if changed("notifications") {
		dst.Notifications = flagOpts.Notifications
	}
	if changed("lease") {
		dst.Lease = flagOpts.Lease
	}
}
