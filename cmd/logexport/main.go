package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// Inside Lambda the scheduled trigger drives a single handler
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		handler, err := newLambdaHandler()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		lambda.Start(handler.Handle)
		return
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "logexport",
		Short: "logexport - scheduled CloudWatch Logs export to S3",
		Long: `logexport exports configured CloudWatch Logs log groups to S3 on a schedule.

Deployed as a Lambda function it runs one export cycle per trigger. Run locally
it maintains the configuration table, runs a cycle by hand, checks destinations,
follows artifact notifications and renders the deployment template.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file (environment variables take precedence)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logexport v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(
		newRunCmd(&configPath),
		newAddCmd(&configPath),
		newListCmd(&configPath),
		newRemoveCmd(&configPath),
		newCheckCmd(&configPath),
		newNotificationsCmd(&configPath),
		newTemplateCmd(),
	)
	return root
}
