package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teshtvele/groups-management/internal/client"
)

type rootFlags struct {
	api     string
	timeout time.Duration
	retries int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "registryctl",
		Short:         "CLI client for the person registry REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&f.api, "api", "a", envOr("REGISTRY_API", "http://localhost:8080"), "Registry service base URL")
	root.PersistentFlags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Per-request timeout")
	root.PersistentFlags().IntVar(&f.retries, "retries", 2, "Retries on transport errors and 502/503/504")

	root.AddCommand(
		newPersonCmd(f),
		newGroupCmd(f),
		newChangeSetCmd(f),
		newHealthCmd(f),
	)
	return root
}

func (f *rootFlags) client() (*client.Client, error) {
	return client.New(f.api,
		client.WithHTTPTimeout(f.timeout),
		client.WithRetries(f.retries, 200*time.Millisecond),
	)
}

func newHealthCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", what, s)
	}
	return id, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
