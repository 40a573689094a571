// samplectl drives a running sampled instance from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lineworks/linesampler/client"
)

var baseURL string

// Mutations may move a lot of lines; reads answer from memory.
const (
	writeTimeout = 30 * time.Second
	readTimeout  = 10 * time.Second
)

func run(timeout time.Duration, f func(ctx context.Context, c *client.Client) (interface{}, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := f(ctx, client.New(baseURL))
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func printJSON(v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "samplectl",
	Short:         "Client for the line sampler service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loadCmd = &cobra.Command{
	Use:   "load FILEPATH",
	Short: "Load a text file into the server's pool",
	Long: `Load asks the server to read FILEPATH into its pool.
The path is resolved on the server's filesystem, not this machine's.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(writeTimeout, func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.Load(ctx, args[0])
		})
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample N",
	Short: "Draw N random lines, removing them from the pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("N must be an integer, got %q", args[0])
		}
		if n < 0 {
			return fmt.Errorf("N must be >= 0, got %d", n)
		}
		return run(writeTimeout, func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.Sample(ctx, n)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pool counters and operation timings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(readTimeout, func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.Stats(ctx)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every line in the pool",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(writeTimeout, func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.Clear(ctx)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the server's health endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(readTimeout, func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.Health(ctx)
		})
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "http://127.0.0.1:8000", "server base URL")
	rootCmd.AddCommand(loadCmd, sampleCmd, statsCmd, clearCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "samplectl: %v\n", err)
		os.Exit(1)
	}
}
