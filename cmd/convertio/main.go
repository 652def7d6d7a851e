package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"image-converter/internal/client"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

const defaultServer = "http://localhost:8080"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "convertio",
	Short:         "Convert and upscale images through a convertio server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zlog.Init()
		// stdout carries results and --json output
		zlog.Logger = zlog.Logger.Output(cmd.ErrOrStderr())
	},
}

func init() {
	server := os.Getenv("CONVERTIO_SERVER")
	if server == "" {
		server = defaultServer
	}

	rootCmd.PersistentFlags().StringP("server", "s", server, "Server base URL (env CONVERTIO_SERVER)")
	rootCmd.PersistentFlags().StringP("out", "o", ".", "Directory to save results into")
	rootCmd.PersistentFlags().Bool("json", false, "Print the final view model as JSON")
	rootCmd.PersistentFlags().Duration("timeout", 5*time.Minute, "Timeout for each request")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newController(cmd *cobra.Command) (*client.Controller, error) {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	api, err := client.New(server, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return client.NewController(api, &zlog.Logger), nil
}

func addFiles(c *client.Controller, paths []string) ([]string, error) {
	files := make([]client.File, 0, len(paths))
	for _, p := range paths {
		f, err := client.OpenFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return c.AddFiles(files...), nil
}

func outputDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return dir, nil
}

func printView(cmd *cobra.Command, v client.ViewModel) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if !asJSON {
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
