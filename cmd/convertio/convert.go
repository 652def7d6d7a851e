package main

import (
	"fmt"

	"image-converter/internal/client"
	"image-converter/internal/domain"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Convert images to another format",
	Long: `Convert each file, one at a time, and save the results.

Example:
  convertio convert -f avif -q 70 photo.png logo.png
  convertio convert --format image/jpeg -o out/ *.webp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetInt("quality")

		dir, err := outputDir(cmd)
		if err != nil {
			return err
		}

		c, err := newController(cmd)
		if err != nil {
			return err
		}

		ids, err := addFiles(c, args)
		if err != nil {
			return err
		}

		c.SetTargetFormat(format)
		c.SetQuality(quality)

		failed, err := c.ConvertAll(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, id := range ids {
			entry := entryByID(c.View(), id)
			if entry.Status != client.StatusDone {
				fmt.Fprintf(out, "✗ %s: %s\n", entry.File.Name, entry.Error)
				continue
			}

			dst, err := c.Download(cmd.Context(), id, dir)
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s: %v\n", entry.File.Name, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s -> %s (expires %s)\n", entry.File.Name, dst, entry.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}

		if err := printView(cmd, c.View()); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("format", "f", domain.DefaultTargetFormat, "Target format (png, jpeg, webp, avif, tiff or a MIME type)")
	convertCmd.Flags().IntP("quality", "q", domain.DefaultQuality, "Quality 1-100")
}

func entryByID(v client.ViewModel, id string) client.FileEntry {
	for _, e := range v.Files {
		if e.ID == id {
			return e
		}
	}
	return client.FileEntry{}
}
