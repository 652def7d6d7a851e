package main

import (
	"fmt"

	"image-converter/internal/domain"

	"github.com/spf13/cobra"
)

var upscaleCmd = &cobra.Command{
	Use:   "upscale FILE",
	Short: "Enlarge an image 2x or 4x with enhanced upscaling",
	Long: `Upscale one image with Lanczos resampling and sharpening, then save
the PNG result.

Example:
  convertio upscale -x 4 avatar.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scale, _ := cmd.Flags().GetInt("scale")

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

		if err := c.OpenUpscale(ids[0]); err != nil {
			return err
		}
		if err := c.SelectScale(cmd.Context(), scale); err != nil {
			printView(cmd, c.View())
			return err
		}

		modal := c.View().Upscale
		dst, err := c.ConfirmUpscale(cmd.Context(), dir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %dx%d -> %s %dx%d\n",
			args[0], modal.OriginalSize.Width, modal.OriginalSize.Height,
			dst, modal.NewSize.Width, modal.NewSize.Height)

		return printView(cmd, c.View())
	},
}

func init() {
	rootCmd.AddCommand(upscaleCmd)

	upscaleCmd.Flags().IntP("scale", "x", domain.DefaultScale, "Scale factor, 2 or 4")
}
