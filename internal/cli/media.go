package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/ogulcanaydogan/xcli/pkg/media"
	"github.com/spf13/cobra"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Upload media for use in posts",
}

var mediaUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image, GIF or video",
	Long: `Upload an image, GIF or video and print its media id.

Images (jpg, png, webp, bmp, tiff; up to 5 MiB) are sent in one request.
GIFs (up to 15 MiB) and videos (mp4, m4v, mov, webm; up to 512 MiB) are sent
in chunks, each chunk a separately priced request. Videos are then polled
until the server finishes processing them.`,
	Args: cobra.ExactArgs(1),
	RunE: runMediaUpload,
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaUploadCmd)
	mediaUploadCmd.Flags().String("alt", "", "Alt text to attach after upload")
}

func runMediaUpload(cmd *cobra.Command, args []string) error {
	alt, _ := cmd.Flags().GetString("alt")

	// Validate before touching credentials or the network.
	plan, err := media.Inspect(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.caller()
	if err != nil {
		return err
	}

	if plan.Strategy == media.StrategyChunked {
		n := plan.Segments(a.cfg.Media.ChunkSize)
		fmt.Fprintf(cmd.ErrOrStderr(), "Uploading %s (%s) in %d chunks...\n",
			args[0], humanize.IBytes(uint64(plan.Size)), n)
	}

	up := a.uploader(c)
	res, err := up.Upload(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if alt != "" {
		if err := up.SetAltText(cmd.Context(), res.MediaID, alt); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return json.NewEncoder(out).Encode(res)
	}
	fmt.Fprintf(out, "Media ID:  %s\n", res.MediaID)
	fmt.Fprintf(out, "Category:  %s\n", res.Category)
	fmt.Fprintf(out, "Strategy:  %s\n", res.Strategy)
	fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(uint64(res.Bytes)))
	if res.Segments > 0 {
		fmt.Fprintf(out, "Segments:  %d\n", res.Segments)
	}
	return nil
}
