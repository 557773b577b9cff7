package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"upload-ai/cmd/uploadai/cmd/shared"
	"upload-ai/internal/app"
	"upload-ai/internal/app/display"
	"upload-ai/internal/app/model"
	"upload-ai/internal/app/pipeline"
	"upload-ai/internal/app/source"
)

type options struct {
	file          string
	url           string
	prompt        string
	mimeType      string
	forceProgress bool
	noProgress    bool
}

var opts options

func init() {
	Cmd.Flags().StringVarP(&opts.file, "file", "f", "", "local video file to transcode and upload")
	Cmd.Flags().StringVarP(&opts.url, "url", "u", "", "remote video URL handed to the service as-is")
	Cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "",
		"comma-separated keywords that guide the transcription, forwarded unchanged")
	Cmd.Flags().StringVar(&opts.mimeType, "mime-type", "", "container MIME type of --file (sniffed when empty)")
	Cmd.Flags().BoolVar(&opts.forceProgress, "progress", false, "force the progress bar even without a terminal")
	Cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "never show the progress bar")

	Cmd.MarkFlagsOneRequired("file", "url")
	Cmd.MarkFlagsMutuallyExclusive("file", "url")
	Cmd.MarkFlagsMutuallyExclusive("progress", "no-progress")
}

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Send one video to the transcription service and print its video id",
	Long: `Send one video to the transcription service and print its video id

- --file: the video is transcoded to a 20 kbps mp3 and uploaded
- --url: the service fetches the video itself
- Ctrl-C cancels the run; the exit status is non-zero unless it succeeds`,
	Example: `  uploadai ingest --file talk.mp4 --prompt "golang, concurrency"
  uploadai ingest --url https://www.youtube.com/watch?v=xyz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := shared.Load(true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		machine := app.InitializeMachine(cfg, logger, nil)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := display.NewProgressManager(display.ProgressConfig{
			Enabled: !opts.noProgress && display.ShouldShowProgress(opts.forceProgress),
			Writer:  cmd.ErrOrStderr(),
		})
		return run(ctx, opts, machine, progress, cmd.OutOrStdout())
	},
}

// Submitter starts runs. *pipeline.Machine implements it.
type Submitter interface {
	Submit(source model.VideoSource, prompt string) *pipeline.Run
}

// run submits one video and blocks until the run finishes. Cancelling ctx cancels the run.
func run(ctx context.Context, o options, machine Submitter, progress *display.ProgressManager, out io.Writer) error {
	in := source.Input{URL: o.url, MimeType: o.mimeType}
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", o.file, err)
		}
		in.Data = data
		in.Filename = filepath.Base(o.file)
	}

	src, err := source.Resolve(in)
	if err != nil {
		return err
	}

	r := machine.Submit(src, o.prompt)

	stopCancel := context.AfterFunc(ctx, r.Cancel)
	defer stopCancel()

	progress.Follow(context.Background(), r)
	if ctx.Err() != nil {
		// Interrupted: drop the bar instead of waiting for it to render its last frame.
		progress.Shutdown()
	} else {
		progress.Wait()
	}

	snap, _ := r.Wait(context.Background())
	if snap.Stage != pipeline.Success {
		if snap.Error != nil {
			return fmt.Errorf("run %s %s", snap.ID, snap.Error)
		}
		return fmt.Errorf("run %s ended in %s", snap.ID, snap.Stage)
	}

	fmt.Fprintln(out, snap.VideoID)
	return nil
}
