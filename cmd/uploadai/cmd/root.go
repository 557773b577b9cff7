package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"upload-ai/cmd/uploadai/cmd/ingest"
	"upload-ai/cmd/uploadai/cmd/serve"
	"upload-ai/cmd/uploadai/cmd/shared"
	"upload-ai/cmd/uploadai/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uploadai",
	Short: "Turn a video into audio on the upload-ai transcription service",
	Long: `Turn a video into audio on the upload-ai transcription service.
- A local video is transcoded to a small mp3 with ffmpeg and uploaded
- A remote URL is handed to the service as-is
- A transcription is then requested and the resulting video id is printed`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(ingest.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVarP(&shared.ConfigPath, "config", "c", "", "YAML config file (env vars override it)")
	rootCmd.PersistentFlags().BoolVarP(&shared.Verbose, "verbose", "V", false, "verbose output")
}
