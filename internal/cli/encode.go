package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/framestore"
)

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var session, framesDir, background string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode the frames of an earlier session",
		Long: `Encode frames left in the frame directory by a render whose encode step
failed. The frames are purged once the video is written.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames-dir") {
				cfg.FramesDir = framesDir
			}
			if cmd.Flags().Changed("background") {
				cfg.Background = background
			}
			if cfg.FramesDir == "" {
				if cfg.FramesDir, err = framestore.DefaultDir(); err != nil {
					return err
				}
			}
			if session == "" {
				if session, err = pickSession(cfg.FramesDir); err != nil {
					return err
				}
			}

			store, err := framestore.Open(cfg.FramesDir, session, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[*] Сессия %s: %d кадров\n", session, store.FrameCount())

			bar := &progressBar{title: "Encoding"}
			project := &engine.Project{Config: cfg, Store: store, Progress: bar.update}
			path, err := project.Encode(cmd.Context())
			bar.stop()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "[+++] Успех! Результат: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "session id (default: the only session in the directory)")
	cmd.Flags().StringVar(&framesDir, "frames-dir", "", "frame directory (default user cache)")
	cmd.Flags().StringVarP(&background, "background", "b", "", "background image or PDF")
	return cmd
}

func pickSession(dir string) (string, error) {
	sessions, err := framestore.Sessions(dir)
	if err != nil {
		return "", err
	}
	switch len(sessions) {
	case 0:
		return "", fmt.Errorf("no captured frames in %s", dir)
	case 1:
		return sessions[0], nil
	}
	return "", fmt.Errorf("several sessions in %s, pick one with --session: %s", dir, strings.Join(sessions, ", "))
}
