package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/conversation"
)

func talkCmd() *cobra.Command {
	var file, mimeType, out string

	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Play one recorded turn through the conversation and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTalk(cmd.Context(), file, mimeType, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Audio file to use as the recording (required)")
	cmd.Flags().StringVar(&mimeType, "mime", audio.DefaultMIMEType, "MIME type of the audio file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the spoken reply (mp3) to this path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runTalk(ctx context.Context, file, mimeType, out string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	collab, err := a.collaborators(a.notifier())
	if err != nil {
		return err
	}

	device := audio.NewFileDevice(file)
	capture := audio.NewCapture(device, mimeType, a.log)

	session, _ := a.session(ctx, capture, collab.speech, collab.replies)
	defer session.Close()

	before := len(session.Messages())

	if err := session.StartRecording(ctx); err != nil {
		return err
	}

	select {
	case <-device.Finished():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := session.StopRecording(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*a.cfg.CollaboratorTimeout+a.cfg.CollaboratorTimeout/2)
	defer cancel()
	if err := session.WaitIdle(waitCtx); err != nil {
		return fmt.Errorf("no reply: %w", err)
	}

	msgs := session.Messages()
	if len(msgs) <= before {
		fmt.Println("(no speech detected)")
		return nil
	}

	var reply *conversation.Message
	for i := before; i < len(msgs); i++ {
		m := msgs[i]
		fmt.Printf("[%s", m.Role)
		if m.DetectedLanguage != "" {
			fmt.Printf(" · %s", m.DetectedLanguage)
		}
		fmt.Printf("] %s\n", m.Content)
		if m.Role == conversation.RoleAssistant {
			reply = &msgs[i]
		}
	}

	if out == "" {
		return nil
	}
	if reply == nil {
		return errors.New("no reply to speak")
	}

	mp3, err := collab.speech.Synthesize(ctx, reply.Content, reply.DetectedLanguage)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, mp3, 0o644); err != nil {
		return err
	}
	fmt.Printf("reply audio written to %s\n", out)
	return nil
}
