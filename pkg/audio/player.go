package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/rs/zerolog"
)

// ErrSoundFileRequired is returned when no alert sound is configured.
var ErrSoundFileRequired = errors.New("sound file is required")

// DefaultPlayer is used when no player command is configured.
const DefaultPlayer = "aplay -q"

// CommandPlayer plays the alert sound by running an external player such as aplay,
// paplay or mpg123 with the sound file as its last argument.
type CommandPlayer struct {
	command   []string
	soundFile string
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewCommandPlayer checks that the sound file exists before accepting it.
func NewCommandPlayer(player, soundFile string, timeout time.Duration, fileClient file.FileOperations, logger zerolog.Logger) (*CommandPlayer, error) {
	if soundFile == "" {
		return nil, ErrSoundFileRequired
	}
	exists, err := fileClient.IsFileExists(soundFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sound file %s: %w", soundFile, err)
	}
	if !exists {
		return nil, fmt.Errorf("sound file %s does not exist", soundFile)
	}

	command := strings.Fields(player)
	if len(command) == 0 {
		command = strings.Fields(DefaultPlayer)
	}

	return &CommandPlayer{
		command:   command,
		soundFile: soundFile,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Play runs the player to completion or until the timeout expires.
func (p *CommandPlayer) Play(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	args := append(append([]string{}, p.command[1:]...), p.soundFile)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.Debug().Str("player", p.command[0]).Str("sound_file", p.soundFile).Msg("Playing alert sound")

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("alert playback timed out after %s", p.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("alert playback failed: %w: %s", err, msg)
		}
		return fmt.Errorf("alert playback failed: %w", err)
	}
	return nil
}
