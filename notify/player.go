package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// CommandPlayer plays a sound file by running an external player,
// e.g. "aplay" or "afplay", with the file as its last argument.
type CommandPlayer struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func (p CommandPlayer) Play(ctx context.Context, path string) error {
	if p.Command == "" {
		return fmt.Errorf("no player command configured")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, p.Args...), path)
	out, err := exec.CommandContext(ctx, p.Command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", p.Command, err, out)
	}
	return nil
}
