// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify drives the visual and audio cue for a display transition.

	s := notify.New(sink, notify.Options{
		Sound:  "chime.wav",
		Player: notify.CommandPlayer{Command: "aplay", Args: []string{"-q"}},
	})
	s.Trigger(ctx, transition)

Trigger never blocks. The room's row alternates between highlight and
normal for Blinks steps (six by default, starting highlighted) every
Interval (500ms), then settles on normal. A new transition for the same room
restarts its cycle.

The audio cue runs in its own goroutine and only when the sound file exists.
Player errors are logged and never affect the visual cycle.
*/
package notify
