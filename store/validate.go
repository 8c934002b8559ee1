package store

import (
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-call/models"
)

// Validate checks a claim log read from durable storage.
// A failing log is wrapped in ErrCorrupt.
func Validate(log models.ClaimLog) error {
	if log.Date == "" {
		if len(log.Claims) > 0 {
			return fmt.Errorf("%w: undated log with %d claims", ErrCorrupt, len(log.Claims))
		}
		return nil
	}
	if _, err := time.Parse(models.DateFormat, log.Date); err != nil {
		return fmt.Errorf("%w: invalid log date %q", ErrCorrupt, log.Date)
	}

	seen := make(map[models.Ticket]bool, len(log.Claims))
	for i, c := range log.Claims {
		switch {
		case c.Room == "":
			return fmt.Errorf("%w: claim %d has no room", ErrCorrupt, i)
		case c.Ticket.Sequence < 1:
			return fmt.Errorf("%w: claim %d has sequence %d", ErrCorrupt, i, c.Ticket.Sequence)
		case c.Ticket.Date != log.Date:
			return fmt.Errorf("%w: claim %d dated %s in log %s", ErrCorrupt, i, c.Ticket.Date, log.Date)
		case c.ClaimedAt.IsZero():
			return fmt.Errorf("%w: claim %d has no timestamp", ErrCorrupt, i)
		case seen[c.Ticket]:
			return fmt.Errorf("%w: ticket %s claimed twice", ErrCorrupt, c.Ticket)
		}
		seen[c.Ticket] = true
	}
	return nil
}
