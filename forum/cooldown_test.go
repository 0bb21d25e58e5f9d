package forum

import (
	"testing"
	"time"
)

func TestCooldowns(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewCooldowns(time.Hour)
	c.now = func() time.Time { return now }

	if c.Remaining("0xAA") != 0 {
		t.Fatal("fresh account should not wait")
	}
	c.Start("0xAA")
	if got := c.Remaining("0xaa"); got != time.Hour {
		t.Errorf("remaining = %v, want 1h (addresses compare case-insensitively)", got)
	}

	now = now.Add(45 * time.Minute)
	if got := c.Remaining("0xAA"); got < 14*time.Minute || got > 16*time.Minute {
		t.Errorf("remaining = %v, want ~15m", got)
	}

	now = now.Add(16 * time.Minute)
	if got := c.Remaining("0xAA"); got != 0 {
		t.Errorf("remaining = %v after window", got)
	}
}

func TestCooldownsDisabled(t *testing.T) {
	c := NewCooldowns(0)
	c.Start("0xAA")
	if c.Remaining("0xAA") != 0 {
		t.Error("zero window disables the cooldown")
	}
}
