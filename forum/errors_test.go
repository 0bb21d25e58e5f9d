package forum

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nodespeak/nodespeak/wallet"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"execution reverted: Community creation cooldown active": KindCooldownActive,
		"execution reverted: Already a member":                   KindAlreadyMember,
		"Not a member of this community":                         KindNotAMember,
		"You have already liked this post":                       KindAlreadyLiked,
		"out of gas":                                             KindUnclassified,
		"":                                                       KindUnclassified,
	}
	for reason, want := range cases {
		if got := Classify(reason); got != want {
			t.Errorf("Classify(%q) = %s, want %s", reason, got, want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", wallet.ErrWalletNotConnected), "connect your wallet"},
		{wallet.ErrWalletUnavailable, "No wallet"},
		{&SimulationError{Method: "createCommunity", Kind: KindCooldownActive}, "every 90 minutes"},
		{ErrNotAMember, "join this community"},
		{&TransactionError{Method: "likePost", TxHash: "0x1", Err: ErrReverted}, "0x1"},
		{errors.New("boom"), "boom"},
	}
	for _, c := range cases {
		if got := UserMessage(c.err, 90*time.Minute); !strings.Contains(got, c.want) {
			t.Errorf("UserMessage(%v) = %q, want it to contain %q", c.err, got, c.want)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	if got := humanDuration(time.Hour); got != "1 hour" {
		t.Errorf("got %q", got)
	}
	if got := humanDuration(2 * time.Hour); got != "2 hours" {
		t.Errorf("got %q", got)
	}
	if got := humanDuration(90 * time.Second); got != "1m30s" {
		t.Errorf("got %q", got)
	}
}
