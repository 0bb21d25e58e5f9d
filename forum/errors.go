package forum

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/wallet"
)

var (
	ErrInFlight            = errors.New("operation already in flight")
	ErrCommunityNotFound   = errors.New("community not found")
	ErrNotAMember          = errors.New("not a member of this community")
	ErrAlreadyMember       = errors.New("already a member of this community")
	ErrAlreadyLiked        = errors.New("post already liked")
	ErrCooldownActive      = errors.New("community creation cooldown active")
	ErrTopicNotInCommunity = errors.New("topic does not belong to community")
	ErrCreatorCannotLeave  = errors.New("community creator cannot leave")
	ErrDuplicateTopic      = errors.New("topic already exists in community")
	ErrTopicAddDisabled    = errors.New("adding topics is disabled")
	ErrInvalidInput        = errors.New("invalid input")
	ErrSimulationReverted  = errors.New("simulation reverted")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrReverted            = errors.New("transaction reverted")
)

// Kind classifies a contract revert reason.
type Kind int

const (
	KindUnclassified Kind = iota
	KindCooldownActive
	KindAlreadyMember
	KindNotAMember
	KindAlreadyLiked
)

func (k Kind) String() string {
	switch k {
	case KindCooldownActive:
		return "cooldown_active"
	case KindAlreadyMember:
		return "already_member"
	case KindNotAMember:
		return "not_a_member"
	case KindAlreadyLiked:
		return "already_liked"
	default:
		return "unclassified"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindCooldownActive:
		return ErrCooldownActive
	case KindAlreadyMember:
		return ErrAlreadyMember
	case KindNotAMember:
		return ErrNotAMember
	case KindAlreadyLiked:
		return ErrAlreadyLiked
	default:
		return nil
	}
}

// Classify maps a revert reason to a Kind by substring.
func Classify(reason string) Kind {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "cooldown"):
		return KindCooldownActive
	case strings.Contains(r, "already a member"):
		return KindAlreadyMember
	case strings.Contains(r, "not a member"):
		return KindNotAMember
	case strings.Contains(r, "already liked"):
		return KindAlreadyLiked
	default:
		return KindUnclassified
	}
}

// SimulationError is a pre-flight revert. errors.Is matches ErrSimulationReverted
// and, for classified reasons, the matching sentinel.
type SimulationError struct {
	Method string
	Kind   Kind
	Reason string
	Err    error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulate %s: %s: %s", e.Method, e.Kind, e.Reason)
}

func (e *SimulationError) Unwrap() []error {
	errs := []error{ErrSimulationReverted}
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// TransactionError is a failure after submission.
type TransactionError struct {
	Method string
	TxHash string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.TxHash, e.Err)
}

func (e *TransactionError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}

// UserMessage renders err for display. Unknown errors keep their raw text.
func UserMessage(err error, cooldown time.Duration) string {
	var txErr *TransactionError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return "No wallet is available on this node. Configure a private key or keystore."
	case errors.Is(err, wallet.ErrWalletNotConnected):
		return "Please connect your wallet first."
	case errors.Is(err, ErrCooldownActive):
		return fmt.Sprintf("You can only create one community every %s. Please wait before creating another.", humanDuration(cooldown))
	case errors.Is(err, ErrAlreadyMember):
		return "You are already a member of this community."
	case errors.Is(err, ErrNotAMember):
		return "You must join this community before posting."
	case errors.Is(err, ErrAlreadyLiked):
		return "You have already liked this post."
	case errors.Is(err, ErrTopicNotInCommunity):
		return "The selected topic is not available in this community."
	case errors.Is(err, ErrCreatorCannotLeave):
		return "Community creators cannot leave their own community."
	case errors.Is(err, ErrDuplicateTopic):
		return "This topic already exists in the community."
	case errors.Is(err, ErrTopicAddDisabled):
		return "Adding topics is disabled on this node."
	case errors.Is(err, ErrInFlight):
		return "This action is already in progress."
	case errors.Is(err, ErrCommunityNotFound):
		return "Community not found."
	case errors.Is(err, content.ErrPinningNotConfigured):
		return "Content pinning is not configured on this node."
	case errors.As(err, &txErr):
		return fmt.Sprintf("Transaction %s failed: %v", txErr.TxHash, txErr.Err)
	default:
		return err.Error()
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "cooldown period"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.Round(time.Second).String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
