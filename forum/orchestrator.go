package forum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/events"
	"github.com/nodespeak/nodespeak/models"
)

// Write describes one state-changing operation.
type Write struct {
	// Target names the aggregate being changed; one write per target at a time.
	Target string
	Call   chain.Call
	// PreCheck may settle the operation without a transaction (done=true)
	// or reject it before anything is sent.
	PreCheck func(ctx context.Context, account common.Address) (done bool, err error)
	// Prepare builds the call when it depends on work such as pinning content.
	Prepare func(ctx context.Context) (chain.Call, error)
	// OnConfirmed applies local patches once the receipt is successful.
	OnConfirmed func(account common.Address, receipt *types.Receipt)
	// Refresh re-reads the affected aggregate; its failure is only logged.
	Refresh func(ctx context.Context) error
}

// Receipt reports the outcome of a write.
type Receipt struct {
	Skipped bool   `json:"skipped"`
	Method  string `json:"method"`
	Account string `json:"account"`
	TxHash  string `json:"tx_hash,omitempty"`
	Block   uint64 `json:"block,omitempty"`
	GasUsed uint64 `json:"gas_used,omitempty"`
}

// OrchestratorConfig tunes the write protocol.
type OrchestratorConfig struct {
	Simulate       bool
	ConfirmTimeout time.Duration
}

// Orchestrator runs every write through the same protocol: in-flight guard,
// signer, pre-check, simulation, submit, confirmation, journal, refresh.
type Orchestrator struct {
	contract  ChainWriter
	signer    Signer
	inflight  *InFlight
	journal   Journal
	publisher events.Publisher
	cfg       OrchestratorConfig
	log       *zap.Logger
}

func NewOrchestrator(contract ChainWriter, signer Signer, inflight *InFlight, journal Journal, publisher events.Publisher, cfg OrchestratorConfig, log *zap.Logger) *Orchestrator {
	if inflight == nil {
		inflight = NewInFlight()
	}
	if journal == nil {
		journal = NopJournal{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		contract:  contract,
		signer:    signer,
		inflight:  inflight,
		journal:   journal,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// InFlight exposes the per-target markers.
func (o *Orchestrator) InFlight() *InFlight { return o.inflight }

// Execute runs w. A second call for the same target while one is running
// returns ErrInFlight without side effects. Once submitted, confirmation and
// the follow-up refresh run to completion bounded by ConfirmTimeout only.
func (o *Orchestrator) Execute(ctx context.Context, w Write) (*Receipt, error) {
	if !o.inflight.Acquire(w.Target) {
		return nil, ErrInFlight
	}
	defer o.inflight.Release(w.Target)

	account, err := o.signer.Account()
	if err != nil {
		return nil, err
	}

	call := w.Call
	if w.PreCheck != nil {
		done, err := w.PreCheck(ctx, account)
		if err != nil {
			return nil, err
		}
		if done {
			o.log.Debug("write settled by pre-check", zap.String("target", w.Target), zap.String("method", call.Method))
			return &Receipt{Skipped: true, Method: call.Method, Account: account.Hex()}, nil
		}
	}
	if w.Prepare != nil {
		if call, err = w.Prepare(ctx); err != nil {
			return nil, err
		}
	}

	if o.cfg.Simulate {
		if _, err := o.contract.Simulate(ctx, account, call); err != nil {
			return nil, simulationError(call.Method, err)
		}
	}

	opts, err := o.signer.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := o.contract.Submit(opts, call)
	if err != nil {
		// Transact estimates gas itself, so an unsimulated revert shows up here.
		if chain.IsRevert(err) || Classify(chain.RevertReason(err)) != KindUnclassified {
			return nil, simulationError(call.Method, err)
		}
		return nil, err
	}
	// The transaction is out; the caller going away must not abandon it.
	ctx = context.WithoutCancel(ctx)
	hash := tx.Hash().Hex()
	log := o.log.With(zap.String("method", call.Method), zap.String("target", w.Target), zap.String("tx", hash))
	log.Info("transaction submitted", zap.String("account", account.Hex()))

	if err := o.journal.Record(ctx, &models.TxRecord{
		TxHash:  hash,
		Method:  call.Method,
		Target:  w.Target,
		Account: account.Hex(),
		Status:  models.TxSubmitted,
	}); err != nil {
		log.Warn("journal record failed", zap.Error(err))
	}

	receipt, err := o.wait(ctx, tx)
	if err != nil {
		o.settleJournal(ctx, log, hash, models.TxFailed, 0, err)
		return nil, &TransactionError{Method: call.Method, TxHash: hash, Err: err}
	}
	block := receipt.BlockNumber.Uint64()
	if receipt.Status != types.ReceiptStatusSuccessful {
		o.settleJournal(ctx, log, hash, models.TxReverted, block, ErrReverted)
		return nil, &TransactionError{Method: call.Method, TxHash: hash, Err: ErrReverted}
	}
	o.settleJournal(ctx, log, hash, models.TxConfirmed, block, nil)
	log.Info("transaction confirmed", zap.Uint64("block", block), zap.Uint64("gas_used", receipt.GasUsed))

	if err := o.publisher.Publish(ctx, events.NewEvent(call.Method, hash, account.Hex(), w.Target, block)); err != nil {
		log.Warn("publish event failed", zap.Error(err))
	}
	if w.OnConfirmed != nil {
		w.OnConfirmed(account, receipt)
	}
	if w.Refresh != nil {
		if err := w.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("refresh after write failed", zap.Error(err))
		}
	}

	return &Receipt{
		Method:  call.Method,
		Account: account.Hex(),
		TxHash:  hash,
		Block:   block,
		GasUsed: receipt.GasUsed,
	}, nil
}

func (o *Orchestrator) wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if o.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ConfirmTimeout)
		defer cancel()
	}
	receipt, err := o.contract.WaitConfirmed(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt == nil || receipt.BlockNumber == nil {
		return nil, fmt.Errorf("no receipt for %s", tx.Hash().Hex())
	}
	return receipt, nil
}

func (o *Orchestrator) settleJournal(ctx context.Context, log *zap.Logger, hash, status string, block uint64, cause error) {
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if err := o.journal.Update(ctx, hash, status, block, errText); err != nil {
		log.Warn("journal update failed", zap.String("status", status), zap.Error(err))
	}
}

func simulationError(method string, err error) *SimulationError {
	reason := chain.RevertReason(err)
	return &SimulationError{Method: method, Kind: Classify(reason), Reason: reason, Err: err}
}
