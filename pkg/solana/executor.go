package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lpcontrol/pkg/solana/clmm"
)

// Signature statuses reported by SignatureStatus and recorded in the submission journal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFinalized = "finalized"
	StatusFailed    = "failed"
)

// JSON-RPC error codes the node returns for conditions that clear up on their own.
var transientRPCCodes = map[int]bool{
	-32004: true, // block not available
	-32005: true, // node unhealthy
	-32014: true, // block status not yet available
	-32016: true, // minimum context slot not reached
}

type ExecutorConfig struct {
	Endpoint          string
	Commitment        rpc.CommitmentType
	SkipPreflight     bool
	RequestsPerSecond int
	// PollInterval is the signature-status polling period used while confirming.
	PollInterval time.Duration
}

// Executor submits bundles to a Solana RPC node and reports their outcome.
type Executor struct {
	client        *rpc.Client
	limiter       *rate.Limiter
	commitment    rpc.CommitmentType
	skipPreflight bool
	pollInterval  time.Duration
	watcher       *SignatureWatcher
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	commitment := cfg.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 700 * time.Millisecond
	}
	return &Executor{
		client:        rpc.New(cfg.Endpoint),
		limiter:       rate.NewLimiter(rate.Limit(rps), rps), // 每秒允许 rps 次请求
		commitment:    commitment,
		skipPreflight: cfg.SkipPreflight,
		pollInterval:  poll,
	}
}

// WithWatcher makes Execute wait for confirmations over the websocket subscription
// before falling back to polling.
func (e *Executor) WithWatcher(w *SignatureWatcher) *Executor {
	e.watcher = w
	return e
}

// Keyring resolves the private keys of bundle signers.
type Keyring map[solana.PublicKey]*solana.PrivateKey

func NewKeyring(keys ...solana.PrivateKey) Keyring {
	ring := make(Keyring, len(keys))
	for i := range keys {
		k := keys[i]
		ring[k.PublicKey()] = &k
	}
	return ring
}

// Add registers key and returns the ring for chaining.
func (r Keyring) Add(key solana.PrivateKey) Keyring {
	r[key.PublicKey()] = &key
	return r
}

func (r Keyring) lookup(key solana.PublicKey) *solana.PrivateKey {
	return r[key]
}

// Submission is a bundle accepted by the node but not yet confirmed.
type Submission struct {
	Signature            solana.Signature
	LastValidBlockHeight uint64
}

// Receipt is a committed bundle.
type Receipt struct {
	Signature solana.Signature `json:"signature"`
	Slot      uint64           `json:"slot"`
	Status    string           `json:"status"`
}

// AccountData is the raw state of a fetched account.
type AccountData struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

func (e *Executor) wait(ctx context.Context, op clmm.Op, position solana.PublicKey) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return &clmm.TransientNetworkError{Op: op, Position: position, Err: fmt.Errorf("rate limiter wait failed: %w", err)}
	}
	return nil
}

// Submit signs the bundle with a fresh blockhash and sends it as one transaction.
func (e *Executor) Submit(ctx context.Context, bundle *clmm.Bundle, keys Keyring) (Submission, error) {
	op, position := bundle.Op(), bundle.Position()
	for _, signer := range bundle.Signers() {
		if keys.lookup(signer) == nil {
			return Submission{}, &clmm.ValidationError{Op: op, Reason: fmt.Sprintf("no private key for signer %s", signer)}
		}
	}

	if err := e.wait(ctx, op, position); err != nil {
		return Submission{}, err
	}
	recent, err := e.client.GetLatestBlockhash(ctx, e.commitment)
	if err != nil {
		return Submission{}, classify(op, position, fmt.Errorf("get latest blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(
		bundle.Instructions(),
		recent.Value.Blockhash,
		solana.TransactionPayer(bundle.FeePayer()),
	)
	if err != nil {
		return Submission{}, fmt.Errorf("build %s transaction: %w", op, err)
	}
	if _, err := tx.Sign(keys.lookup); err != nil {
		return Submission{}, fmt.Errorf("sign %s transaction: %w", op, err)
	}

	opts := rpc.TransactionOpts{
		SkipPreflight:       e.skipPreflight,
		PreflightCommitment: e.commitment,
	}
	if err := e.wait(ctx, op, position); err != nil {
		return Submission{}, err
	}
	sig, err := e.client.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		return Submission{}, classify(op, position, err)
	}

	log.WithFields(log.Fields{
		"op":        op,
		"position":  position.String(),
		"signature": sig.String(),
	}).Info("Bundle submitted")
	return Submission{Signature: sig, LastValidBlockHeight: recent.Value.LastValidBlockHeight}, nil
}

// Confirm blocks until the submission reaches the executor's commitment, fails on chain,
// or its blockhash expires.
func (e *Executor) Confirm(ctx context.Context, op clmm.Op, position solana.PublicKey, sub Submission) (Receipt, error) {
	if e.watcher != nil {
		receipt, err := e.watcher.Wait(ctx, sub.Signature, e.commitment)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ErrTransactionFailed):
			return Receipt{}, &clmm.ProtocolRejection{Op: op, Position: position, Err: err}
		case ctx.Err() != nil:
			return Receipt{}, &clmm.TransientNetworkError{Op: op, Position: position, Err: ctx.Err()}
		}
		log.WithFields(log.Fields{
			"signature": sub.Signature.String(),
			"error":     err.Error(),
		}).Warn("Signature subscription failed, polling status")
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Receipt{}, &clmm.TransientNetworkError{Op: op, Position: position, Err: ctx.Err()}
		case <-ticker.C:
		}

		if err := e.wait(ctx, op, position); err != nil {
			return Receipt{}, err
		}
		result, err := e.client.GetSignatureStatuses(ctx, true, sub.Signature)
		if err != nil {
			log.WithFields(log.Fields{
				"signature": sub.Signature.String(),
				"error":     err.Error(),
			}).Warn("Failed to get signature status")
			continue
		}
		if len(result.Value) > 0 && result.Value[0] != nil {
			status := result.Value[0]
			if status.Err != nil {
				return Receipt{}, &clmm.ProtocolRejection{
					Op:       op,
					Position: position,
					Code:     encodeTxError(status.Err),
					Err:      ErrTransactionFailed,
				}
			}
			if reached(status.ConfirmationStatus, e.commitment) {
				return Receipt{
					Signature: sub.Signature,
					Slot:      status.Slot,
					Status:    string(status.ConfirmationStatus),
				}, nil
			}
			continue
		}

		// Not seen yet: the bundle is dead once the chain passes its blockhash.
		if sub.LastValidBlockHeight == 0 {
			continue
		}
		if err := e.wait(ctx, op, position); err != nil {
			return Receipt{}, err
		}
		height, err := e.client.GetBlockHeight(ctx, e.commitment)
		if err == nil && height > sub.LastValidBlockHeight {
			return Receipt{}, &clmm.TransientNetworkError{
				Op:       op,
				Position: position,
				Err:      fmt.Errorf("blockhash expired at height %d before %s landed", height, sub.Signature),
			}
		}
	}
}

// Execute submits and confirms a bundle. A nil error means the whole bundle committed.
func (e *Executor) Execute(ctx context.Context, bundle *clmm.Bundle, keys Keyring) (Receipt, error) {
	sub, err := e.Submit(ctx, bundle, keys)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := e.Confirm(ctx, bundle.Op(), bundle.Position(), sub)
	if err != nil {
		// keep the signature so callers can journal the attempt
		receipt.Signature = sub.Signature
		return receipt, err
	}
	return receipt, nil
}

// FetchAccount returns the account at key, or nil when it does not exist.
func (e *Executor) FetchAccount(ctx context.Context, key solana.PublicKey) (*AccountData, error) {
	if err := e.wait(ctx, "", solana.PublicKey{}); err != nil {
		return nil, err
	}
	out, err := e.client.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: e.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("", solana.PublicKey{}, fmt.Errorf("get account %s: %w", key, err))
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	return &AccountData{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
		Data:     out.GetBinary(),
	}, nil
}

// SignatureStatus reports the current status of a submitted signature.
func (e *Executor) SignatureStatus(ctx context.Context, sig solana.Signature) (string, error) {
	if err := e.wait(ctx, "", solana.PublicKey{}); err != nil {
		return "", err
	}
	res, err := e.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return "", classify("", solana.PublicKey{}, fmt.Errorf("failed to get signature status: %w", err))
	}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return StatusPending, nil
	}

	status := res.Value[0]
	if status.Err != nil {
		return StatusFailed, fmt.Errorf("transaction failed: %s", encodeTxError(status.Err))
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return StatusFinalized, nil
	case rpc.ConfirmationStatusConfirmed:
		return StatusConfirmed, nil
	}
	return StatusPending, nil
}

// ErrTransactionFailed is the cause of a ProtocolRejection raised after the transaction landed.
var ErrTransactionFailed = errors.New("transaction failed on chain")

// reached reports whether got satisfies the want commitment.
func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch got {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}

func encodeTxError(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// classify sorts an RPC failure into a program rejection or a retryable network error.
func classify(op clmm.Op, position solana.PublicKey, err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Message)
		if transientRPCCodes[rpcErr.Code] || strings.Contains(msg, "blockhash not found") {
			return &clmm.TransientNetworkError{Op: op, Position: position, Err: err}
		}
		return &clmm.ProtocolRejection{
			Op:       op,
			Position: position,
			Code:     strconv.Itoa(rpcErr.Code),
			Err:      err,
		}
	}
	return &clmm.TransientNetworkError{Op: op, Position: position, Err: err}
}
