package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// SignatureWatcher waits for transaction confirmations through the node's
// signatureSubscribe websocket method.
type SignatureWatcher struct {
	wsEndpoint string
	dialer     *websocket.Dialer
	timeout    time.Duration
}

// NewSignatureWatcher returns a watcher for wsEndpoint. timeout bounds a single wait when
// the caller's context has no deadline; zero means 90 seconds.
func NewSignatureWatcher(wsEndpoint string, timeout time.Duration) *SignatureWatcher {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &SignatureWatcher{
		wsEndpoint: wsEndpoint,
		dialer:     websocket.DefaultDialer,
		timeout:    timeout,
	}
}

type wsMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Subscription int `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// Wait subscribes to sig and returns once the node notifies that it reached commitment.
// A transaction that landed with an error yields ErrTransactionFailed.
func (w *SignatureWatcher) Wait(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) (Receipt, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	c, _, err := w.dialer.DialContext(ctx, w.wsEndpoint, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to connect to solana websocket: %w", err)
	}
	defer c.Close()

	// unblock ReadMessage when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	subscribeMsg := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "signatureSubscribe",
		"params": []interface{}{
			sig.String(),
			map[string]interface{}{
				"commitment": string(commitment),
			},
		},
	}
	if err := c.WriteJSON(subscribeMsg); err != nil {
		return Receipt{}, fmt.Errorf("failed to send subscription message: %w", err)
	}

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Receipt{}, ctx.Err()
			}
			return Receipt{}, fmt.Errorf("error reading message: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithFields(log.Fields{
				"signature": sig.String(),
				"error":     err.Error(),
			}).Warn("Failed to unmarshal message")
			continue
		}

		if msg.ID != nil {
			if len(msg.Error) > 0 && string(msg.Error) != "null" {
				return Receipt{}, fmt.Errorf("subscription rejected: %s", string(msg.Error))
			}
			log.WithFields(log.Fields{
				"signature":       sig.String(),
				"subscription_id": string(msg.Result),
			}).Debug("Subscription confirmed")
			continue
		}

		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue
		}
		var value struct {
			Err interface{} `json:"err"`
		}
		if err := json.Unmarshal(msg.Params.Result.Value, &value); err != nil {
			return Receipt{}, fmt.Errorf("malformed signature notification: %w", err)
		}
		if value.Err != nil {
			return Receipt{}, fmt.Errorf("%w: %s", ErrTransactionFailed, encodeTxError(value.Err))
		}
		return Receipt{
			Signature: sig,
			Slot:      msg.Params.Result.Context.Slot,
			Status:    string(commitment),
		}, nil
	}
}
