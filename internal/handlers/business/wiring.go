package business

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"lpcontrol/pkg/config"
	solanapkg "lpcontrol/pkg/solana"
)

// probe timeout per endpoint when several RPCs are configured
const rpcProbeTimeout = 3 * time.Second

// NewExecutor connects to the healthiest configured RPC endpoint and confirms over
// the websocket endpoint.
func NewExecutor(ctx context.Context, s config.Settings) (*solanapkg.Executor, error) {
	endpoint, _, err := solanapkg.SelectHealthyEndpoint(ctx, s.RPCEndpoints(), rpcProbeTimeout)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"rpc":        endpoint,
		"commitment": s.Commitment,
	}).Info("Using RPC endpoint")

	executor := solanapkg.NewExecutor(solanapkg.ExecutorConfig{
		Endpoint:          endpoint,
		Commitment:        s.Commitment,
		SkipPreflight:     s.SkipPreflight,
		RequestsPerSecond: s.RPCRPS,
	})
	if s.SolanaWSS != "" {
		executor.WithWatcher(solanapkg.NewSignatureWatcher(s.SolanaWSS, s.ConfirmTimeout))
	}
	return executor, nil
}

// NewServiceFromSettings builds a position service signing with keys from the keystore.
func NewServiceFromSettings(chain ChainClient, journal Journal, s config.Settings) *PositionService {
	keys := NewKeystoreSource(solanapkg.NewKeyManager(s.KeystoreDir), s.KeystorePassword)
	return NewPositionService(chain, journal, keys, ServiceConfig{
		ClmmProgramID:  s.ClmmProgramID,
		ProxyProgramID: s.ProxyProgramID,
		AmmConfig:      s.AmmConfig,
		ComputeUnits:   s.ComputeUnitLimit,
		ConfirmTimeout: s.ConfirmTimeout,
	})
}
