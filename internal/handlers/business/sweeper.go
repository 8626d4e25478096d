package business

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"lpcontrol/internal/models"
	solanapkg "lpcontrol/pkg/solana"
	"lpcontrol/pkg/solana/clmm"
)

// StatusExpired marks a pending submission that never landed. Its blockhash is long gone.
const StatusExpired = "expired"

// SweepStats counts what one sweep did.
type SweepStats struct {
	Checked   int `json:"checked"`
	Confirmed int `json:"confirmed"`
	Failed    int `json:"failed"`
	Expired   int `json:"expired"`
}

// SweepPending re-checks submissions left pending by a lost confirmation. Submissions
// older than maxAge that the node still does not know are marked expired.
func (s *PositionService) SweepPending(ctx context.Context, maxAge time.Duration, limit int) (SweepStats, error) {
	var stats SweepStats
	subs, err := s.journal.PendingSubmissions(ctx, limit)
	if err != nil {
		return stats, fmt.Errorf("load pending submissions: %w", err)
	}

	for i := range subs {
		sub := &subs[i]
		sig, err := solana.SignatureFromBase58(sub.Signature)
		if err != nil {
			// unreadable rows cannot settle
			s.settle(ctx, sub, SubmissionUpdate{Status: solanapkg.StatusFailed, Error: "malformed signature"})
			stats.Failed++
			continue
		}

		status, statusErr := s.chain.SignatureStatus(ctx, sig)
		if statusErr != nil && clmm.IsRetryable(statusErr) {
			logrus.WithFields(logrus.Fields{
				"signature": sub.Signature,
				"error":     statusErr.Error(),
			}).Warn("Signature status unavailable")
			continue
		}
		stats.Checked++

		switch status {
		case solanapkg.StatusConfirmed, solanapkg.StatusFinalized:
			now := time.Now()
			s.settle(ctx, sub, SubmissionUpdate{Status: status, ConfirmedAt: &now})
			s.syncPosition(ctx, sub)
			stats.Confirmed++
		case solanapkg.StatusFailed:
			msg := "transaction failed"
			if statusErr != nil {
				msg = statusErr.Error()
			}
			s.settle(ctx, sub, SubmissionUpdate{Status: solanapkg.StatusFailed, Error: msg})
			s.abandonOpen(ctx, sub)
			stats.Failed++
		default:
			if time.Since(sub.CreatedAt) > maxAge {
				s.settle(ctx, sub, SubmissionUpdate{Status: StatusExpired, Error: sub.Error})
				s.abandonOpen(ctx, sub)
				stats.Expired++
			}
		}
	}

	if stats.Checked > 0 {
		logrus.WithFields(logrus.Fields{
			"checked":   stats.Checked,
			"confirmed": stats.Confirmed,
			"failed":    stats.Failed,
			"expired":   stats.Expired,
		}).Info("Pending submissions swept")
	}
	return stats, nil
}

func (s *PositionService) settle(ctx context.Context, sub *models.Submission, update SubmissionUpdate) {
	if err := s.journal.UpdateSubmission(ctx, sub.Signature, update); err != nil {
		logrus.WithFields(logrus.Fields{
			"signature": sub.Signature,
			"status":    update.Status,
			"error":     err.Error(),
		}).Error("Failed to update submission")
	}
}

// syncPosition refreshes the position record after a late confirmation.
func (s *PositionService) syncPosition(ctx context.Context, sub *models.Submission) {
	if sub.NftMint == "" {
		return
	}
	mint, err := solana.PublicKeyFromBase58(sub.NftMint)
	if err != nil {
		return
	}
	read, err := s.readPosition(ctx, clmm.Op(sub.Op), mint)
	if err != nil || read.record == nil {
		return
	}

	record := read.record
	record.Retired = true
	if read.account != nil {
		record.Phase = clmm.Open.String()
		record.Liquidity = read.account.Liquidity.String()
		record.TickLower = read.account.TickLowerIndex
		record.TickUpper = read.account.TickUpperIndex
	} else {
		record.Phase = clmm.Closed.String()
		record.Liquidity = "0"
	}
	if err := s.journal.SavePosition(ctx, record); err != nil {
		logrus.WithFields(logrus.Fields{
			"nft_mint": sub.NftMint,
			"error":    err.Error(),
		}).Error("Failed to sync position record")
	}
}

// abandonOpen moves the record of an open that never landed out of the pending phase.
func (s *PositionService) abandonOpen(ctx context.Context, sub *models.Submission) {
	if sub.Op != string(clmm.OpOpen) || sub.NftMint == "" {
		return
	}
	record, err := s.journal.Position(ctx, sub.NftMint)
	if err != nil || record == nil || record.Phase != phasePending {
		return
	}
	record.Phase = clmm.Unopened.String()
	record.Liquidity = "0"
	if err := s.journal.SavePosition(ctx, record); err != nil {
		logrus.WithFields(logrus.Fields{
			"nft_mint": sub.NftMint,
			"error":    err.Error(),
		}).Error("Failed to abandon position record")
	}
}
