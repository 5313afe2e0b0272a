// internal/console/review.go
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/signalnine/wildguard/internal/protocol"
)

var (
	ErrInvalidAction = errors.New("invalid verification action")
	ErrSessionClosed = errors.New("review session is no longer active")
)

// ValidAction reports whether action is approve, reject or investigate
func ValidAction(action string) bool {
	switch action {
	case protocol.ActionApprove, protocol.ActionReject, protocol.ActionInvestigate:
		return true
	}
	return false
}

// ReviewSession is an operator's open detail view of one report. It is
// created by OpenReview, active while the board holds it, and ends when it
// is closed, verified or replaced by another review.
type ReviewSession struct {
	reportID string
	report   *protocol.Report

	client  *Client
	board   *Board
	refresh func(context.Context)
	log     log.Interface
}

// ReportID returns the id under review
func (s *ReviewSession) ReportID() string {
	return s.reportID
}

// Report returns the report details loaded when the session opened, or nil
func (s *ReviewSession) Report() *protocol.Report {
	return s.report
}

// Active reports whether the session is still the board's open review
func (s *ReviewSession) Active() bool {
	return s.board.isActive(s)
}

// Close ends the session without a decision
func (s *ReviewSession) Close() {
	s.board.closeReview(s)
}

// Verify submits a decision for the report. On success the session closes
// and the report listing is fetched once. On failure the session stays open
// and nothing displayed changes; a rejection comes back as *VerifyError.
func (s *ReviewSession) Verify(ctx context.Context, action, notes string, rewardAmount float64) error {
	if !ValidAction(action) {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if !s.Active() {
		return ErrSessionClosed
	}

	_, err := s.client.Verify(ctx, s.reportID, protocol.VerifyRequest{
		Action:           action,
		Notes:            notes,
		RewardAmount:     rewardAmount,
		FollowUpRequired: action == protocol.ActionInvestigate,
	})
	if err != nil {
		s.board.setReviewError(s, err.Error())
		s.log.WithError(err).WithFields(log.Fields{
			"report": s.reportID,
			"action": action,
		}).Warn("verification failed")
		return err
	}

	s.log.WithFields(log.Fields{
		"report": s.reportID,
		"action": action,
	}).Info("report verified")

	s.board.closeReview(s)
	s.refresh(ctx)
	return nil
}
