package service

import (
	"context"

	"go.uber.org/zap"
)

// CombineTrigger notifies the rendering worker that a session is ready for
// combination. Best-effort: failures are logged by the detector and left to
// an external reconciliation pass.
type CombineTrigger interface {
	TriggerCombine(ctx context.Context, sessionID string) error
}

// UploadLedger is the recording ledger surface the detector needs.
type UploadLedger interface {
	// MarkUploadComplete moves a recording pending -> complete (one-way)
	// and returns the session id it belongs to.
	MarkUploadComplete(ctx context.Context, recordingID string) (string, error)
	// CountBySession returns total and upload-complete row counts for a session.
	CountBySession(ctx context.Context, sessionID string) (total, complete int64, err error)
}

// CombineClaimer atomically claims the right to fire the combination trigger
// for a session. It returns true for exactly one caller per session.
type CombineClaimer interface {
	ClaimCombine(ctx context.Context, sessionID string) (bool, error)
}

// Detector decides when all of a session's recordings are uploaded and fires
// the combination trigger exactly once. It is edge-triggered: it runs on
// every confirmed upload, possibly concurrently for the same session, and the
// claim on the session row serializes the fire decision.
type Detector struct {
	recordings UploadLedger
	sessions   CombineClaimer
	trigger    CombineTrigger
	log        *zap.Logger
}

// NewDetector creates a completion detector.
func NewDetector(recordings UploadLedger, sessions CombineClaimer, trigger CombineTrigger, log *zap.Logger) *Detector {
	return &Detector{recordings: recordings, sessions: sessions, trigger: trigger, log: log}
}

// UploadCompleted confirms one recording's upload and re-evaluates its
// session for completion.
func (d *Detector) UploadCompleted(ctx context.Context, recordingID string) error {
	sessionID, err := d.recordings.MarkUploadComplete(ctx, recordingID)
	if err != nil {
		return err
	}
	return d.Check(ctx, sessionID)
}

// Check evaluates a session's recording set and fires the trigger if every
// recording is uploaded. A session with zero recordings never fires. Calling
// Check after the trigger has fired is a no-op: the claim is already taken.
func (d *Detector) Check(ctx context.Context, sessionID string) error {
	total, complete, err := d.recordings.CountBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if total == 0 || complete != total {
		d.log.Debug("session not yet complete",
			zap.String("session_id", sessionID),
			zap.Int64("total", total),
			zap.Int64("complete", complete))
		return nil
	}
	claimed, err := d.sessions.ClaimCombine(ctx, sessionID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	d.log.Info("all recordings uploaded, triggering combination",
		zap.String("session_id", sessionID),
		zap.Int64("recordings", total))
	if err := d.trigger.TriggerCombine(ctx, sessionID); err != nil {
		// The claim stays taken: the session is complete but uncombined,
		// retriable by reconciliation, not by re-running the detector.
		d.log.Warn("combination trigger failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}
