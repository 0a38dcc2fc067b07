// Package workflow drives the attendance capture sequence: select a
// volunteer, hold camera and location acquisitions ready, classify the
// clock-in against the shift schedule, verify the photo with the external
// collaborator, and commit the record.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/capture"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
	"github.com/dapurmbg/kitchen-attendance/pkg/db"
)

// State identifies where the workflow is in the capture sequence
type State string

const (
	StateSelectingVolunteer   State = "SELECTING_VOLUNTEER"
	StateCapturingInput       State = "CAPTURING_INPUT"
	StateAwaitingVerification State = "AWAITING_VERIFICATION"
	StateRecordCommitted      State = "RECORD_COMMITTED"
)

// Precondition and policy errors surfaced to the user. None of them change
// workflow state.
var (
	ErrNoVolunteer   = errors.New("no volunteer selected")
	ErrNoLocationFix = errors.New("location fix not available yet")
	ErrNotCapturing  = errors.New("no capture session in progress")
	ErrTooEarly      = errors.New("check-in rejected")
)

// FallbackNote is recorded when the photo verifier is unreachable. The
// workflow fails open: an unverifiable photo is acceptable, a blocked
// volunteer is not.
const FallbackNote = "AI Verification unavailable (Offline)"

// PhotoVerifier is the external photo-verification collaborator
type PhotoVerifier interface {
	VerifyCheckInPhoto(ctx context.Context, jpeg []byte) (model.Verification, error)
}

// Result is the outcome of a committed attendance action
type Result struct {
	Record       model.AttendanceRecord
	Verdict      schedule.Verdict
	Verification model.Verification
}

// Options configures a Workflow
type Options struct {
	Records    db.RecordStore
	Volunteers db.VolunteerStore
	Evaluator  *schedule.Evaluator
	Verifier   PhotoVerifier
	Camera     capture.Camera
	Locator    capture.Locator
	Logger     *zap.Logger

	// PhotoDir is where captured stills are written; empty disables saving
	PhotoDir string
	// VerifyTimeout bounds the photo-verification call
	VerifyTimeout time.Duration
	// CommitDelay is how long after a commit the navigation hook fires
	CommitDelay time.Duration
	// Navigate is invoked CommitDelay after a record commits (e.g. to switch
	// the surrounding app to the history view). Optional.
	Navigate func()
	// Now substitutes the clock in tests
	Now func() time.Time
}

// Workflow is the attendance capture state machine. It is driven from a
// single goroutine; the only concurrency is the background location
// acquisition, which delivers over a channel the workflow polls.
type Workflow struct {
	records    db.RecordStore
	volunteers db.VolunteerStore
	evaluator  *schedule.Evaluator
	verifier   PhotoVerifier
	camera     capture.Camera
	locator    capture.Locator
	logger     *zap.Logger

	photoDir      string
	verifyTimeout time.Duration
	commitDelay   time.Duration
	navigate      func()
	now           func() time.Time

	state         State
	selected      *model.Volunteer
	fix           *model.Location
	fixCh         <-chan model.Location
	acquireCancel context.CancelFunc
	cameraReady   bool
	lastResult    *Result
}

// New creates a workflow in the volunteer-selection state
func New(opts Options) *Workflow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Workflow{
		records:       opts.Records,
		volunteers:    opts.Volunteers,
		evaluator:     opts.Evaluator,
		verifier:      opts.Verifier,
		camera:        opts.Camera,
		locator:       opts.Locator,
		logger:        opts.Logger,
		photoDir:      opts.PhotoDir,
		verifyTimeout: opts.VerifyTimeout,
		commitDelay:   opts.CommitDelay,
		navigate:      opts.Navigate,
		now:           opts.Now,
		state:         StateSelectingVolunteer,
	}
}

// State returns the current workflow state
func (w *Workflow) State() State {
	return w.state
}

// Selected returns the currently selected volunteer, if any
func (w *Workflow) Selected() *model.Volunteer {
	return w.selected
}

// LastResult returns the most recently committed attendance result
func (w *Workflow) LastResult() *Result {
	return w.lastResult
}

// FilterVolunteers matches the roster against a case-insensitive substring query
func (w *Workflow) FilterVolunteers(query string) []model.Volunteer {
	return w.volunteers.FilterVolunteers(query)
}

// Select picks a volunteer and starts the camera session and location
// acquisition. Neither acquisition blocks: the workflow enters the capture
// state immediately and the clock actions check readiness themselves.
// Selecting while a previous session is active tears that session down first.
func (w *Workflow) Select(v model.Volunteer) {
	w.teardownAcquisition()

	w.selected = &v
	w.fix = nil
	w.state = StateCapturingInput

	acquireCtx, cancel := context.WithCancel(context.Background())
	w.acquireCancel = cancel

	w.cameraReady = false
	if w.camera != nil {
		if err := w.camera.Start(acquireCtx); err != nil {
			w.logger.Warn("Camera unavailable, proceeding without photo", zap.Error(err))
		} else {
			w.cameraReady = true
		}
	}

	if w.locator != nil {
		w.fixCh = w.locator.Acquire(acquireCtx)
	}

	w.logger.Info("Volunteer selected",
		zap.String("volunteer", v.Name),
		zap.String("role", v.DefaultRole),
		zap.Bool("camera_ready", w.cameraReady))
}

// LocationReady reports whether a location fix has been delivered
func (w *Workflow) LocationReady() bool {
	w.pollFix()
	return w.fix != nil
}

// WaitForLocation blocks until a location fix arrives, the acquisition
// channel closes without one, or the context ends
func (w *Workflow) WaitForLocation(ctx context.Context) error {
	w.pollFix()
	if w.fix != nil {
		return nil
	}
	if w.fixCh == nil {
		return ErrNoLocationFix
	}
	select {
	case fix, ok := <-w.fixCh:
		w.fixCh = nil
		if !ok {
			return ErrNoLocationFix
		}
		w.fix = &fix
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNoLocationFix, ctx.Err())
	}
}

// ClockIn runs the clock-in action: shift-timing policy, photo capture,
// verification, record commit
func (w *Workflow) ClockIn(ctx context.Context) (*Result, error) {
	return w.commit(ctx, model.ClockIn)
}

// ClockOut runs the clock-out action. Clock-outs carry no timing policy and
// are always recorded as on time.
func (w *Workflow) ClockOut(ctx context.Context) (*Result, error) {
	return w.commit(ctx, model.ClockOut)
}

// Retry discards the last captured photo and verdict and returns to the
// capture state with the same volunteer and live acquisitions. It never
// creates a record.
func (w *Workflow) Retry() error {
	if w.state != StateRecordCommitted && w.state != StateAwaitingVerification {
		return ErrNotCapturing
	}
	w.lastResult = nil
	w.state = StateCapturingInput
	w.logger.Debug("Capture retried, returning to capture state")
	return nil
}

// Reset tears down the camera and location acquisition and returns to
// volunteer selection
func (w *Workflow) Reset() {
	w.teardownAcquisition()
	w.selected = nil
	w.fix = nil
	w.lastResult = nil
	w.state = StateSelectingVolunteer
}

func (w *Workflow) commit(ctx context.Context, eventType model.EventType) (*Result, error) {
	if w.state != StateCapturingInput {
		return nil, ErrNotCapturing
	}
	if w.selected == nil {
		return nil, ErrNoVolunteer
	}

	w.pollFix()
	if w.fix == nil {
		return nil, ErrNoLocationFix
	}

	now := w.now()
	volunteer := *w.selected

	// Shift-timing policy applies to clock-ins only
	status := model.OnTime
	timingNote := ""
	verdict := schedule.Verdict{Kind: schedule.VerdictOK}
	if eventType == model.ClockIn {
		verdict = w.evaluator.Evaluate(volunteer.DefaultRole, now)
		switch verdict.Kind {
		case schedule.VerdictTooEarly:
			w.logger.Info("Clock-in rejected as too early",
				zap.String("volunteer", volunteer.Name),
				zap.String("role", volunteer.DefaultRole))
			return nil, fmt.Errorf("%w: %s", ErrTooEarly, verdict.Message)
		case schedule.VerdictLate:
			status = model.Late
			timingNote = fmt.Sprintf(" [%s]", verdict.Message)
		}
	}

	photo := w.capturePhoto()
	w.state = StateAwaitingVerification

	verification := w.verifyPhoto(ctx, photo)
	note := verification.Note + timingNote

	recordID, err := uuid.NewV7()
	if err != nil {
		w.state = StateCapturingInput
		return nil, fmt.Errorf("failed to generate record id: %w", err)
	}

	record := model.AttendanceRecord{
		ID:               recordID.String(),
		VolunteerID:      volunteer.ID,
		VolunteerName:    volunteer.Name,
		Type:             eventType,
		Status:           status,
		Timestamp:        now,
		PhotoRef:         w.savePhoto(recordID.String(), photo),
		Location:         *w.fix,
		VerificationNote: note,
		IsVerified:       verification.IsVerified,
		Activity:         volunteer.DefaultRole,
	}

	if err := w.records.AppendRecord(record); err != nil {
		w.state = StateCapturingInput
		return nil, fmt.Errorf("failed to save attendance record: %w", err)
	}

	w.state = StateRecordCommitted
	w.lastResult = &Result{
		Record:       record,
		Verdict:      verdict,
		Verification: verification,
	}

	if w.navigate != nil {
		time.AfterFunc(w.commitDelay, w.navigate)
	}

	return w.lastResult, nil
}

// capturePhoto grabs a still from the camera session. Photo problems never
// block attendance; a missing photo just means the verifier falls back.
func (w *Workflow) capturePhoto() []byte {
	if !w.cameraReady || w.camera == nil {
		return nil
	}
	photo, err := w.camera.Capture()
	if err != nil {
		w.logger.Warn("Photo capture failed, proceeding without photo", zap.Error(err))
		return nil
	}
	return photo
}

func (w *Workflow) verifyPhoto(ctx context.Context, photo []byte) model.Verification {
	fallback := model.Verification{IsVerified: true, Note: FallbackNote}

	if w.verifier == nil || len(photo) == 0 {
		return fallback
	}

	verifyCtx, cancel := context.WithTimeout(ctx, w.verifyTimeout)
	defer cancel()

	verification, err := w.verifier.VerifyCheckInPhoto(verifyCtx, photo)
	if err != nil {
		w.logger.Warn("Photo verification unavailable, failing open", zap.Error(err))
		return fallback
	}
	return verification
}

func (w *Workflow) savePhoto(recordID string, photo []byte) string {
	if w.photoDir == "" || len(photo) == 0 {
		return ""
	}
	if err := os.MkdirAll(w.photoDir, 0755); err != nil {
		w.logger.Warn("Failed to create photo directory", zap.Error(err))
		return ""
	}
	path := filepath.Join(w.photoDir, fmt.Sprintf("attendance_%s.jpg", recordID))
	if err := os.WriteFile(path, photo, 0644); err != nil {
		w.logger.Warn("Failed to save photo", zap.Error(err))
		return ""
	}
	return path
}

// pollFix drains the location channel without blocking
func (w *Workflow) pollFix() {
	if w.fix != nil || w.fixCh == nil {
		return
	}
	select {
	case fix, ok := <-w.fixCh:
		if ok {
			w.fix = &fix
		}
		w.fixCh = nil
	default:
	}
}

func (w *Workflow) teardownAcquisition() {
	if w.acquireCancel != nil {
		w.acquireCancel()
		w.acquireCancel = nil
	}
	if w.camera != nil && w.cameraReady {
		w.camera.Close()
	}
	w.cameraReady = false
	w.fixCh = nil
}
