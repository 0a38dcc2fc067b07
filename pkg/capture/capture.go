// Package capture provides the camera and geolocation acquisition ports used
// by the attendance workflow. Both acquisitions are best-effort: a camera or
// location source that never becomes ready must not stop the workflow from
// entering its capture state, only from committing an attendance action that
// needs a location fix.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

// Camera is a session-scoped still-image source
type Camera interface {
	// Start opens the camera session. It is called when a volunteer is
	// selected and must be paired with Close.
	Start(ctx context.Context) error
	// Capture grabs one JPEG still from the active session
	Capture() ([]byte, error)
	// Close releases the camera session. Safe to call more than once.
	Close()
}

// Locator asynchronously acquires a location fix. The returned channel yields
// at most one fix and is closed without a value when acquisition fails or the
// context ends.
type Locator interface {
	Acquire(ctx context.Context) <-chan model.Location
}

// FileCamera reads stills from a pre-captured JPEG on disk. Used for kiosk
// setups where a separate process keeps a current frame on disk.
type FileCamera struct {
	path    string
	started bool
}

func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path}
}

func (c *FileCamera) Start(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("no photo path configured")
	}
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("photo source unavailable: %w", err)
	}
	c.started = true
	return nil
}

func (c *FileCamera) Capture() ([]byte, error) {
	if !c.started {
		return nil, fmt.Errorf("camera session not started")
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}

func (c *FileCamera) Close() {
	c.started = false
}

// CommandCamera shells out to an external capture program (e.g. fswebcam)
// that writes a JPEG to stdout
type CommandCamera struct {
	argv    []string
	started bool
}

func NewCommandCamera(argv []string) *CommandCamera {
	return &CommandCamera{argv: argv}
}

func (c *CommandCamera) Start(ctx context.Context) error {
	if len(c.argv) == 0 {
		return fmt.Errorf("no capture command configured")
	}
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return fmt.Errorf("capture command unavailable: %w", err)
	}
	c.started = true
	return nil
}

func (c *CommandCamera) Capture() ([]byte, error) {
	if !c.started {
		return nil, fmt.Errorf("camera session not started")
	}
	out, err := exec.Command(c.argv[0], c.argv[1:]...).Output()
	if err != nil {
		return nil, fmt.Errorf("capture command failed: %w", err)
	}
	return out, nil
}

func (c *CommandCamera) Close() {
	c.started = false
}

// StaticLocator delivers the site's fixed coordinates as the location fix.
// The kitchen is a single site, so a configured position stands in for a
// live GPS acquisition.
type StaticLocator struct {
	location model.Location
}

func NewStaticLocator(location model.Location) *StaticLocator {
	return &StaticLocator{location: location}
}

func (l *StaticLocator) Acquire(ctx context.Context) <-chan model.Location {
	ch := make(chan model.Location, 1)
	go func() {
		defer close(ch)
		select {
		case ch <- l.location:
		case <-ctx.Done():
		}
	}()
	return ch
}
