package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"photobooth-kiosk/internal/camera"
	"photobooth-kiosk/internal/gemini"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/store"
)

// State is the single source of truth for what screen the kiosk is showing.
type State string

const (
	StateLanding    State = "LANDING"
	StateThemes     State = "THEMES"
	StateCamera     State = "CAMERA"
	StateGenerating State = "GENERATING"
	StateResult     State = "RESULT"
	StateGallery    State = "GALLERY"
	StateAdmin      State = "ADMIN"
)

// ErrorKind is the failure taxonomy surfaced to the UI.
type ErrorKind string

const (
	ErrorNone                ErrorKind = ""
	ErrorHardwareUnavailable ErrorKind = "HARDWARE_UNAVAILABLE"
	ErrorServiceUnreachable  ErrorKind = "SERVICE_UNREACHABLE"
	ErrorMissingCredential   ErrorKind = "MISSING_CREDENTIAL"
	ErrorNoImageReturned     ErrorKind = "NO_IMAGE_RETURNED"
	ErrorUnauthorized        ErrorKind = "UNAUTHORIZED"
	ErrorStoreUnreachable    ErrorKind = "STORE_UNREACHABLE"
)

// ErrInvalidTransition is returned when an operation is not legal in the
// current state.
var ErrInvalidTransition = errors.New("invalid transition")

// Camera is the capture engine contract the machine orchestrates.
type Camera interface {
	OpenCamera(ctx context.Context, orientation models.Orientation) error
	StartCountdown(ctx context.Context, seconds int, onTick func(remaining int)) (*camera.Frame, error)
	CloseCamera()
}

// Generator transforms a captured frame according to a concept prompt.
type Generator interface {
	Generate(ctx context.Context, frame []byte, mimeType string, concept models.Concept, aspectRatio string) (*gemini.GeneratedImage, error)
}

// Registrar publishes a finished result to the shareable gallery.
type Registrar interface {
	Register(ctx context.Context, img *gemini.GeneratedImage, conceptName, eventID string) (*models.GalleryItem, error)
}

// SettingsStore is the read side of the remote settings/gallery store.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (*models.KioskSettings, error)
	LoadConcepts(ctx context.Context) ([]models.Concept, error)
	ListGalleryItems(ctx context.Context, eventID string) ([]models.GalleryItem, error)
}

// Event is pushed to the UI on every observable change.
type Event struct {
	Type      string    `json:"type"` // "state" or "tick"
	State     State     `json:"state"`
	Tick      int       `json:"tick,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Snapshot is a consistent view of the machine for the HTTP layer.
type Snapshot struct {
	State              State
	SelectedConcept    *models.Concept
	Result             *models.GalleryItem
	ErrorKind          ErrorKind
	ErrorMessage       string
	Settings           models.KioskSettings
	Concepts           []models.Concept
	GalleryItems       []models.GalleryItem
	AdminAuthenticated bool
}

// guestSession holds the transient per-guest data. Created on the transition
// into CAMERA, destroyed on every return to LANDING.
type guestSession struct {
	selectedConcept *models.Concept
	capturedFrame   *camera.Frame
	generated       *gemini.GeneratedImage
	result          *models.GalleryItem
	errKind         ErrorKind
	errMessage      string
}

// Machine sequences the kiosk through its screens. All mutation happens
// under one mutex; blocking collaborator calls run outside it and commit
// their results only if the originating session is still the active one.
type Machine struct {
	mu      sync.Mutex
	state   State
	session *guestSession
	// epoch identifies the active session. Incremented whenever the session
	// is discarded, so results of stale operations are never applied.
	epoch uint64

	settings     models.KioskSettings
	concepts     []models.Concept
	galleryItems []models.GalleryItem

	camera    Camera
	generator Generator
	registrar Registrar
	store     SettingsStore

	countdownSeconds int
	generating       bool
	countdownCancel  context.CancelFunc
	adminAuthed      bool

	idleTimer *time.Timer
	idleGen   uint64

	notify func(Event)
}

func New(cam Camera, gen Generator, reg Registrar, st SettingsStore, settings models.KioskSettings) *Machine {
	return &Machine{
		state:            StateLanding,
		settings:         settings,
		camera:           cam,
		generator:        gen,
		registrar:        reg,
		store:            st,
		countdownSeconds: 3,
	}
}

// SetNotify installs the event sink. Must be called before the machine is
// driven; the sink must not block.
func (m *Machine) SetNotify(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

func (m *Machine) SetCountdownSeconds(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countdownSeconds = seconds
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:              m.state,
		Settings:           m.settings,
		Concepts:           append([]models.Concept(nil), m.concepts...),
		GalleryItems:       append([]models.GalleryItem(nil), m.galleryItems...),
		AdminAuthenticated: m.adminAuthed,
	}
	if m.session != nil {
		snap.SelectedConcept = m.session.selectedConcept
		snap.Result = m.session.result
		snap.ErrorKind = m.session.errKind
		snap.ErrorMessage = m.session.errMessage
	}
	return snap
}

func (m *Machine) Settings() models.KioskSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Machine) Concepts() []models.Concept {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Concept(nil), m.concepts...)
}

func (m *Machine) GalleryItems() []models.GalleryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GalleryItem(nil), m.galleryItems...)
}

// SetSettings applies an admin edit immediately. Settings remain
// single-writer (admin) state; guests only re-read them on LANDING.
func (m *Machine) SetSettings(settings models.KioskSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

func (m *Machine) SetConcepts(concepts []models.Concept) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.concepts = append([]models.Concept(nil), concepts...)
}

// Start moves LANDING to THEMES, re-reading settings and concepts so admin
// edits take effect on the next guest without a restart. A load failure
// keeps the last-known values; the kiosk must not strand guests on a
// network blip.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateLanding {
		defer m.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, m.state)
	}
	m.mu.Unlock()

	settings, err := m.store.LoadSettings(ctx)
	if err != nil {
		log.Printf("Warning: failed to reload settings: %v", err)
	}
	concepts, err := m.store.LoadConcepts(ctx)
	if err != nil {
		log.Printf("Warning: failed to reload concepts: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLanding {
		return fmt.Errorf("%w: state changed during reload", ErrInvalidTransition)
	}
	if settings != nil {
		m.settings = *settings
	}
	if concepts != nil {
		m.concepts = concepts
	}
	m.setStateLocked(StateThemes)
	m.updateIdleLocked()
	return nil
}

// OpenGallery moves LANDING to GALLERY with the active event's items.
func (m *Machine) OpenGallery(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateLanding {
		defer m.mu.Unlock()
		return fmt.Errorf("%w: gallery from %s", ErrInvalidTransition, m.state)
	}
	eventID := m.settings.ActiveEventID
	m.mu.Unlock()

	items, err := m.store.ListGalleryItems(ctx, eventID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLanding {
		return fmt.Errorf("%w: state changed during fetch", ErrInvalidTransition)
	}
	m.galleryItems = items
	m.setStateLocked(StateGallery)
	m.updateIdleLocked()
	return nil
}

// OpenAdmin moves LANDING to ADMIN. Admin authentication always resets to
// unauthenticated on entry.
func (m *Machine) OpenAdmin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLanding {
		return fmt.Errorf("%w: admin from %s", ErrInvalidTransition, m.state)
	}
	m.adminAuthed = false
	m.setStateLocked(StateAdmin)
	m.updateIdleLocked()
	return nil
}

// SelectConcept moves THEMES to CAMERA, creating the guest session and
// acquiring the live feed. A hardware failure leaves the machine in THEMES.
func (m *Machine) SelectConcept(ctx context.Context, conceptID string) error {
	m.mu.Lock()
	if m.state != StateThemes {
		defer m.mu.Unlock()
		return fmt.Errorf("%w: select concept from %s", ErrInvalidTransition, m.state)
	}
	var concept *models.Concept
	for i := range m.concepts {
		if m.concepts[i].ID == conceptID {
			c := m.concepts[i]
			concept = &c
			break
		}
	}
	orientation := m.settings.Orientation
	m.mu.Unlock()

	if concept == nil {
		return fmt.Errorf("unknown concept %q", conceptID)
	}

	if err := m.camera.OpenCamera(ctx, orientation); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateThemes {
		// Navigated away while the feed was being acquired; release it.
		m.camera.CloseCamera()
		return fmt.Errorf("%w: state changed during camera open", ErrInvalidTransition)
	}
	m.session = &guestSession{selectedConcept: concept}
	m.setStateLocked(StateCamera)
	m.updateIdleLocked()
	return nil
}

// Capture starts the countdown-capture-generate-register pipeline. It
// returns immediately; progress is observable through events and snapshots.
// Only one capture can be outstanding at a time.
func (m *Machine) Capture() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateCamera {
		return fmt.Errorf("%w: capture from %s", ErrInvalidTransition, m.state)
	}
	if m.generating {
		return fmt.Errorf("generation already in progress")
	}
	if m.countdownCancel != nil {
		return fmt.Errorf("countdown already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.countdownCancel = cancel

	epoch := m.epoch
	concept := *m.session.selectedConcept
	aspect := m.settings.Orientation.AspectRatio()
	eventID := m.settings.ActiveEventID
	seconds := m.countdownSeconds

	go m.runCapture(ctx, cancel, epoch, concept, aspect, eventID, seconds)
	return nil
}

// CancelCountdown aborts a running countdown. The feed keeps running and no
// frame is produced.
func (m *Machine) CancelCountdown() {
	m.mu.Lock()
	cancel := m.countdownCancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Home is the explicit back/home action: from any state, discard the
// session and return to LANDING.
func (m *Machine) Home() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Touch re-arms the idle timer on explicit user navigation within an
// idle-armed screen.
func (m *Machine) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleArmedStateLocked() {
		m.armIdleLocked()
	}
}

// AdminAuthenticate compares the PIN against the configured admin PIN. A
// mismatch leaves the admin screen unauthenticated and mutates nothing.
func (m *Machine) AdminAuthenticate(pin string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAdmin {
		return false, fmt.Errorf("%w: authenticate from %s", ErrInvalidTransition, m.state)
	}
	if pin != "" && pin == m.settings.AdminPin {
		m.adminAuthed = true
	}
	if m.idleArmedStateLocked() {
		m.armIdleLocked()
	}
	return m.adminAuthed, nil
}

func (m *Machine) AdminAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adminAuthed
}

// runCapture executes the guest pipeline on its own goroutine. Every commit
// re-checks that the originating session is still active, so results of a
// cancelled or timed-out session are never applied.
func (m *Machine) runCapture(ctx context.Context, cancel context.CancelFunc, epoch uint64, concept models.Concept, aspect, eventID string, seconds int) {
	// The machine's reference to cancel is cleared once the countdown
	// settles; releasing the context itself is this goroutine's job.
	defer cancel()

	frame, err := m.camera.StartCountdown(ctx, seconds, func(remaining int) {
		m.notifyTick(epoch, remaining)
	})
	if err != nil {
		m.commit(epoch, func() {
			m.countdownCancel = nil
			if errors.Is(err, context.Canceled) {
				// Guest cancelled; stay on CAMERA with the feed running.
				return
			}
			m.session.errKind, m.session.errMessage = classify(err)
			if errors.Is(err, camera.ErrHardwareUnavailable) {
				// Feed is gone; hand the guest back to concept selection.
				m.camera.CloseCamera()
				m.setStateLocked(StateThemes)
				m.updateIdleLocked()
			}
		})
		return
	}

	ok := m.commit(epoch, func() {
		m.countdownCancel = nil
		m.session.capturedFrame = frame
		m.session.errKind, m.session.errMessage = ErrorNone, ""
		m.generating = true
		// The feed is released synchronously on every transition out of
		// CAMERA; no handle may outlive the session.
		m.camera.CloseCamera()
		m.setStateLocked(StateGenerating)
		m.updateIdleLocked()
	})
	if !ok {
		return
	}

	img, err := m.generator.Generate(ctx, frame.Data, frame.MimeType, concept, aspect)
	if err != nil {
		var orientation models.Orientation
		ok := m.commit(epoch, func() {
			m.generating = false
			m.session.capturedFrame = nil
			m.session.errKind, m.session.errMessage = classify(err)
			orientation = m.settings.Orientation
		})
		if !ok {
			return
		}

		// Back to CAMERA for a retry; fall back to THEMES if the feed cannot
		// be reacquired. The reopen is a network call and runs outside the
		// lock so back/home and the idle timer stay responsive, bounded so a
		// stalled camera daemon cannot wedge the pipeline goroutine.
		reopenCtx, reopenCancel := context.WithTimeout(context.Background(), 5*time.Second)
		reopenErr := m.camera.OpenCamera(reopenCtx, orientation)
		reopenCancel()

		ok = m.commit(epoch, func() {
			if reopenErr != nil {
				m.setStateLocked(StateThemes)
			} else {
				m.setStateLocked(StateCamera)
			}
			m.updateIdleLocked()
		})
		if !ok && reopenErr == nil {
			// Session discarded while the feed was being reacquired; the
			// reset already released its handle, so release this one too.
			m.camera.CloseCamera()
		}
		return
	}

	ok = m.commit(epoch, func() {
		m.generating = false
		m.session.capturedFrame = nil
		m.session.generated = img
		m.setStateLocked(StateResult)
		m.updateIdleLocked()
	})
	if !ok {
		return
	}

	conceptName := concept.Name
	if conceptName == "" {
		conceptName = concept.Prompt
	}
	item, err := m.registrar.Register(context.Background(), img, conceptName, eventID)
	if err != nil {
		log.Printf("Warning: gallery registration failed: %v", err)
		m.commit(epoch, func() {
			m.session.errKind, m.session.errMessage = classify(err)
		})
		return
	}
	m.commit(epoch, func() {
		m.session.result = item
	})
}

// commit applies fn only if the originating session is still the active one.
func (m *Machine) commit(epoch uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.session == nil {
		return false
	}
	fn()
	return true
}

func (m *Machine) resetLocked() {
	m.epoch++
	if m.countdownCancel != nil {
		m.countdownCancel()
		m.countdownCancel = nil
	}
	m.generating = false
	m.camera.CloseCamera()
	m.session = nil
	m.adminAuthed = false
	m.cancelIdleLocked()
	m.setStateLocked(StateLanding)
}

func (m *Machine) setStateLocked(s State) {
	m.state = s
	if m.notify != nil {
		event := Event{Type: "state", State: s}
		if m.session != nil {
			event.ErrorKind = m.session.errKind
		}
		m.notify(event)
	}
}

func (m *Machine) notifyTick(epoch uint64, remaining int) {
	m.mu.Lock()
	if m.epoch != epoch || m.notify == nil {
		m.mu.Unlock()
		return
	}
	notify := m.notify
	state := m.state
	m.mu.Unlock()
	notify(Event{Type: "tick", State: state, Tick: remaining})
}

// idleArmedStateLocked reports whether the current state carries the
// auto-reset timer. CAMERA and GENERATING never do: a guest mid-flow must
// not be kicked back to LANDING.
func (m *Machine) idleArmedStateLocked() bool {
	switch m.state {
	case StateResult, StateGallery, StateAdmin:
		return true
	}
	return false
}

func (m *Machine) updateIdleLocked() {
	if m.idleArmedStateLocked() {
		m.armIdleLocked()
	} else {
		m.cancelIdleLocked()
	}
}

func (m *Machine) armIdleLocked() {
	m.idleGen++
	gen := m.idleGen
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	seconds := m.settings.AutoResetTime
	if seconds <= 0 {
		seconds = 60
	}
	m.idleTimer = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		m.idleFire(gen)
	})
}

func (m *Machine) cancelIdleLocked() {
	m.idleGen++
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *Machine) idleFire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.idleGen || !m.idleArmedStateLocked() {
		return
	}
	m.resetLocked()
}

// classify maps component errors onto the UI taxonomy.
func classify(err error) (ErrorKind, string) {
	switch {
	case errors.Is(err, camera.ErrHardwareUnavailable):
		return ErrorHardwareUnavailable, err.Error()
	case errors.Is(err, gemini.ErrMissingCredential):
		return ErrorMissingCredential, err.Error()
	case errors.Is(err, gemini.ErrNoImageReturned):
		return ErrorNoImageReturned, err.Error()
	case errors.Is(err, gemini.ErrServiceUnreachable):
		return ErrorServiceUnreachable, err.Error()
	case errors.Is(err, store.ErrUnauthorized):
		return ErrorUnauthorized, err.Error()
	case errors.Is(err, store.ErrStoreUnreachable):
		return ErrorStoreUnreachable, err.Error()
	default:
		return ErrorServiceUnreachable, err.Error()
	}
}
