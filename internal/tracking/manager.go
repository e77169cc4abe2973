package tracking

import (
	"context"
	"time"

	"faceworker/internal/asynclog"
	"faceworker/internal/domain"
	"faceworker/internal/pipeline"
)

const maxTemporalGap = 2 * time.Second

// Config holds the thresholds the Manager needs from the tracking, track,
// and queue sections of the configuration document.
type Config struct {
	DistanceFraction      float64 // track.distance_fraction, default 0.07
	MaxAge                int32   // tracking.max_age, in sweeps
	MaxFrames             int64   // tracking.max_frames
	MinHits               int64   // tracking.min_hits
	MinMovementPixels     float64
	MinMovementPercentage float64
	TTL                   time.Duration // tracks_ttl_seconds
	GCInterval            time.Duration
}

// Manager is the single-worker TrackManager described in spec.md §4.3. It
// drains an EventQueue, associates each Event to a Track via the
// out-of-lock matching algorithm, sweeps for inactive Tracks once per frame,
// and finalizes Tracks that have aged out or maxed out — pushing each
// finalized Track's best_event copy onto a FindfaceQueue.
type Manager struct {
	registry *domain.TrackRegistry
	events   *pipeline.EventQueue
	findface *pipeline.FindfaceQueue
	log      *asynclog.Logger
	cfg      Config

	trackIDCounter int64
}

// NewManager constructs a Manager. registry is shared with anything else
// that needs read access to live Tracks (e.g. AdminAPI).
func NewManager(registry *domain.TrackRegistry, events *pipeline.EventQueue, findface *pipeline.FindfaceQueue, log *asynclog.Logger, cfg Config) *Manager {
	return &Manager{registry: registry, events: events, findface: findface, log: log, cfg: cfg}
}

// Run drains the EventQueue until ctx is cancelled, performing a per-frame
// sweep after each contiguous run of Events sharing a Frame and a periodic
// GC pass of finalized Tracks. On cancellation it drains whatever is already
// buffered in the EventQueue before returning.
func (m *Manager) Run(ctx context.Context) {
	var currentFrame time.Time
	var currentCamera int
	haveFrame := false
	activeThisFrame := make(map[int64]struct{})

	gcTicker := time.NewTicker(m.cfg.GCInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-gcTicker.C:
			removed := m.registry.GCFinalized(m.cfg.TTL, time.Now())
			if removed > 0 {
				m.log.Debugf("tracking: gc removed %d finalized tracks", removed)
			}
		default:
		}

		event, ok := m.events.Get(ctx)
		if !ok {
			if haveFrame {
				m.sweepInactive(currentCamera, activeThisFrame)
			}
			m.drainRemaining()
			m.finalizeAll()
			return
		}

		frameKey := event.Frame.CapturedAt
		if !haveFrame || frameKey != currentFrame {
			if haveFrame {
				m.sweepInactive(currentCamera, activeThisFrame)
			}
			currentFrame = frameKey
			currentCamera = event.Frame.CameraID
			haveFrame = true
			activeThisFrame = make(map[int64]struct{})
		}

		track := m.processEvent(event)
		if track != nil {
			activeThisFrame[track.TrackID] = struct{}{}
		}
	}
}

// drainRemaining processes every Event already sitting in the EventQueue
// buffer after Run's context has been cancelled, so in-flight work is not
// silently discarded on shutdown.
func (m *Manager) drainRemaining() {
	for {
		event, ok := m.events.TryGet()
		if !ok {
			return
		}
		m.processEvent(event)
	}
}

// finalizeAll runs the third termination trigger from spec.md §4.3 —
// orchestrator shutdown — by finalizing every still-active Track across
// every camera, so each one's best_event is evaluated and, if movement-
// qualified, forwarded instead of silently discarded on shutdown.
func (m *Manager) finalizeAll() {
	for _, cameraID := range m.registry.Cameras() {
		for _, t := range m.registry.Snapshot(cameraID) {
			if t.Finalized() {
				continue
			}
			m.finalize(t)
		}
	}
}

// processEvent runs the association algorithm for one Event: matching runs
// entirely off the registry lock (a snapshot copy plus pure overlap/distance
// math), and the registry is touched again only to mutate the chosen Track
// or insert a new one — re-validating that the chosen Track has not
// finalized in the meantime.
func (m *Manager) processEvent(event *domain.Event) *domain.Track {
	cameraID := event.Frame.CameraID
	frameWidth := event.Frame.Width
	frameHeight := event.Frame.Height

	iouThreshold := AdaptiveIoUThreshold(frameWidth)
	distanceThreshold := DistanceThreshold(frameWidth, frameHeight, m.distanceFraction())

	snapshot := m.registry.Snapshot(cameraID)

	candidates := make([]candidate, 0, len(snapshot))
	for _, t := range snapshot {
		if t.Finalized() {
			continue
		}
		last := t.LastEvent()
		if last == nil {
			continue
		}
		if event.Timestamp.Sub(last.Timestamp) > maxTemporalGap {
			continue
		}
		candidates = append(candidates, candidate{
			track:    t,
			overlap:  domain.Overlap(last.Bbox, event.Bbox),
			distance: domain.CenterDistance(last.Bbox, event.Bbox),
		})
	}

	matched := pickBestCandidate(candidates, iouThreshold, distanceThreshold)

	if matched != nil && !matched.Finalized() {
		matched.AddEvent(event)
		if m.shouldFinalize(matched) {
			m.finalize(matched)
		}
		return matched
	}

	// matched either came back nil, or finalized between the snapshot and
	// here — either way this Event starts a new Track.
	m.trackIDCounter++
	newTrack := domain.NewTrack(m.trackIDCounter, cameraID, event)
	m.registry.Insert(newTrack)
	return newTrack
}

func (m *Manager) distanceFraction() float64 {
	if m.cfg.DistanceFraction > 0 {
		return m.cfg.DistanceFraction
	}
	return 0.07
}

func (m *Manager) shouldFinalize(t *domain.Track) bool {
	return t.FrameCount() >= m.cfg.MaxFrames
}

// sweepInactive increments FramesWithoutDetection for every non-finalized
// Track of cameraID not present in activeSet, and finalizes any that have
// aged past MaxAge.
func (m *Manager) sweepInactive(cameraID int, activeSet map[int64]struct{}) {
	for _, t := range m.registry.Snapshot(cameraID) {
		if t.Finalized() {
			continue
		}
		if _, ok := activeSet[t.TrackID]; ok {
			continue
		}
		age := t.IncrementFramesWithoutDetection()
		if age >= m.cfg.MaxAge {
			m.finalize(t)
		}
	}
}

// finalize runs the termination sequence from spec.md §4.3: a Track below
// min_hits finalizes but is never submitted (the resolution of the open
// question in spec.md §9); one that moved enough has its best_event copied
// and try-put onto FindfaceQueue.
func (m *Manager) finalize(t *domain.Track) {
	if !t.Finalize(time.Now()) {
		return // already finalized by a concurrent sweep/termination path
	}

	if t.FrameCount() < m.cfg.MinHits {
		return
	}

	best := t.BestEvent()
	if best == nil || best.Frame == nil {
		m.log.Errorf("tracking: track %d finalized with no usable best_event", t.TrackID)
		return
	}

	threshold := MovementThreshold(best.Frame.Width, best.Frame.Height, m.cfg.MinMovementPixels, m.cfg.MinMovementPercentage)
	if !t.HasMoved(threshold) {
		m.log.Debugf("tracking: track %d discarded, insufficient movement", t.TrackID)
		return
	}

	forwarded := best.Copy()
	if !m.findface.TryPut(forwarded) {
		m.log.Warnf("tracking: findface queue full, dropping track %d best event", t.TrackID)
	}
}
