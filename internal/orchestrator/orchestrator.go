// Package orchestrator wires every component into a running pipeline and
// owns its lifecycle. Grounded on orchestrator.py's ApplicationOrchestrator:
// the same start-order and signal-driven stop, translated from Python's
// threading.Event/Thread into context.Context cancellation and
// sync.WaitGroup. Shutdown cancels every component together and joins them
// with a timeout.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"faceworker/internal/adminapi"
	"faceworker/internal/asynclog"
	"faceworker/internal/audit"
	"faceworker/internal/camerareg"
	"faceworker/internal/config"
	"faceworker/internal/detectorapi"
	"faceworker/internal/domain"
	"faceworker/internal/findface"
	"faceworker/internal/pipeline"
	"faceworker/internal/reclaim"
	"faceworker/internal/tracking"
)

// Orchestrator owns every component handle and starts them in the order
// AsyncLogger -> BackgroundReclaimer -> AuditPublisher -> AdminAPI ->
// Forwarders -> TrackManager -> Detectors -> StreamIngestors (the logger and
// the audit publisher are live from New onward). Shutdown is not ordered:
// every component is cancelled at once through a shared context.
type Orchestrator struct {
	cfg    *config.Config
	logger *asynclog.Logger

	registry    *domain.TrackRegistry
	frameQueue  *pipeline.FrameQueue
	eventQueue  *pipeline.EventQueue
	findfaceQ   *pipeline.FindfaceQueue
	reclaimer   *reclaim.Reclaimer
	auditPub    *audit.Publisher
	adminServer *adminapi.Server
	forwarder   *pipeline.Forwarder
	trackMgr    *tracking.Manager
	detectors   []*pipeline.Detector
	ingestors   []*pipeline.StreamIngestor
	cameraReg   *camerareg.Registry
	models      []detectorapi.Detector

	stopped atomic.Bool
	wg      sync.WaitGroup
}

// Dependencies groups the externally-constructed handles an Orchestrator
// needs — things that have their own fallible construction (a DB
// connection, an authenticated HTTP client) and so are built by main and
// handed in rather than built internally.
type Dependencies struct {
	CameraRegistry *camerareg.Registry
	FindfaceClient *findface.Client
	CascadePath    string
	AdminAddr      string
	AuditBrokers   []string
}

// New builds every component but starts nothing.
func New(cfg *config.Config, deps Dependencies) (*Orchestrator, error) {
	logger := asynclog.NewStdout(asynclog.LevelInfo, 10000)

	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		registry:  domain.NewTrackRegistry(),
		cameraReg: deps.CameraRegistry,
	}

	o.frameQueue = pipeline.NewFrameQueue(cfg.Queues.FrameQueueMaxSize)
	o.eventQueue = pipeline.NewEventQueue(cfg.Queues.EventQueueMaxSize, 500*time.Millisecond)
	o.findfaceQ = pipeline.NewFindfaceQueue(cfg.Queues.FindfaceQueueMaxSize)

	o.reclaimer = reclaim.New(cfg.GCInterval(), logger)
	o.auditPub = audit.New(deps.AuditBrokers, cfg.Audit.Topic, logger)

	o.forwarder = pipeline.NewForwarder(o.findfaceQ, deps.FindfaceClient, o.auditPub, logger, cfg.FindfaceWorkers, 10*time.Second)

	o.trackMgr = tracking.NewManager(o.registry, o.eventQueue, o.findfaceQ, logger, tracking.Config{
		DistanceFraction:      cfg.Track.DistanceFraction,
		MaxAge:                int32(cfg.Tracking.MaxAge),
		MaxFrames:             int64(cfg.Tracking.MaxFrames),
		MinHits:               int64(cfg.Tracking.MinHits),
		MinMovementPixels:     cfg.Track.MinMovementPixels,
		MinMovementPercentage: cfg.Track.MinMovementPercentage,
		TTL:                   cfg.TracksTTL(),
		GCInterval:            time.Second,
	})

	o.adminServer = adminapi.New(deps.AdminAddr, adminapi.StatsSource{
		FrameQueue:    o.frameQueue,
		EventQueue:    o.eventQueue,
		FindfaceQueue: o.findfaceQ,
		Registry:      o.registry,
		Reclaimer:     o.reclaimer,
		LogDropped:    logger.Dropped,
	}, &o.stopped)

	for i := range cfg.ProcessingSection.GPUDevices {
		model, err := detectorapi.NewCascadeDetector(deps.CascadePath)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load detector model for device %d: %w", i, err)
		}
		o.models = append(o.models, model)
		o.detectors = append(o.detectors, pipeline.NewDetector(
			o.frameQueue, o.eventQueue, model, logger,
			cfg.PerformanceSec.DetectionSkipFrames, cfg.Filter.MinBBoxWidth, cfg.Filter.MinConfidence,
		))
	}

	return o, nil
}

// LoadCameras enumerates cameras via the registry filtered by cfg.Camera.Prefix
// and builds one StreamIngestor per camera. Matches orchestrator.py's
// _load_cameras: an empty result is a startup failure.
func (o *Orchestrator) LoadCameras(ctx context.Context) error {
	cameras, err := o.cameraReg.List(ctx, o.cfg.Camera.Prefix)
	if err != nil {
		return &domain.ConfigError{Field: "camera.prefix", Err: err}
	}
	if len(cameras) == 0 {
		return &domain.ConfigError{Field: "camera.prefix", Err: fmt.Errorf("no active cameras found with prefix %q", o.cfg.Camera.Prefix)}
	}

	for _, cam := range cameras {
		o.ingestors = append(o.ingestors, pipeline.NewStreamIngestor(
			cam.CameraID, cam.RTSPURL, cam.Width, cam.Height, o.frameQueue, o.logger,
			o.cfg.RTSPReconnectDelay(), o.cfg.Camera.RTSPMaxRetries,
		))
	}
	o.logger.Infof("orchestrator: loaded %d cameras with prefix %q", len(cameras), o.cfg.Camera.Prefix)
	return nil
}

// Run starts every component in dependency order and blocks until ctx is
// cancelled (typically by a signal), then cancels every component together
// and waits up to the drain timeout for their goroutines to return. The
// components are not stopped in reverse start order, and shutdown does not
// wait for the queues to empty; each component exits once it observes the
// cancellation.
func (o *Orchestrator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.wg.Add(1)
	go func() { defer o.wg.Done(); o.reclaimer.Run(runCtx) }()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.adminServer.Run(runCtx); err != nil {
			o.logger.Errorf("orchestrator: admin server: %v", err)
		}
	}()

	o.wg.Add(1)
	go func() { defer o.wg.Done(); o.forwarder.Run(runCtx) }()

	o.wg.Add(1)
	go func() { defer o.wg.Done(); o.trackMgr.Run(runCtx) }()

	for _, d := range o.detectors {
		o.wg.Add(1)
		go func(d *pipeline.Detector) { defer o.wg.Done(); d.Run(runCtx) }(d)
	}

	for _, ing := range o.ingestors {
		o.wg.Add(1)
		go func(ing *pipeline.StreamIngestor) {
			defer o.wg.Done()
			if err := ing.Run(runCtx); err != nil {
				o.logger.Errorf("orchestrator: %v", err)
			}
		}(ing)
	}

	o.logger.Infof("orchestrator: started %d ingestors, %d detectors, %d findface workers", len(o.ingestors), len(o.detectors), o.cfg.FindfaceWorkers)

	<-ctx.Done()
	o.stopped.Store(true)
	o.logger.Infof("orchestrator: stop signal received, draining")

	cancel()
	o.waitWithTimeout(o.cfg.DrainTimeout())

	o.logger.Infof("orchestrator: shutdown complete")
	o.logger.Stop(5 * time.Second)
	return nil
}

func (o *Orchestrator) waitWithTimeout(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		o.logger.Warnf("orchestrator: drain timeout exceeded, remaining queue depths: frame=%d event=%d findface=%d",
			o.frameQueue.Len(), o.eventQueue.Len(), o.findfaceQ.Len())
	}

	for _, m := range o.models {
		m.Close()
	}
	if o.cameraReg != nil {
		o.cameraReg.Close()
	}
	o.auditPub.Close()
}

// WaitForSignal returns immediately with a context derived from ctx that is
// cancelled when SIGINT or SIGTERM arrives, matching orchestrator.py's
// _register_signal_handlers for both signals.
func WaitForSignal(ctx context.Context) context.Context {
	sigCtx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return sigCtx
}
