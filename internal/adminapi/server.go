// Package adminapi implements the read-only HTTP observability surface
// from spec.md §4.8, using gin and gin-contrib/cors in the style of the
// teacher's main.go router — gin.New() with gin.Recovery() plus
// cors.Default(), and gin.H JSON responses — repurposed from worker-process
// control endpoints to a pure read-only stats surface.
package adminapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"faceworker/internal/domain"
	"faceworker/internal/pipeline"
	"faceworker/internal/reclaim"
)

// StatsSource is the read-only view into the running pipeline's counters
// that the /stats route reports. The Orchestrator wires this up from the
// live queues, the TrackRegistry, the Reclaimer, and the AsyncLogger.
type StatsSource struct {
	FrameQueue    *pipeline.FrameQueue
	EventQueue    *pipeline.EventQueue
	FindfaceQueue *pipeline.FindfaceQueue
	Registry      *domain.TrackRegistry
	Reclaimer     *reclaim.Reclaimer
	LogDropped    func() int64
}

// Server wraps a gin.Engine bound to a configurable address. It runs on its
// own goroutine and is shut down gracefully by the Orchestrator.
type Server struct {
	addr    string
	stats   StatsSource
	stopped *atomic.Bool

	httpServer *http.Server
}

// New builds a Server. stopped is a shared flag the Orchestrator flips when
// shutdown begins; /health reports it so operators can distinguish
// "draining" from "dead".
func New(addr string, stats StatsSource, stopped *atomic.Bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{addr: addr, stats: stats, stopped: stopped}
	router.GET("/health", s.handleHealth)
	router.GET("/stats", s.handleStats)

	s.httpServer = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "faceworker",
		"draining": s.stopped.Load(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	reclaimStats := s.stats.Reclaimer.GetStats()

	counts := map[int]int{}
	if s.stats.Registry != nil {
		counts = s.stats.Registry.ActiveCounts()
	}

	c.JSON(http.StatusOK, gin.H{
		"queues": gin.H{
			"frame_queue_len":    s.stats.FrameQueue.Len(),
			"frame_queue_dropped": s.stats.FrameQueue.Dropped(),
			"event_queue_len":    s.stats.EventQueue.Len(),
			"event_queue_dropped": s.stats.EventQueue.Dropped(),
			"findface_queue_len": s.stats.FindfaceQueue.Len(),
			"findface_queue_dropped": s.stats.FindfaceQueue.Dropped(),
		},
		"tracks_by_camera": counts,
		"reclaim": gin.H{
			"gc_count":         reclaimStats.GCCount,
			"heap_objects":     reclaimStats.HeapObjects,
			"heap_alloc_bytes": reclaimStats.HeapAllocBytes,
		},
		"log_dropped": s.stats.LogDropped(),
	})
}

// Run starts serving and blocks until ctx is cancelled, at which point it
// shuts down with a 5s grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
