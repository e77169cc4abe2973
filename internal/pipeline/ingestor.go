package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"gocv.io/x/gocv"

	"faceworker/internal/asynclog"
	"faceworker/internal/domain"
	"faceworker/internal/rtspsource"
)

// StreamIngestor pulls decoded frames from one camera's RTSP source and
// pushes them onto a shared FrameQueue with drop-oldest backpressure, per
// spec.md §4.1. Grounded on the teacher's RTSPStreamManager lifecycle
// (Start/monitor/Stop) and its ffmpeg.Input/Output re-encode invocation in
// main.go's startReencodingProcess — here retargeted at decoding raw BGR24
// frames instead of re-muxing to RTSP.
type StreamIngestor struct {
	cameraID int
	rtspURL  string
	width    int
	height   int

	queue *FrameQueue
	log   *asynclog.Logger

	reconnectDelay time.Duration
	maxRetries     int
}

// NewStreamIngestor creates a StreamIngestor for one camera.
func NewStreamIngestor(cameraID int, rtspURL string, width, height int, queue *FrameQueue, log *asynclog.Logger, reconnectDelay time.Duration, maxRetries int) *StreamIngestor {
	return &StreamIngestor{
		cameraID:       cameraID,
		rtspURL:        rtspURL,
		width:          width,
		height:         height,
		queue:          queue,
		log:            log,
		reconnectDelay: reconnectDelay,
		maxRetries:     maxRetries,
	}
}

// Run probes the camera, then decodes until ctx is cancelled or the camera
// proves permanently unreachable (domain.IngestorFatalError), reconnecting
// up to maxRetries times on transient decode failures in between.
func (s *StreamIngestor) Run(ctx context.Context) error {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := rtspsource.Probe(s.rtspURL); err != nil {
			attempts++
			if attempts > s.maxRetries {
				return &domain.IngestorFatalError{CameraID: s.cameraID, Err: err}
			}
			s.log.Warnf("ingestor: camera %d probe failed (attempt %d/%d): %v", s.cameraID, attempts, s.maxRetries, err)
			if !s.sleep(ctx) {
				return nil
			}
			continue
		}

		err := s.decodeLoop(ctx)
		if err == nil {
			return nil // ctx cancelled mid-decode, clean stop
		}

		attempts++
		s.log.Warnf("ingestor: camera %d decode ended (attempt %d/%d): %v", s.cameraID, attempts, s.maxRetries, err)
		if attempts > s.maxRetries {
			return &domain.IngestorFatalError{CameraID: s.cameraID, Err: err}
		}
		if !s.sleep(ctx) {
			return nil
		}
	}
}

func (s *StreamIngestor) sleep(ctx context.Context) bool {
	select {
	case <-time.After(s.reconnectDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeLoop spawns ffmpeg to demux+decode the RTSP source to raw BGR24
// frames on a pipe and wraps each frame into a gocv.Mat pushed onto the
// FrameQueue. Decode itself stays a black box per spec.md §1 — this only
// manages the subprocess and the framing of its stdout.
func (s *StreamIngestor) decodeLoop(ctx context.Context) error {
	cmd := ffmpeg.Input(s.rtspURL, ffmpeg.KwArgs{
		"rtsp_transport": "tcp",
		"buffer_size":    "2000000",
	}).
		Output("pipe:1", ffmpeg.KwArgs{
			"f":        "rawvideo",
			"pix_fmt":  "bgr24",
			"vf":       fmt.Sprintf("scale=%d:%d", s.width, s.height),
			"loglevel": "error",
		}).
		Compile()

	execCmd := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	execCmd.Stderr = os.Stderr

	stdout, err := execCmd.StdoutPipe()
	if err != nil {
		return &domain.TransientDecodeError{CameraID: s.cameraID, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := execCmd.Start(); err != nil {
		return &domain.TransientDecodeError{CameraID: s.cameraID, Err: fmt.Errorf("start ffmpeg: %w", err)}
	}
	defer execCmd.Wait()

	frameSize := s.width * s.height * 3
	reader := bufio.NewReaderSize(stdout, frameSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		// A fresh buffer per frame: gocv.NewMatFromBytes wraps the slice
		// without copying, so reusing one buffer across iterations would
		// let the next read corrupt a Mat still owned by a queued Frame.
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(reader, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return &domain.TransientDecodeError{CameraID: s.cameraID, Err: fmt.Errorf("stream ended: %w", err)}
			}
			return &domain.TransientDecodeError{CameraID: s.cameraID, Err: err}
		}

		mat, err := gocv.NewMatFromBytes(s.height, s.width, gocv.MatTypeCV8UC3, buf)
		if err != nil {
			return &domain.TransientDecodeError{CameraID: s.cameraID, Err: fmt.Errorf("wrap frame: %w", err)}
		}

		frame := domain.NewFrame(s.cameraID, s.width, s.height, mat, time.Now())
		s.queue.Push(frame)
	}
}
