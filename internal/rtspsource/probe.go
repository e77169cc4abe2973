// Package rtspsource implements the RTSP reachability probe used by
// StreamIngestor before committing to the heavier ffmpeg decode pipeline.
// Grounded on the teacher's RTSPStreamManager.Start in rtsp_source.go: the
// same Client.Start/Describe/Setup sequence and H.264-track search, trimmed
// down to just the handshake (no RTP packet distribution — decode is
// delegated to ffmpeg per SPEC_FULL.md §4.1).
package rtspsource

import (
	"fmt"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
)

// Probe performs a DESCRIBE/SETUP handshake against rtspURL to verify the
// camera is reachable and carries an H.264 video track, without starting
// playback. A failure here is fast — no decode-process timeout — letting
// StreamIngestor raise IngestorFatal quickly for a dead camera.
func Probe(rtspURL string) error {
	client := &gortsplib.Client{}

	parsed, err := base.ParseURL(rtspURL)
	if err != nil {
		return fmt.Errorf("rtspsource: parse url: %w", err)
	}

	if err := client.Start(parsed.Scheme, parsed.Host); err != nil {
		return fmt.Errorf("rtspsource: connect: %w", err)
	}
	defer client.Close()

	desc, _, err := client.Describe(parsed)
	if err != nil {
		return fmt.Errorf("rtspsource: describe: %w", err)
	}

	for _, media := range desc.Medias {
		for _, f := range media.Formats {
			if _, ok := f.(*format.H264); ok {
				if _, err := client.Setup(desc.BaseURL, media, 0, 0); err != nil {
					return fmt.Errorf("rtspsource: setup video track: %w", err)
				}
				return nil
			}
		}
	}

	return fmt.Errorf("rtspsource: no H.264 track found in %s", rtspURL)
}
