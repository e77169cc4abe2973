// Package detectorapi defines the FaceDetector boundary from spec.md §6
// (`detect(images) -> [[{bbox, confidence}]]`, pure, GPU-resident,
// thread-confined) and a concrete Haar-cascade implementation. Grounded on
// the teacher's FaceDetector in facedetector.go: same gocv.CascadeClassifier
// load-and-DetectMultiScaleWithParams shape, same aspect-ratio/size/edge-
// margin filtering, repurposed to return (bbox, confidence) pairs for the
// pipeline instead of publishing a Kafka alert directly.
package detectorapi

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"faceworker/internal/domain"
)

// Detection is one face candidate before quality scoring or Event
// construction.
type Detection struct {
	Bbox       domain.BoundingBox
	Confidence float64
}

// Detector is the interface the pipeline's Detector stage depends on. It is
// deliberately narrow so a production deployment can swap the bundled
// cascade classifier for a different model without touching the pipeline.
type Detector interface {
	// Detect returns, for each input Mat, the list of face Detections found
	// in it. len(result) == len(images).
	Detect(images []gocv.Mat) [][]Detection
	Close() error
}

// CascadeDetector is the bundled FaceDetector implementation: a Haar
// cascade classifier run per-frame with strict filtering to minimize false
// positives, matching facedetector.go's DetectMultiScaleWithParams call and
// post-filter.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads a Haar cascade XML from cascadePath.
func NewCascadeDetector(cascadePath string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		return nil, fmt.Errorf("detectorapi: failed to load cascade classifier from %s", cascadePath)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect runs the cascade classifier against each image, applying the same
// aspect-ratio, size, and edge-margin filters the teacher's detector uses to
// reject likely false positives. Confidence is a constant proxy — Haar
// cascades do not report a true confidence score — matching the teacher's
// own use of its configured threshold as a confidence proxy.
func (d *CascadeDetector) Detect(images []gocv.Mat) [][]Detection {
	out := make([][]Detection, len(images))
	for i, img := range images {
		out[i] = d.detectOne(img)
	}
	return out
}

func (d *CascadeDetector) detectOne(img gocv.Mat) []Detection {
	if img.Empty() || img.Cols() < 50 || img.Rows() < 50 {
		return nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &gray, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
	gocv.EqualizeHist(gray, &gray)

	faces := d.classifier.DetectMultiScaleWithParams(
		gray,
		1.15,
		8,
		0,
		image.Pt(60, 60),
		image.Pt(400, 400),
	)

	imgWidth := img.Cols()
	imgHeight := img.Rows()

	detections := make([]Detection, 0, len(faces))
	for _, face := range faces {
		if !passesFaceFilters(face, imgWidth, imgHeight) {
			continue
		}
		detections = append(detections, Detection{
			Bbox:       domain.NewBoundingBox(face.Min.X, face.Min.Y, face.Max.X, face.Max.Y),
			Confidence: 0.75,
		})
	}

	return detections
}

const edgeMargin = 10

// passesFaceFilters rejects likely false positives by aspect ratio, area,
// and closeness to the frame edge, matching the teacher's inline filter in
// FaceDetector.
func passesFaceFilters(face image.Rectangle, imgWidth, imgHeight int) bool {
	aspectRatio := float64(face.Dx()) / float64(face.Dy())
	if aspectRatio < 0.75 || aspectRatio > 1.25 {
		return false
	}

	area := face.Dx() * face.Dy()
	if area < 3600 || area > 160000 {
		return false
	}

	if face.Min.X < edgeMargin || face.Min.Y < edgeMargin ||
		face.Max.X > imgWidth-edgeMargin || face.Max.Y > imgHeight-edgeMargin {
		return false
	}

	return true
}

// Close releases the underlying classifier's native resources.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}
