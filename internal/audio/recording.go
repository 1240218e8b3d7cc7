// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "github.com/zfurman56/live-spectrum/internal/log"
)

const recordingBitDepth = 32

// Recorder writes captured mono samples to a WAV file. It runs on the
// consumer side of the queue, never in the capture callback, so encoder I/O
// cannot stall the hardware stream. State transitions use an atomic flag so
// Start/Stop may be called while the consumer loop is writing.
type Recorder struct {
	isRecording int32 // Atomic flag for thread-safe state
	sampleRate  float64
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
}

// NewRecorder creates a recorder for the given capture sample rate.
// framesHint sizes the reusable conversion buffer to the expected chunk size.
func NewRecorder(sampleRate float64, framesHint int) *Recorder {
	if framesHint < 1 {
		framesHint = 512
	}
	return &Recorder{
		sampleRate: sampleRate,
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  int(sampleRate),
			},
			Data: make([]int, framesHint),
		},
	}
}

// Start opens the output file and arms the recorder.
func (r *Recorder) Start(filename string) error {
	if atomic.LoadInt32(&r.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file

	r.wavEncoder = wav.NewEncoder(file, int(r.sampleRate), recordingBitDepth, 1, 1)

	atomic.StoreInt32(&r.isRecording, 1)

	return nil
}

// Write appends a drained chunk to the recording. A no-op when the recorder
// is not armed. Samples are scaled from normalized float32 to the int32
// range the encoder expects. Encoder errors are logged and absorbed; they
// never interrupt the consumer loop.
func (r *Recorder) Write(chunk []float32) {
	if atomic.LoadInt32(&r.isRecording) == 0 || r.wavEncoder == nil {
		return
	}

	if cap(r.sampleBuf.Data) < len(chunk) {
		r.sampleBuf.Data = make([]int, len(chunk))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(chunk)]
	for i, sample := range chunk {
		r.sampleBuf.Data[i] = int(float64(sample) * float64(math.MaxInt32))
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		applog.Errorf("Recorder: error writing to WAV file: %v", err)
	}
}

// Stop finalizes the WAV file and disarms the recorder. Safe to call when
// not recording.
func (r *Recorder) Stop() error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&r.isRecording, 0)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}

	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	return nil
}
