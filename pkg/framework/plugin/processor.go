// Package plugin defines the lifecycle contract between hosts and audio processors.
package plugin

import (
	"github.com/justyntemme/ghostline/pkg/framework/param"
	"github.com/justyntemme/ghostline/pkg/framework/process"
)

// Processor is implemented by audio effects driven by a host.
//
// The host serializes Prepare and Release against ProcessAudio and never
// calls ProcessAudio concurrently with itself.
type Processor interface {
	// Prepare allocates per-stream state for a sample rate and maximum
	// block size. It is never called while audio is being processed.
	Prepare(sampleRate float64, maxBlockSize int32) error

	// ProcessAudio processes one block in place - ZERO ALLOCATIONS!
	// It never blocks and never fails.
	ProcessAudio(ctx *process.Context)

	// Release marks the end of a stream. State stays allocated but stale
	// until the next Prepare.
	Release()

	// GetParameters returns the parameter registry
	GetParameters() *param.Registry

	// GetLatencySamples returns the plugin's latency in samples
	GetLatencySamples() int32

	// GetTailSamples returns the tail length in samples
	GetTailSamples() int32
}
