package events_test

import (
	"fmt"
	"time"
	
	"github.com/wavecraft/wavecraft/internal/events"
)

// ExampleConfig_debug demonstrates an event bus configuration with the Debug
// flags set
func ExampleConfig_debug() {
	// Create configuration with the Debug flags set
	config := &events.Config{
		BufferSize: 1000,
		Workers:    4,
		Enabled:    true,
		Debug:      true, // not read by the bus
		Deduplication: &events.DeduplicationConfig{
			Enabled:         true,
			Debug:           true, // not read by the deduplicator
			TTL:             5 * time.Minute,
			MaxEntries:      10000,
			CleanupInterval: 1 * time.Minute,
		},
	}
	
	// Initialize event bus
	eb, err := events.Initialize(config)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		return
	}
	
	// The event bus and deduplicator do not read the Debug flags: setting
	// them adds no logging beyond the bus's usual debug-level messages.
	
	// Shutdown when done
	_ = eb.Shutdown(5 * time.Second)
	
	// Output:
}