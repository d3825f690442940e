package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	// The bot is I/O bound; a modest GC target keeps the heap small between attempts.
	defaultGCPercent = 200
	defaultMemLimit  = 1 * 1024 * 1024 * 1024
)

// InitRuntime applies GOGC/GOMEMLIMIT defaults unless they are set in the environment.
func InitRuntime() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGCPercent)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
	}

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Str("go_version", runtime.Version()).
		Msg("[runtime] settings applied")
}
