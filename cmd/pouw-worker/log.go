package main

import (
	"github.com/btcsuite/btclog"

	"github.com/pouw-network/worker/internal/pouw/autotune"
	"github.com/pouw-network/worker/internal/pouw/executor"
	"github.com/pouw-network/worker/internal/pouw/submit"
	"github.com/pouw-network/worker/internal/pouw/worker"
)

// subsystemLoggers maps each package's log tag to the UseLogger call that
// wires it to the shared backend, the same central-registry shape the
// btcsuite daemons use to fan a single log backend out to every subsystem.
var subsystemLoggers = map[string]func(btclog.Logger){
	"EXEC": executor.UseLogger,
	"ATUN": autotune.UseLogger,
	"SUBM": submit.UseLogger,
	"WORK": worker.UseLogger,
}

// useLoggers wires backend's per-subsystem loggers into every package that
// declares one, so package-level log.Errorf/Warnf/Infof calls actually
// reach the configured output instead of being dropped by the packages'
// default btclog.Disabled logger.
func useLoggers(backend *logBackend) {
	for tag, use := range subsystemLoggers {
		use(backend.Logger(tag))
	}
}
