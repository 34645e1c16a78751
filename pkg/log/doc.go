/*
Package log wires zerolog into the kernel's vocabulary. One root sink is
installed by Setup; every subsystem (kernel, hsm, reactor, demo) derives
its logger from it and tags lines with the subsystem name, optionally
narrowed to one task or one topic:

	busLog := log.ForTopic(log.Subsystem("kernel"), "Sensor_Raw")
	busLog.Debug().Msg("event published")

The root starts as a no-op, so libraries and tests that never call Setup
stay silent.
*/
package log
