// Package clock implements a reusable pool of per-replica logical clocks.
//
// A VectorClock hands out ClockGuards that stamp in-flight writes at a
// replica with a dense, recycled clock ID. Replicas compare the resulting
// (id, tick) pairs across peers to detect and recover from divergent
// histories; the pool itself knows nothing about replication, it only
// guarantees that at most one guard per clock ID is outstanding at a time
// and that each clock's counter never goes backwards.
package clock
