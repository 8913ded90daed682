// SPDX-License-Identifier: EPL-2.0

// Package task holds what every pipeline stage shares: the lifecycle
// events a stage emits, the commands it accepts, the error taxonomy its
// warnings use, and Stage, the runner that drives a Worker through its
// state machine.
//
// A Stage runs forever. After a session reaches STOPPED it waits for the
// next START instead of exiting, so one goroutine serves every session:
//
//	st := task.New(worker, task.Options{Name: "decoder", Logger: logger})
//	go st.Run(ctx)
//	st.Send(ctx, task.Start(session))
//	for ev := range st.Events() { ... }
//
// Lifecycle events and WARNINGs are delivered in order and never dropped.
// RUNNING and IDLE are published only when they change and are dropped,
// and counted in Stats, when the event queue is full.
package task
