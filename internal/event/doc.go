// Package event carries phase execution progress from the scheduler to its
// observers (console notifications, the log, the progress view).
//
// Every phase-, wave- and unit-level transition is published as an [Event]
// on a [Bus]. Event types follow "category.action":
//
//   - phase.discovery_failed, phase.started, phase.completed, phase.halted
//   - wave.started, wave.completed, wave.failed, wave.file_conflict
//   - unit.skipped, unit.started, unit.completed, unit.failed
//   - marker.written
//
// # Usage
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeUnitFailed, func(e event.Event) {
//	    failed := e.(event.UnitFailedEvent)
//	    fmt.Println(failed.UnitID, failed.ExitCode)
//	})
//	bus.SubscribeAll(func(e event.Event) { ... })
//
// The [Bus] is safe for concurrent use. Handlers run synchronously on the
// publisher's goroutine; units of one wave publish concurrently.
package event
