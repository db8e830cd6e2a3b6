package errors

import "sync/atomic"

// Reporter observes every built EnhancedError. Telemetry registers one at
// startup; the default is no reporter at all.
type Reporter interface {
	ReportError(ee *EnhancedError)
	IsEnabled() bool
}

var activeReporter atomic.Pointer[Reporter]

// SetReporter installs r as the process-wide reporter. Passing nil removes it.
func SetReporter(r Reporter) {
	if r == nil {
		activeReporter.Store(nil)
		return
	}
	activeReporter.Store(&r)
}

func report(ee *EnhancedError) {
	p := activeReporter.Load()
	if p == nil {
		return
	}
	r := *p
	if r == nil || !r.IsEnabled() || ee.IsReported() {
		return
	}
	r.ReportError(ee)
	ee.MarkReported()
}
