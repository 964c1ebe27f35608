package main

import (
	"github.com/greynewell/intentbench/eval"
	"github.com/greynewell/intentbench/metrics"
)

// metricsObserver feeds aggregator outcomes into Prometheus collectors.
type metricsObserver struct {
	reg *metrics.Registry
}

func (o metricsObserver) ObserveResult(r eval.Result) {
	outcome := metrics.OutcomeIncorrect
	if r.Hit() {
		outcome = metrics.OutcomeCorrect
	}
	o.reg.Observe(outcome, r.Duration)
}

func (o metricsObserver) ObserveFailure(eval.Failure) {
	o.reg.Observe(metrics.OutcomeFailed, 0)
}
