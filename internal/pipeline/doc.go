// Package pipeline runs fine lookups.
//
// A lookup is a Pipeline of Steps executed in order over a *model.Lookup:
// QueryStep obtains the result URL and session, then ParseStep fetches and
// interprets the result page. Each step drives its stage through the retry
// orchestrator, so a step only fails once the stage's attempt budget is spent.
//
// Checker is the entry point. CheckFines normalizes the plate, infers the
// vehicle type when it is missing, runs the pipeline and maps the outcome to
// a model.ResponseEnvelope. It never returns an error: every recoverable
// failure becomes an envelope with Error set.
//
// BatchProcessor checks many vehicles concurrently using errgroup. Lookups
// share no mutable state, so the only limit is how hard the remote service
// should be hit.
package pipeline
