// Package events defines the planning related events emitted on the event bus.
//
// Available event types:
//   - WindowSolved: one dispatch window optimized
//   - MonthClosed: billing month settled
//   - PlanCompleted: full horizon run finished
//   - CandidateEvaluated: sizing candidate scored
//   - GenerationFinished: sizing search generation summary
package events
