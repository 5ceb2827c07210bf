package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// DocumentResult is what happened to one document during a build.
type DocumentResult string

const (
	DocumentRendered DocumentResult = "rendered"
	DocumentSkipped  DocumentResult = "skipped"
	DocumentFailed   DocumentResult = "failed"
)

// BuildOutcome is the final status of a build run.
type BuildOutcome string

const (
	BuildSuccess  BuildOutcome = "success"
	BuildPartial  BuildOutcome = "partial"
	BuildFailed   BuildOutcome = "failed"
	BuildCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for build, document and stage
// metrics. Implementations must tolerate concurrent calls.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncDocumentResult(result DocumentResult)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	SetMetadataFileLoads(n int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncDocumentResult(DocumentResult)           {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)               {}
func (NoopRecorder) SetMetadataFileLoads(int64)                 {}
