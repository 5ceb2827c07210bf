package metrics

import "time"

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
var _ Recorder = (*testRecorder)(nil)

type testRecorder struct {
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	documents      map[DocumentResult]int
	buildDurations int
	buildOutcomes  map[BuildOutcome]int
	loads          int64
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		documents:      map[DocumentResult]int{},
		buildOutcomes:  map[BuildOutcome]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncDocumentResult(result DocumentResult) { t.documents[result]++ }
func (t *testRecorder) ObserveBuildDuration(_ time.Duration)     { t.buildDurations++ }
func (t *testRecorder) IncBuildOutcome(outcome BuildOutcome)     { t.buildOutcomes[outcome]++ }
func (t *testRecorder) SetMetadataFileLoads(n int64)             { t.loads = n }
