// Package metrics records build, document and render stage metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless enabled:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	s, err := site.New(ctx, site.Options{DataDir: dir, Recorder: rec})
//	...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/zensite.prom")
//
// There is no HTTP endpoint: a build is a batch run, so the registry is
// written to a textfile after each build instead of being scraped.
package metrics
