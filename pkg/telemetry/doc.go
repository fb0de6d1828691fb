// Package telemetry provides observability for scaffolder runs.
//
// It combines structured logging (zerolog), tracing (OpenTelemetry) and
// Prometheus metrics behind one Telemetry value created at startup:
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Each provisioning run gets a root span (run.provision) and one child span
// per pipeline step. Metrics live in a private registry that the serve command
// exposes on the configured path.
//
// Logging is a side channel for operators. Observers of a run receive its
// progress events and never read the log.
package telemetry
