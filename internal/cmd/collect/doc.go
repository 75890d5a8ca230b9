// Package collectrun exposes the shared Run entrypoint used by the CLI
// for both the batch collect command (file sink) and the integrated run
// command (in-process recorder sink). It owns the wiring: volume
// resolution, journal handles, sink construction, cursor state and the
// collector itself, plus signal-aware shutdown.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Volumes = []string{"C:"}
//	rep, err := collectrun.Run(ctx, collectrun.Options{Config: cfg, Mode: collectrun.ModeFile})
package collectrun
