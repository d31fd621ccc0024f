// Package tui provides the live progress view for `sot ask --tui`.
//
// The view is read-only. It shows a spinner while the query is decomposed,
// then one row per point as points start and settle:
//   - pending points are gray with a spinner
//   - settled points show their elapsed time
//   - failed points show their error kind
//
// Users can quit with 'q' or Ctrl+C, which cancels the running job.
//
// Usage:
//
//	program, app := tui.NewProgressProgram(query, cancel)
//	runner := pipeline.NewRunner(client, cfg, pipeline.WithObserver(tui.Observer(program)))
//	go func() {
//	    out, err := runner.Run(ctx, query)
//	    program.Send(tui.DoneMsg{Partial: out != nil && out.Partial(), Err: err})
//	}()
//	_, err := program.Run()
package tui
