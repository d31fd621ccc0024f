// Package pipeline runs skeleton-of-thought jobs end to end.
//
// A job moves through three phases:
//   - Decomposition: one request turns the query into a numbered skeleton
//   - Expansion: every point is expanded concurrently and independently
//   - Aggregation: results are ordered by point index into a final answer
//
// A failed decomposition fails the job. Failed points degrade the answer
// instead, which is then marked partial.
//
// Example usage:
//
//	r := pipeline.NewRunner(client, pipeline.DefaultConfig())
//	out, err := r.Run(ctx, "List 3 tips for better sleep")
//	if err != nil {
//		return err
//	}
//	fmt.Println(out.Text)
//
// The runner also offers a single-request baseline (RunNormal) and a
// benchmark that alternates the two modes (Bench).
package pipeline
