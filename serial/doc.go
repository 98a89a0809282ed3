// Package serial provides Queue, a FIFO mutual-exclusion queue for asynchronous work.
//
// Any number of goroutines may submit tasks concurrently. The queue runs them one at a time,
// strictly in submission order, and hands every submitter a Future that resolves with the
// result of that submitter's own task.
//
// # Semantics
//
//   - Mutual exclusion: at most one task body is running at any instant.
//   - FIFO: if Submit(A) returns before Submit(B) is called, A finishes before B starts.
//   - Failure isolation: an error or panic in one task is delivered only to its Future;
//     the queue keeps draining the tasks behind it.
//   - No cancellation: once submitted a task always runs. Abandoning Future.Wait via its
//     context does not withdraw the task.
//
// # Example
//
//	q := serial.New(serial.WithName("llm"))
//	f := serial.Submit(q, func(ctx context.Context) (string, error) {
//	    return callModel(ctx, "ID 1")
//	})
//	reply, err := f.Wait(ctx)
package serial
