// Package audithook is a sequence extension that bridges lifecycle events
// to an audit trail backend.
//
// Every run and task hook emits a structured audit event through the
// [Recorder] interface. Normal progress is recorded at info severity,
// task failures at warning and failed runs at critical, with metadata
// such as the sequence name, queue, task index and elapsed time.
//
//	rt, _ := sequence.NewRuntime(
//	    sequence.WithExtension(audithook.New(audithook.RecorderFunc(
//	        func(ctx context.Context, evt *audithook.AuditEvent) error {
//	            return store.Append(ctx, evt)
//	        },
//	    ))),
//	)
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionSequenceFailed,
//	        audithook.ActionSequenceCancelled,
//	    ),
//	)
package audithook
