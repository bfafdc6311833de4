// Package tickos hosts deterministic cooperative process kernels.
//
// A kernel is advanced one external tick at a time and persisted as a
// snapshot between ticks, so a session can outlive the process that drives
// it. End-users typically interact with sessions through the Service facade:
//
//	srv := tickos.New(hello.Factory, tickos.WithBudget(budget.Steps(1000)))
//	session := srv.Host("demo")
//	_, _ = session.Launch(ctx, &hello.Main{})
//	report, _ := session.Invoke(ctx)
//
// The kernel itself lives in runtime/kernel and can be embedded directly.
package tickos
