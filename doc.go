// Package arbiter is the resource-safety and task-lifecycle core of a small
// kernel: a banker's-algorithm ledger that decides whether granting a pending
// resource request keeps the whole system deadlock-free, plus the state
// machine governing a task's progression from creation to termination.
//
// The core is wired through pluggable service layers:
//
//   - ledger    – allocation/maximum/need matrices and the safety check
//   - model/task – task control blocks and the grow-only task table
//   - scheduler – round-robin pick-next loop over ready tasks
//   - syscall   – dispatch layer translating ledger verdicts to error codes
//   - dao       – checkpoint persistence (in-memory or afs-backed)
//
// The core is designed to be embedded in a host kernel.  Collaborators
// interact with it via the high-level Service façade exposed by the root
// package:
//
//	srv := arbiter.New()
//	rt  := srv.Runtime()
//	id  := rt.CreateTask(task.Context{})
//	sem := rt.CreateResource(10)
//	_, err := rt.Syscall(ctx, id, syscall.SysResAcquire, sem, 3)
//
// For more details see the individual sub-packages.
package arbiter
