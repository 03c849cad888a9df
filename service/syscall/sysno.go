package syscall

// Sysno is a numeric syscall identifier; the process-management numbers
// follow the RISC-V Linux convention the surrounding kernel uses, the
// resource calls occupy a private range.
type Sysno int

const (
	SysExit     Sysno = 93
	SysYield    Sysno = 124
	SysGetTime  Sysno = 169
	SysTaskInfo Sysno = 410

	// Resource-bearing calls (semaphore-like).
	SysResCreate  Sysno = 460
	SysResAcquire Sysno = 461
	SysResRelease Sysno = 462
	SysResDestroy Sysno = 463
)

var sysnoNames = map[Sysno]string{
	SysExit:       "exit",
	SysYield:      "yield",
	SysGetTime:    "get_time",
	SysTaskInfo:   "task_info",
	SysResCreate:  "res_create",
	SysResAcquire: "res_acquire",
	SysResRelease: "res_release",
	SysResDestroy: "res_destroy",
}

// String returns the symbolic name used for policy matching and span names.
func (s Sysno) String() string {
	if name, ok := sysnoNames[s]; ok {
		return name
	}
	return "unknown"
}
