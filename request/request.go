// Package request defines the memory request types that flow between
// cores, caches, the interconnect, the DDR controller, and DDR memory.
package request

// Kind distinguishes a read from a write memory access.
type Kind int

const (
	// Read is a load access. Reads always carry a completion callback.
	Read Kind = iota
	// Write is a store access. Writes on the writeback path carry no
	// callback; writes issued by a core's issue path likewise fire and
	// forget.
	Write
)

// String renders the Kind for log lines.
func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// NoCompletionTime is the sentinel value of CompletionTime before the
// DDR controller schedules the request.
const NoCompletionTime int64 = -1

// Callback is invoked when a request completes. It is nil for writes.
type Callback func()

// MemoryRequest travels from a core, through the cache hierarchy, the
// interconnect, and the DDR controller, to DDR memory and back.
type MemoryRequest struct {
	// CoreID identifies the originating core.
	CoreID int
	// IssueTime is the global cycle at which the request was created.
	IssueTime uint64
	// Kind is Read or Write.
	Kind Kind
	// Addr is the byte address this request targets.
	Addr uint64
	// Completion is invoked when the request's data becomes available.
	// Reads always carry one; writes never do.
	Completion Callback
	// CompletionTime is set by the DDR controller once the request is
	// scheduled. It is NoCompletionTime until then.
	CompletionTime int64
}

// New creates a MemoryRequest with CompletionTime left at its sentinel.
func New(coreID int, issueTime uint64, kind Kind, addr uint64, completion Callback) *MemoryRequest {
	return &MemoryRequest{
		CoreID:         coreID,
		IssueTime:      issueTime,
		Kind:           kind,
		Addr:           addr,
		Completion:     completion,
		CompletionTime: NoCompletionTime,
	}
}
