package instance

import (
	"sync"
	"time"

	"github.com/danmuck/lspmux/internal/observability"
)

// Registry is the daemon-wide map of workspace key to live instances. The
// relay is strictly one client to one process, so a workspace with several
// attached clients holds several instances; the per-key count is the
// attachment refcount. All access goes through the one mutex — nothing
// else in the daemon shares state across connections.
type Registry struct {
	mu      sync.Mutex
	entries map[string][]*Instance
	total   int
}

// WorkspaceInfo is one admin-surface snapshot row.
type WorkspaceInfo struct {
	Key       string    `json:"key"`
	CWD       string    `json:"cwd"`
	Args      []string  `json:"args"`
	Instances int       `json:"instances"`
	PIDs      []int     `json:"pids"`
	Oldest    time.Time `json:"oldest"`
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]*Instance)}
}

// Track records a newly launched instance under its workspace key.
func (r *Registry) Track(inst *Instance) {
	r.mu.Lock()
	r.entries[inst.Key] = append(r.entries[inst.Key], inst)
	r.total++
	total := r.total
	r.mu.Unlock()
	observability.SetActiveInstances(total)
}

// Release drops inst from its workspace entry and closes it, reaping the
// process. The entry disappears when its last instance is released.
// Returns the instance's Close error, if any.
func (r *Registry) Release(inst *Instance) error {
	r.mu.Lock()
	instances := r.entries[inst.Key]
	for i, candidate := range instances {
		if candidate == inst {
			instances = append(instances[:i], instances[i+1:]...)
			r.total--
			break
		}
	}
	if len(instances) == 0 {
		delete(r.entries, inst.Key)
	} else {
		r.entries[inst.Key] = instances
	}
	total := r.total
	r.mu.Unlock()
	observability.SetActiveInstances(total)
	return inst.Close()
}

// Len reports the number of live instances across all workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Snapshot returns the current per-workspace view for the admin surface.
func (r *Registry) Snapshot() []WorkspaceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]WorkspaceInfo, 0, len(r.entries))
	for key, instances := range r.entries {
		info := WorkspaceInfo{
			Key:       key,
			CWD:       instances[0].CWD,
			Args:      instances[0].Args,
			Instances: len(instances),
			Oldest:    instances[0].Started,
		}
		for _, inst := range instances {
			info.PIDs = append(info.PIDs, inst.PID)
			if inst.Started.Before(info.Oldest) {
				info.Oldest = inst.Started
			}
		}
		out = append(out, info)
	}
	return out
}
