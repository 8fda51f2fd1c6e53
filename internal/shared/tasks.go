package shared

// Task type names and queues shared between the API (enqueue side) and
// the worker (handler side).
const (
	// TypeStorageRemoveTree removes a storage directory after a cascade
	// delete has committed (manga dir or single chapter dir).
	TypeStorageRemoveTree = "storage:remove_tree"

	// TypeStorageReconcile sweeps chapter directories for files that have
	// no page record (orphans left by aborted uploads).
	TypeStorageReconcile = "storage:reconcile"

	QueueStorage = "storage"
)

// RemoveTreePayload names the directory to delete, relative to the
// storage root.
type RemoveTreePayload struct {
	Dir string `json:"dir"`
}

// ReconcilePayload configures the orphan sweep. MinAgeMinutes protects
// uploads that are still in flight from being swept.
type ReconcilePayload struct {
	MinAgeMinutes int `json:"min_age_minutes"`
}
