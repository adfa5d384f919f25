package domain

// ProgressFunc reports pagination progress during a sync.
// Called once per page: (20, 95), (40, 95), ...
type ProgressFunc func(loaded, total int)
