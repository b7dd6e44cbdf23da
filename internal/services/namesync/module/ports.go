package module

import dom "callerid/internal/services/namesync/domain"

// Ports holds the ports exposed by the name sync module
type Ports struct {
	Worker   dom.WorkerPort
	Enqueuer dom.EnqueuePort
}
