package handlers

import (
	"sync"

	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

var (
	handlerInstance *JobHandler
	mu              sync.RWMutex
	logRH           = logger_i.NewLogger("RequestHandler")
)

type JobHandler struct {
	service *job.Service
}

// InitJobHandler installs the service every HTTP handler reads from.
func InitJobHandler(jobService *job.Service) {
	mu.Lock()
	defer mu.Unlock()
	handlerInstance = &JobHandler{service: jobService}
	logRH.Info("Starting job handler")
}

func currentService() *job.Service {
	mu.RLock()
	defer mu.RUnlock()
	if handlerInstance == nil {
		return nil
	}
	return handlerInstance.service
}
