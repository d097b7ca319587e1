package observability

import (
	"sync"
	"time"
)

type Stage string

const (
	StageIdle       Stage = "IDLE"
	StagePlanning   Stage = "PLANNING"
	StageWriting    Stage = "WRITING"
	StageValidating Stage = "VALIDATING"
)

// Counters tracks how campaigns have been produced since start.
type Counters struct {
	Plans          int `json:"plans"`
	Fallbacks      int `json:"fallbacks"`
	Writes         int `json:"writes"`
	InvalidOutputs int `json:"invalid_outputs"`
}

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentStage  Stage
	ActiveTask    string
	LastHeartbeat time.Time
	Counters      Counters
}

// Snapshot is a copy of the status safe to hand out.
type Snapshot struct {
	Stage         Stage     `json:"stage"`
	ActiveTask    string    `json:"active_task,omitempty"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Uptime        string    `json:"uptime"`
	Counters      Counters  `json:"counters"`
}

var globalStatus = &SystemStatus{
	CurrentStage:  StageIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(stage Stage, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentStage = stage
	globalStatus.ActiveTask = task
}

// Count applies fn to the global counters under lock.
func Count(fn func(c *Counters)) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	fn(&globalStatus.Counters)
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() Snapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return Snapshot{
		Stage:         globalStatus.CurrentStage,
		ActiveTask:    globalStatus.ActiveTask,
		LastHeartbeat: globalStatus.LastHeartbeat,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
		Counters:      globalStatus.Counters,
	}
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}
