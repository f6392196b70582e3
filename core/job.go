package core

import "time"

// JobStatus 为向量化任务的状态。状态只能前向迁移：
// queued → processing → completed / failed。
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobPriority 为任务优先级，随任务记录保留并对外可见。
// 当前调度为先进先出，优先级不改变执行顺序。
type JobPriority string

const (
	PriorityLow    JobPriority = "low"
	PriorityNormal JobPriority = "normal"
	PriorityHigh   JobPriority = "high"
)

// Job 为一次批量向量化任务的快照。
type Job struct {
	ID        string
	Status    JobStatus
	Priority  JobPriority
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	// Errors 按商品 ID 记录失败原因；单条失败不影响其余条目。
	Errors    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Done 判断任务是否已终态。
func (j *Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
