// Package vectorize 提供商品向量化的后台任务队列：
// 调用编码器生成各模态向量，落盘目录并写入向量索引。
package vectorize

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/vector"
)

// Queue 管理向量化任务。任务入队即返回任务 ID，处理在后台进行；
// 单个商品失败只记入任务明细，不影响其余商品。
type Queue struct {
	Catalog  core.CatalogStore
	Embedder core.Embedder
	// Index 非 nil 时，向量化成功的商品同步写入索引。
	Index core.VectorIndex
	// Workers 为单个任务内的并发度，默认 4。
	Workers int
	// Timeout 为单个任务的总时限，默认 10 分钟。
	Timeout time.Duration
	Logger  *zap.Logger

	mu   sync.Mutex
	jobs map[string]*core.Job
}

// NewQueue 创建任务队列。
func NewQueue(catalog core.CatalogStore, embedder core.Embedder, index core.VectorIndex, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		Catalog:  catalog,
		Embedder: embedder,
		Index:    index,
		Logger:   logger,
		jobs:     make(map[string]*core.Job),
	}
}

func (q *Queue) workers() int {
	if q.Workers > 0 {
		return q.Workers
	}
	return 4
}

func (q *Queue) timeout() time.Duration {
	if q.Timeout > 0 {
		return q.Timeout
	}
	return 10 * time.Minute
}

// Enqueue 创建向量化任务并立即返回任务 ID。priority 为空时取 normal。
// force 为 false 时跳过三个模态均已就绪的商品；为 true 时无条件重算。
func (q *Queue) Enqueue(ids []string, priority core.JobPriority, force bool) (string, error) {
	if len(ids) == 0 {
		return "", core.NewDomainError("vectorize", core.ErrCodeInvalidInput, "商品列表为空")
	}
	if q.Embedder == nil {
		return "", core.NewDomainError("vectorize", core.ErrCodeUnavailable, "编码器未配置")
	}
	if priority == "" {
		priority = core.PriorityNormal
	}

	job := &core.Job{
		ID:        uuid.NewString(),
		Status:    core.JobQueued,
		Priority:  priority,
		Total:     len(ids),
		Errors:    make(map[string]string),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	// 任务生命周期独立于入队请求，使用后台上下文
	go q.run(context.Background(), job.ID, ids, force)

	q.Logger.Info("向量化任务入队",
		zap.String("job_id", job.ID),
		zap.Int("total", len(ids)),
		zap.String("priority", string(priority)),
		zap.Bool("force", force))
	return job.ID, nil
}

// EnqueueMissing 为目录中向量不完整的商品补建任务。
// 没有待补商品时返回 NOT_FOUND。
func (q *Queue) EnqueueMissing(ctx context.Context) (string, error) {
	ids, err := q.Catalog.ListProductIDsMissingVectors(ctx)
	if err != nil {
		return "", core.WrapDomainError("vectorize", core.ErrCodeDependencyFailure, "扫描缺失向量失败", err)
	}
	if len(ids) == 0 {
		return "", core.NewDomainError("vectorize", core.ErrCodeNotFound, "没有待向量化的商品")
	}
	return q.Enqueue(ids, core.PriorityLow, false)
}

// Status 返回任务快照副本。任务不存在时返回 NOT_FOUND。
func (q *Queue) Status(jobID string) (*core.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, core.NewDomainError("vectorize", core.ErrCodeNotFound, "任务不存在: "+jobID)
	}
	cp := *job
	cp.Errors = make(map[string]string, len(job.Errors))
	for k, v := range job.Errors {
		cp.Errors[k] = v
	}
	return &cp, nil
}

func (q *Queue) run(ctx context.Context, jobID string, ids []string, force bool) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout())
	defer cancel()

	q.transition(jobID, core.JobProcessing)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(q.workers())
	for _, id := range ids {
		itemID := id
		eg.Go(func() error {
			q.processOne(egCtx, jobID, itemID, force)
			return nil // 单品失败不中断任务
		})
	}
	_ = eg.Wait()

	q.mu.Lock()
	job := q.jobs[jobID]
	failed := job.Failed
	total := job.Total
	q.mu.Unlock()

	// 全军覆没记 failed，部分失败仍视为 completed，明细在 Errors 中
	if failed == total {
		q.transition(jobID, core.JobFailed)
	} else {
		q.transition(jobID, core.JobCompleted)
	}
	q.Logger.Info("向量化任务结束", zap.String("job_id", jobID), zap.Int("failed", failed), zap.Int("total", total))
}

func (q *Queue) processOne(ctx context.Context, jobID, itemID string, force bool) {
	product, err := q.Catalog.GetProduct(ctx, itemID)
	if err != nil {
		q.finishItem(jobID, itemID, err)
		return
	}
	if !force && product.Vectors.Complete() {
		q.skipItem(jobID)
		return
	}

	vectors, err := q.embed(ctx, product)
	if err != nil {
		q.finishItem(jobID, itemID, err)
		return
	}
	if err := q.Catalog.SaveVectors(ctx, itemID, vectors); err != nil {
		q.finishItem(jobID, itemID, err)
		return
	}
	if q.Index != nil {
		if err := q.Index.Insert(ctx, itemID, vectors); err != nil {
			q.Logger.Warn("向量写入索引失败", zap.String("item_id", itemID), zap.Error(err))
		}
	}
	q.finishItem(jobID, itemID, nil)
}

// embed 生成商品的三个模态向量。
// combined 由图像/文本向量拼接而成；仅有单模态时退化为该模态的副本。
func (q *Queue) embed(ctx context.Context, p *core.Product) (core.VectorSet, error) {
	vectors := make(core.VectorSet)

	var imageVec, textVec []float32
	if p.ImageURL != "" {
		v, err := q.Embedder.EmbedImage(ctx, p.ImageURL)
		if err != nil {
			return nil, core.WrapDomainError("vectorize", core.ErrCodeDependencyFailure, "图像编码失败", err)
		}
		imageVec = v
	}
	text := p.Name
	if p.Description != "" {
		text += "\n" + p.Description
	}
	if text != "" {
		v, err := q.Embedder.EmbedText(ctx, text)
		if err != nil {
			return nil, core.WrapDomainError("vectorize", core.ErrCodeDependencyFailure, "文本编码失败", err)
		}
		textVec = v
	}
	if len(imageVec) == 0 && len(textVec) == 0 {
		return nil, core.NewDomainError("vectorize", core.ErrCodeInvalidInput, "商品缺少可编码内容: "+p.ID)
	}

	if len(imageVec) > 0 {
		vectors[core.ModalityImage] = core.Vector{Modality: core.ModalityImage, Data: imageVec}
	}
	if len(textVec) > 0 {
		vectors[core.ModalityText] = core.Vector{Modality: core.ModalityText, Data: textVec}
	}

	var combined []float32
	switch {
	case len(imageVec) > 0 && len(textVec) > 0:
		combined = make([]float32, 0, len(imageVec)+len(textVec))
		combined = append(combined, imageVec...)
		combined = append(combined, textVec...)
	case len(imageVec) > 0:
		combined = imageVec
	default:
		combined = textVec
	}
	vectors[core.ModalityCombined] = core.Vector{
		Modality: core.ModalityCombined,
		Data:     vector.Normalize(combined),
	}
	return vectors, nil
}

func (q *Queue) transition(jobID string, status core.JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Done() {
		return // 状态只前向迁移
	}
	job.Status = status
	job.UpdatedAt = time.Now()
}

func (q *Queue) skipItem(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job := q.jobs[jobID]
	job.Processed++
	job.Skipped++
	job.UpdatedAt = time.Now()
}

func (q *Queue) finishItem(jobID, itemID string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job := q.jobs[jobID]
	job.Processed++
	if err != nil {
		job.Failed++
		job.Errors[itemID] = err.Error()
	} else {
		job.Succeeded++
	}
	job.UpdatedAt = time.Now()
}
