package vectorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/store"
	"github.com/rushteam/swipekit/vector"
)

// fakeEmbedder 返回固定向量, failOn 指定的输入报错。
type fakeEmbedder struct {
	failOn string
}

func (e *fakeEmbedder) EmbedImage(_ context.Context, url string) ([]float32, error) {
	if e.failOn != "" && url == e.failOn {
		return nil, errors.New("编码服务不可用")
	}
	return []float32{1, 0}, nil
}

func (e *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if e.failOn != "" && text == e.failOn {
		return nil, errors.New("编码服务不可用")
	}
	return []float32{0, 1}, nil
}

// waitDone 轮询任务直到终态。
func waitDone(t *testing.T, q *Queue, jobID string) *core.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := q.Status(jobID)
		if err != nil {
			t.Fatalf("查询任务失败: %v", err)
		}
		if job.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("任务超时未完成")
	return nil
}

func TestQueueVectorize(t *testing.T) {
	ctx := context.Background()
	c := store.NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "p1", Name: "连衣裙", ImageURL: "http://img/p1"})

	idx := vector.NewBucketIndex()
	q := NewQueue(c, &fakeEmbedder{}, idx, nil)

	jobID, err := q.Enqueue([]string{"p1"}, core.PriorityHigh, false)
	if err != nil {
		t.Fatalf("入队失败: %v", err)
	}
	job := waitDone(t, q, jobID)

	if job.Status != core.JobCompleted || job.Succeeded != 1 {
		t.Errorf("任务快照错误: %+v", job)
	}
	if job.Priority != core.PriorityHigh {
		t.Errorf("任务应记录入队优先级, 实际 %q", job.Priority)
	}

	p, err := c.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Vectors.Complete() {
		t.Errorf("三个模态应全部落盘: %v", p.Vectors)
	}
	// combined 为拼接后归一化的 4 维向量
	if p.Vectors[core.ModalityCombined].Dim() != 4 {
		t.Errorf("combined 维度 = %d, 期望 4", p.Vectors[core.ModalityCombined].Dim())
	}
	if idx.Stats().Live != 1 {
		t.Error("向量化成功后应写入索引")
	}
}

func TestQueueSkipsCompleted(t *testing.T) {
	c := store.NewMemoryCatalog()
	full := core.VectorSet{
		core.ModalityImage:    {Modality: core.ModalityImage, Data: []float32{1}},
		core.ModalityText:     {Modality: core.ModalityText, Data: []float32{1}},
		core.ModalityCombined: {Modality: core.ModalityCombined, Data: []float32{1}},
	}
	c.PutProduct(&core.Product{ID: "done", Name: "done", Vectors: full})

	q := NewQueue(c, &fakeEmbedder{}, nil, nil)
	jobID, err := q.Enqueue([]string{"done"}, "", false)
	if err != nil {
		t.Fatal(err)
	}
	job := waitDone(t, q, jobID)
	if job.Skipped != 1 || job.Succeeded != 0 {
		t.Errorf("已就绪商品应跳过: %+v", job)
	}
	if job.Priority != core.PriorityNormal {
		t.Errorf("未指定优先级应落到 normal, 实际 %q", job.Priority)
	}

	// force 时无条件重算
	jobID, _ = q.Enqueue([]string{"done"}, "", true)
	job = waitDone(t, q, jobID)
	if job.Succeeded != 1 {
		t.Errorf("force 应重算: %+v", job)
	}
}

func TestQueuePartialFailure(t *testing.T) {
	c := store.NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "good", Name: "好商品"})
	c.PutProduct(&core.Product{ID: "bad", Name: "坏商品", ImageURL: "http://img/broken"})

	q := NewQueue(c, &fakeEmbedder{failOn: "http://img/broken"}, nil, nil)
	jobID, err := q.Enqueue([]string{"good", "bad", "ghost"}, "", false)
	if err != nil {
		t.Fatal(err)
	}
	job := waitDone(t, q, jobID)

	// 部分失败仍 completed, 明细在 Errors 中
	if job.Status != core.JobCompleted {
		t.Errorf("部分失败应为 completed: %+v", job)
	}
	if job.Succeeded != 1 || job.Failed != 2 {
		t.Errorf("成功/失败计数错误: %+v", job)
	}
	if _, ok := job.Errors["bad"]; !ok {
		t.Error("失败明细应记录 bad")
	}
	if _, ok := job.Errors["ghost"]; !ok {
		t.Error("失败明细应记录不存在的商品")
	}
}

func TestQueueAllFailed(t *testing.T) {
	c := store.NewMemoryCatalog()
	q := NewQueue(c, &fakeEmbedder{}, nil, nil)
	jobID, err := q.Enqueue([]string{"ghost1", "ghost2"}, "", false)
	if err != nil {
		t.Fatal(err)
	}
	job := waitDone(t, q, jobID)
	if job.Status != core.JobFailed {
		t.Errorf("全部失败应为 failed: %+v", job)
	}
}

func TestQueueValidation(t *testing.T) {
	c := store.NewMemoryCatalog()
	q := NewQueue(c, &fakeEmbedder{}, nil, nil)

	if _, err := q.Enqueue(nil, "", false); !core.IsInvalidInput(err) {
		t.Errorf("空列表应返回 INVALID_INPUT, 实际 %v", err)
	}
	if _, err := q.Status("nope"); !core.IsNotFound(err) {
		t.Errorf("未知任务应返回 NOT_FOUND, 实际 %v", err)
	}
	if _, err := q.EnqueueMissing(context.Background()); !core.IsNotFound(err) {
		t.Errorf("无待补商品应返回 NOT_FOUND, 实际 %v", err)
	}

	q2 := NewQueue(c, nil, nil, nil)
	if _, err := q2.Enqueue([]string{"p"}, "", false); !core.IsUnavailable(err) {
		t.Errorf("无编码器应返回 UNAVAILABLE, 实际 %v", err)
	}
}

func TestQueueEnqueueMissing(t *testing.T) {
	c := store.NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "p1", Name: "未向量化"})

	q := NewQueue(c, &fakeEmbedder{}, nil, nil)
	jobID, err := q.EnqueueMissing(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	job := waitDone(t, q, jobID)
	if job.Total != 1 || job.Succeeded != 1 {
		t.Errorf("补建任务结果错误: %+v", job)
	}
}
