package store

import "context"

type workQueue struct {
	data *registry
}

func (q *workQueue) Enqueue(ctx context.Context, id string) {
	q.data.mu.Lock()
	defer q.data.mu.Unlock()
	q.data.queue = append(q.data.queue, id)
}

func (q *workQueue) Dequeue(ctx context.Context) (string, error) {
	q.data.mu.Lock()
	defer q.data.mu.Unlock()

	if len(q.data.queue) == 0 {
		return "", ErrQueueEmpty
	}
	id := q.data.queue[0]
	q.data.queue = q.data.queue[1:]
	return id, nil
}

func (q *workQueue) Remove(ctx context.Context, id string) bool {
	q.data.mu.Lock()
	defer q.data.mu.Unlock()

	for i, v := range q.data.queue {
		if v == id {
			q.data.queue = append(q.data.queue[:i], q.data.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (q *workQueue) Len(ctx context.Context) int {
	q.data.mu.RLock()
	defer q.data.mu.RUnlock()
	return len(q.data.queue)
}
