package scheduler

import (
	"container/heap"
	"time"
)

// job is one entry of the due-at queue
type job struct {
	key   string
	dueAt time.Time
	seq   uint64
	run   func(now time.Time)
	index int
}

// jobQueue is a min-heap ordered by due time, then by insertion sequence
type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].dueAt.Equal(q[j].dueAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].dueAt.Before(q[j].dueAt)
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x interface{}) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() interface{} {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}

func (q *jobQueue) peek() *job {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

func (q *jobQueue) remove(j *job) {
	if j.index >= 0 && j.index < len(*q) {
		heap.Remove(q, j.index)
	}
}
