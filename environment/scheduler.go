package environment

import (
	"fmt"
	"math/rand"

	"logistics/agent"
	"logistics/grid_world"
)

// TaskStage is a task's progress from pickup to delivery.
type TaskStage int

const (
	AWAITING_PICKUP TaskStage = iota
	IN_TRANSIT
	DELIVERED
)

func (ts TaskStage) String() string {
	switch ts {
	case AWAITING_PICKUP:
		return "awaiting-pickup"
	case IN_TRANSIT:
		return "in-transit"
	case DELIVERED:
		return "delivered"
	}
	return fmt.Sprintf("TaskStage(%d)", int(ts))
}

// Task is a two-leg job: drive to Pickup, then to Delivery.
type Task struct {
	ID       int
	Pickup   grid_world.Point
	Delivery grid_world.Point

	stage     TaskStage
	aborts    int
	scheduler *QueueScheduler
}

func (t *Task) Stage() TaskStage { return t.stage }
func (t *Task) Aborts() int      { return t.aborts }

// Coordinates is the current leg's destination.
func (t *Task) Coordinates() grid_world.Point {
	if t.stage == IN_TRANSIT {
		return t.Delivery
	}
	return t.Pickup
}

// Abort is called when the carrying agent crashes. Cargo in transit is lost,
// so the task restarts from pickup at the back of the queue.
func (t *Task) Abort() {
	t.aborts++
	t.stage = AWAITING_PICKUP
	if t.scheduler != nil {
		t.scheduler.pending = append(t.scheduler.pending, t)
	}
}

// QueueScheduler hands out tasks first come, first served.
type QueueScheduler struct {
	pending   []*Task
	nextID    int
	completed int
}

func NewQueueScheduler() *QueueScheduler {
	return &QueueScheduler{}
}

// Push queues a new task.
func (qs *QueueScheduler) Push(pickup, delivery grid_world.Point) *Task {
	task := &Task{
		ID:        qs.nextID,
		Pickup:    pickup,
		Delivery:  delivery,
		scheduler: qs,
	}
	qs.nextID++
	qs.pending = append(qs.pending, task)
	return task
}

// Fill queues n tasks between randomly chosen pickup and delivery points.
func (qs *QueueScheduler) Fill(rng *rand.Rand, n int, pickups, deliveries []grid_world.Point) {
	if len(pickups) == 0 || len(deliveries) == 0 {
		return
	}
	for i := 0; i < n; i++ {
		qs.Push(
			pickups[rng.Intn(len(pickups))],
			deliveries[rng.Intn(len(deliveries))])
	}
}

// GiveTask assigns the oldest pending task to an agent that has none.
func (qs *QueueScheduler) GiveTask(a *agent.Agent) {
	if a.Task() != nil || len(qs.pending) == 0 {
		return
	}
	task := qs.pending[0]
	qs.pending = qs.pending[1:]
	a.SetTask(task)
}

// Pending is the number of unassigned tasks.
func (qs *QueueScheduler) Pending() int { return len(qs.pending) }

// Completed is the number of delivered tasks since the last reset.
func (qs *QueueScheduler) Completed() int { return qs.completed }

// Reset drops every queued task.
func (qs *QueueScheduler) Reset() {
	qs.pending = nil
	qs.completed = 0
}

// advance moves the agent's task along when it stands on the current leg's
// destination, returning the stage reached.
func (qs *QueueScheduler) advance(a *agent.Agent) (TaskStage, bool) {
	task, ok := a.Task().(*Task)
	if !ok {
		return 0, false
	}
	cur, placed := a.Cell()
	if !placed || cur != task.Coordinates() {
		return 0, false
	}

	switch task.stage {
	case AWAITING_PICKUP:
		task.stage = IN_TRANSIT
		a.Pickup()
	case IN_TRANSIT:
		task.stage = DELIVERED
		qs.completed++
		a.Deliver()
	}
	return task.stage, true
}
