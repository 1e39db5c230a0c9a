// Package feed simulates a decoction workshop: prescriptions arrive, move
// through receive, formulate and decoction, and complete. It drives the
// development server with snapshots, task updates and alerts.
package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/server"
)

const (
	numStages      = 3
	topWorkers     = 5
	trendHours     = 24
	backlogLimit   = 10
	stepInterval   = 5 * time.Second
	stageTimeLimit = 6 // steps a task may sit in one stage before timing out
)

var stageNames = [numStages]string{"收方", "配方", "煎药"}

var stageAlertTypes = [numStages]string{"timeout_receive", "timeout_formulate", "timeout_decoction"}

// Status sent in task_update after a task leaves stage i.
var stageDoneStatus = [numStages]string{"received", "formulated", "completed"}

var defaultWorkers = []string{"张伟", "王芳", "李娜", "刘洋", "陈静", "杨磊", "赵敏"}

type task struct {
	id      int
	stage   int
	worker  int
	entered int // step on which the task entered its stage
	alerted bool
}

type worker struct {
	id        int
	name      string
	completed int
}

type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	now         func() time.Time
	alerts      *AlertStore
	broadcaster *server.Broadcaster

	step          int
	nextTask      int
	tasks         []*task
	workers       []*worker
	completions   []time.Time
	prescriptions int
	today         int
	day           int
}

// NewGenerator creates a generator. broadcaster may be nil, in which case
// nothing is pushed and the generator only serves snapshots.
func NewGenerator(seed int64, alerts *AlertStore, broadcaster *server.Broadcaster) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewSource(seed)),
		now:         time.Now,
		alerts:      alerts,
		broadcaster: broadcaster,
		nextTask:    1,
	}
	for i, name := range defaultWorkers {
		g.workers = append(g.workers, &worker{id: i + 1, name: name})
	}
	return g
}

// SetBroadcaster attaches the push target once the server exists.
func (g *Generator) SetBroadcaster(b *server.Broadcaster) {
	g.mu.Lock()
	g.broadcaster = b
	g.mu.Unlock()
}

// Snapshot implements server.Source.
func (g *Generator) Snapshot() client.DashboardSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	var stages [numStages]int
	for _, t := range g.tasks {
		stages[t.stage]++
	}

	ranked := make([]*worker, len(g.workers))
	copy(ranked, g.workers)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].completed > ranked[j].completed })
	if len(ranked) > topWorkers {
		ranked = ranked[:topWorkers]
	}
	workers := make([]client.WorkerStat, 0, len(ranked))
	for _, w := range ranked {
		workers = append(workers, client.WorkerStat{WorkerID: w.id, Name: w.name, CompletedCount: w.completed})
	}

	return client.DashboardSnapshot{
		Metrics: &client.Metrics{
			TotalPrescriptions: g.prescriptions,
			TodayPrescriptions: g.today,
			PendingTasks:       len(g.tasks),
			CompletedToday:     g.completedToday(now),
			TotalTasks:         g.nextTask - 1,
		},
		StageDistribution: &client.StageDistribution{
			Receive:   stages[0],
			Formulate: stages[1],
			Decoction: stages[2],
		},
		WorkerEfficiency: workers,
		HourlyStats:      g.hourly(now),
		Timestamp:        client.NewTimestamp(now),
	}
}

func (g *Generator) completedToday(now time.Time) int {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	n := 0
	for _, c := range g.completions {
		if !c.Before(start) {
			n++
		}
	}
	return n
}

// hourly buckets completions into the trendHours hours before now.
func (g *Generator) hourly(now time.Time) *client.HourlyStats {
	hs := &client.HourlyStats{
		Hours:     make([]string, trendHours),
		Completed: make([]int, trendHours),
	}
	for i := 0; i < trendHours; i++ {
		start := now.Add(-time.Duration(trendHours-i) * time.Hour)
		hs.Hours[i] = start.Format("15:00")
	}
	for _, c := range g.completions {
		ago := now.Sub(c)
		if ago < 0 || ago >= trendHours*time.Hour {
			continue
		}
		idx := trendHours - 1 - int(ago/time.Hour)
		if idx >= 0 {
			hs.Completed[idx]++
		}
	}
	return hs
}

// Step advances the workshop by one tick. It returns the task updates and
// alerts it produced; alerts are already in the store.
func (g *Generator) Step() ([]client.TaskUpdatePayload, []client.Alert) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.step++
	now := g.now()
	if yd := now.YearDay(); yd != g.day {
		g.day = yd
		g.today = 0
	}

	for n := g.rng.Intn(3); n > 0; n-- {
		g.prescriptions++
		g.today++
		g.tasks = append(g.tasks, &task{
			id:      g.nextTask,
			worker:  g.rng.Intn(len(g.workers)),
			entered: g.step,
		})
		g.nextTask++
	}

	var updates []client.TaskUpdatePayload
	var alerts []client.Alert
	remaining := g.tasks[:0]
	for _, t := range g.tasks {
		if g.rng.Float64() < 0.35 {
			updates = append(updates, client.TaskUpdatePayload{
				TaskID:    t.id,
				Status:    stageDoneStatus[t.stage],
				Timestamp: client.Timestamp{Time: now},
			})
			if t.stage == numStages-1 {
				g.workers[t.worker].completed++
				g.completions = append(g.completions, now)
				continue
			}
			t.stage++
			t.entered = g.step
			t.alerted = false
			t.worker = g.rng.Intn(len(g.workers))
		} else if !t.alerted && g.step-t.entered >= stageTimeLimit {
			t.alerted = true
			alerts = append(alerts, g.timeoutAlert(t))
		}
		remaining = append(remaining, t)
	}
	g.tasks = remaining
	g.pruneCompletions(now)

	if len(g.tasks) > backlogLimit && g.step%stageTimeLimit == 0 {
		alerts = append(alerts, g.store(client.Alert{
			Type:    "backlog",
			Level:   client.LevelHigh,
			Message: fmt.Sprintf("待处理任务积压严重(当前 %d 单)，请增加人力或优化流程", len(g.tasks)),
		}))
	}
	return updates, alerts
}

// RandomAlert produces a medium-severity alert unrelated to task timing.
func (g *Generator) RandomAlert() client.Alert {
	g.mu.Lock()
	defer g.mu.Unlock()

	w := g.workers[g.rng.Intn(len(g.workers))]
	wid := w.id
	if g.rng.Intn(2) == 0 {
		return g.store(client.Alert{
			Type:     "low_efficiency",
			Level:    "medium",
			Message:  fmt.Sprintf("工人 %s 今日效率异常，已完成 %d 个任务", w.name, w.completed),
			WorkerID: &wid,
		})
	}
	tid := g.rng.Intn(max(g.nextTask, 2)-1) + 1
	return g.store(client.Alert{
		Type:    "abnormal_fast",
		Level:   "medium",
		Message: fmt.Sprintf("任务 #%d 完成时间异常快，请检查操作是否规范", tid),
		TaskID:  &tid,
	})
}

func (g *Generator) timeoutAlert(t *task) client.Alert {
	tid := t.id
	wid := g.workers[t.worker].id
	return g.store(client.Alert{
		Type:     stageAlertTypes[t.stage],
		Level:    client.LevelHigh,
		Message:  fmt.Sprintf("任务 #%d %s阶段超时，负责工人: %s", t.id, stageNames[t.stage], g.workers[t.worker].name),
		TaskID:   &tid,
		WorkerID: &wid,
	})
}

func (g *Generator) store(a client.Alert) client.Alert {
	if g.alerts == nil {
		return a
	}
	return g.alerts.Add(a)
}

func (g *Generator) pruneCompletions(now time.Time) {
	cutoff := now.Add(-trendHours * time.Hour)
	i := 0
	for i < len(g.completions) && g.completions[i].Before(cutoff) {
		i++
	}
	g.completions = g.completions[i:]
}

// Start runs the simulation until ctx is cancelled. Snapshots are pushed
// every push interval and a random alert every alert interval; a
// non-positive alert interval disables random alerts.
func (g *Generator) Start(ctx context.Context, push, alertEvery time.Duration) {
	go g.run(ctx, push, alertEvery)
}

func (g *Generator) run(ctx context.Context, push, alertEvery time.Duration) {
	stepTicker := time.NewTicker(stepInterval)
	defer stepTicker.Stop()
	pushTicker := time.NewTicker(push)
	defer pushTicker.Stop()

	var alertC <-chan time.Time
	if alertEvery > 0 {
		alertTicker := time.NewTicker(alertEvery)
		defer alertTicker.Stop()
		alertC = alertTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stepTicker.C:
			updates, alerts := g.Step()
			for _, u := range updates {
				g.broadcast(client.MsgTaskUpdate, u)
			}
			for _, a := range alerts {
				g.broadcast(client.MsgNewAlert, a)
			}
		case <-pushTicker.C:
			if b := g.target(); b != nil {
				b.BroadcastSnapshot()
			}
		case <-alertC:
			g.broadcast(client.MsgNewAlert, g.RandomAlert())
		}
	}
}

func (g *Generator) target() *server.Broadcaster {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.broadcaster
}

func (g *Generator) broadcast(t client.MessageType, payload interface{}) {
	if b := g.target(); b != nil {
		b.Broadcast(t, payload)
	}
}
