package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/planner/internal/infrastructure/buffer"
)

// Check pings one backing service. Required checks decide IsOnline.
type Check struct {
	Name     string
	Required bool
	Timeout  time.Duration
	Ping     func(ctx context.Context) error
}

func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{
		Name:     "postgresql",
		Required: true,
		Timeout:  3 * time.Second,
		Ping:     pool.Ping,
	}
}

func RedisCheck(client *redislib.Client) Check {
	return Check{
		Name:    "redis",
		Timeout: 2 * time.Second,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

type Status struct {
	Online     bool            `json:"online"`
	Components map[string]bool `json:"components"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Monitor polls its checks in the background and caches the last result.
type Monitor struct {
	checks []Check
	buffer *buffer.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(buf *buffer.Store, interval time.Duration, logger *zap.Logger, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Online: len(checks) == 0, Components: map[string]bool{}},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{
		Online:     true,
		Components: make(map[string]bool, len(m.checks)),
		LastCheck:  time.Now(),
	}
	for _, check := range m.checks {
		ok := m.run(ctx, check)
		status.Components[check.Name] = ok
		if check.Required && !ok {
			status.Online = false
		}
	}
	status.Buffer, status.BufferSize = m.checkBuffer()

	m.mu.Lock()
	previous := m.status.Online
	m.status = status
	m.mu.Unlock()

	if previous != status.Online {
		m.logger.Info("connectivity changed", zap.Bool("online", status.Online), zap.Any("components", status.Components))
	}
	return status
}

func (m *Monitor) run(ctx context.Context, check Check) bool {
	if check.Ping == nil {
		return false
	}
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := check.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("component", check.Name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
