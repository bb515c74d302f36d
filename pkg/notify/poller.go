package notify

import (
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultPollSchedule is used when no schedule is configured.
const DefaultPollSchedule = "@every 10s"

// Poller emits a notification on a cron schedule. It stands in for an OS
// power-source notification on platforms where none is available to Go.
// Callbacks run on cron's goroutines.
type Poller struct {
	schedule string
	parser   cron.Parser
}

// NewPoller returns a poller for a cron expression or descriptor such as
// "@every 10s". An empty schedule uses DefaultPollSchedule.
func NewPoller(schedule string) *Poller {
	if schedule == "" {
		schedule = DefaultPollSchedule
	}
	return &Poller{
		schedule: schedule,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Register starts polling. It fails if the schedule cannot be parsed.
func (p *Poller) Register(cb Callback) (Registration, error) {
	if cb == nil {
		return nil, errors.New("callback cannot be nil")
	}

	logger := cronLogger{entry: logrus.WithField("component", "poller")}
	c := cron.New(
		cron.WithParser(p.parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(p.schedule, func() { cb() })
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid poll schedule %q", p.schedule)
	}

	c.Start()
	logrus.WithField("schedule", p.schedule).Debug("power source poller started")

	return &pollerRegistration{c: c}, nil
}

type pollerRegistration struct {
	c *cron.Cron
}

func (r *pollerRegistration) Stop() {
	ctx := r.c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		logrus.Warn("timed out waiting for running poll jobs")
	}
	logrus.Debug("power source poller stopped")
}

// cronLogger routes cron's logs to logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Trace(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return fields
}
