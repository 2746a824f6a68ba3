package interfaces

// SchedulerService manages cron-triggered named jobs (the orchestrator run
// and the config-registry refresh tick).
type SchedulerService interface {
	// Register adds a named job on a cron schedule. Re-registering a name
	// replaces its schedule and handler.
	Register(name, cronExpr string, handler func() error) error

	Start() error
	Stop()
	IsRunning() bool

	// TriggerNow runs a registered job's handler immediately, out of band
	// from its schedule.
	TriggerNow(name string) error
}
