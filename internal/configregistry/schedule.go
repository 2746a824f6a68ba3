package configregistry

import (
	"context"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// ScheduleRefresh registers a cron-triggered Refresh job with sched under
// jobName (spec §4.10 "refreshable ... on a cron tick").
func (r *Registry) ScheduleRefresh(sched interfaces.SchedulerService, jobName, cronExpr string) error {
	return sched.Register(jobName, cronExpr, func() error {
		return r.Refresh(context.Background())
	})
}
