package maintenance

import "context"

// Job is one unit of housekeeping run on every worker cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule holds jobs in the order they run.
type Schedule struct {
	jobs []Job
}

func NewSchedule(jobs ...Job) *Schedule {
	s := &Schedule{}
	for _, job := range jobs {
		s.Add(job)
	}
	return s
}

// Add appends job; nil jobs are dropped so optional jobs can be passed unconditionally.
func (s *Schedule) Add(job Job) {
	if job == nil {
		return
	}
	s.jobs = append(s.jobs, job)
}

// Jobs returns a copy of the scheduled jobs.
func (s *Schedule) Jobs() []Job {
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}
