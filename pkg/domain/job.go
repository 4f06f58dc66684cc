package domain

import "time"

// JobTypeExecuteOrder is the only job type the workers consume
const JobTypeExecuteOrder = "execute-order"

// BackoffTypeExponential doubles the delay after every failed attempt
const BackoffTypeExponential = "exponential"

// Job references an order by id only. Workers reload the order when the job
// runs so queue delay never yields stale state.
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	OrderID    string     `json:"orderId"`
	Options    JobOptions `json:"options"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// JobOptions controls the retry policy applied to a job
type JobOptions struct {
	Attempts int            `json:"attempts"`
	Backoff  BackoffOptions `json:"backoff"`
}

// BackoffOptions describes the delay between attempts
type BackoffOptions struct {
	Type  string        `json:"type"`
	Delay time.Duration `json:"delay"`
}

// DefaultJobOptions returns 3 attempts with exponential backoff from 1s
func DefaultJobOptions() JobOptions {
	return JobOptions{
		Attempts: 3,
		Backoff: BackoffOptions{
			Type:  BackoffTypeExponential,
			Delay: time.Second,
		},
	}
}
