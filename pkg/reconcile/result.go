package reconcile

import (
	"time"
)

// Outcome is the terminal state of one product group in a run.
type Outcome string

const (
	// OutcomeCreated means the group was new and a product was created for it.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated means the group matched a catalog product and its variants were reconciled.
	OutcomeUpdated Outcome = "updated"
	// OutcomeSkipped means the group was new but had no stock, so nothing was created.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means processing the group hit an error.
	OutcomeFailed Outcome = "failed"
)

// VariantReport counts what happened to the variants of one reconciled product.
type VariantReport struct {
	Updated   int `json:"updated"`
	NotInFeed int `json:"notInFeed"`
	Created   int `json:"created"`
	Failed    int `json:"failed"`
}

// ItemResult records what happened to a single product group.
type ItemResult struct {
	Name      string        `json:"name"`
	Outcome   Outcome       `json:"outcome"`
	ProductID int           `json:"productId,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
	Variants  VariantReport `json:"variants"`
}

// Summary collects the results of one run.
type Summary struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Items      []ItemResult `json:"items"`
}

// Count returns the number of items that ended with outcome o.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, item := range s.Items {
		if item.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the items that ended in failure.
func (s *Summary) Failed() []ItemResult {
	var failed []ItemResult
	for _, item := range s.Items {
		if item.Outcome == OutcomeFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
