// Package distribution proposes task-to-member assignments for a group.
//
// A Proposer only selects assignees; persisting the result is the caller's job.
package distribution

import (
	"context"
	"fmt"
	"sort"

	"group-task-tracker/internal/entities"
)

// MemberLoad is a candidate assignee together with its current workload.
type MemberLoad struct {
	Member          entities.Member
	TaskCount       int
	TotalDifficulty int
}

// Input is the snapshot a proposer works on.
type Input struct {
	Members []MemberLoad
	Tasks   []entities.Task
}

// Proposer produces assignment records for the tasks of an Input.
type Proposer interface {
	Method() entities.DistributionMethod
	Propose(ctx context.Context, in Input) ([]entities.AssignmentRecord, error)
}

// Registry resolves proposers by distribution method.
type Registry struct {
	proposers map[entities.DistributionMethod]Proposer
}

// NewRegistry registers the given proposers; nil entries are ignored.
func NewRegistry(proposers ...Proposer) *Registry {
	r := &Registry{proposers: make(map[entities.DistributionMethod]Proposer, len(proposers))}
	for _, p := range proposers {
		if p == nil {
			continue
		}
		r.proposers[p.Method()] = p
	}
	return r
}

// Get returns the proposer for method or ErrMethodUnavailable.
func (r *Registry) Get(method entities.DistributionMethod) (Proposer, error) {
	p, ok := r.proposers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrMethodUnavailable, method)
	}
	return p, nil
}

// Methods lists registered methods in stable order.
func (r *Registry) Methods() []entities.DistributionMethod {
	res := make([]entities.DistributionMethod, 0, len(r.proposers))
	for m := range r.proposers {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// sortedMembers orders candidates by join time, then user id, so ties resolve
// the same way on every run.
func sortedMembers(in []MemberLoad) []MemberLoad {
	res := append([]MemberLoad(nil), in...)
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i].Member, res[j].Member
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID < b.UserID
	})
	return res
}
