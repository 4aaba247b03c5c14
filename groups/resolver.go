package groups

import (
	"context"
	"sort"
	"sync"
)

// UserGroupResolver is the directory collaborator the selection strategies
// depend on. Implementations may call out to an identity service; failures
// are treated as the calling strategy's failure, never a global abort.
type UserGroupResolver interface {
	GetGroupsForUser(ctx context.Context, userId string) ([]string, error)
	GetUsersInGroups(ctx context.Context, groups []string) ([]string, error)
	GetSupervisor(ctx context.Context, userId string) (string, error)
}

// StaticResolver keeps the directory in memory. It backs tests and
// single-node deployments configured from files.
type StaticResolver struct {
	mu          sync.RWMutex
	userGroups  map[string][]string
	supervisors map[string]string
}

var _ UserGroupResolver = new(StaticResolver)

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		userGroups:  make(map[string][]string),
		supervisors: make(map[string]string),
	}
}

func (r *StaticResolver) AddUser(userId string, groups ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userGroups[userId] = append(r.userGroups[userId], groups...)
}

func (r *StaticResolver) SetSupervisor(userId string, supervisorId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supervisors[userId] = supervisorId
}

func (r *StaticResolver) GetGroupsForUser(ctx context.Context, userId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]string, len(r.userGroups[userId]))
	copy(groups, r.userGroups[userId])
	return groups, nil
}

func (r *StaticResolver) GetUsersInGroups(ctx context.Context, groups []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(groups))
	for _, g := range groups {
		wanted[g] = true
	}
	var users []string
	for userId, userGroups := range r.userGroups {
		for _, g := range userGroups {
			if wanted[g] {
				users = append(users, userId)
				break
			}
		}
	}
	sort.Strings(users)
	return users, nil
}

func (r *StaticResolver) GetSupervisor(ctx context.Context, userId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.supervisors[userId], nil
}
