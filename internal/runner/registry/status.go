package registry

import (
	"sort"

	"wyckoff_keeper/internal/models"
)

// Status never fails: an unknown bot id yields models.NotRunning.
func (r *Registry) Status(botID string) models.Status {
	r.mu.Lock()
	e, ok := r.bots[botID]
	r.mu.Unlock()

	if !ok {
		return models.NotRunning(botID)
	}
	return e.keeper.Status()
}

// List returns snapshots of all registered bots ordered by bot id.
func (r *Registry) List() []models.Status {
	r.mu.Lock()
	keepers := make([]*entry, 0, len(r.bots))
	for _, e := range r.bots {
		keepers = append(keepers, e)
	}
	r.mu.Unlock()

	out := make([]models.Status, 0, len(keepers))
	for _, e := range keepers {
		out = append(out, e.keeper.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BotID < out[j].BotID })
	return out
}
