package models

import "sync"

var (
	registeredModels   []any
	registeredModelsMu sync.Mutex
)

func registerModel(model any) {
	registeredModelsMu.Lock()
	defer registeredModelsMu.Unlock()

	registeredModels = append(registeredModels, model)
}

// GetModels returns every model that takes part in auto migration.
func GetModels() []any {
	registeredModelsMu.Lock()
	defer registeredModelsMu.Unlock()

	return append([]any(nil), registeredModels...)
}
