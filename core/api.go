package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gorilla/mux"
)

var (
	apis   = make(map[string]API)
	apisMu sync.RWMutex
)

// API is a group of HTTP routes mounted on the shared router when the HTTP service initializes.
type API interface {
	Name() string
	Configure(ctx Context, router *mux.Router) error
}

func RegisterAPI(id string, api API) {
	apisMu.Lock()
	defer apisMu.Unlock()

	if _, ok := apis[id]; ok {
		panic(fmt.Sprintf("api already registered: %s", id))
	}

	apis[id] = api
}

func GetAPI(id string) API {
	apisMu.RLock()
	defer apisMu.RUnlock()

	return apis[id]
}

// GetAPIs returns the registered APIs sorted by id.
func GetAPIs() []API {
	apisMu.RLock()
	defer apisMu.RUnlock()

	keys := make([]string, 0, len(apis))
	for k := range apis {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	apiList := make([]API, 0, len(keys))
	for _, k := range keys {
		apiList = append(apiList, apis[k])
	}

	return apiList
}
