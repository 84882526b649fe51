package core

import (
	"sync"

	"go.lumeweb.com/accounts/core/internal"
)

type ServiceFactory func() (Service, []ContextBuilderOption, error)

type Service interface{}

var (
	services          = make(map[string]ServiceInfo)
	servicesOrdered   []ServiceInfo
	servicesMu        sync.RWMutex
	servicesOrderedMu sync.RWMutex
)

type ServiceInfo struct {
	ID      string
	Factory ServiceFactory
	Depends []string
}

func RegisterService(service ServiceInfo) {
	if service.ID == "" {
		panic("service ID must not be empty")
	}

	if service.Factory == nil {
		panic("service factory must not be nil")
	}

	servicesMu.Lock()
	defer servicesMu.Unlock()

	servicesOrderedMu.Lock()
	defer servicesOrderedMu.Unlock()

	if _, ok := services[service.ID]; ok {
		panic("service already registered: " + service.ID)
	}

	servicesOrdered = nil
	services[service.ID] = service
}

func GetServiceInfo(id string) *ServiceInfo {
	servicesMu.RLock()
	defer servicesMu.RUnlock()

	svc, ok := services[id]

	if !ok {
		return nil
	}

	return &svc
}

// GetServices returns every registered service with dependencies ahead of their dependents.
func GetServices() []ServiceInfo {
	servicesMu.RLock()
	defer servicesMu.RUnlock()

	servicesOrderedMu.Lock()
	defer servicesOrderedMu.Unlock()

	if len(servicesOrdered) > 0 {
		return servicesOrdered
	}

	graph := internal.NewDependsGraph()

	for _, k := range services {
		graph.AddNode(k.ID, k.Depends...)
	}

	list, err := graph.Build()

	if err != nil {
		panic(err)
	}

	svcList := make([]ServiceInfo, 0, len(list))

	for _, k := range list {
		svcList = append(svcList, services[k])
	}

	servicesOrdered = svcList

	return svcList
}

// GetService fetches a started service from the context and asserts its type.
func GetService[T any](ctx Context, id string) T {
	svc, _ := ctx.Service(id).(T)
	return svc
}
