package locator

import "slices"

// ServiceQuery filters Inspect results. Zero fields match everything; all
// set fields must match.
type ServiceQuery struct {
	Lifecycle string
	Group     string

	// Metadata entries must all be present with equal values.
	Metadata map[string]string

	// Resolved, when set, selects services with or without a cached instance.
	Resolved *bool
}

// Query inspects every service and keeps the matches, sorted by name.
// Inspecting runs health checks on resolved services; nothing is resolved.
func Query(c Container, q ServiceQuery) []ServiceInfo {
	var out []ServiceInfo

	for _, name := range c.Services() {
		if info := c.Inspect(name); q.matches(info) {
			out = append(out, info)
		}
	}

	return out
}

func (q ServiceQuery) matches(info ServiceInfo) bool {
	switch {
	case q.Lifecycle != "" && q.Lifecycle != info.Lifecycle:
		return false
	case q.Group != "" && !slices.Contains(info.Groups, q.Group):
		return false
	case q.Resolved != nil && *q.Resolved != info.Resolved:
		return false
	}

	for k, v := range q.Metadata {
		if got, ok := info.Metadata[k]; !ok || got != v {
			return false
		}
	}

	return true
}

// QueryNames is Query reduced to names.
func QueryNames(c Container, q ServiceQuery) []string {
	infos := Query(c, q)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}

	return names
}

// FindByGroup returns the services tagged with group.
func FindByGroup(c Container, group string) []ServiceInfo {
	return Query(c, ServiceQuery{Group: group})
}

// FindByLifecycle returns the services registered with lifecycle.
func FindByLifecycle(c Container, lifecycle string) []ServiceInfo {
	return Query(c, ServiceQuery{Lifecycle: lifecycle})
}

// FindUnresolved returns services without a cached instance, including
// every transient service.
func FindUnresolved(c Container) []ServiceInfo {
	unresolved := false

	return Query(c, ServiceQuery{Resolved: &unresolved})
}
