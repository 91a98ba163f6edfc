package routes

import "net/http"

// Group organizes routes under a common prefix. Middleware wraps every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Routes     []Route
	Children   []Group
	Middleware []func(http.Handler) http.Handler
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

// Patterns lists the mux patterns the groups would register, in order.
func Patterns(groups ...Group) []string {
	var out []string
	for _, group := range groups {
		out = collect(out, "", group)
	}
	return out
}

func registerGroup(
	mux *http.ServeMux,
	parentPrefix string,
	inherited []func(http.Handler) http.Handler,
	group Group,
) {
	fullPrefix := parentPrefix + group.Prefix
	stack := append(append([]func(http.Handler) http.Handler{}, inherited...), group.Middleware...)

	for _, route := range group.Routes {
		var handler http.Handler = route.Handler
		for i := len(stack) - 1; i >= 0; i-- {
			handler = stack[i](handler)
		}
		mux.Handle(route.pattern(fullPrefix), handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}

func collect(out []string, parentPrefix string, group Group) []string {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		out = append(out, route.pattern(fullPrefix))
	}
	for _, child := range group.Children {
		out = collect(out, fullPrefix, child)
	}
	return out
}
