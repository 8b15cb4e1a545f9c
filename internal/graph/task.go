package graph

import "maps"

const (
	taskKey      = "task"
	scopesKey    = "scopes"
	groupIDKey   = "taskGroupId"
	schedulerKey = "schedulerId"
	payloadKey   = "payload"
	envKey       = "env"

	// ErrorMessageEnv is the payload env variable diagnostic tasks carry.
	ErrorMessageEnv = "ERROR_MSG"
)

// Task is one unit of remote work as read from a task graph template.
// Templates are free-form documents, so a task stays a generic mapping.
// The reserved fields taskGroupId and schedulerId are injector-assigned;
// any template-supplied value is overwritten.
type Task map[string]any

// Graph is an ordered sequence of tasks sharing one group id. Ordering is
// significant: the id generated for the first submitted task becomes the
// group id of the whole graph.
type Graph struct {
	Version int
	Tasks   []Task
}

// Inner returns the task definition itself, unwrapping the legacy
// {task: ...} envelope when present. Both forms appear in version 0
// templates.
func Inner(entry Task) Task {
	if wrapped, ok := entry[taskKey].(map[string]any); ok {
		return Task(wrapped)
	}
	return entry
}

// WithInner replaces the task definition inside entry, keeping the
// {task: ...} envelope when entry has one.
func WithInner(entry, def Task) Task {
	if _, ok := entry[taskKey].(map[string]any); ok {
		out := maps.Clone(entry)
		out[taskKey] = map[string]any(def)
		return out
	}
	return def
}

// DeclaredScopes returns the scopes the task definition declares.
func DeclaredScopes(def Task) []string {
	switch raw := def[scopesKey].(type) {
	case []string:
		return raw
	case []any:
		scopes := make([]string, 0, len(raw))
		for _, s := range raw {
			if scope, ok := s.(string); ok {
				scopes = append(scopes, scope)
			}
		}
		return scopes
	}
	return nil
}

// UnionScopes merges two scope sets, dropping duplicates and keeping
// first-seen order.
func UnionScopes(a, b []string) []string {
	union := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, scope := range append(append([]string{}, a...), b...) {
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		union = append(union, scope)
	}
	return union
}

// WithScopes returns a copy of def whose scopes are the union of the
// task's declared scopes and extra.
func WithScopes(def Task, extra []string) Task {
	out := maps.Clone(def)
	out[scopesKey] = UnionScopes(DeclaredScopes(def), extra)
	return out
}

// WithGroupID returns a copy of def assigned to the given task group.
func WithGroupID(def Task, groupID string) Task {
	out := maps.Clone(def)
	out[groupIDKey] = groupID
	return out
}

// WithSchedulerID returns a copy of def with the scheduler identity set.
func WithSchedulerID(def Task, schedulerID string) Task {
	out := maps.Clone(def)
	out[schedulerKey] = schedulerID
	return out
}

// WithErrorMessage returns a copy of def whose payload env carries the
// given error message. An error message already present is left in place.
func WithErrorMessage(def Task, message string) Task {
	out := maps.Clone(def)

	payload, _ := out[payloadKey].(map[string]any)
	payload = cloneOrNew(payload)
	env, _ := payload[envKey].(map[string]any)
	env = cloneOrNew(env)

	if _, ok := env[ErrorMessageEnv]; !ok {
		env[ErrorMessageEnv] = message
	}
	payload[envKey] = env
	out[payloadKey] = payload
	return out
}

func cloneOrNew(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return maps.Clone(m)
}
