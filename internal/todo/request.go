package todo

import (
	"bytes"
	"encoding/json"

	"github.com/phrazzld/todo-api/internal/domain"
)

// decodeFields parses body as a JSON object and returns its members
// undecoded. An empty body is an empty object. Anything that is not an
// object is rejected.
func decodeFields(body []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, true
	}
	if trimmed[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// asString decodes raw if it is a JSON string.
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// asBool decodes raw if it is a JSON boolean.
func asBool(raw json.RawMessage) (bool, bool) {
	switch string(raw) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// parseCreate extracts title and state for a new task. state is true only
// for a literal JSON true; any other value, or none, means false.
func parseCreate(fields map[string]json.RawMessage) (title string, state bool, msg string) {
	title, isString := asString(fields["title"])
	if !isString || title == "" {
		return "", false, MsgTitleRequired
	}
	state, _ = asBool(fields["state"])
	return title, state, ""
}

// parsePatch builds a patch from the members present in the body. Unknown
// members are ignored.
func parsePatch(fields map[string]json.RawMessage) (domain.TaskPatch, string) {
	var patch domain.TaskPatch

	if raw, present := fields["title"]; present {
		title, isString := asString(raw)
		if !isString {
			return domain.TaskPatch{}, MsgTitleNotString
		}
		patch.Title = &title
	}

	if raw, present := fields["state"]; present {
		state, isBool := asBool(raw)
		if !isBool {
			return domain.TaskPatch{}, MsgStateNotBoolean
		}
		patch.State = &state
	}

	return patch, ""
}
