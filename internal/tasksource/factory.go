package tasksource

import (
	"fmt"
	"strings"
	"time"
)

// SourceSpec specifies how to create a task source.
type SourceSpec struct {
	Type   SourceType
	Config map[string]string
}

// ParseSourceSpec parses a source specification string.
// Format: "type:param1=value1,param2=value2"
// Examples:
//   - "rest:url=http://localhost:8000"
//   - "todolist:path=tasks.md"
//
// A bare http(s) URL is shorthand for a rest source.
func ParseSourceSpec(spec string) (SourceSpec, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
		return SourceSpec{
			Type:   SourceTypeREST,
			Config: map[string]string{"url": spec},
		}, nil
	}

	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return SourceSpec{}, fmt.Errorf("invalid source spec format: %s", spec)
	}

	sourceType := SourceType(parts[0])
	config := make(map[string]string)

	if parts[1] != "" {
		for _, param := range strings.Split(parts[1], ",") {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) != 2 {
				return SourceSpec{}, fmt.Errorf("invalid parameter format: %s", param)
			}
			config[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return SourceSpec{
		Type:   sourceType,
		Config: config,
	}, nil
}

// CreateSource creates a TaskSource from a specification. timeout applies
// to network sources; a "timeout" parameter in the spec wins over it.
func CreateSource(spec SourceSpec, timeout time.Duration) (TaskSource, error) {
	switch spec.Type {
	case SourceTypeREST:
		if raw, ok := spec.Config["timeout"]; ok {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bad timeout %q", ErrInvalidConfig, raw)
			}
			timeout = d
		}
		return NewRESTSource(RESTConfig{
			BaseURL: spec.Config["url"],
			Timeout: timeout,
		})

	case SourceTypeTodolist:
		path, ok := spec.Config["path"]
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: todolist requires 'path' parameter", ErrInvalidConfig)
		}
		return NewTodolistSource(path)

	default:
		return nil, fmt.Errorf("unsupported source type: %s", spec.Type)
	}
}

// CreateSourceFromString parses a spec string and creates the source.
func CreateSourceFromString(spec string, timeout time.Duration) (TaskSource, error) {
	parsed, err := ParseSourceSpec(spec)
	if err != nil {
		return nil, err
	}
	return CreateSource(parsed, timeout)
}
