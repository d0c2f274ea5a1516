package models

import "encoding/json"

// OperationKind names an LwM2M operation requested by the caller.
type OperationKind string

// Supported LwM2M operations
const (
	OpRead                   OperationKind = "read"
	OpReadComposite          OperationKind = "readComposite"
	OpWrite                  OperationKind = "write"
	OpObserve                OperationKind = "observe"
	OpObserveComposite       OperationKind = "observeComposite"
	OpCancelObserve          OperationKind = "cancelObserve"
	OpCancelObserveComposite OperationKind = "cancelObserveComposite"
	OpExecute                OperationKind = "execute"
	OpWriteAttributes        OperationKind = "writeAttributes"
)

// OperationRequest is the handler input: an operation on a set of LwM2M paths of one thing.
// Values and Attributes stay raw so that their JSON shape survives until rendering.
type OperationRequest struct {
	Operation  *OperationKind    `json:"operation"`
	ThingName  *string           `json:"thingName"`
	Keys       []string          `json:"keys"`
	Values     []json.RawMessage `json:"values,omitempty"`
	Attributes []json.RawMessage `json:"attributes,omitempty"`
	Arguments  *string           `json:"arguments,omitempty"`
}

// Parameter is a single named task-template parameter.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TaskTemplateRequest is the body posted to the tasksFromTemplates endpoint.
type TaskTemplateRequest struct {
	TemplateName string     `json:"templateName"`
	Config       TaskConfig `json:"config"`
}

// TaskConfig wraps the ordered template parameters.
type TaskConfig struct {
	Parameters []Parameter `json:"parameters"`
}

// Param returns the value of the named parameter and whether it is present.
func (t TaskTemplateRequest) Param(name string) (string, bool) {
	for _, p := range t.Config.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// OperationResult is the terminal outcome returned to the caller.
// Body is a JSON document: either {"error": "..."} or the downstream response verbatim.
type OperationResult struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ErrorResult builds a result whose body is {"error": message}.
func ErrorResult(status int, message string) OperationResult {
	body, _ := json.Marshal(map[string]string{"error": message})
	return OperationResult{StatusCode: status, Body: string(body)}
}
