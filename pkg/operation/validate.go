// Package operation validates LwM2M operation requests and turns them into
// Coiote DM task-template requests.
package operation

import (
	"encoding/json"
	"slices"

	"lwm2mbridge/pkg/lwm2m"
	"lwm2mbridge/pkg/models"
)

// Validated is a request that passed validation, with its keys normalized for
// the operation kind.
type Validated struct {
	Kind       models.OperationKind
	ThingName  string
	Keys       []string
	Values     []json.RawMessage
	Attributes []json.RawMessage
	Arguments  *string
}

// Validate checks the request against the rules of its operation and stops at
// the first violation. The returned error is always an *Error.
func Validate(req models.OperationRequest) (Validated, error) {
	if len(req.Keys) == 0 {
		return Validated{}, badRequest("keys must be specified")
	}
	if req.Operation == nil || *req.Operation == "" {
		return Validated{}, badRequest("operation must be specified")
	}
	if req.ThingName == nil || *req.ThingName == "" {
		return Validated{}, badRequest("thingName must be specified")
	}

	v := Validated{Kind: *req.Operation, ThingName: *req.ThingName}

	switch v.Kind {
	case models.OpWrite:
		keys := lwm2m.MapPaths(req.Keys, lwm2m.WithoutMarker)
		if lwm2m.HasDuplicates(keys) {
			return Validated{}, badRequest("keys must be unique for write operation")
		}
		if req.Values == nil {
			return Validated{}, badRequest("You must specify values when write operation is used")
		}
		if len(keys) != len(req.Values) {
			return Validated{}, badRequest("The number of keys must be equal to the number of values")
		}
		v.Keys = keys
		v.Values = req.Values

	case models.OpRead, models.OpReadComposite:
		v.Keys = slices.Clone(req.Keys)

	case models.OpObserve, models.OpWriteAttributes:
		if lwm2m.HasDuplicates(lwm2m.MapPaths(req.Keys, lwm2m.WithMarker)) {
			return Validated{}, badRequest("keys must be unique for %s operation", v.Kind)
		}
		if req.Attributes == nil {
			return Validated{}, badRequest("You must specify attributes when %s operation is used", v.Kind)
		}
		if len(req.Keys) != len(req.Attributes) {
			return Validated{}, badRequest("The number of keys must be equal to the number of attributes")
		}
		if v.Kind == models.OpObserve {
			// Marked keys keep "3/0/1." and "3/0/1.." distinct for the minimize sweep
			v.Keys = lwm2m.MapPaths(req.Keys, lwm2m.WithMarker)
		} else {
			v.Keys = lwm2m.MapPaths(req.Keys, lwm2m.WithoutMarker)
		}
		v.Attributes = req.Attributes

	case models.OpObserveComposite, models.OpCancelObserveComposite:
		v.Keys = lwm2m.Unique(req.Keys)

	case models.OpCancelObserve:
		// "all" anywhere cancels every observation
		if slices.Contains(req.Keys, "all") {
			v.Keys = []string{"all"}
		} else {
			v.Keys = lwm2m.Unique(req.Keys)
		}

	case models.OpExecute:
		if len(req.Keys) != 1 {
			return Validated{}, badRequest("Only one LwM2M path can be passed for execute operation - keys array must contain only one element")
		}
		v.Keys = slices.Clone(req.Keys)
		v.Arguments = req.Arguments

	default:
		return Validated{}, notImplemented(string(v.Kind))
	}

	return v, nil
}
