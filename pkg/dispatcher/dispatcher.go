// Package dispatcher runs one LwM2M operation request end to end: validate,
// build the task-template request, schedule it on Coiote DM and trigger a
// session with the device.
package dispatcher

import (
	"context"
	"errors"
	"net/http"

	"lwm2mbridge/pkg/coiote"
	"lwm2mbridge/pkg/models"
	"lwm2mbridge/pkg/operation"
	"lwm2mbridge/pkg/resolver"
)

// TaskAPI is the Coiote DM surface the dispatcher drives.
type TaskAPI interface {
	ScheduleTask(ctx context.Context, deviceID string, task models.TaskTemplateRequest) (coiote.Response, error)
	AllowDeregistered(ctx context.Context, deviceID string) (coiote.Response, error)
}

// Dispatcher is stateless; one instance serves every request.
type Dispatcher struct {
	tasks    TaskAPI
	builder  *operation.Builder
	resolver resolver.Resolver
}

// New creates a Dispatcher. A nil resolver addresses devices by thing name.
func New(tasks TaskAPI, builder *operation.Builder, res resolver.Resolver) *Dispatcher {
	if res == nil {
		res = resolver.Passthrough{}
	}
	return &Dispatcher{tasks: tasks, builder: builder, resolver: res}
}

// Plan validates req and builds its task-template request without sending anything.
func (d *Dispatcher) Plan(req models.OperationRequest) (operation.Validated, models.TaskTemplateRequest, error) {
	v, err := operation.Validate(req)
	if err != nil {
		return operation.Validated{}, models.TaskTemplateRequest{}, err
	}
	return v, d.builder.Build(v), nil
}

// Dispatch processes req and always returns a result; failures are encoded in it.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.OperationRequest) models.OperationResult {
	log := logger(ctx)

	v, task, err := d.Plan(req)
	if err != nil {
		opErr := operation.AsError(err)
		log.Warn("Rejected operation request", "status", opErr.Status, "error", opErr.Message)
		return models.ErrorResult(opErr.Status, opErr.Message)
	}

	deviceID, err := d.resolver.Resolve(ctx, v.ThingName)
	if err != nil {
		log.Error("Failed to resolve device", "thing", v.ThingName, "error", err)
		if errors.Is(err, resolver.ErrDeviceNotFound) {
			return models.ErrorResult(http.StatusNotFound, "device "+v.ThingName+" not found in Coiote DM")
		}
		if errors.Is(err, coiote.ErrInvalidEndpointName) {
			return models.ErrorResult(http.StatusBadRequest, "thingName must not contain a single quote")
		}
		return transportResult(err)
	}

	resp, err := d.tasks.ScheduleTask(ctx, deviceID, task)
	if err != nil {
		log.Error("Task submission failed", "device", deviceID, "template", task.TemplateName, "error", err)
		return transportResult(err)
	}
	if resp.StatusCode != http.StatusCreated {
		// An unscheduled task must not be followed by a session trigger
		log.Error("Coiote DM rejected task", "device", deviceID, "template", task.TemplateName, "status", resp.StatusCode, "body", resp.Body)
		return models.OperationResult{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	resp, err = d.tasks.AllowDeregistered(ctx, deviceID)
	if err != nil {
		log.Error("Session trigger failed", "device", deviceID, "error", err)
		return transportResult(err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("Coiote DM rejected session trigger", "device", deviceID, "status", resp.StatusCode, "body", resp.Body)
	} else {
		log.Info("Operation dispatched", "device", deviceID, "template", task.TemplateName)
	}

	return models.OperationResult{StatusCode: resp.StatusCode, Body: resp.Body}
}

// transportResult synthesizes the result of a call that produced no HTTP status.
func transportResult(err error) models.OperationResult {
	var transportErr *coiote.TransportError
	if errors.As(err, &transportErr) && transportErr.Timeout {
		return models.ErrorResult(http.StatusGatewayTimeout, err.Error())
	}
	return models.ErrorResult(http.StatusBadGateway, err.Error())
}
