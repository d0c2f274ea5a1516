package operation

import (
	"strings"

	"lwm2mbridge/pkg/lwm2m"
	"lwm2mbridge/pkg/models"
)

// Builder maps validated operations to task-template requests.
// Template names are Prefix + operation + Suffix, e.g. AWSread or AWSreadCertAuth.
type Builder struct {
	Prefix string
	Suffix string
}

// NewBuilder creates a Builder for the given template naming convention.
func NewBuilder(prefix, suffix string) *Builder {
	return &Builder{Prefix: prefix, Suffix: suffix}
}

// TemplateName returns the task-template name used for kind.
func (b *Builder) TemplateName(kind models.OperationKind) string {
	return b.Prefix + string(kind) + b.Suffix
}

// Build produces the task-template request for v.
func (b *Builder) Build(v Validated) models.TaskTemplateRequest {
	var params []models.Parameter

	switch v.Kind {
	case models.OpRead, models.OpReadComposite:
		params = append(params, param("keys", lwm2m.Optimize(v.Keys)))

	case models.OpWrite:
		params = append(params,
			param("keys", strings.Join(v.Keys, ",")),
			param("values", lwm2m.FormatValues(v.Values)),
		)

	case models.OpObserve:
		keys, attributes := lwm2m.MinimizeWithAttributes(v.Keys, v.Attributes)
		params = append(params,
			param("keys", strings.Join(keys, ",")),
			param("attributes", lwm2m.FormatAttributes(attributes)),
		)

	case models.OpWriteAttributes:
		params = append(params,
			param("keys", strings.Join(v.Keys, ",")),
			param("attributes", lwm2m.FormatAttributes(v.Attributes)),
		)

	case models.OpExecute:
		params = append(params, param("keys", v.Keys[0]))
		if v.Arguments != nil {
			params = append(params, param("arguments", *v.Arguments))
		}

	default:
		// observeComposite, cancelObserve, cancelObserveComposite: keys were deduplicated by Validate
		params = append(params, param("keys", strings.Join(v.Keys, ",")))
	}

	return models.TaskTemplateRequest{
		TemplateName: b.TemplateName(v.Kind),
		Config:       models.TaskConfig{Parameters: params},
	}
}

func param(name, value string) models.Parameter {
	return models.Parameter{Name: name, Value: value}
}
