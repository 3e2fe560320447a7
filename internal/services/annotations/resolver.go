package annotations

import (
	"context"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
)

// visibility describes which records a role sees in the dataset listing
type visibility struct {
	// hideUnannotated drops templates still in Not Annotated
	hideUnannotated bool
	// overlayOwn replaces each template with the caller's instance, if any
	overlayOwn bool
}

var visibilityByRole = map[models.Role]visibility{
	models.RoleAnonymous: {hideUnannotated: true},
	models.RoleAdmin:     {},
	models.RoleAnnotator: {overlayOwn: true},
}

// Resolve returns the records role may see. Annotators get one record per
// sample: their own instance when one exists, otherwise the template.
func (s *ServiceImpl) Resolve(ctx context.Context, role models.Role, taskID *uint, username string) ([]models.AnnotationRecord, error) {
	policy, ok := visibilityByRole[role]
	if !ok {
		return nil, apperrors.NewValidationError("role", "unknown role "+string(role))
	}

	var exclude models.Status
	if policy.hideUnannotated {
		exclude = models.StatusNotAnnotated
	}
	templates, err := s.repository.ListTemplates(ctx, taskID, exclude)
	if err != nil {
		return nil, err
	}
	if !policy.overlayOwn {
		return templates, nil
	}

	instances, err := s.repository.ListInstances(ctx, taskID, username)
	if err != nil {
		return nil, err
	}
	return overlay(templates, instances), nil
}

// overlay keys templates by sample_id and lets instances win. Output keeps
// template order; instances with no template follow in their own order.
func overlay(templates, instances []models.AnnotationRecord) []models.AnnotationRecord {
	position := make(map[string]int, len(templates))
	merged := make([]models.AnnotationRecord, 0, len(templates))
	for _, t := range templates {
		if _, seen := position[t.SampleID]; seen {
			continue
		}
		position[t.SampleID] = len(merged)
		merged = append(merged, t)
	}

	for _, inst := range instances {
		if i, ok := position[inst.SampleID]; ok {
			merged[i] = inst
			continue
		}
		position[inst.SampleID] = len(merged)
		merged = append(merged, inst)
	}
	return merged
}
