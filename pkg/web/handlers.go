package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/procline/procline/pkg/designer"
	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/services"
)

type APIHandlers struct {
	workflowService *services.WorkflowService
	processService  *services.ProcessService
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.WorkflowService,
	processService *services.ProcessService,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		processService:  processService,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Procline API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Procline API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

// GetWorkflow returns one workflow along with its current validation
// diagnostics, so the designer can surface broken references without a
// separate round trip.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, diagnostics, err := h.workflowService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow":    workflow,
		"diagnostics": diagnostics,
	})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
		Activities:  []*models.Activity{},
		Transitions: []*models.Transition{},
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		if req.Name != nil {
			w.Name = *req.Name
		}

		if req.Description != nil {
			w.Description = *req.Description
		}

		if req.Status != nil {
			w.Status = *req.Status
		}

		return nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateActivity(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateActivityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var created *models.Activity

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		created = designer.AddActivity(w, &models.Activity{
			Kind:        models.ActivityKind(req.Kind),
			Name:        req.Name,
			Description: req.Description,
			PositionX:   req.PositionX,
			PositionY:   req.PositionY,
			DueHours:    req.DueHours,
			Assignment:  req.Assignment,
		})

		return nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateActivity(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")

	if id == "" || activityID == "" {
		return badRequest(c, "Workflow ID and activity ID are required")
	}

	var req UpdateActivityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var updated *models.Activity

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		activity := w.ActivityByID(activityID)
		if activity == nil {
			return designer.ErrActivityNotFound
		}

		if req.Name != nil {
			activity.Name = *req.Name
		}

		if req.Description != nil {
			activity.Description = *req.Description
		}

		if req.PositionX != nil {
			activity.PositionX = *req.PositionX
		}

		if req.PositionY != nil {
			activity.PositionY = *req.PositionY
		}

		if req.DueHours != nil {
			activity.DueHours = *req.DueHours
		}

		if req.Assignment != nil {
			activity.Assignment = *req.Assignment
		}

		updated = activity

		return nil
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// DeleteActivity removes an activity and every transition touching it.
func (h *APIHandlers) DeleteActivity(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")

	if id == "" || activityID == "" {
		return badRequest(c, "Workflow ID and activity ID are required")
	}

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		return designer.RemoveActivity(w, activityID)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateTransition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CreateTransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var (
		created *models.Transition
		diags   diag.Collector
	)

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		var inner error

		created, inner = designer.AddTransition(w, req.SourceID, req.TargetID, req.Condition, &diags)

		return inner
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	// A duplicate (source, target) pair is a no-op: the existing transition
	// comes back with 200 and the diagnostic, so callers can tell it apart
	// from a creation.
	status := fiber.StatusCreated
	if !diags.Empty() {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(fiber.Map{
		"transition":  created,
		"diagnostics": diags.Items(),
	})
}

func (h *APIHandlers) DeleteTransition(c fiber.Ctx) error {
	id := c.Params("id")
	transitionID := c.Params("transitionId")

	if id == "" || transitionID == "" {
		return badRequest(c, "Workflow ID and transition ID are required")
	}

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		return designer.RemoveTransition(w, transitionID)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateField(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")

	if id == "" || activityID == "" {
		return badRequest(c, "Workflow ID and activity ID are required")
	}

	var req FieldRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var created *models.FieldDefinition

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		var inner error

		created, inner = designer.AddField(w, activityID, req.toModel())

		return inner
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateField(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")
	fieldID := c.Params("fieldId")

	if id == "" || activityID == "" || fieldID == "" {
		return badRequest(c, "Workflow ID, activity ID and field ID are required")
	}

	var req FieldRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var updated *models.FieldDefinition

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		var inner error

		updated, inner = designer.UpdateField(w, activityID, fieldID, *req.toModel())

		return inner
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteField(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")
	fieldID := c.Params("fieldId")

	if id == "" || activityID == "" || fieldID == "" {
		return badRequest(c, "Workflow ID, activity ID and field ID are required")
	}

	_, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		return designer.RemoveField(w, activityID, fieldID)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ReorderField(c fiber.Ctx) error {
	id := c.Params("id")
	activityID := c.Params("activityId")
	fieldID := c.Params("fieldId")

	if id == "" || activityID == "" || fieldID == "" {
		return badRequest(c, "Workflow ID, activity ID and field ID are required")
	}

	var req ReorderFieldRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.workflowService.Edit(c.Context(), id, func(w *models.Workflow) error {
		return designer.ReorderField(w, activityID, fieldID, req.NewIndex)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated.ActivityByID(activityID).Fields)
}

// AutoLayout recomputes every activity position and returns the workflow with
// the new coordinates applied.
func (h *APIHandlers) AutoLayout(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.AutoLayout(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) ExportWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	data, err := h.workflowService.Export(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/xml")

	return c.Send(data)
}

func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	var req ImportWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.Import(c.Context(), req.Name, req.Owner, []byte(req.Document))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) StartInstance(c fiber.Ctx) error {
	var req StartInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.processService.Start(c.Context(), req.WorkflowID, req.StartActivityID, req.Initiator, req.Variables)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.processService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) GetWorkflowInstances(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	instances, err := h.processService.ListByWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"instances": instances})
}

func (h *APIHandlers) AdvanceInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req AdvanceInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.processService.Advance(c.Context(), id, req.Variables, req.Actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) CancelInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	actor := c.Query("actor")
	if actor == "" {
		return badRequest(c, "actor query parameter is required")
	}

	instance, err := h.processService.Cancel(c.Context(), id, actor)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) CommentInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req CommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	entry, err := h.processService.Comment(c.Context(), id, req.Actor, req.Comment)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *APIHandlers) GetInstanceHistory(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	history, err := h.processService.History(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"history": history})
}

func (h *APIHandlers) GetWorkflowDurations(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	report, err := h.processService.Durations(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}
