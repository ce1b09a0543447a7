// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/graph"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/services"
	"github.com/weftlabs/weft/pkg/uploader"
)

type APIHandlers struct {
	workflowService  *services.Workflow
	executionService *services.Execution
	uploaderClient   *uploader.Client
	validator        *validator.Validate
	registry         *capability.Registry
	logger           *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionService *services.Execution,
	uploaderClient *uploader.Client,
	validator *validator.Validate,
	registry *capability.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService:  workflowService,
		executionService: executionService,
		uploaderClient:   uploaderClient,
		validator:        validator,
		registry:         registry,
		logger:           logger.With("module", "web"),
	}
}

// RegisterRoutes mounts the API routes on the given router.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/workflows", h.GetWorkflows)
	router.Post("/workflows", h.CreateWorkflow)
	router.Get("/workflows/:id", h.GetWorkflow)
	router.Patch("/workflows/:id", h.UpdateWorkflow)
	router.Delete("/workflows/:id", h.DeleteWorkflow)

	router.Post("/workflows/:id/run", h.RunWorkflow)
	router.Post("/workflows/:id/nodes/:nodeId/run", h.RunNode)
	router.Post("/workflows/:id/run-selected", h.RunSelected)
	router.Get("/workflows/:id/runs", h.GetRuns)

	router.Get("/workflows/:id/export", h.ExportWorkflow)
	router.Post("/workflows/:id/import", h.ImportWorkflow)

	router.Post("/uploads", h.Upload)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Weft API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Weft API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
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

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
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
		Title: req.Title,
		Nodes: req.Nodes,
		Edges: req.Edges,
	}

	if workflow.Nodes == nil {
		workflow.Nodes = []*models.Node{}
	}

	if workflow.Edges == nil {
		workflow.Edges = []*models.Edge{}
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	// Get existing workflow and merge changes
	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	err = h.workflowService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	run, err := h.executionService.Run(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) RunNode(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	nodeID := c.Params("nodeId")
	if nodeID == "" {
		return badRequest(c, "Node ID is required")
	}

	run, err := h.executionService.RunNode(c.Context(), id, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) RunSelected(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	var req RunSelectedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.executionService.RunSelected(c.Context(), id, req.NodeIDs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	runs, err := h.workflowService.Runs(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// ExportWorkflow serializes the stored graph as a portable document.
func (h *APIHandlers) ExportWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	g := graph.New(h.logger)
	if err := g.Load(workflow.Nodes, workflow.Edges); err != nil {
		return handleServiceError(c, err)
	}

	payload, err := g.ExportJSON()
	if err != nil {
		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.Send(payload)
}

// ImportWorkflow replaces the stored graph with a validated document. The
// stored workflow is untouched when the document is rejected.
func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	id, err := parseWorkflowID(c)
	if err != nil {
		return badRequest(c, "Invalid workflow ID")
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	g := graph.New(h.logger)
	if err := g.ImportJSON(c.Body()); err != nil {
		return handleServiceError(c, err)
	}

	existing.Nodes = g.Nodes()
	existing.Edges = g.Edges()

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// Upload pushes a file through the asset pipeline and returns the processed URL.
func (h *APIHandlers) Upload(c fiber.Ctx) error {
	kind := uploader.AssetKind(c.FormValue("kind"))
	if kind != uploader.AssetKindImage && kind != uploader.AssetKindVideo {
		return badRequest(c, "kind must be 'image' or 'video'")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, err)
	}

	defer func() {
		_ = file.Close()
	}()

	url, err := h.uploaderClient.Upload(c.Context(), kind, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		if errors.Is(err, uploader.ErrUnsupportedFileType) || errors.Is(err, uploader.ErrFileTooLarge) {
			return badRequest(c, err.Error())
		}

		return internalError(c, err)
	}

	return c.JSON(UploadResponse{URL: url})
}

func parseWorkflowID(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}
