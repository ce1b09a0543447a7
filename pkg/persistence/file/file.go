// Package file provides file-based persistence implementation for workflows and runs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file
// system. Each workflow is stored as workflows/<id>.json and each run under
// runs/<workflow-id>/<run-id>.json.
type Persistence struct {
	root string
	mu   sync.Mutex
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Workflows returns all workflows, sorted by ID.
func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.loadAll(ctx)
}

// WorkflowByID retrieves a workflow by its ID from the file system.
func (fp *Persistence) WorkflowByID(_ context.Context, id int64) (*models.Workflow, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.readWorkflow(id)
}

// CreateWorkflow assigns the next free ID and writes the workflow to disk.
func (fp *Persistence) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	nextID, err := fp.nextID(ctx)
	if err != nil {
		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	workflow.ID = nextID
	workflow.CreatedAt = time.Now().UTC()
	workflow.UpdatedAt = workflow.CreatedAt

	return fp.writeWorkflow(workflow)
}

// UpdateWorkflow overwrites an existing workflow on disk.
func (fp *Persistence) UpdateWorkflow(_ context.Context, workflow *models.Workflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	existing, err := fp.readWorkflow(workflow.ID)
	if err != nil {
		return err
	}

	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	return fp.writeWorkflow(workflow)
}

// DeleteWorkflow removes a workflow and its recorded runs.
func (fp *Persistence) DeleteWorkflow(_ context.Context, id int64) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath := fp.workflowPath(id)

	err := os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	if err := os.RemoveAll(path.Join(fp.root, "runs", strconv.FormatInt(id, 10))); err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

// SaveRun writes a workflow run to the file system.
func (fp *Persistence) SaveRun(_ context.Context, run *models.WorkflowRun) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	dir := path.Join(fp.root, "runs", strconv.FormatInt(run.WorkflowID, 10))

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return persistence.NewRunError("Save", run.WorkflowID, run.ID, err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return persistence.NewRunError("Save", run.WorkflowID, run.ID, err)
	}

	if err := os.WriteFile(path.Join(dir, run.ID+".json"), data, 0600); err != nil {
		return persistence.NewRunError("Save", run.WorkflowID, run.ID, err)
	}

	return nil
}

// RunsByWorkflow returns the recorded runs of a workflow, most recent first.
func (fp *Persistence) RunsByWorkflow(_ context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	dir := path.Join(fp.root, "runs", strconv.FormatInt(workflowID, 10))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WorkflowRun{}, nil
		}

		return nil, persistence.NewRunError("List", workflowID, "", err)
	}

	runs := make([]*models.WorkflowRun, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		body, err := os.ReadFile(filepath.Clean(path.Join(dir, entry.Name())))
		if err != nil {
			return nil, persistence.NewRunError("List", workflowID, entry.Name(), err)
		}

		var run models.WorkflowRun

		if err := json.Unmarshal(body, &run); err != nil {
			return nil, persistence.NewRunError("List", workflowID, entry.Name(), err)
		}

		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

func (fp *Persistence) workflowPath(id int64) string {
	return filepath.Clean(path.Join(fp.root, "workflows", strconv.FormatInt(id, 10)+".json"))
}

func (fp *Persistence) readWorkflow(id int64) (*models.Workflow, error) {
	body, err := os.ReadFile(fp.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

func (fp *Persistence) writeWorkflow(workflow *models.Workflow) error {
	err := os.MkdirAll(path.Join(fp.root, "workflows"), 0750)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to create workflows directory: %w", err))
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err := os.WriteFile(fp.workflowPath(workflow.ID), data, 0600); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (fp *Persistence) loadAll(_ context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(path.Join(fp.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id, err := strconv.ParseInt(strings.TrimSuffix(file, ".json"), 10, 64)
		if err != nil {
			continue
		}

		workflow, err := fp.readWorkflow(id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].ID < workflows[j].ID
	})

	return workflows, nil
}

// nextID scans the existing workflow files and returns the highest ID plus one.
func (fp *Persistence) nextID(ctx context.Context) (int64, error) {
	workflows, err := fp.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	var maxID int64

	for _, workflow := range workflows {
		if workflow.ID > maxID {
			maxID = workflow.ID
		}
	}

	return maxID + 1, nil
}
