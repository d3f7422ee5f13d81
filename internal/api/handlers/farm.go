package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/orrn/batchfarm/internal/core"
)

type FarmHandler struct {
	scheduler *core.Scheduler
	log       hclog.Logger
}

func NewFarmHandler(scheduler *core.Scheduler, logger hclog.Logger) *FarmHandler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FarmHandler{
		scheduler: scheduler,
		log:       logger,
	}
}

func (h *FarmHandler) GetFarm(c *gin.Context) {
	snap, err := h.scheduler.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, farmToResponse(snap))
}

func (h *FarmHandler) ListMachines(c *gin.Context) {
	snap, err := h.scheduler.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, farmToResponse(snap).Machines)
}

func (h *FarmHandler) GetMachine(c *gin.Context) {
	index, ok := h.parseIndex(c)
	if !ok {
		return
	}

	snap, err := h.scheduler.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if index >= len(snap.Machines) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Machine not found",
		})
		return
	}
	c.JSON(http.StatusOK, machineToResponse(snap.Machines[index]))
}

func (h *FarmHandler) RemoveMachine(c *gin.Context) {
	index, ok := h.parseIndex(c)
	if !ok {
		return
	}

	m, err := h.scheduler.RemoveMachine(c.Request.Context(), index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "name": m.Name, "dropped_jobs": m.JobCount()})
}

type SetRunningRequest struct {
	Running *bool `json:"running" binding:"required"`
}

// SetRunning marks a machine as printing or idle.
func (h *FarmHandler) SetRunning(c *gin.Context) {
	index, ok := h.parseIndex(c)
	if !ok {
		return
	}

	var req SetRunningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Body must be {\"running\": true|false}",
		})
		return
	}

	if err := h.scheduler.SetRunning(c.Request.Context(), index, *req.Running); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "index": index, "running": *req.Running})
}

func (h *FarmHandler) GetJob(c *gin.Context) {
	r, err := h.scheduler.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, JobStatusResponse{
		JobID:         r.JobID,
		Name:          r.Name,
		Machine:       r.MachineIndex,
		MachineName:   r.MachineName,
		Batch:         r.Batch,
		StartTime:     r.StartTime,
		EstCompletion: r.EstCompletion,
		DueDate:       r.DueDate,
		Late:          r.Late,
	})
}

func (h *FarmHandler) CancelJob(c *gin.Context) {
	job, err := h.scheduler.CancelJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": job.ID, "name": job.Name})
}

func (h *FarmHandler) parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_index",
			Message: "Machine index must be a non-negative integer",
		})
		return 0, false
	}
	return index, true
}

func (h *FarmHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrJobNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, core.ErrIndexOutOfRange):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, core.ErrBatchStarted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "batch_started", Message: err.Error()})
	case errors.Is(err, core.ErrSchedulerStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Request failed"})
	}
}
