package main

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/models"
)

func (a *API) GetWorkflows(c fiber.Ctx) error {
	workflows, err := a.persistence.WorkflowRepository().Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (a *API) GetWorkflow(c fiber.Ctx) error {
	workflow, err := a.persistence.WorkflowRepository().WorkflowByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err, "workflow not found")
	}

	return c.JSON(workflow)
}

func (a *API) GetExecutions(c fiber.Ctx) error {
	executions, err := a.persistence.ExecutionRepository().Executions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(executions)
}

func (a *API) GetExecution(c fiber.Ctx) error {
	execution, err := a.persistence.ExecutionRepository().ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err, "execution not found")
	}

	return c.JSON(execution)
}

type requestExecutionBody struct {
	WorkflowID    string         `json:"workflow_id" validate:"required"`
	UserID        string         `json:"user_id"`
	InitialData   map[string]any `json:"initial_data"`
	SingleAttempt bool           `json:"single_attempt"`
}

// RequestExecution enqueues a run job for a workflow. The run happens
// asynchronously on a worker; the response carries the job id to correlate
// the execution record with.
func (a *API) RequestExecution(c fiber.Ctx) error {
	var body requestExecutionBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := a.validate.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := a.persistence.WorkflowRepository().WorkflowByID(c.Context(), body.WorkflowID); err != nil {
		return handleStorageError(c, err, "workflow not found")
	}

	request := events.ExecutionRequested{
		BaseEvent:     events.NewBaseEvent(events.ExecutionRequestedEvent, body.WorkflowID),
		UserID:        body.UserID,
		InitialData:   body.InitialData,
		TriggeredBy:   "api",
		SingleAttempt: body.SingleAttempt,
	}

	if err := a.eventBus.Publish(c.Context(), events.ExecutionTopic, body.WorkflowID, request); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": request.ID})
}

func (a *API) GetTraces(c fiber.Ctx) error {
	traces, err := a.persistence.TraceRepository().Traces(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(traces)
}

func (a *API) GetTrace(c fiber.Ctx) error {
	trace, err := a.persistence.TraceRepository().TraceByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err, "trace not found")
	}

	return c.JSON(trace)
}

func (a *API) GetTriggers(c fiber.Ctx) error {
	triggers, err := a.persistence.TriggerRepository().Triggers(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(triggers)
}

func (a *API) CreateTrigger(c fiber.Ctx) error {
	var trigger models.Trigger
	if err := c.Bind().JSON(&trigger); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := a.validate.Struct(trigger); err != nil {
		return badRequest(c, err.Error())
	}

	if err := trigger.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	trigger.CreatedAt = now
	trigger.UpdatedAt = now
	trigger.LastRunAt = nil

	if err := a.persistence.TriggerRepository().SaveTrigger(c.Context(), &trigger); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(trigger)
}

func (a *API) GetInsights(c fiber.Ctx) error {
	insights, err := a.persistence.InsightRepository().Insights(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(insights)
}

func (a *API) GetConfirmations(c fiber.Ctx) error {
	confirmations, err := a.persistence.ConfirmationRepository().Confirmations(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(confirmations)
}

func (a *API) GetOptimizationRuns(c fiber.Ctx) error {
	runs, err := a.persistence.OptimizationRepository().OptimizationRuns(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(runs)
}

func (a *API) GetProposals(c fiber.Ctx) error {
	proposals, err := a.persistence.ProposalRepository().Proposals(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(proposals)
}

func (a *API) GetProposal(c fiber.Ctx) error {
	proposal, err := a.persistence.ProposalRepository().ProposalByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err, "proposal not found")
	}

	return c.JSON(proposal)
}

type decideProposalBody struct {
	DecidedBy string `json:"decided_by" validate:"required"`
}

func (a *API) ApproveProposal(c fiber.Ctx) error {
	return a.decideProposal(c, func(p *models.ModificationProposal, by string) error {
		return p.Approve(by, time.Now().UTC())
	})
}

func (a *API) RejectProposal(c fiber.Ctx) error {
	return a.decideProposal(c, func(p *models.ModificationProposal, by string) error {
		return p.Reject(by, time.Now().UTC())
	})
}

func (a *API) decideProposal(c fiber.Ctx, decide func(*models.ModificationProposal, string) error) error {
	var body decideProposalBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := a.validate.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	proposal, err := a.persistence.ProposalRepository().ProposalByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err, "proposal not found")
	}

	if err := decide(proposal, body.DecidedBy); err != nil {
		// Only pending proposals can be decided.
		return conflict(c, err.Error())
	}

	if err := a.persistence.ProposalRepository().SaveProposal(c.Context(), proposal); err != nil {
		return internalError(c, err)
	}

	a.logger.InfoContext(c.Context(), "Proposal decided",
		"proposal_id", proposal.ID, "status", proposal.Status, "decided_by", proposal.DecidedBy)

	return c.JSON(proposal)
}
