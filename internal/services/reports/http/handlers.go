// Package http provides HTTP transport for report jobs
package http

import (
	stdhttp "net/http"

	"storepulse/internal/modkit/httpkit"
	"storepulse/internal/platform/net/http/bind"
	"storepulse/internal/services/reports/domain"
)

// Register mounts the report endpoints on r
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.Post(r, "/trigger", h.trigger)
	httpkit.Get(r, "/{report_id}", h.get)
	httpkit.Get(r, "/{report_id}/stats", h.stats)
}

type handlers struct{ svc domain.ServicePort }

func reportID(r *stdhttp.Request) (string, error) {
	id := httpkit.Param(r, "report_id")
	return id, bind.Var("report_id", id, "required,uuid")
}

// swagger:route POST /reports/trigger Reports reportsTrigger
// @Summary Start a report job
// @Description Records a Running job and queues it. 503 when the queue is full, the job is then recorded as Failed
// @Tags Reports
// @Produce json
// @Success 202 {object} domain.TriggerResult "accepted"
// @Failure 503 {object} httpkit.Envelope "queue full"
// @Router /reports/trigger [post]
func (h *handlers) trigger(r *stdhttp.Request) (any, error) {
	id, err := h.svc.Trigger(r.Context())
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(domain.TriggerResult{ReportID: id}), nil
}

// swagger:route GET /reports/{report_id} Reports reportsGet
// @Summary Poll a report job or download its CSV
// @Description A Complete job backed by a file returns the CSV as an attachment, otherwise the job status
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Param report_id path string true "Report id" format(uuid)
// @Success 200 {object} domain.Job "job status"
// @Failure 404 {object} httpkit.Envelope "unknown report"
// @Failure 422 {object} httpkit.Envelope "malformed report id"
// @Router /reports/{report_id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := reportID(r)
	if err != nil {
		return nil, err
	}
	job, body, err := h.svc.Download(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return job, nil
	}
	return httpkit.File(httpkit.Attachment{
		Filename:    "report_" + id + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
	}), nil
}

// swagger:route GET /reports/{report_id}/stats Reports reportsStats
// @Summary Summary of a completed CSV report
// @Tags Reports
// @Produce json
// @Param report_id path string true "Report id" format(uuid)
// @Success 200 {object} domain.ReportStats "ok"
// @Failure 404 {object} httpkit.Envelope "unknown or unfinished report"
// @Failure 422 {object} httpkit.Envelope "malformed report id"
// @Router /reports/{report_id}/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	id, err := reportID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Stats(r.Context(), id)
}
