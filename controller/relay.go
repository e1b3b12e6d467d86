package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/ctxkey"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/helper"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/middleware"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/monitor"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/meta"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/worker"
)

// Relay is the single data-path handler behind every /v1 endpoint: decode,
// resolve, rewrite, enqueue, await, rewrite back. All limiter interaction
// happens inside the worker.
func Relay(c *gin.Context) {
	mode := relaymode.GetByPath(c.Request.URL.Path)
	if mode == relaymode.Unknown {
		RelayNotFound(c)
		return
	}
	c.Set(ctxkey.RelayMode, mode)
	principal := c.MustGet(ctxkey.Principal).(*model.Principal)

	request, err := payload.DecodeRequest(c, mode)
	if err != nil {
		relayError(c, mode, "", relaymodel.NewBadRequest("We could not parse the JSON body of your request", err))
		return
	}

	label := request.ModelLabel()
	c.Set(ctxkey.RequestModel, label)
	m, ok := principal.Models[label]
	if !ok {
		relayError(c, mode, label, relaymodel.NewModelNotFound(label))
		return
	}

	rm := meta.GetByContext(c)
	rm.Model = m

	// The outgoing request never carries the client's stream flag or user
	// field; the model id becomes the backend's internal identifier.
	request.StripStream()
	if m.Backend.ProxyUserIDs {
		request.SetUser(helper.UserPseudonym(principal.FirstTag()))
	} else {
		request.SetUser("")
	}
	request.SetModelID(m.Backend.ModelID)

	w, ok := workerPool.Get(m.ID)
	if !ok {
		relayError(c, mode, label, relaymodel.NewModelRateLimit("model is not available right now, please retry later", nil))
		return
	}

	job := &worker.Job{
		Ctx:       c.Request.Context(),
		RequestID: rm.RequestID,
		Request:   request,
		Bundles:   limiterSet.ForQuotas(principal.Quotas),
		Result:    make(chan *worker.Result, 1),
	}
	if err := w.Enqueue(job); err != nil {
		reason := "queue_full"
		if err == worker.ErrUnavailable {
			reason = "unavailable"
		}
		monitor.QueueRejections.WithLabelValues(label, reason).Inc()
		relayError(c, mode, label, relaymodel.NewModelRateLimit("model is overloaded, please retry later", err))
		return
	}

	select {
	case result := <-job.Result:
		if result.Err != nil {
			relayError(c, mode, label, result.Err)
			return
		}
		writeResponse(c, rm, result.Response)
	case <-c.Request.Context().Done():
		// Client gone; the worker settles and drops the result on its own.
		c.Abort()
	}
}

func writeResponse(c *gin.Context, rm *meta.Meta, response payload.Response) {
	response.ReplaceModelLabel(rm.ModelLabel)
	if n := len(rm.Tags); n > 0 {
		response.ReplaceID(helper.DeriveResponseID(rm.Tags[n-1], rm.RequestID))
	}
	monitor.RelayRequests.WithLabelValues(relaymode.Name(rm.Mode), rm.ModelLabel, strconv.Itoa(http.StatusOK)).Inc()
	_ = response.Write(c)
}

func relayError(c *gin.Context, mode int, label string, errResp *relaymodel.ErrorWithStatusCode) {
	if label == "" {
		label = "unknown"
	}
	monitor.RelayRequests.WithLabelValues(relaymode.Name(mode), label, strconv.Itoa(errResp.StatusCode)).Inc()
	middleware.AbortWithError(c, errResp)
}

// RelayNotFound answers any /v1 path outside the endpoint catalogue.
func RelayNotFound(c *gin.Context) {
	middleware.AbortWithError(c, relaymodel.NewUnknownEndpoint(c.Request.Method, c.Request.URL.Path))
}

// RelayMethodNotAllowed answers a known path hit with the wrong method.
func RelayMethodNotAllowed(c *gin.Context) {
	middleware.AbortWithError(c, relaymodel.NewBadEndpointMethod())
}
