package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/internal/models"
	"lpcontrol/pkg/solana/clmm"
)

// LifecycleService is the position service as seen by the HTTP layer.
type LifecycleService interface {
	InitializePool(ctx context.Context, req business.InitPoolRequest) (*business.Result, *clmm.PoolKeys, error)
	GetPool(ctx context.Context, address string) (*business.PoolView, error)
	ListPools(ctx context.Context) ([]models.PoolRecord, error)
	OpenPosition(ctx context.Context, req business.OpenRequest) (*business.Result, error)
	IncreaseLiquidity(ctx context.Context, req business.IncreaseRequest) (*business.Result, error)
	DecreaseLiquidity(ctx context.Context, req business.DecreaseRequest) (*business.Result, error)
	ClosePosition(ctx context.Context, req business.CloseRequest) (*business.Result, error)
	GetPosition(ctx context.Context, nftMint string) (*business.PositionView, error)
	GetSubmission(ctx context.Context, signature string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter business.SubmissionFilter) ([]models.Submission, error)
}

// CommandPublisher queues lifecycle commands for the worker.
type CommandPublisher interface {
	Publish(queueName string, message interface{}) error
}

// ClmmHandler serves the /clmm routes.
type ClmmHandler struct {
	svc       LifecycleService
	publisher CommandPublisher
	queue     string
}

// NewClmmHandler builds the handler. publisher may be nil, in which case async
// requests are refused.
func NewClmmHandler(svc LifecycleService, publisher CommandPublisher, queue string) *ClmmHandler {
	return &ClmmHandler{svc: svc, publisher: publisher, queue: queue}
}

// writeError maps lifecycle errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	var (
		pending    *business.PendingError
		validation *clmm.ValidationError
		rejection  *clmm.ProtocolRejection
		transient  *clmm.TransientNetworkError
	)
	switch {
	case errors.As(err, &pending):
		c.JSON(http.StatusAccepted, gin.H{
			"status":    "pending",
			"signature": pending.Signature,
			"error":     err.Error(),
		})
		return
	case errors.Is(err, clmm.ErrPreconditionViolation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rejection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": rejection.Code})
	case errors.As(err, &transient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// enqueue publishes cmd when the request asked for async processing. It reports whether
// the request was handled.
func (h *ClmmHandler) enqueue(c *gin.Context, cmd business.Command) bool {
	if c.Query("async") != "true" {
		return false
	}
	if h.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async processing is not available"})
		return true
	}
	cmd.RequestID = uuid.NewString()
	if err := h.publisher.Publish(h.queue, cmd); err != nil {
		logrus.WithFields(logrus.Fields{
			"op":    cmd.Op,
			"error": err.Error(),
		}).Error("Failed to queue command")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to queue command"})
		return true
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "request_id": cmd.RequestID, "op": cmd.Op})
	return true
}

// CreatePool initializes a pool
func (h *ClmmHandler) CreatePool(c *gin.Context) {
	var req business.InitPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.enqueue(c, business.Command{Op: clmm.OpInitialize, Initialize: &req}) {
		return
	}
	res, keys, err := h.svc.InitializePool(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": res, "pool": keys})
}

func (h *ClmmHandler) ListPools(c *gin.Context) {
	pools, err := h.svc.ListPools(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pools)
}

func (h *ClmmHandler) GetPool(c *gin.Context) {
	view, err := h.svc.GetPool(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// OpenPosition opens a position with a freshly minted NFT
func (h *ClmmHandler) OpenPosition(c *gin.Context) {
	var req business.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.enqueue(c, business.Command{Op: clmm.OpOpen, Open: &req}) {
		return
	}
	res, err := h.svc.OpenPosition(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ClmmHandler) GetPosition(c *gin.Context) {
	view, err := h.svc.GetPosition(c.Request.Context(), c.Param("mint"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ClmmHandler) IncreaseLiquidity(c *gin.Context) {
	var req business.IncreaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.NftMint = c.Param("mint")
	if h.enqueue(c, business.Command{Op: clmm.OpIncrease, Increase: &req}) {
		return
	}
	res, err := h.svc.IncreaseLiquidity(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClmmHandler) DecreaseLiquidity(c *gin.Context) {
	var req business.DecreaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.NftMint = c.Param("mint")
	if h.enqueue(c, business.Command{Op: clmm.OpDecrease, Decrease: &req}) {
		return
	}
	res, err := h.svc.DecreaseLiquidity(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ClosePosition accepts an empty body; the owner defaults to the journaled owner.
func (h *ClmmHandler) ClosePosition(c *gin.Context) {
	var req business.CloseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	req.NftMint = c.Param("mint")
	if h.enqueue(c, business.Command{Op: clmm.OpClose, Close: &req}) {
		return
	}
	res, err := h.svc.ClosePosition(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClmmHandler) ListSubmissions(c *gin.Context) {
	filter := business.SubmissionFilter{
		NftMint:     c.Query("nft_mint"),
		PoolAddress: c.Query("pool"),
		Status:      c.Query("status"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = n
	}
	subs, err := h.svc.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *ClmmHandler) GetSubmission(c *gin.Context) {
	sub, err := h.svc.GetSubmission(c.Request.Context(), c.Param("signature"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, sub)
}
