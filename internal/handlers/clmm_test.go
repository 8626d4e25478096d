package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/internal/models"
	"lpcontrol/pkg/solana/clmm"
)

type fakeService struct {
	err       error
	lastOpen  business.OpenRequest
	lastClose business.CloseRequest
	lastDec   business.DecreaseRequest
	filter    business.SubmissionFilter
	sub       *models.Submission
}

func (f *fakeService) result(op clmm.Op) (*business.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &business.Result{Op: op, Signature: "sig", Status: "confirmed", Slot: 7}, nil
}

func (f *fakeService) InitializePool(ctx context.Context, req business.InitPoolRequest) (*business.Result, *clmm.PoolKeys, error) {
	res, err := f.result(clmm.OpInitialize)
	if err != nil {
		return nil, nil, err
	}
	return res, &clmm.PoolKeys{TickSpacing: req.TickSpacing}, nil
}

func (f *fakeService) GetPool(ctx context.Context, address string) (*business.PoolView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &business.PoolView{Liquidity: "5000"}, nil
}

func (f *fakeService) ListPools(ctx context.Context) ([]models.PoolRecord, error) {
	return []models.PoolRecord{{Address: "pool"}}, f.err
}

func (f *fakeService) OpenPosition(ctx context.Context, req business.OpenRequest) (*business.Result, error) {
	f.lastOpen = req
	return f.result(clmm.OpOpen)
}

func (f *fakeService) IncreaseLiquidity(ctx context.Context, req business.IncreaseRequest) (*business.Result, error) {
	return f.result(clmm.OpIncrease)
}

func (f *fakeService) DecreaseLiquidity(ctx context.Context, req business.DecreaseRequest) (*business.Result, error) {
	f.lastDec = req
	return f.result(clmm.OpDecrease)
}

func (f *fakeService) ClosePosition(ctx context.Context, req business.CloseRequest) (*business.Result, error) {
	f.lastClose = req
	return f.result(clmm.OpClose)
}

func (f *fakeService) GetPosition(ctx context.Context, nftMint string) (*business.PositionView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &business.PositionView{NftMint: nftMint, Phase: "open"}, nil
}

func (f *fakeService) GetSubmission(ctx context.Context, signature string) (*models.Submission, error) {
	return f.sub, f.err
}

func (f *fakeService) ListSubmissions(ctx context.Context, filter business.SubmissionFilter) ([]models.Submission, error) {
	f.filter = filter
	return nil, f.err
}

type fakePublisher struct {
	err      error
	queue    string
	messages []interface{}
}

func (p *fakePublisher) Publish(queueName string, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.queue = queueName
	p.messages = append(p.messages, message)
	return nil
}

func newTestRouter(h *ClmmHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/clmm")
	g.POST("/pools", h.CreatePool)
	g.GET("/pools", h.ListPools)
	g.GET("/pools/:address", h.GetPool)
	g.POST("/positions", h.OpenPosition)
	g.GET("/positions/:mint", h.GetPosition)
	g.POST("/positions/:mint/increase", h.IncreaseLiquidity)
	g.POST("/positions/:mint/decrease", h.DecreaseLiquidity)
	g.POST("/positions/:mint/close", h.ClosePosition)
	g.GET("/submissions", h.ListSubmissions)
	g.GET("/submissions/:signature", h.GetSubmission)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var openBody = business.OpenRequest{Pool: "pool", Owner: "owner", TickLower: -20, TickUpper: 20, Liquidity: "1000"}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Validation", &clmm.ValidationError{Op: clmm.OpOpen, Reason: "tick_lower must be below tick_upper"}, http.StatusBadRequest},
		{"Precondition", &clmm.ValidationError{Op: clmm.OpClose, Reason: "position holds liquidity", Err: clmm.ErrPreconditionViolation}, http.StatusConflict},
		{"Rejected", &clmm.ProtocolRejection{Op: clmm.OpOpen, Code: "0x1770"}, http.StatusUnprocessableEntity},
		{"Transient", &clmm.TransientNetworkError{Op: clmm.OpOpen, Err: errors.New("connection reset")}, http.StatusServiceUnavailable},
		{"Pending", &business.PendingError{Signature: "abc", Err: &clmm.TransientNetworkError{Op: clmm.OpOpen, Err: errors.New("timeout")}}, http.StatusAccepted},
		{"Unknown", errors.New("database is gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(NewClmmHandler(&fakeService{err: tc.err}, nil, "q"))
			w := do(r, http.MethodPost, "/clmm/positions", openBody)
			assert.Equal(t, tc.status, w.Code)

			out := decode(t, w)
			assert.NotEmpty(t, out["error"])
			switch tc.status {
			case http.StatusUnprocessableEntity:
				assert.Equal(t, "0x1770", out["code"])
			case http.StatusServiceUnavailable:
				assert.Equal(t, true, out["retryable"])
			case http.StatusAccepted:
				assert.Equal(t, "pending", out["status"])
				assert.Equal(t, "abc", out["signature"])
			}
		})
	}
}

func TestLifecycleRoutes(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		svc := &fakeService{}
		r := newTestRouter(NewClmmHandler(svc, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/positions", openBody)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "open_position", decode(t, w)["op"])
		assert.Equal(t, int32(-20), svc.lastOpen.TickLower)
	})

	t.Run("Open Missing Fields", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/positions", map[string]string{"pool": "pool"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create Pool", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/pools", business.InitPoolRequest{
			Creator: "c", MintA: "a", MintB: "b", TickSpacing: 10,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		out := decode(t, w)
		assert.Contains(t, out, "result")
		assert.Contains(t, out, "pool")
	})

	t.Run("Decrease Uses Path Mint", func(t *testing.T) {
		svc := &fakeService{}
		r := newTestRouter(NewClmmHandler(svc, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/positions/mint1/decrease", map[string]interface{}{
			"nft_mint": "other", "liquidity": "10",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "mint1", svc.lastDec.NftMint)
	})

	t.Run("Close Without Body", func(t *testing.T) {
		svc := &fakeService{}
		r := newTestRouter(NewClmmHandler(svc, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/positions/mint1/close", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "mint1", svc.lastClose.NftMint)
		assert.Empty(t, svc.lastClose.Owner)
	})

	t.Run("Get Position", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodGet, "/clmm/positions/mint1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "open", decode(t, w)["phase"])
	})
}

func TestAsync(t *testing.T) {
	t.Run("Queued", func(t *testing.T) {
		svc := &fakeService{}
		pub := &fakePublisher{}
		r := newTestRouter(NewClmmHandler(svc, pub, "clmm_position_commands"))

		w := do(r, http.MethodPost, "/clmm/positions/mint1/increase?async=true", map[string]interface{}{"liquidity": "10"})
		require.Equal(t, http.StatusAccepted, w.Code)
		out := decode(t, w)
		assert.Equal(t, "queued", out["status"])
		assert.NotEmpty(t, out["request_id"])

		require.Len(t, pub.messages, 1)
		assert.Equal(t, "clmm_position_commands", pub.queue)
		cmd := pub.messages[0].(business.Command)
		assert.Equal(t, clmm.OpIncrease, cmd.Op)
		require.NotNil(t, cmd.Increase)
		assert.Equal(t, "mint1", cmd.Increase.NftMint)
		assert.Equal(t, out["request_id"], cmd.RequestID)
	})

	t.Run("No Publisher", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodPost, "/clmm/positions?async=true", openBody)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Publish Fails", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, &fakePublisher{err: errors.New("channel closed")}, "q"))
		w := do(r, http.MethodPost, "/clmm/positions?async=true", openBody)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSubmissions(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodGet, "/clmm/submissions/sig", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Found", func(t *testing.T) {
		svc := &fakeService{sub: &models.Submission{Signature: "sig", Status: "pending"}}
		r := newTestRouter(NewClmmHandler(svc, nil, "q"))
		w := do(r, http.MethodGet, "/clmm/submissions/sig", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pending", decode(t, w)["status"])
	})

	t.Run("Filter", func(t *testing.T) {
		svc := &fakeService{}
		r := newTestRouter(NewClmmHandler(svc, nil, "q"))
		w := do(r, http.MethodGet, "/clmm/submissions?nft_mint=m&pool=p&status=failed&limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, business.SubmissionFilter{NftMint: "m", PoolAddress: "p", Status: "failed", Limit: 5}, svc.filter)
	})

	t.Run("Bad Limit", func(t *testing.T) {
		r := newTestRouter(NewClmmHandler(&fakeService{}, nil, "q"))
		w := do(r, http.MethodGet, "/clmm/submissions?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
