package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldline/intake-ai/pkg/logging"
)

// FallbackClient tries a primary provider first and falls over to a
// secondary one when the primary fails. Provider outages must not take
// the intake line down with them.
type FallbackClient struct {
	primary       Client
	fallback      Client
	fallbackModel string
	logger        *logging.Logger
}

// NewFallbackClient composes a primary and a fallback provider. The
// fallback model overrides req.Model when the secondary provider is
// invoked, since model ids are provider-specific.
func NewFallbackClient(primary, fallback Client, fallbackModel string, logger *logging.Logger) *FallbackClient {
	if primary == nil {
		panic("llm: primary client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
		logger:        logger.Component("llm_fallback"),
	}
}

// Complete tries the primary provider and, on failure, retries the same
// request against the fallback provider.
func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	if c.fallback == nil {
		return Response{}, err
	}
	if ctx.Err() != nil {
		return Response{}, fmt.Errorf("llm: primary failed and context expired: %w", errors.Join(err, ctx.Err()))
	}

	c.logger.Warn("primary LLM failed, using fallback", "error", err)

	fbReq := req
	if c.fallbackModel != "" {
		fbReq.Model = c.fallbackModel
	}

	fbResp, fbErr := c.fallback.Complete(ctx, fbReq)
	if fbErr != nil {
		return Response{}, fmt.Errorf("llm: both providers failed: primary: %v; fallback: %w", err, fbErr)
	}
	return fbResp, nil
}
