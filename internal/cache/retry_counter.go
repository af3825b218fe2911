package cache

import (
	"context"
	"time"

	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"github.com/motordesk/dealer-voice-service/pkg/redis"
	"go.uber.org/zap"
)

// retryCounterTTL keeps per-call counters alive well past any plausible menu
// interaction, then lets them expire on their own.
const retryCounterTTL = 10 * time.Minute

// RetryCounter tracks how many times the IVR menu has been re-offered on a
// call, keyed by CallSid. The count backs the bounded re-prompt loop: when
// redis is unavailable the counter fails closed by reporting the attempt as
// past the bound, ending the call gracefully instead of looping without limit.
type RetryCounter struct {
	redisSvc redis.RedisServiceInterface
	maxTries int
}

// NewRetryCounter creates a retry counter with the given re-prompt bound.
// redisSvc may be nil; every call then reports the bound as exhausted.
func NewRetryCounter(redisSvc redis.RedisServiceInterface, maxTries int) *RetryCounter {
	if maxTries <= 0 {
		maxTries = 2
	}
	return &RetryCounter{redisSvc: redisSvc, maxTries: maxTries}
}

// Next increments the per-call counter and reports whether another re-prompt
// is allowed.
func (rc *RetryCounter) Next(ctx context.Context, callSid string) bool {
	if rc.redisSvc == nil || callSid == "" {
		return false
	}

	key := rc.redisSvc.GenerateKey(redis.IVR_RETRIES, callSid)
	count, err := rc.redisSvc.Increment(ctx, key, retryCounterTTL)
	if err != nil {
		logger.Base().Warn("ivr retry counter unavailable, ending menu",
			zap.String("call_sid", callSid), zap.Error(err))
		return false
	}
	return count <= int64(rc.maxTries)
}

// Reset clears the counter for a call, used once a digit routes successfully.
func (rc *RetryCounter) Reset(ctx context.Context, callSid string) {
	if rc.redisSvc == nil || callSid == "" {
		return
	}
	key := rc.redisSvc.GenerateKey(redis.IVR_RETRIES, callSid)
	if err := rc.redisSvc.DelValue(ctx, key); err != nil {
		logger.Base().Debug("failed to reset ivr retry counter", zap.String("call_sid", callSid), zap.Error(err))
	}
}
