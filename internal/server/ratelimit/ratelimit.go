// Package ratelimit counts requests per (rule, client) and rejects those
// over the rule's budget with common.ErrRateLimited.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows Limit requests per Window. Name namespaces the counters.
// SkipSuccessful rules are checked with Peek before a request and only
// charged with Record when it fails.
type Rule struct {
	Name           string
	Limit          int
	Window         time.Duration
	SkipSuccessful bool
}

// Each method returns common.ErrRateLimited when the budget is exhausted and
// any other error when the backend cannot answer.
type Limiter interface {
	// Allow records one request by key under rule and reports whether it
	// fits the budget.
	Allow(ctx context.Context, rule Rule, key string) error
	// Peek reports whether another request would fit without recording one.
	Peek(ctx context.Context, rule Rule, key string) error
	// Record charges one request without checking the budget.
	Record(ctx context.Context, rule Rule, key string) error
}

// Rule names.
const (
	RuleAuth          = "auth"
	RulePasswordReset = "password_reset"
	RuleVerification  = "verification"
	RuleGeneral       = "general"
)
