package mock

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/centraunit/compose"
)

// Core contracts
type Notifier interface {
	Notify(msg string) error
	Channel() string
}

type Store interface {
	Get(key string) (string, bool)
}

// Type identities used with the static hierarchy
var (
	NotifierType         = compose.Type("mock.Notifier")
	EmailNotifierType    = compose.Type("mock.EmailNotifier")
	SMTPNotifierType     = compose.Type("mock.SMTPNotifier")
	TLSSMTPNotifierType  = compose.Type("mock.TLSSMTPNotifier")
	SMSNotifierType      = compose.Type("mock.SMSNotifier")
	StoreType            = compose.Type("mock.Store")
	MemoryStoreType      = compose.Type("mock.MemoryStore")
	RepositoryType       = compose.OpenGeneric("mock.Repository")
	MemoryRepositoryType = compose.OpenGeneric("mock.MemoryRepository")
)

// Hierarchy returns the hierarchy of the fixture types:
//
//	Notifier <- EmailNotifier <- SMTPNotifier <- TLSSMTPNotifier
//	Notifier <- SMSNotifier
//	Store <- MemoryStore
//
// The Go types *EmailNotifier, *SMSNotifier and *MemoryStore are declared
// under the same contracts so instances can be registered against them.
func Hierarchy() *compose.StaticHierarchy {
	return compose.NewStaticHierarchy().
		Declare(EmailNotifierType, NotifierType).
		Declare(SMTPNotifierType, EmailNotifierType).
		Declare(TLSSMTPNotifierType, SMTPNotifierType).
		Declare(SMSNotifierType, NotifierType).
		Declare(MemoryStoreType, StoreType).
		Declare(compose.TypeOf[*EmailNotifier](), NotifierType).
		Declare(compose.TypeOf[*SMSNotifier](), NotifierType).
		Declare(compose.TypeOf[*MemoryStore](), StoreType)
}

// Mock implementations
type EmailNotifier struct {
	Sent []string
}

func (e *EmailNotifier) Notify(msg string) error {
	e.Sent = append(e.Sent, msg)
	return nil
}

func (e *EmailNotifier) Channel() string { return "email" }

type SMSNotifier struct {
	Number string
}

func (s *SMSNotifier) Notify(msg string) error { return nil }

func (s *SMSNotifier) Channel() string { return "sms" }

type MemoryStore struct {
	Values map[string]string
}

func (m *MemoryStore) Get(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// NotifierFactory returns a compose.Factory producing an EmailNotifier and
// counting how often it ran.
func NotifierFactory(calls *atomic.Int32) compose.Factory {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return &EmailNotifier{}, nil
	}
}

// ChannelKey is the ResolutionContext key read by ChannelRule.
type ChannelKey struct{}

// ChannelRule disables notifiers whose channel is listed in the context
// under ChannelKey as muted.
func ChannelRule(contract compose.TypeID) *compose.Rule {
	return &compose.Rule{
		Contract: contract,
		When: func(ctx *compose.ResolutionContext) (bool, error) {
			_, ok := ctx.Value(ChannelKey{}).(map[string]bool)
			return ok, nil
		},
		Value: func(ctx *compose.ResolutionContext) (bool, error) {
			muted := ctx.Value(ChannelKey{}).(map[string]bool)
			n, ok := ctx.Subject().(Notifier)
			if !ok {
				return true, nil
			}
			return !muted[n.Channel()], nil
		},
	}
}

// CountingRule is a behavior rule returning fixed values and counting how
// often it was consulted.
type CountingRule struct {
	Contract   compose.TypeID
	Applies    bool
	Enabled    bool
	End        bool
	Processing int
	Override   int

	CanApplyCalls atomic.Int32
	EvaluateCalls atomic.Int32
}

func (r *CountingRule) AppliesTo() compose.TypeID { return r.Contract }

func (r *CountingRule) CanApply(ctx *compose.ResolutionContext) (bool, error) {
	r.CanApplyCalls.Add(1)
	return r.Applies, nil
}

func (r *CountingRule) Evaluate(ctx *compose.ResolutionContext) (compose.Outcome, error) {
	r.EvaluateCalls.Add(1)
	if r.End {
		return compose.Stop(r.Enabled), nil
	}
	return compose.Continue(r.Enabled), nil
}

func (r *CountingRule) ProcessingPriority() int { return r.Processing }

func (r *CountingRule) OverridePriority() int { return r.Override }

// FailingRule returns Err from the step named by FailIn ("can_apply" or
// "evaluate").
type FailingRule struct {
	Contract compose.TypeID
	FailIn   string
	Err      error
}

func (r *FailingRule) AppliesTo() compose.TypeID { return r.Contract }

func (r *FailingRule) CanApply(ctx *compose.ResolutionContext) (bool, error) {
	if r.FailIn == "can_apply" {
		return false, r.Err
	}
	return true, nil
}

func (r *FailingRule) Evaluate(ctx *compose.ResolutionContext) (compose.Outcome, error) {
	if r.FailIn == "evaluate" {
		return compose.Outcome{}, r.Err
	}
	return compose.Continue(true), nil
}

// ErrSimulated is returned by failing fixtures.
var ErrSimulated = errors.New("simulated rule failure")
