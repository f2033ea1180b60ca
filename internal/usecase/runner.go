package usecase

import (
	"context"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/logger"
	"github.com/driveshare/marketing-dispatch/internal/metrics"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

const runOutcomeFailed = "failed"

// CampaignRunner sends the campaign to eligible recipients one at a time until
// the daily quota or the recipient pool runs out.
//
// The quota is a snapshot taken when the run starts. Overlapping runs can
// together exceed the daily limit by the number of sends they have in flight.
type CampaignRunner struct {
	claimer    *RecipientClaimer
	gateway    ProviderGateway
	stats      *StatsRecorder
	contexts   TemplateContextBuilder
	dailyLimit int
}

func NewCampaignRunner(claimer *RecipientClaimer, gateway ProviderGateway, stats *StatsRecorder, contexts TemplateContextBuilder, dailyLimit int) *CampaignRunner {
	return &CampaignRunner{
		claimer:    claimer,
		gateway:    gateway,
		stats:      stats,
		contexts:   contexts,
		dailyLimit: dailyLimit,
	}
}

// Run returns the number of recipients sent to by this run. A failed send is
// logged and counted in Failed; that recipient stays claimed and is not tried
// again. A *domain.PersistenceError aborts the run.
//
// Cancelling ctx stops the run before its next claim. A send that has already
// started, and the stats write that follows it, run to completion.
func (r *CampaignRunner) Run(ctx context.Context) (domain.RunResult, error) {
	start := time.Now()
	result := domain.RunResult{RunID: uuid.NewString()}
	m := metrics.DefaultInstance()
	defer func() {
		m.ObserveRunDuration(time.Since(start).Seconds())
	}()

	today := r.stats.Today()
	alreadySent, err := r.stats.SentOn(ctx, today)
	if err != nil {
		m.IncRun(runOutcomeFailed)
		return result, err
	}
	budget := r.dailyLimit - alreadySent
	if budget < 0 {
		budget = 0
	}
	glog.Infof("Campaign run %s started: %d already sent on %s, budget %d", result.RunID, alreadySent, today.Format(time.DateOnly), budget)

	provider := r.gateway.Provider().String()
	for {
		if result.Sent >= budget {
			result.StopReason = domain.StopQuotaExhausted
			break
		}
		if ctx.Err() != nil {
			result.StopReason = domain.StopCanceled
			break
		}

		recipient, found, err := r.claimer.ClaimNext(ctx)
		if err != nil {
			m.IncRun(runOutcomeFailed)
			glog.Errorf("Campaign run %s aborted after %d sends: %v", result.RunID, result.Sent, err)
			return r.finish(result, budget), err
		}
		if !found {
			result.StopReason = domain.StopPoolExhausted
			break
		}

		sendCtx := context.WithoutCancel(ctx)
		if err := r.gateway.Send(sendCtx, recipient, r.contexts.Build(recipient)); err != nil {
			result.Failed++
			m.IncEmailsFailed(provider)
			glog.Warningf("Campaign run %s: send to %s (%s) failed, recipient will not be retried: %v",
				result.RunID, recipient.ID, logger.RedactEmail(recipient.Email), err)
			continue
		}
		m.IncEmailsSent(provider)

		if err := r.stats.RecordSend(sendCtx, today); err != nil {
			m.IncRun(runOutcomeFailed)
			glog.Errorf("Campaign run %s aborted after %d sends: %v", result.RunID, result.Sent, err)
			return r.finish(result, budget), err
		}
		result.Sent++
	}

	result = r.finish(result, budget)
	m.IncRun(string(result.StopReason))
	glog.Infof("Campaign run %s finished: sent=%d failed=%d remaining=%d reason=%s",
		result.RunID, result.Sent, result.Failed, result.QuotaRemaining, result.StopReason)
	return result, nil
}

func (r *CampaignRunner) finish(result domain.RunResult, budget int) domain.RunResult {
	result.QuotaRemaining = budget - result.Sent
	return result
}
