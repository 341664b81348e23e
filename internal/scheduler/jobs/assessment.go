package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/scheduler"
	"github.com/decisiveml/ruinlab/pkg/logger"
	"github.com/decisiveml/ruinlab/pkg/redis"
)

// Assessor runs one assessment
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*assessment.Assessment, error)
}

// AssessmentJob re-assesses one profile on its schedule and keeps the
// latest result under the strategy's cache key
// ⭐ SSOT: 프로필 재평가 스케줄은 이 Job에서만
type AssessmentJob struct {
	profile  *profile.Profile
	assessor Assessor
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewAssessmentJob creates a job for a profile. cache may be nil.
func NewAssessmentJob(p *profile.Profile, assessor Assessor, cache *redis.Cache, log *logger.Logger) *AssessmentJob {
	return &AssessmentJob{
		profile:  p,
		assessor: assessor,
		cache:    cache,
		logger:   log.WithField("profile_id", p.Meta.ProfileID),
	}
}

// FromProfiles builds a job for every profile that has a schedule
func FromProfiles(profiles []*profile.Profile, assessor Assessor, cache *redis.Cache, log *logger.Logger) []*AssessmentJob {
	out := make([]*AssessmentJob, 0, len(profiles))
	for _, p := range profiles {
		if p.Meta.Schedule == "" {
			continue
		}
		out = append(out, NewAssessmentJob(p, assessor, cache, log))
	}
	return out
}

// Name returns the job name
func (j *AssessmentJob) Name() string {
	return "assessment:" + j.profile.Meta.ProfileID
}

// Schedule returns the profile's cron schedule (with seconds)
func (j *AssessmentJob) Schedule() string {
	return j.profile.Meta.Schedule
}

// Run executes the assessment
func (j *AssessmentJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled assessment")

	a, err := j.assessor.Assess(ctx, assessment.Request{Profile: j.profile})
	switch {
	case errors.Is(err, montecarlo.ErrExcessiveBaseEquity) && a != nil:
		// 결과는 확정적 → 재시도 없이 기록만
		j.logger.WithError(err).Warn("Assessment: excessive base equity")
	case errors.Is(err, montecarlo.ErrInvalidConfig):
		return scheduler.Permanent(fmt.Errorf("assess %s: %w", j.profile.Meta.ProfileID, err))
	case err != nil:
		return fmt.Errorf("assess %s: %w", j.profile.Meta.ProfileID, err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"assessment_id": a.ID,
		"strategy_id":   a.StrategyID,
		"verdict":       a.Verdict,
		"cached":        a.Cached,
	})
	if a.Recommendation != nil {
		log = log.WithFields(map[string]interface{}{
			"starting_equity":      a.Recommendation.StartingEquity,
			"is_ruined_pct":        a.Recommendation.IsRuinedPct,
			"returns_per_drawdown": a.Recommendation.ReturnsPerDrawdown,
		})
	}

	switch a.Verdict {
	case assessment.VerdictPass:
		log.Info("Scheduled assessment: PASSED")
	default:
		log.Warn("Scheduled assessment: FAILED")
	}

	if j.cache != nil {
		if err := j.cache.Set(ctx, redis.StrategyKey(a.StrategyID), a, redis.TTLDaily); err != nil {
			j.logger.WithError(err).Warn("Failed to cache latest assessment")
		}
	}

	return nil
}
