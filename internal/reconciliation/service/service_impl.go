package service

import (
	"errors"
	"time"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	dormantInactive      = "inactive with no deactivation in period"
	dormantMissingRoster = "active but missing in roster"
)

type Service struct {
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

func NewService(p ServiceParam) recondomain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log.Named("reconciliation.service")}
}

func (s *Service) Reconcile(in recondomain.Input) (*recondomain.Result, error) {
	period, err := billingcycledomain.ParsePeriod(in.Period)
	if err != nil {
		return nil, err
	}

	testIdentities := identitySet(in.TestIdentities)
	roster := indexRoster(in.Roster)
	lifecycle := indexLifecycle(in.Lifecycle)

	result := recondomain.NewResult(period, in.UserRate)

	for _, key := range lifecycle.keys {
		user, _ := lifecycle.get(key)

		if _, ok := testIdentities[key]; ok {
			billed := s.toBilledUser(key, user, period)
			billed.Bucket = recondomain.BucketTest
			result.TestUsers = append(result.TestUsers, billed)
			result.Summary.TotalTestUsers++
			continue
		}

		rosterUser, inRoster := roster.get(key)
		billed := s.toBilledUser(key, user, period)
		billed.SecondaryProgram = inRoster && rosterUser.SecondaryProgram

		activatedInMonth := billed.ActivationDate != nil && period.Contains(*billed.ActivationDate)
		deactivatedInMonth := billed.DeactivationDate != nil && period.Contains(*billed.DeactivationDate)

		charged := true
		switch {
		case user.Active && !activatedInMonth && inRoster:
			billed.Bucket = recondomain.BucketNormal
			billed.Charge = in.UserRate
			result.Normal = append(result.Normal, billed)
			result.Summary.TotalActive++
		case activatedInMonth:
			billed.Bucket = recondomain.BucketNew
			billed.DaysActive = period.DaysUntilEnd(*billed.ActivationDate)
			billed.Charge = prorate(billed.DaysActive, period.DaysInMonth, in.UserRate)
			result.New = append(result.New, billed)
			result.Summary.TotalNew++
		case deactivatedInMonth:
			billed.Bucket = recondomain.BucketDeactivated
			billed.DaysActive = period.DaysFromStart(*billed.DeactivationDate)
			billed.Charge = prorate(billed.DaysActive, period.DaysInMonth, in.UserRate)
			result.Deactivated = append(result.Deactivated, billed)
			result.Summary.TotalDeactivated++
		default:
			charged = false
			billed.Bucket = recondomain.BucketDormant
			billed.Reason = dormantInactive
			if user.Active {
				billed.Reason = dormantMissingRoster
			}
			result.Dormant = append(result.Dormant, billed)
			result.Summary.TotalDormant++
			s.log.Debug("dormant user, no action",
				zap.String("period", period.Token),
				zap.String("identity", key),
				zap.String("reason", billed.Reason),
			)
		}

		if charged {
			result.Summary.TotalCharge += billed.Charge
			if billed.SecondaryProgram {
				result.Secondary = append(result.Secondary, billed)
				result.Summary.TotalSecondary++
			}
		}

		if user.Active && !activatedInMonth && !inRoster {
			result.Mismatches = append(result.Mismatches, recondomain.Mismatch{
				Identity: key,
				Email:    user.Email,
				UserID:   user.UserID,
				Name:     user.Name,
				Source:   recondomain.MismatchSourceLifecycle,
				Issue:    recondomain.IssueMissingInRoster,
				Severity: recondomain.SeverityBlocker,
			})
			result.Summary.TotalMismatches++
		}
	}

	for _, key := range roster.keys {
		if _, ok := testIdentities[key]; ok {
			continue
		}
		if lifecycle.has(key) {
			continue
		}
		user, _ := roster.get(key)
		result.Mismatches = append(result.Mismatches, recondomain.Mismatch{
			Identity: key,
			Email:    user.Email,
			UserID:   user.UserID,
			Name:     user.Name,
			Source:   recondomain.MismatchSourceRoster,
			Issue:    recondomain.IssueMissingInLifecycle,
			Severity: recondomain.SeverityBlocker,
		})
		result.Summary.TotalMismatches++
	}

	s.log.Debug("reconciliation complete",
		zap.String("period", period.Token),
		zap.Int("normal", result.Summary.TotalActive),
		zap.Int("new", result.Summary.TotalNew),
		zap.Int("deactivated", result.Summary.TotalDeactivated),
		zap.Int("mismatches", result.Summary.TotalMismatches),
	)

	return &result, nil
}

func (s *Service) toBilledUser(key string, user recondomain.LifecycleUser, period billingcycledomain.Period) recondomain.BilledUser {
	return recondomain.BilledUser{
		Identity:         key,
		Email:            user.Email,
		UserID:           user.UserID,
		Name:             user.Name,
		Active:           user.Active,
		ActivationDate:   datePtr(s.parseDate(key, "activation_date", user.ActivationDate, period)),
		DeactivationDate: datePtr(s.parseDate(key, "deactivation_date", user.DeactivationDate, period)),
		Attributes:       copyAttributes(user.Attributes),
	}
}

// parseDate treats unparseable dates as absent.
func (s *Service) parseDate(key, field, value string, period billingcycledomain.Period) time.Time {
	t, err := billingcycledomain.ParseFlexibleDate(value)
	if err != nil {
		if errors.Is(err, billingcycledomain.ErrAmbiguousDate) {
			s.log.Debug("unrecognized date format, treating as absent",
				zap.String("period", period.Token),
				zap.String("identity", key),
				zap.String("field", field),
				zap.String("value", value),
			)
		}
		return time.Time{}
	}
	return t
}
