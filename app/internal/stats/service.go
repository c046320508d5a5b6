package stats

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"maintenance/app/internal/cache"
	"maintenance/app/internal/database"
	"maintenance/app/internal/indicators"
	"maintenance/app/internal/metrics"
	"maintenance/app/internal/models"

	"github.com/sirupsen/logrus"
)

// Results are cached under indicators:<id>:<generation>. Invalidate bumps the
// generation counter, so a computation that read records before an insert
// can only store under a key no reader asks for any more.
const (
	keyPrefix = "indicators:"
	genPrefix = "indicators:gen:"
)

// Service computes MTBF/MTTR per equipment from stored corrective records
// and caches the results until the equipment's records change.
type Service struct {
	provider cache.Provider
	ttl      time.Duration
	log      logrus.FieldLogger
}

// NewService returns a Service backed by provider. A nil provider disables
// caching.
func NewService(provider cache.Provider, ttl time.Duration, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Service{provider: provider, ttl: ttl, log: log}
}

func cacheKey(equipmentID, gen int64) string {
	return keyPrefix + strconv.FormatInt(equipmentID, 10) + ":" + strconv.FormatInt(gen, 10)
}

func genKey(equipmentID int64) string {
	return genPrefix + strconv.FormatInt(equipmentID, 10)
}

// ForEquipment returns the indicators for one equipment. Equipment without
// records yields a zero Result.
func (s *Service) ForEquipment(ctx context.Context, equipmentID int64) (indicators.Result, error) {
	gen, cacheable := s.generation(ctx, equipmentID)
	if cacheable {
		if res, ok := s.lookup(ctx, cacheKey(equipmentID, gen)); ok {
			return res, nil
		}
	}

	start := time.Now()
	records, err := database.GetCorrectiveRecords(equipmentID)
	if err != nil {
		return indicators.Result{}, err
	}
	res := indicators.Compute(models.Intervals(records))
	metrics.ObserveComputation(time.Since(start))

	if res.NegativeGaps > 0 {
		s.log.WithFields(logrus.Fields{
			"equipment_id":  equipmentID,
			"negative_gaps": res.NegativeGaps,
		}).Warn("Overlapping corrective records produce negative MTBF gaps")
	}

	if cacheable {
		s.store(ctx, cacheKey(equipmentID, gen), res)
	}
	return res, nil
}

// Grouped returns one report per equipment that has corrective records,
// ordered by equipment id.
func (s *Service) Grouped(ctx context.Context) ([]models.IndicatorReport, error) {
	ids, err := database.GetEquipmentIDsWithRecords()
	if err != nil {
		return nil, err
	}

	reports := make([]models.IndicatorReport, 0, len(ids))
	for _, id := range ids {
		res, err := s.ForEquipment(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, models.IndicatorReport{EquipmentID: id, Result: res})
	}
	return reports, nil
}

// ForAll computes indicators for each of the given equipments.
func (s *Service) ForAll(ctx context.Context, equipments []models.Equipment) (map[int64]indicators.Result, error) {
	out := make(map[int64]indicators.Result, len(equipments))
	for _, e := range equipments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.ForEquipment(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		out[e.ID] = res
	}
	return out, nil
}

// Invalidate retires the cached indicators of an equipment. Failures are
// logged only; a stale entry expires with its TTL.
func (s *Service) Invalidate(ctx context.Context, equipmentID int64) {
	if s.provider == nil {
		return
	}
	gen, err := s.provider.Incr(ctx, genKey(equipmentID))
	if err != nil {
		s.log.WithError(err).WithField("equipment_id", equipmentID).Warn("Failed to invalidate cached indicators")
		return
	}
	// the previous generation is unreachable now; drop it early
	_ = s.provider.Del(ctx, cacheKey(equipmentID, gen-1))
}

// generation reads the equipment's current cache generation. It reports
// false when there is no provider or the counter cannot be read, in which
// case the result is computed without touching the cache.
func (s *Service) generation(ctx context.Context, equipmentID int64) (int64, bool) {
	if s.provider == nil {
		return 0, false
	}
	b, err := s.provider.Get(ctx, genKey(equipmentID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, true
	}
	if err != nil {
		s.log.WithError(err).Warn("Indicator cache read failed")
		return 0, false
	}
	gen, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		s.log.WithError(err).WithField("equipment_id", equipmentID).Warn("Undecodable cache generation")
		return 0, false
	}
	return gen, true
}

func (s *Service) lookup(ctx context.Context, key string) (indicators.Result, bool) {
	b, err := s.provider.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Warn("Indicator cache read failed")
		}
		metrics.ObserveCache(false)
		return indicators.Result{}, false
	}

	var res indicators.Result
	if err := json.Unmarshal(b, &res); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Discarding undecodable cache entry")
		metrics.ObserveCache(false)
		return indicators.Result{}, false
	}
	metrics.ObserveCache(true)
	return res, true
}

func (s *Service) store(ctx context.Context, key string, res indicators.Result) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.provider.Set(ctx, key, b, s.ttl); err != nil {
		s.log.WithError(err).Warn("Indicator cache write failed")
	}
}
