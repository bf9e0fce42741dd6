package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coldcall/coldcall-api/internal/models"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
)

type callablePool interface {
	ListCallable(ctx context.Context, classID string) ([]models.Student, error)
}

// RandomizerService selects the next student to call on. Selection is
// uniform over the class's non-dropped students, except that students whose
// net call count has pulled ahead of the class minimum by more than the
// configured slack are excluded until the rest catch up.
type RandomizerService struct {
	students callablePool
	classes  classFinder
	metrics  *MetricsService
	slack    int
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizerService constructs the randomizer. slack is the maximum lead
// in net calls a student may hold over the class minimum and stay eligible.
// rng may be nil, in which case a time-seeded source is used.
func NewRandomizerService(students callablePool, classes classFinder, metrics *MetricsService, slack int, rng *rand.Rand, logger *zap.Logger) *RandomizerService {
	if slack <= 0 {
		slack = 3
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RandomizerService{
		students: students,
		classes:  classes,
		metrics:  metrics,
		slack:    slack,
		rng:      rng,
		logger:   logger,
	}
}

// Pick draws the next student for an owned class. Returns nil without error
// when the class has no callable students.
func (s *RandomizerService) Pick(ctx context.Context, professorID, classID string) (*models.Student, error) {
	if _, err := ownedClass(ctx, s.classes, classID, professorID); err != nil {
		return nil, err
	}

	pool, err := s.students.ListCallable(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load callable students")
	}
	if len(pool) == 0 {
		return nil, nil
	}

	floor := pool[0].NetCalls()
	for _, st := range pool[1:] {
		if n := st.NetCalls(); n < floor {
			floor = n
		}
	}
	threshold := floor + s.slack

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(pool) > 0 {
		i := s.rng.Intn(len(pool))
		candidate := pool[i]
		if candidate.NetCalls() < threshold {
			s.metrics.RecordRandomizerDraw()
			s.logger.Debug("randomizer pick",
				zap.String("class_id", classID),
				zap.String("student_id", candidate.ID),
				zap.Int("net_calls", candidate.NetCalls()),
				zap.Int("threshold", threshold),
			)
			return &candidate, nil
		}
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	// Unreachable while slack > 0: the minimum-net student always qualifies.
	return nil, nil
}
