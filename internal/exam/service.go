package exam

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// Limits bound what an instructor may request when assembling an exam.
type Limits struct {
	MaxQuestions int
	MaxDuration  time.Duration
}

func DefaultLimits() Limits {
	return Limits{MaxQuestions: 25, MaxDuration: 2 * time.Hour}
}

// Service implements availability, assembly, submission and results on top of
// the persistence gateway. It holds no mutable state of its own.
type Service struct {
	gw      Gateway
	grader  grading.Grader
	limits  Limits
	loc     *time.Location
	clock   func() time.Time
	shuffle func(n int, swap func(i, j int))
	log     *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.clock = now } }

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLimits(l Limits) Option { return func(s *Service) { s.limits = l } }

func WithGrader(g grading.Grader) Option { return func(s *Service) { s.grader = g } }

// WithShuffle replaces the random permutation used for question selection.
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(s *Service) { s.shuffle = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService registers the exam statements on gw and applies opts.
func NewService(gw Gateway, opts ...Option) *Service {
	s := &Service{
		gw:      gw,
		grader:  grading.NewDefaultGrader(),
		limits:  DefaultLimits(),
		loc:     time.Local,
		clock:   time.Now,
		shuffle: rand.Shuffle,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.limits.MaxQuestions <= 0 {
		s.limits.MaxQuestions = DefaultLimits().MaxQuestions
	}
	if s.limits.MaxDuration <= 0 {
		s.limits.MaxDuration = DefaultLimits().MaxDuration
	}
	gw.RegisterAll(procedures)
	return s
}

// Now is the service clock in the deployment's location.
func (s *Service) Now() time.Time { return s.clock().In(s.loc) }

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Limits() Limits { return s.limits }
