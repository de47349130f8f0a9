package naming

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"palette-makeup-server/modules/common/config"
	"palette-makeup-server/modules/common/fallback"
)

// Options - Service 동작 설정
type Options struct {
	Concurrency   int
	RatePerSec    float64
	MaxRetries    int
	FailurePolicy string
	Placeholder   string
	// 재시도 첫 대기 시간 (0이면 backoff 기본값)
	InitialBackoff time.Duration
}

// OptionsFromConfig - config 값으로 Options 구성
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:   cfg.NamingConcurrency,
		RatePerSec:    cfg.NamingRatePerSec,
		MaxRetries:    cfg.NamingMaxRetries,
		FailurePolicy: cfg.NamingFailurePolicy,
		Placeholder:   cfg.NamingPlaceholder,
	}
}

// Service - 팔레트 전체 이름 조회 (순서 보존)
type Service struct {
	lookup  Lookuper
	cache   NameCache
	limiter *rate.Limiter
	opts    Options
}

// NewService - cache 는 nil 이어도 된다
func NewService(lookup Lookuper, nameCache NameCache, opts Options) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.NamingPolicyPlaceholder
	}
	if opts.Placeholder == "" {
		opts.Placeholder = "unknown"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Concurrency)
	}

	return &Service{
		lookup:  lookup,
		cache:   nameCache,
		limiter: limiter,
		opts:    opts,
	}
}

// NameColors - hexPalette 와 같은 길이, 같은 순서의 이름 목록 반환
// placeholder 정책이면 실패한 색은 placeholder 로 채우고, fail 정책이면 첫 실패를 반환
func (s *Service) NameColors(ctx context.Context, hexPalette []string) ([]string, error) {
	names := make([]string, len(hexPalette))
	if len(hexPalette) == 0 {
		return names, nil
	}

	startTime := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Concurrency)

	for i, hex := range hexPalette {
		eg.Go(func() error {
			name, err := s.nameOne(egCtx, hex)
			if err != nil {
				if s.opts.FailurePolicy == config.NamingPolicyFail || ctx.Err() != nil {
					return fmt.Errorf("color %d (%s): %w", i, hex, err)
				}
				log.Printf("⚠️ [Naming] %s lookup failed, using placeholder %q: %v", hex, s.opts.Placeholder, err)
				name = s.opts.Placeholder
			}
			names[i] = fallback.NameOrPlaceholder(name, s.opts.Placeholder)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		log.Printf("❌ [Naming] Failed to name palette: %v", err)
		return nil, err
	}

	log.Printf("✅ [Naming] Named %d colors in %v", len(names), time.Since(startTime).Round(time.Millisecond))
	return names, nil
}

func (s *Service) nameOne(ctx context.Context, hex string) (string, error) {
	if s.cache != nil {
		if name, ok := s.cache.Get(ctx, hex); ok {
			return name, nil
		}
	}

	var name string
	op := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		n, err := s.lookup.Lookup(ctx, hex)
		if err != nil {
			return err
		}
		name = n
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if s.opts.InitialBackoff > 0 {
		eb.InitialInterval = s.opts.InitialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.opts.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(ctx, hex, name)
	}
	return name, nil
}
