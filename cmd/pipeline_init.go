package main

import (
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/geo"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/resilience"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// initPipeline builds the provider clients from cfg and wires them into a
// Pipeline. Offline mode swaps in stub providers and needs no credentials.
func initPipeline(c *config.Config, offline bool) (*pipeline.Pipeline, error) {
	if offline {
		zap.L().Warn("offline mode: provider calls are stubbed, no POIs will be found")
		return pipeline.New(c, pipeline.NewStubMapsClient(), pipeline.StubLocalClient{}), nil
	}

	if err := c.RequireMapsCredentials(); err != nil {
		return nil, err
	}
	if err := c.RequireLocalCredentials(); err != nil {
		return nil, err
	}

	common := providerOptions(c)
	mapsOpts := slices.Concat(common, []naver.Option{
		naver.WithBreaker(newBreaker("naver_maps", c.API)),
	})
	if c.Naver.MapsBaseURL != "" {
		mapsOpts = append(mapsOpts, naver.WithBaseURL(c.Naver.MapsBaseURL))
	}
	maps := naver.NewMapsClient(c.Naver.MapsClientID, c.Naver.MapsClientSecret, mapsOpts...)

	// Local search is optional unless a stage is configured to use it.
	var local geo.LocalSearcher
	if c.HasLocalCredentials() {
		localOpts := slices.Concat(common, []naver.Option{
			naver.WithBreaker(newBreaker("naver_local", c.API)),
		})
		if c.Naver.LocalBaseURL != "" {
			localOpts = append(localOpts, naver.WithBaseURL(c.Naver.LocalBaseURL))
		}
		local = naver.NewLocalClient(c.Naver.LocalClientID, c.Naver.LocalClientSecret, localOpts...)
		zap.L().Info("naver local search api enabled")
	} else {
		zap.L().Debug("KEYWORD_NAVER_LOCAL_CLIENT_ID not set, local search disabled")
	}

	return pipeline.New(c, maps, local), nil
}

// providerOptions returns the pacing and retry options shared by both
// providers. The rate limiter is one bucket for all calls.
func providerOptions(c *config.Config) []naver.Option {
	api := c.API
	timeout := time.Duration(api.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retry := resilience.DefaultRetryConfig()
	if api.MaxAttempts > 0 {
		retry.MaxAttempts = api.MaxAttempts
	}
	return []naver.Option{
		naver.WithHTTPClient(&http.Client{Timeout: timeout}),
		naver.WithLimiter(sharedLimiter(c)),
		naver.WithDelay(requestDelay(api)),
		naver.WithRetry(retry),
	}
}

// sharedLimiter returns the token bucket every provider call draws from.
// api.rate_limit_rps wins when set. Parallel row resolution otherwise paces
// all workers together at one call per api.request_delay_sec.
func sharedLimiter(c *config.Config) *rate.Limiter {
	if c.API.RateLimitRPS > 0 {
		return naver.NewLimiter(c.API.RateLimitRPS)
	}
	if c.Search.Concurrency > 1 {
		return naver.NewIntervalLimiter(requestDelay(c.API))
	}
	return nil
}

func requestDelay(api config.APIConfig) time.Duration {
	return time.Duration(api.RequestDelaySec * float64(time.Second))
}

func newBreaker(name string, api config.APIConfig) *resilience.Breaker {
	return resilience.NewBreaker(name, api.BreakerThreshold, time.Duration(api.BreakerCooldownSecs)*time.Second)
}
