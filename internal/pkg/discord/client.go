// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discord

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	perrors "github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/go-arcade/guildsync/pkg/cache"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/retry"
)

const (
	defaultBaseURL      = "https://discord.com/api/v10"
	defaultTimeout      = 10 * time.Second
	defaultRPS          = 40
	defaultBurst        = 10
	defaultMaxRetries   = 3
	defaultRoleCacheTTL = 5 * time.Minute
)

// Config holds the bot credentials and transport limits.
type Config struct {
	BaseURL           string        `mapstructure:"baseUrl"`
	Token             string        `mapstructure:"token"`
	GuildId           string        `mapstructure:"guildId"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"maxRetries"`
	RoleCacheTTL      time.Duration `mapstructure:"roleCacheTTL"`
	TempRolePrefix    string        `mapstructure:"tempRolePrefix"`
}

func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRPS
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RoleCacheTTL <= 0 {
		c.RoleCacheTTL = defaultRoleCacheTTL
	}
	if c.TempRolePrefix == "" {
		c.TempRolePrefix = "Event: "
	}
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("discord token is required")
	}
	if c.GuildId == "" {
		return errors.New("discord guild id is required")
	}
	return nil
}

// Client is the guild API client. It implements guild.Adapter.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	roles   *cache.CachedQuery[[]apiRole]
}

// New builds a client. A nil cache turns the role catalog cache off.
func New(cfg Config, c cache.ICache) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bot "+cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "guildsync (https://github.com/go-arcade/guildsync, 1.0)").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	cl := &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	cl.roles = cache.NewCachedQuery(c,
		[]any{"discord", "roles", cfg.GuildId},
		cl.fetchRoles,
		cache.WithTTL[[]apiRole](cfg.RoleCacheTTL),
	)
	return cl, nil
}

func (c *Client) GuildId() string {
	return c.cfg.GuildId
}

// call sends one API request through the limiter, retrying rate limits and
// server errors. out may be nil.
func (c *Client) call(ctx context.Context, method, path string, body, out any, reason string) error {
	var payload []byte
	err := retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req := c.http.R().SetContext(ctx)
		if reason != "" {
			req.SetHeader("X-Audit-Log-Reason", url.PathEscape(reason))
		}
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return perrors.Wrapf(err, "discord %s %s", method, path)
		}
		if resp.IsError() {
			return newAPIError(resp)
		}
		payload = resp.Body()
		return nil
	},
		retry.WithMaxAttempts(c.cfg.MaxRetries+1),
		retry.WithBackoff(retry.Exponential(250*time.Millisecond, 5*time.Second)),
		retry.WithJitter(retry.FullJitter),
		retry.WithMaxDelay(30*time.Second),
		retry.WithRetryIf(retryable),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			log.Warnw("discord call retrying", "method", method, "path", path, "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return perrors.Wrapf(sonic.Unmarshal(payload, out), "decode %s %s", method, path)
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return retry.IsRetryableError(err)
}
