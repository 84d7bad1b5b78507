// Package service contains application services for relaying and administration.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/mlewis26201/pushgate/internal/crypto"
	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/limiter"
	"github.com/mlewis26201/pushgate/internal/model"
	"github.com/mlewis26201/pushgate/internal/pushover"
	"github.com/mlewis26201/pushgate/internal/repository"
)

// MaxMessageBytes is the largest accepted message size in UTF-8 bytes.
const MaxMessageBytes = 1024

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{30}$`)

// Dispatcher performs the outbound provider call. Implemented by *pushover.Client.
type Dispatcher interface {
	Send(ctx context.Context, appToken, userKey, message string) (pushover.Result, error)
}

// RelayRequest is one inbound relay attempt.
type RelayRequest struct {
	Token    string
	Message  string
	Provider int64 // provider config id; 0 selects the default
}

// RelayResult is returned for a successfully delivered message.
type RelayResult struct {
	ProviderStatus int
	ProviderBody   string
	DeliveryID     int64
}

// RelayService is the credential-gated relay pipeline.
type RelayService interface {
	// Relay validates, authenticates, rate-checks, dispatches, and logs one message.
	Relay(ctx context.Context, req RelayRequest) (RelayResult, error)
	// Authenticate resolves a presented plaintext token to its stored record.
	Authenticate(ctx context.Context, presented string) (*model.Token, error)
}

type RelayServiceImpl struct {
	cipher     *crypto.Cipher
	tokens     repository.TokenRepository
	providers  repository.ProviderRepository
	deliveries repository.DeliveryRepository
	lim        limiter.Limiter
	dispatch   Dispatcher
}

// NewRelayService constructs the relay pipeline with injected dependencies.
func NewRelayService(
	cipher *crypto.Cipher,
	tokens repository.TokenRepository,
	providers repository.ProviderRepository,
	deliveries repository.DeliveryRepository,
	lim limiter.Limiter,
	dispatch Dispatcher,
) *RelayServiceImpl {
	return &RelayServiceImpl{
		cipher:     cipher,
		tokens:     tokens,
		providers:  providers,
		deliveries: deliveries,
		lim:        lim,
		dispatch:   dispatch,
	}
}

// Relay runs one request through the full pipeline. Rejections before
// dispatch never produce a delivery record; once dispatch is attempted a
// record is always written, and a failed write fails the relay even when
// the provider accepted the message.
func (s *RelayServiceImpl) Relay(ctx context.Context, req RelayRequest) (RelayResult, error) {
	if err := validateRequest(req); err != nil {
		return RelayResult{}, err
	}

	tok, err := s.Authenticate(ctx, req.Token)
	if err != nil {
		return RelayResult{}, err
	}

	allowed, err := s.lim.Allow(ctx, tok.ID, tok.HourlyLimit)
	if err != nil {
		return RelayResult{}, fmt.Errorf("rate check: %w", err)
	}
	if !allowed {
		return RelayResult{}, &errs.RateLimitError{Limit: tok.HourlyLimit}
	}

	cfg, err := s.resolveProvider(ctx, req.Provider)
	if err != nil {
		return RelayResult{}, err
	}
	appToken, err := s.cipher.Decrypt(cfg.EncAppToken)
	if err != nil {
		return RelayResult{}, fmt.Errorf("provider config %d app token: %w", cfg.ID, err)
	}
	userKey, err := s.cipher.Decrypt(cfg.EncUserKey)
	if err != nil {
		return RelayResult{}, fmt.Errorf("provider config %d user key: %w", cfg.ID, err)
	}

	res, dispatchErr := s.dispatch.Send(ctx, appToken, userKey, req.Message)

	outcome := model.OutcomeError
	if dispatchErr == nil {
		outcome = strconv.Itoa(res.StatusCode)
	}
	deliveryID, logErr := s.deliveries.Create(ctx, &model.Delivery{
		TokenID: tok.ID,
		Message: req.Message,
		Outcome: outcome,
	})
	if logErr != nil {
		// The caller must not be told "delivered" without a durable record.
		return RelayResult{}, fmt.Errorf("record delivery: %w", logErr)
	}
	if dispatchErr != nil {
		return RelayResult{}, dispatchErr
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return RelayResult{}, &errs.ProviderError{StatusCode: res.StatusCode, Body: res.Body}
	}

	_ = s.tokens.TouchLastUsed(ctx, tok.ID) // best-effort

	return RelayResult{ProviderStatus: res.StatusCode, ProviderBody: res.Body, DeliveryID: deliveryID}, nil
}

// Authenticate scans stored tokens, decrypting each and comparing byte-equal.
// A record that fails to decrypt is treated as a non-match so that one
// corrupt row cannot block authentication of the rest.
func (s *RelayServiceImpl) Authenticate(ctx context.Context, presented string) (*model.Token, error) {
	if !tokenPattern.MatchString(presented) {
		return nil, errs.Validationf("token must be %d alphanumeric characters", crypto.TokenLength)
	}
	all, err := s.tokens.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	for i := range all {
		plain, err := s.cipher.Decrypt(all[i].EncToken)
		if err != nil {
			continue
		}
		if plain == presented {
			return &all[i], nil
		}
	}
	return nil, errs.ErrInvalidToken
}

func validateRequest(req RelayRequest) error {
	if req.Token == "" {
		return errs.Validationf("token is required")
	}
	if req.Message == "" {
		return errs.Validationf("message is required")
	}
	if len(req.Message) > MaxMessageBytes {
		return errs.Validationf("message exceeds %d bytes", MaxMessageBytes)
	}
	if !utf8.ValidString(req.Message) {
		return errs.Validationf("message is not valid UTF-8")
	}
	if req.Provider < 0 {
		return errs.Validationf("provider id must be positive")
	}
	return nil
}

// resolveProvider picks the explicitly selected config, or falls back to the
// first record. An explicitly selected id that does not exist is a caller error.
func (s *RelayServiceImpl) resolveProvider(ctx context.Context, id int64) (*model.ProviderConfig, error) {
	if id > 0 {
		cfg, err := s.providers.Get(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Validationf("unknown provider config %d", id)
		}
		return cfg, err
	}
	cfg, err := s.providers.GetDefault(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrNoProvider
	}
	return cfg, err
}
