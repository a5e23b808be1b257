package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const maxResponseBytes = 4 << 20

// Client is one backend handle. Build it with Factory.New for each use and
// drop it afterwards.
type Client struct {
	factory *Factory
	store   SessionStore
}

type request struct {
	method string
	path   string
	query  url.Values
	bearer string
	header http.Header
	body   any
	dest   any
}

// GetUser returns the user of the current session. A nil user with a nil
// error means there is no usable session: no tokens, an expired session that
// could not be refreshed, or tokens the backend rejected.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	ctx, span := c.startSpan(ctx, "backend.GetUser")
	defer span.End()

	tokens, err := c.currentTokens(ctx)
	if err != nil {
		return nil, endSpanError(span, err)
	}
	if tokens.Empty() {
		span.SetAttributes(attribute.Bool("backend.session", false))
		return nil, nil
	}

	var user User
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: tokens.AccessToken,
		dest:   &user,
	})
	if IsUnauthorized(err) {
		span.SetAttributes(attribute.Bool("backend.session", false))
		return nil, nil
	}
	if err != nil {
		return nil, endSpanError(span, fmt.Errorf("get user: %w", err))
	}
	if strings.TrimSpace(user.ID) == "" {
		return nil, endSpanError(span, fmt.Errorf("get user: response has no user id"))
	}
	span.SetAttributes(attribute.Bool("backend.session", true), attribute.String("enduser.id", user.ID))
	return &user, nil
}

// SignInWithPassword exchanges credentials for a session and persists it in
// the handle's store.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	ctx, span := c.startSpan(ctx, "backend.SignInWithPassword")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, endSpanError(span, fmt.Errorf("email and password are required"))
	}
	session, err := c.tokenGrant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Session{}, endSpanError(span, fmt.Errorf("sign in: %w", err))
	}
	c.store.Save(session)
	return session, nil
}

// RefreshSession exchanges the stored refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context) (Session, error) {
	ctx, span := c.startSpan(ctx, "backend.RefreshSession")
	defer span.End()

	refreshToken := strings.TrimSpace(c.store.Tokens().RefreshToken)
	if refreshToken == "" {
		return Session{}, endSpanError(span, fmt.Errorf("refresh session: no refresh token"))
	}
	session, err := c.refresh(ctx, refreshToken)
	if err != nil {
		return Session{}, endSpanError(span, err)
	}
	return session, nil
}

// SignOut revokes the session remotely and always clears the local store.
func (c *Client) SignOut(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "backend.SignOut")
	defer span.End()

	tokens := c.store.Tokens()
	c.store.Clear()
	if tokens.Empty() {
		return nil
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: tokens.AccessToken,
	})
	if err != nil && !IsUnauthorized(err) {
		return endSpanError(span, fmt.Errorf("sign out: %w", err))
	}
	return nil
}

// Select reads rows of collection matching q into dest, which must be a
// pointer to a slice.
func (c *Client) Select(ctx context.Context, collection string, q Query, dest any) error {
	ctx, span := c.startSpan(ctx, "backend.Select", attribute.String("backend.collection", collection))
	defer span.End()

	if err := validateCollection(collection); err != nil {
		return endSpanError(span, err)
	}
	tokens, err := c.currentTokens(ctx)
	if err != nil {
		return endSpanError(span, err)
	}
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + collection,
		query:  q.values(),
		bearer: tokens.AccessToken,
		dest:   dest,
	})
	if err != nil {
		return endSpanError(span, fmt.Errorf("select %s: %w", collection, err))
	}
	return nil
}

// Insert writes row into collection and decodes the stored representation
// into dest when dest is non-nil.
func (c *Client) Insert(ctx context.Context, collection string, row any, dest any) error {
	ctx, span := c.startSpan(ctx, "backend.Insert", attribute.String("backend.collection", collection))
	defer span.End()

	if err := validateCollection(collection); err != nil {
		return endSpanError(span, err)
	}
	tokens, err := c.currentTokens(ctx)
	if err != nil {
		return endSpanError(span, err)
	}
	header := http.Header{}
	if dest != nil {
		header.Set("Prefer", "return=representation")
	} else {
		header.Set("Prefer", "return=minimal")
	}
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + collection,
		bearer: tokens.AccessToken,
		header: header,
		body:   row,
		dest:   dest,
	})
	if err != nil {
		return endSpanError(span, fmt.Errorf("insert %s: %w", collection, err))
	}
	return nil
}

// currentTokens returns usable tokens, refreshing an expired access token.
// Sessions the backend refuses to refresh are cleared and treated as
// anonymous.
func (c *Client) currentTokens(ctx context.Context) (Tokens, error) {
	tokens := c.store.Tokens()
	if tokens.Empty() {
		return Tokens{}, nil
	}
	if !accessTokenExpired(tokens.AccessToken, c.factory.now()) {
		return tokens, nil
	}
	if strings.TrimSpace(tokens.RefreshToken) == "" {
		c.store.Clear()
		return Tokens{}, nil
	}
	session, err := c.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		code := StatusCode(err)
		if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
			c.store.Clear()
			return Tokens{}, nil
		}
		return Tokens{}, err
	}
	return session.Tokens(), nil
}

// refresh exchanges refreshToken once per concurrent burst: refresh tokens
// are single use, so handles racing on the same expired session share one
// grant. The grant runs detached from any one caller, and each caller stops
// waiting when its own context ends.
func (c *Client) refresh(ctx context.Context, refreshToken string) (Session, error) {
	results := c.factory.refreshes.DoChan(refreshToken, func() (any, error) {
		grantCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.BackendRequest)
		defer cancel()
		return c.tokenGrant(grantCtx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	})

	var result singleflight.Result
	select {
	case <-ctx.Done():
		return Session{}, fmt.Errorf("refresh session: %w", ctx.Err())
	case result = <-results:
	}
	if result.Err != nil {
		return Session{}, fmt.Errorf("refresh session: %w", result.Err)
	}
	session := result.Val.(Session)
	c.store.Save(session)
	return session, nil
}

type sessionBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, body map[string]string) (Session, error) {
	var parsed sessionBody
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grantType}},
		body:   body,
		dest:   &parsed,
	})
	if err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return Session{}, fmt.Errorf("token response has no access token")
	}
	session := Session{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		User:         parsed.User,
	}
	switch {
	case parsed.ExpiresAt > 0:
		session.ExpiresAt = unixTime(parsed.ExpiresAt)
	case parsed.ExpiresIn > 0:
		session.ExpiresAt = c.factory.now().Add(secondsDuration(parsed.ExpiresIn)).UTC()
	}
	if session.User.ID == "" {
		session.User.ID = accessTokenSubject(parsed.AccessToken)
	}
	return session, nil
}

func (c *Client) do(ctx context.Context, req request) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
	defer cancel()

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", req.path, err)
		}
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.factory.endpoint(req.path, req.query), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.path, err)
	}
	bearer := strings.TrimSpace(req.bearer)
	if bearer == "" {
		bearer = c.factory.key
	}
	httpReq.Header.Set("apikey", c.factory.key)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.factory.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeStatusError(resp.StatusCode, body)
	}
	if req.dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, req.dest); err != nil {
		return fmt.Errorf("decode %s response: %w", req.path, err)
	}
	return nil
}

func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.factory.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
