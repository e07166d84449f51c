package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadRetries    = 3
	maxErrorBody          = 512
)

// Client speaks the backend's session, report and pomodoro HTTP contract.
type Client struct {
	baseURL     string
	http        *http.Client
	logger      *slog.Logger
	readRetries uint
	newBackOff  func() backoff.BackOff
}

// New creates a Client. A nil httpClient gets one bounded by config.RequestTimeout.
func New(config model.ClientConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: unsupported scheme", base)
	}
	if httpClient == nil {
		timeout := config.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     base,
		http:        httpClient,
		logger:      logger,
		readRetries: defaultReadRetries,
		newBackOff: func() backoff.BackOff {
			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = 200 * time.Millisecond
			policy.MaxInterval = 2 * time.Second
			return policy
		},
	}, nil
}

// ActiveSession returns the currently open session.
// A 4xx response or an empty body yields ErrNoActiveSession.
func (client *Client) ActiveSession(ctx context.Context) (*model.Session, error) {
	var session *model.Session
	err := client.read(ctx, "/sessions/active", nil, &session)
	if err != nil {
		if IsClientError(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoActiveSession, err)
		}
		return nil, err
	}
	if session == nil || session.ID == "" {
		return nil, ErrNoActiveSession
	}
	return session, nil
}

// Session returns a session along with its recorded activities.
func (client *Client) Session(ctx context.Context, id model.ID) (*model.SessionDetail, error) {
	var detail model.SessionDetail
	if err := client.read(ctx, "/sessions/"+url.PathEscape(id.String()), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateSession opens a new named session.
func (client *Client) CreateSession(ctx context.Context, name string) (*model.Session, error) {
	query := url.Values{"sessionName": []string{name}}
	return client.mutateSession(ctx, http.MethodPost, "/sessions", query)
}

// EndSession ends the session with the given id.
func (client *Client) EndSession(ctx context.Context, id model.ID) (*model.Session, error) {
	return client.mutateSession(ctx, http.MethodPut, sessionPath(id, "end"), nil)
}

// PauseSession pauses the session with the given id.
func (client *Client) PauseSession(ctx context.Context, id model.ID) (*model.Session, error) {
	return client.mutateSession(ctx, http.MethodPut, sessionPath(id, "pause"), nil)
}

// ResumeSession resumes the session with the given id.
func (client *Client) ResumeSession(ctx context.Context, id model.ID) (*model.Session, error) {
	return client.mutateSession(ctx, http.MethodPut, sessionPath(id, "resume"), nil)
}

// DailyReport fetches the report for the calendar day of date.
func (client *Client) DailyReport(ctx context.Context, date time.Time) (*model.ReportSnapshot, error) {
	query := url.Values{"date": []string{date.Format(time.DateOnly)}}
	var report model.ReportSnapshot
	if err := client.read(ctx, "/reports/daily", query, &report); err != nil {
		return nil, err
	}
	report.Period = model.PeriodDaily
	return &report, nil
}

// WeeklyReport fetches the report for the current week.
func (client *Client) WeeklyReport(ctx context.Context) (*model.ReportSnapshot, error) {
	var report model.ReportSnapshot
	if err := client.read(ctx, "/reports/weekly", nil, &report); err != nil {
		return nil, err
	}
	report.Period = model.PeriodWeekly
	return &report, nil
}

// Durations fetches the configured Pomodoro phase lengths.
func (client *Client) Durations(ctx context.Context) (model.Durations, error) {
	var durations model.Durations
	if err := client.read(ctx, "/pomodoro/durations", nil, &durations); err != nil {
		return model.Durations{}, err
	}
	return durations, nil
}

// StartPomodoro opens a work session.
func (client *Client) StartPomodoro(ctx context.Context) (*model.Session, error) {
	return client.mutateSession(ctx, http.MethodPost, "/pomodoro/start", nil)
}

// StartBreak opens a break session.
func (client *Client) StartBreak(ctx context.Context, longBreak bool) (*model.Session, error) {
	query := url.Values{"longBreak": []string{strconv.FormatBool(longBreak)}}
	return client.mutateSession(ctx, http.MethodPost, "/pomodoro/break", query)
}

func sessionPath(id model.ID, action string) string {
	return "/sessions/" + url.PathEscape(id.String()) + "/" + action
}

// mutateSession is single-shot: user-initiated changes are never retried.
func (client *Client) mutateSession(ctx context.Context, method, path string, query url.Values) (*model.Session, error) {
	var session *model.Session
	if err := client.do(ctx, method, path, query, &session); err != nil {
		return nil, err
	}
	return session, nil
}

// read retries transient failures with exponential backoff. 4xx and decode
// errors are permanent.
func (client *Client) read(ctx context.Context, path string, query url.Values, target any) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := client.do(ctx, http.MethodGet, path, query, target)
		if err == nil {
			return struct{}{}, nil
		}
		var decodeErr *decodeError
		if IsClientError(err) || errors.As(err, &decodeErr) {
			return struct{}{}, backoff.Permanent(err)
		}
		client.logger.Debug("api read failed", "path", path, "attempt", attempt, "error", err)
		return struct{}{}, err
	}, backoff.WithBackOff(client.newBackOff()), backoff.WithMaxTries(client.readRetries))
	return err
}

type decodeError struct {
	path string
	err  error
}

func (err *decodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", err.path, err.err)
}

func (err *decodeError) Unwrap() error {
	return err.err
}

func (client *Client) do(ctx context.Context, method, path string, query url.Values, target any) error {
	endpoint := client.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	request.Header.Set("Accept", "application/json")

	started := time.Now()
	response, err := client.http.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	client.logger.Debug("api call", "method", method, "path", path, "status", response.StatusCode, "elapsed", time.Since(started))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > maxErrorBody {
			trimmed = trimmed[:maxErrorBody]
		}
		return &StatusError{Method: method, Path: path, Code: response.StatusCode, Body: string(trimmed)}
	}
	if target == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &decodeError{path: path, err: err}
	}
	return nil
}
