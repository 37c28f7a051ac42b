package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous security audit logging. Events are
// buffered on a channel and written by background workers so audit writes
// never sit on the request path.
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
		started:     false,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service.
// Waits for all pending events to be processed.
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. When the buffer is full the
// event is dropped with a warning; a slow audit store must not slow or fail
// logins.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.mu.Unlock()

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// Recent returns a tenant's recorded security events, newest first. Unlike
// the write path this reads synchronously; it serves the operator surface,
// not the request path.
func (s *AuditService) Recent(ctx context.Context, tenantID int64, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.auditRepo.GetByTenantID(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit logs: %w", err)
	}
	return logs, nil
}

// Convenience methods for logging common security events

// LogLoginSucceeded records a successful login
func (s *AuditService) LogLoginSucceeded(user *models.User, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionLoginSucceeded, "user").
		WithTenant(user.TenantID).
		WithUser(user.ID).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogLoginFailed records a failed login attempt. The user pointer is nil when
// the email did not resolve to an account.
func (s *AuditService) LogLoginFailed(email string, user *models.User, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionLoginFailed, "user").
		WithDetails(map[string]interface{}{"email": email}).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	if user != nil {
		log.WithTenant(user.TenantID).WithUser(user.ID)
	}

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserRegistered records a new account registration
func (s *AuditService) LogUserRegistered(user *models.User, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionUserRegistered, "user").
		WithTenant(user.TenantID).
		WithUser(user.ID).
		WithDetails(map[string]interface{}{"email": user.Email, "role": user.Role}).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogTokenRefreshed records a successful refresh token rotation
func (s *AuditService) LogTokenRefreshed(rotated *models.RefreshToken, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionTokenRefreshed, "refresh_token").
		WithTenant(rotated.TenantID).
		WithUser(rotated.SubjectID).
		WithResource(rotated.ID).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogRefreshReplayDetected records a refresh attempt with an already-consumed
// token. These are the events an operator pages on.
func (s *AuditService) LogRefreshReplayDetected(replayed *models.RefreshToken, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionRefreshReplayDetected, "refresh_token").
		WithTenant(replayed.TenantID).
		WithUser(replayed.SubjectID).
		WithResource(replayed.ID).
		WithDetails(map[string]interface{}{
			"revoked_at":     replayed.RevokedAt,
			"replaced_by_id": replayed.ReplacedByID,
		}).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogLogout records a logout with all refresh tokens revoked
func (s *AuditService) LogLogout(subjectID, tenantID int64, meta models.RequestMeta) error {
	log := models.NewAuditLog(models.AuditActionLogout, "user").
		WithTenant(tenantID).
		WithUser(subjectID).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)

	return s.LogEvent(&AuditEvent{Log: log})
}
