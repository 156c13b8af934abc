// Package service provides the core classification service that implements
// the dependencies required by the HTTP API. It owns the calibration store,
// the reference populations, the report cache and the worker pool, and runs
// batches through the normalize -> score -> assign -> report pipeline.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	taskqueue "github.com/okian/fpti/internal/adapters/mq/queue"
	workerpool "github.com/okian/fpti/internal/adapters/mq/worker"
	"github.com/okian/fpti/internal/adapters/repository"
	"github.com/okian/fpti/internal/calibration"
	"github.com/okian/fpti/internal/domain/assign"
	"github.com/okian/fpti/internal/domain/axis"
	"github.com/okian/fpti/internal/domain/cache"
	"github.com/okian/fpti/internal/domain/model"
	"github.com/okian/fpti/internal/domain/normalize"
	"github.com/okian/fpti/internal/domain/report"
	"github.com/okian/fpti/internal/domain/scoring"
	"github.com/okian/fpti/pkg/logger"
	"github.com/okian/fpti/pkg/metrics"
)

// Batch status values.
const (
	BatchPending   = "pending"
	BatchRunning   = "running"
	BatchComplete  = "complete"
	BatchCancelled = "cancelled"
)

// batchRun holds everything one batch's workers share: the immutable profile
// and population, the per-batch pipeline stages, and the indexed result
// slots. Published read-only before the first task is dispatched.
type batchRun struct {
	id         string
	profile    *calibration.Profile
	pop        *normalize.Population
	popTag     string
	normalizer *normalize.Normalizer
	scorers    [axis.Count]scoring.Scorer
	thresholds [axis.Count]float64
	records    []model.RawStatRecord
	reports    []model.ClassificationReport

	wg        sync.WaitGroup
	mu        sync.Mutex
	status    string
	completed int
	createdAt time.Time
}

func (b *batchRun) setStatus(status string) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

func (b *batchRun) markCompleted() {
	b.mu.Lock()
	b.completed++
	b.mu.Unlock()
}

// BatchSnapshot is a point-in-time view of a batch for API consumers.
// Reports are populated only once the batch is complete.
type BatchSnapshot struct {
	ID             string                       `json:"id"`
	ProfileVersion string                       `json:"profile_version"`
	PopulationTag  string                       `json:"population_tag,omitempty"`
	Status         string                       `json:"status"`
	Total          int                          `json:"total"`
	Completed      int                          `json:"completed"`
	Reports        []model.ClassificationReport `json:"reports,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
}

// ProfileInfo summarizes a published calibration profile.
type ProfileInfo struct {
	Version    string             `json:"version"`
	Checksum   string             `json:"checksum"`
	MinMinutes float64            `json:"min_minutes"`
	AxisStats  map[string]int     `json:"axis_stats"`
	Thresholds map[string]float64 `json:"thresholds"`
}

// PopulationInfo summarizes a published reference population.
type PopulationInfo struct {
	Tag      string `json:"tag"`
	Checksum string `json:"checksum"`
	Size     int    `json:"size"`
	Features int    `json:"features"`
}

// Service implements the classification API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       *calibration.Store
	archive     repository.Archive
	reportCache cache.ReportCache
	taskQueue   taskqueue.Queue
	pool        *workerpool.Pool

	batches     map[string]*batchRun
	populations map[string]*normalize.Population

	// Configuration
	workerCount     int
	queueSize       int
	cacheSize       int
	maxBatchRecords int
	profileDir      string
	archivePath     string
	defaultProfile  string
	batchRetention  time.Duration

	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       100_000,
		cacheSize:       50_000,
		maxBatchRecords: 5_000,
		defaultProfile:  "v1",
		batchRetention:  10 * time.Minute,
		batches:         make(map[string]*batchRun),
		populations:     make(map[string]*normalize.Population),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting classification service...")

	storeOpts := []calibration.StoreOption{calibration.WithLogger(s.logger.Named("calibration"))}
	if s.profileDir != "" {
		storeOpts = append(storeOpts, calibration.WithProfileDir(s.profileDir))
	}
	store, err := calibration.NewStore(ctx, storeOpts...)
	if err != nil {
		return fmt.Errorf("calibration store: %w", err)
	}
	s.store = store

	if s.archivePath != "" && s.archive == nil {
		archive, err := repository.NewSQLiteArchive(s.archivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		s.archive = archive
	}
	if s.archive != nil {
		if err := s.syncProfilesToArchive(ctx); err != nil {
			return err
		}
	}

	s.reportCache = cache.NewInMemoryCache(cache.WithMaxSize(s.cacheSize))
	s.taskQueue = taskqueue.NewInMemoryQueue(taskqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.taskQueue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "classification service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("profiles", s.store.Count()),
	)
	return nil
}

// syncProfilesToArchive publishes every in-memory profile to the archive so
// report profile-version fields stay resolvable across restarts.
func (s *Service) syncProfilesToArchive(ctx context.Context) error {
	for _, version := range s.store.Versions(ctx) {
		p, err := s.store.LoadProfile(ctx, version)
		if err != nil {
			return err
		}
		raw, err := s.store.Raw(ctx, version)
		if err != nil {
			return err
		}
		if err := s.archive.SaveProfile(ctx, version, p.Checksum(), raw); err != nil {
			return fmt.Errorf("archive profile %s: %w", version, err)
		}
	}
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping classification service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.taskQueue != nil {
		_ = s.taskQueue.Close()
	}
	if s.archive != nil {
		_ = s.archive.Close()
	}

	s.started = false
	s.logger.Info(ctx, "classification service stopped")
}

// Process implements worker.Processor: it classifies one record of a batch
// and writes the report into the batch's indexed slot.
func (s *Service) Process(ctx context.Context, t taskqueue.Task) error {
	s.mu.RLock()
	run, ok := s.batches[t.BatchID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("task for unknown batch %s: %w", t.BatchID, ErrBatchNotFound)
	}

	run.reports[t.Index] = s.classifyRecord(ctx, run, t.Record)
	run.markCompleted()
	run.wg.Done()
	return nil
}

// Classify runs one batch synchronously and returns reports in input order.
// Structural errors (unknown profile, unknown population) fail the whole
// batch before any record is processed; per-player and per-axis conditions
// are captured inline in the reports.
func (s *Service) Classify(ctx context.Context, version, popTag string, records []model.RawStatRecord) ([]model.ClassificationReport, error) {
	run, err := s.newRun(ctx, version, popTag, records)
	if err != nil {
		return nil, err
	}

	run.setStatus(BatchRunning)
	if err := s.dispatch(ctx, run); err != nil {
		run.wg.Wait() // let in-flight tasks drain before discarding the run
		run.setStatus(BatchCancelled)
		s.dropRun(run.id)
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		run.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		run.setStatus(BatchCancelled)
		// The run must stay registered until its queued tasks drain, or
		// workers would find no slot to complete into. Drop it once the
		// waiter unblocks.
		go func() {
			<-done
			s.dropRun(run.id)
		}()
		return nil, ctx.Err()
	}

	run.setStatus(BatchComplete)
	metrics.RecordBatchCompleted()
	s.dropRun(run.id)
	return run.reports, nil
}

// StartBatch accepts a batch for asynchronous classification and returns its
// id. Dispatch and completion happen in the background; poll with Batch.
// A batch larger than the queue's remaining capacity is rejected with
// ErrBackpressure instead of being accepted and silently degraded.
func (s *Service) StartBatch(ctx context.Context, version, popTag string, records []model.RawStatRecord) (string, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if started {
		if free := s.queueSize - s.taskQueue.Len(ctx); len(records) > free {
			return "", fmt.Errorf("%d records, %d slots free: %w", len(records), free, ErrBackpressure)
		}
	}

	run, err := s.newRun(ctx, version, popTag, records)
	if err != nil {
		return "", err
	}

	go func() {
		// Detach from the request context: the batch outlives the HTTP call.
		bg := context.Background()
		run.setStatus(BatchRunning)
		if err := s.dispatch(bg, run); err != nil {
			s.logger.Error(bg, "batch dispatch failed",
				logger.String("batchID", run.id), logger.Error(err))
			run.wg.Wait()
			run.setStatus(BatchCancelled)
			s.evictAfterRetention(run.id)
			return
		}
		run.wg.Wait()
		run.setStatus(BatchComplete)
		metrics.RecordBatchCompleted()
		s.evictAfterRetention(run.id)
	}()

	return run.id, nil
}

// evictAfterRetention schedules a finished async batch for removal, bounding
// how long completed report slices stay resident.
func (s *Service) evictAfterRetention(id string) {
	time.AfterFunc(s.batchRetention, func() {
		s.dropRun(id)
	})
}

// Batch returns a snapshot of an accepted batch.
func (s *Service) Batch(ctx context.Context, id string) (BatchSnapshot, error) {
	s.mu.RLock()
	run, ok := s.batches[id]
	s.mu.RUnlock()
	if !ok {
		return BatchSnapshot{}, fmt.Errorf("batch %s: %w", id, ErrBatchNotFound)
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	snap := BatchSnapshot{
		ID:             run.id,
		ProfileVersion: run.profile.Version(),
		PopulationTag:  run.popTag,
		Status:         run.status,
		Total:          len(run.records),
		Completed:      run.completed,
		CreatedAt:      run.createdAt,
	}
	if run.status == BatchComplete {
		snap.Reports = run.reports
	}
	return snap, nil
}

// newRun loads the profile, resolves the reference population and builds the
// per-batch pipeline. All structural validation happens here, before any
// record is touched.
func (s *Service) newRun(ctx context.Context, version, popTag string, records []model.RawStatRecord) (*batchRun, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if s.maxBatchRecords > 0 && len(records) > s.maxBatchRecords {
		return nil, fmt.Errorf("%d records, max %d: %w", len(records), s.maxBatchRecords, ErrBatchTooLarge)
	}

	if version == "" {
		version = s.defaultProfile
	}
	profile, err := s.store.LoadProfile(ctx, version)
	if err != nil {
		return nil, err
	}

	var pop *normalize.Population
	if popTag == "" {
		// No published population requested: normalize the batch against
		// itself, the same way the calibration data set was labeled.
		pop = normalize.NewPopulation(records,
			normalize.WithPopulationMinMinutes(profile.MinMinutes()),
		)
	} else {
		pop, err = s.loadPopulation(ctx, popTag)
		if err != nil {
			return nil, err
		}
	}

	run := &batchRun{
		id:         uuid.NewString(),
		profile:    profile,
		pop:        pop,
		popTag:     popTag,
		normalizer: normalize.NewNormalizer(normalize.WithMinMinutes(profile.MinMinutes())),
		thresholds: profile.Thresholds(),
		records:    records,
		reports:    make([]model.ClassificationReport, len(records)),
		status:     BatchPending,
		createdAt:  time.Now().UTC(),
	}
	for _, a := range axis.All() {
		run.scorers[a] = scoring.NewLinearScorer(a, profile.Weights(a),
			scoring.WithMinCoverage(profile.MinCoverage(a)),
		)
	}

	s.mu.Lock()
	s.batches[run.id] = run
	s.mu.Unlock()

	metrics.RecordBatchStarted(len(records))
	return run, nil
}

func (s *Service) dropRun(id string) {
	s.mu.Lock()
	delete(s.batches, id)
	s.mu.Unlock()
}

// dispatch enqueues one task per record. The WaitGroup is incremented per
// dispatched task, so a cancelled dispatch leaves nothing unaccounted for.
// Tasks rejected by a full queue run inline rather than being dropped.
func (s *Service) dispatch(ctx context.Context, run *batchRun) error {
	for i := range run.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		run.wg.Add(1)
		t := taskqueue.Task{BatchID: run.id, Index: i, Record: run.records[i]}
		if !s.taskQueue.Enqueue(ctx, t) {
			run.reports[i] = s.classifyRecord(ctx, run, run.records[i])
			run.markCompleted()
			run.wg.Done()
		}
	}
	return nil
}

// classifyRecord runs the full pipeline for one record. Never fails: every
// outcome, including ineligibility, becomes a report.
func (s *Service) classifyRecord(ctx context.Context, run *batchRun, rec model.RawStatRecord) model.ClassificationReport {
	start := time.Now()
	defer func() {
		metrics.RecordClassificationLatency(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordRecordClassified()

	key := cache.Key{
		PlayerID:           rec.PlayerID,
		RecordVersion:      rec.RecordVersion,
		ProfileVersion:     run.profile.Version(),
		PopulationChecksum: run.pop.Checksum(),
	}
	if rec.RecordVersion != "" {
		if cached, ok := s.reportCache.Get(ctx, key); ok {
			metrics.RecordCacheHit()
			return cached
		}
		metrics.RecordCacheMiss()
	}

	rep := s.runPipeline(run, rec)
	metrics.RecordReport(string(rep.Verdict))

	s.reportCache.Put(ctx, key, rep)
	s.archiveReport(ctx, rec.RecordVersion, rep)
	return rep
}

func (s *Service) runPipeline(run *batchRun, rec model.RawStatRecord) model.ClassificationReport {
	fv, err := run.normalizer.Normalize(rec, run.pop)
	if err != nil {
		return report.BuildIneligible(rec.PlayerID, run.profile.Version(), run.popTag, ineligibleReason(err))
	}

	var outcomes [axis.Count]assign.Outcome
	for _, a := range axis.All() {
		res, err := run.scorers[a].Score(fv)
		outcomes[a] = assign.Outcome{
			Scalar:      res.Scalar,
			Coverage:    res.Coverage,
			Unscoreable: err != nil,
		}
		if err != nil {
			metrics.RecordAxisIndeterminate(a.String())
		}
	}

	asg := assign.Assign(outcomes, run.thresholds)
	return report.Build(rec.PlayerID, run.profile.Version(), run.popTag, asg, outcomes)
}

func ineligibleReason(err error) string {
	switch {
	case errors.Is(err, normalize.ErrInsufficientMinutes):
		return "insufficient_minutes"
	case errors.Is(err, normalize.ErrIneligiblePosition):
		return "ineligible_position"
	default:
		return "ineligible"
	}
}

func (s *Service) archiveReport(ctx context.Context, recordVersion string, rep model.ClassificationReport) {
	if s.archive == nil || recordVersion == "" {
		return
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		s.logger.Error(ctx, "marshal report for archive", logger.Error(err))
		return
	}
	err = s.archive.SaveReport(ctx, repository.ReportRecord{
		PlayerID:       rep.PlayerID,
		RecordVersion:  recordVersion,
		ProfileVersion: rep.ProfileVersion,
		PopulationTag:  rep.PopulationTag,
		Archetype:      rep.Archetype,
		Verdict:        string(rep.Verdict),
		Payload:        payload,
	})
	if err != nil {
		s.logger.Error(ctx, "archive report",
			logger.String("playerID", rep.PlayerID), logger.Error(err))
	}
}

// PublishProfile validates, publishes and archives a calibration profile.
func (s *Service) PublishProfile(ctx context.Context, raw []byte) (ProfileInfo, error) {
	p, err := s.store.Register(ctx, raw)
	if err != nil {
		return ProfileInfo{}, err
	}
	if s.archive != nil {
		if err := s.archive.SaveProfile(ctx, p.Version(), p.Checksum(), raw); err != nil {
			return ProfileInfo{}, err
		}
	}
	return s.profileInfo(p), nil
}

// ProfileInfo returns metadata for a published profile.
// Fails with calibration.ErrProfileNotFound for unknown versions.
func (s *Service) ProfileInfo(ctx context.Context, version string) (ProfileInfo, error) {
	p, err := s.store.LoadProfile(ctx, version)
	if err != nil {
		return ProfileInfo{}, err
	}
	return s.profileInfo(p), nil
}

func (s *Service) profileInfo(p *calibration.Profile) ProfileInfo {
	info := ProfileInfo{
		Version:    p.Version(),
		Checksum:   p.Checksum(),
		MinMinutes: p.MinMinutes(),
		AxisStats:  make(map[string]int, axis.Count),
		Thresholds: make(map[string]float64, axis.Count),
	}
	for _, a := range axis.All() {
		info.AxisStats[a.String()] = p.WeightCount(a)
		info.Thresholds[a.String()] = p.Threshold(a)
	}
	return info
}

// PublishPopulation builds a reference population from records, keeps it for
// classification requests, and archives its snapshot under the tag.
func (s *Service) PublishPopulation(ctx context.Context, tag string, records []model.RawStatRecord, opts ...normalize.PopulationOption) (PopulationInfo, error) {
	if len(records) == 0 {
		return PopulationInfo{}, ErrNoRecords
	}
	opts = append(opts, normalize.WithTag(tag))
	pop := normalize.NewPopulation(records, opts...)

	// Tags are immutable. Republishing identical content is a no-op;
	// different content under a live tag would silently re-baseline every
	// report that names it.
	s.mu.RLock()
	existing, ok := s.populations[tag]
	s.mu.RUnlock()
	if ok && existing.Checksum() != pop.Checksum() {
		return PopulationInfo{}, fmt.Errorf("population %s: %w", tag, ErrPopulationConflict)
	}

	if s.archive != nil {
		payload, err := json.Marshal(pop.Snapshot())
		if err != nil {
			return PopulationInfo{}, fmt.Errorf("marshal population: %w", err)
		}
		if err := s.archive.SavePopulation(ctx, tag, pop.Checksum(), payload); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return PopulationInfo{}, fmt.Errorf("population %s: %w", tag, ErrPopulationConflict)
			}
			return PopulationInfo{}, err
		}
	}

	s.mu.Lock()
	s.populations[tag] = pop
	s.mu.Unlock()

	s.logger.Info(ctx, "population published",
		logger.String("tag", tag),
		logger.Int("size", pop.Size()),
	)
	return PopulationInfo{
		Tag:      tag,
		Checksum: pop.Checksum(),
		Size:     pop.Size(),
		Features: len(pop.Features()),
	}, nil
}

// loadPopulation resolves a published population, preferring the in-memory
// copy and falling back to the archive.
func (s *Service) loadPopulation(ctx context.Context, tag string) (*normalize.Population, error) {
	s.mu.RLock()
	pop, ok := s.populations[tag]
	s.mu.RUnlock()
	if ok {
		return pop, nil
	}

	if s.archive == nil {
		return nil, fmt.Errorf("population %s: %w", tag, ErrPopulationNotFound)
	}
	payload, _, err := s.archive.PopulationPayload(ctx, tag)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("population %s: %w", tag, ErrPopulationNotFound)
		}
		return nil, err
	}
	var snap normalize.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode population %s: %w", tag, err)
	}
	pop = normalize.Restore(snap)

	s.mu.Lock()
	s.populations[tag] = pop
	s.mu.Unlock()
	return pop, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	stats["queueLength"] = s.taskQueue.Len(ctx)
	stats["profiles"] = s.store.Count()
	stats["populations"] = len(s.populations)
	stats["activeBatches"] = len(s.batches)
	stats["cachedReports"] = s.reportCache.Size()

	if s.archive != nil {
		profiles, populations, reports, err := s.archive.Counts(ctx)
		if err == nil {
			stats["archivedProfiles"] = profiles
			stats["archivedPopulations"] = populations
			stats["archivedReports"] = reports
		}
	}

	metrics.UpdateQueueSize(s.taskQueue.Len(ctx))
	return stats
}
