package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"toll-engine/internal/model"
	"toll-engine/internal/registry"
	"toll-engine/internal/utils"
)

// TripSink is the durability point for closed trips. Append must be
// atomic per record and assign the ledger sequence id.
type TripSink interface {
	Append(ctx context.Context, trip *model.Trip) (uint64, error)
}

type Config struct {
	SessionTimeout  time.Duration
	RegistryTimeout time.Duration
}

// Result is the outcome of submitting one detection event.
type Result struct {
	Accepted  bool
	Duplicate bool
	Trip      *model.Trip
}

// session is the mutable correlation of sightings for one plate inside
// one zone. It lives only in the active set; closing converts it to an
// immutable trip record.
type session struct {
	plate      string
	zoneID     uuid.UUID
	status     model.TripStatus
	sightings  []model.Sighting
	openedAt   time.Time
	lastSeenAt time.Time
	snap       ZoneSnapshot
}

const sessionShards = 64

type sessionShard struct {
	mu       sync.Mutex
	sessions map[string]*session

	// parked holds closed trips whose ledger append has not been
	// confirmed, in close order. New sightings for the plate keep
	// flowing into a fresh session while the queue drains.
	parked map[string][]*model.Trip
}

// Manager owns all trip sessions. Mutations for one plate are
// serialized through its shard lock; distinct plates proceed in
// parallel.
type Manager struct {
	topo *Topology
	gate *DedupGate
	reg  registry.Gateway
	sink TripSink
	log  zerolog.Logger
	cfg  Config

	arrival atomic.Uint64
	shards  [sessionShards]sessionShard
}

func NewManager(topo *Topology, gate *DedupGate, reg registry.Gateway, sink TripSink, log zerolog.Logger, cfg Config) *Manager {
	m := &Manager{
		topo: topo,
		gate: gate,
		reg:  reg,
		sink: sink,
		log:  log,
		cfg:  cfg,
	}
	for i := range m.shards {
		m.shards[i].sessions = make(map[string]*session)
		m.shards[i].parked = make(map[string][]*model.Trip)
	}
	return m
}

// Submit applies one detection event: dedup, classification, session
// transition and, on a closing transition, toll computation and ledger
// append.
func (m *Manager) Submit(ctx context.Context, event model.PlateDetectionEvent) (Result, error) {
	plate := utils.NormalizePlate(event.Plate)
	if plate == "" {
		return Result{}, ErrInvalidPlate
	}
	site, ok := m.topo.CameraSite(event.CameraCode)
	if !ok {
		return Result{}, ErrUnknownCamera
	}

	if !m.gate.Admit(plate, site.Code, event.DetectedAt) {
		m.log.Debug().Str("plate", plate).Str("camera", site.Code).Msg("duplicate sighting suppressed")
		return Result{Duplicate: true}, nil
	}

	sh := m.shardFor(plate)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sighting := model.Sighting{
		CameraCode: site.Code,
		At:         event.DetectedAt,
		ArrivalSeq: m.arrival.Add(1),
	}

	key := sessionKey(plate, site.ZoneID)
	sess := sh.sessions[key]

	if sess == nil {
		snap, ok := m.topo.Snapshot(site.ZoneID)
		if !ok {
			return Result{}, ErrUnknownZone
		}

		// An exit-only camera with no open session means the vehicle was
		// never seen entering: synthesize a bypassed trip on the spot.
		if isExitCamera(snap, site.Code) && !isEntryCamera(snap, site.Code) {
			return m.closeSynthetic(ctx, sh, key, plate, snap, sighting)
		}

		sess = &session{
			plate:      plate,
			zoneID:     site.ZoneID,
			status:     model.TripStatusOpen,
			sightings:  []model.Sighting{sighting},
			openedAt:   event.DetectedAt,
			lastSeenAt: time.Now(),
			snap:       snap,
		}
		sh.sessions[key] = sess
		m.log.Info().Str("plate", plate).Str("camera", site.Code).Str("zone_id", site.ZoneID.String()).Msg("trip session opened")
		return Result{Accepted: true}, nil
	}

	class := classify(sess.snap, site.Code, collapseCodes(sess.sightings))
	if class == ClassExit {
		return m.closeSession(ctx, sh, key, sess, sighting)
	}

	sess.sightings = append(sess.sightings, sighting)
	sess.lastSeenAt = time.Now()
	m.log.Debug().Str("plate", plate).Str("camera", site.Code).Str("class", class.String()).Msg("sighting recorded")
	return Result{Accepted: true}, nil
}

func (m *Manager) closeSession(ctx context.Context, sh *sessionShard, key string, sess *session, exit model.Sighting) (Result, error) {
	sess.sightings = append(sess.sightings, exit)
	orderByArrival(sess.sightings)

	owner := m.resolveOwner(ctx, sess.plate)
	status := model.TripStatusBypassed
	if pathwayMatched(sess.snap, sess.sightings) {
		if owner.Registered {
			status = model.TripStatusCompleted
		} else {
			status = model.TripStatusInvoicePending
		}
	}

	sess.status = status
	closedAt := sess.sightings[len(sess.sightings)-1].At
	trip := buildTrip(sess, status, owner, closedAt)
	return m.finalize(ctx, sh, key, trip)
}

func (m *Manager) closeSynthetic(ctx context.Context, sh *sessionShard, key, plate string, snap ZoneSnapshot, sighting model.Sighting) (Result, error) {
	sess := &session{
		plate:     plate,
		zoneID:    snap.ZoneID,
		status:    model.TripStatusBypassed,
		sightings: []model.Sighting{sighting},
		openedAt:  sighting.At,
		snap:      snap,
	}
	owner := m.resolveOwner(ctx, plate)
	trip := buildTrip(sess, model.TripStatusBypassed, owner, sighting.At)
	m.log.Info().Str("plate", plate).Str("camera", sighting.CameraCode).Msg("orphaned exit, synthesizing bypassed trip")
	return m.finalize(ctx, sh, key, trip)
}

// finalize makes the closed trip durable. Earlier trips parked for the
// same key are appended first, preserving per-plate ledger order. On
// failure the trip joins the parked queue; the session slot is freed
// either way, so no later sighting is ever lost to a ledger outage.
func (m *Manager) finalize(ctx context.Context, sh *sessionShard, key string, trip *model.Trip) (Result, error) {
	delete(sh.sessions, key)

	if err := m.flushParked(ctx, sh, key); err != nil {
		sh.parked[key] = append(sh.parked[key], trip)
		m.log.Error().Err(err).Str("plate", trip.Plate).Msg("ledger append failed, trip parked behind earlier trips")
		return Result{Accepted: true}, fmt.Errorf("ledger append deferred: %w", err)
	}

	seq, err := m.sink.Append(ctx, trip)
	if err != nil {
		sh.parked[key] = append(sh.parked[key], trip)
		m.log.Error().Err(err).Str("plate", trip.Plate).Msg("ledger append failed, trip parked for retry")
		return Result{Accepted: true}, fmt.Errorf("ledger append failed: %w", err)
	}
	trip.Seq = seq

	m.log.Info().
		Str("plate", trip.Plate).
		Str("zone_id", trip.ZoneID.String()).
		Str("status", string(trip.Status)).
		Float64("toll", trip.Toll).
		Uint64("seq", seq).
		Msg("trip closed")
	return Result{Accepted: true, Trip: trip}, nil
}

// flushParked drains the parked queue for one key in close order,
// stopping at the first append failure.
func (m *Manager) flushParked(ctx context.Context, sh *sessionShard, key string) error {
	queue := sh.parked[key]
	for len(queue) > 0 {
		seq, err := m.sink.Append(ctx, queue[0])
		if err != nil {
			sh.parked[key] = queue
			return err
		}
		queue[0].Seq = seq
		queue = queue[1:]
	}
	delete(sh.parked, key)
	return nil
}

// Sweep retries parked ledger appends and force-closes idle sessions.
// It takes the same per-plate locks as Submit, so it never races an
// in-flight sighting.
func (m *Manager) Sweep(ctx context.Context, now time.Time) {
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for key := range sh.parked {
			if err := m.flushParked(ctx, sh, key); err != nil {
				m.log.Warn().Err(err).Str("key", key).Msg("ledger append retry failed")
			}
		}
		for key, sess := range sh.sessions {
			if now.Sub(sess.lastSeenAt) < m.cfg.SessionTimeout {
				continue
			}
			m.forceClose(ctx, sh, key, sess)
		}
		sh.mu.Unlock()
	}
	m.gate.Prune(now)
}

// RunSweeper drives Sweep on a fixed interval until the context ends.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.Sweep(ctx, now)
		}
	}
}

func (m *Manager) forceClose(ctx context.Context, sh *sessionShard, key string, sess *session) {
	orderByArrival(sess.sightings)

	owner := m.resolveOwner(ctx, sess.plate)
	status := model.TripStatusInvoicePending
	if owner.Registered {
		status = model.TripStatusCompleted
	}

	closedAt := sess.sightings[len(sess.sightings)-1].At
	sess.status = status
	trip := buildTrip(sess, status, owner, closedAt)
	m.log.Info().Str("plate", sess.plate).Str("status", string(status)).Msg("idle session force-closed")
	if _, err := m.finalize(ctx, sh, key, trip); err != nil {
		m.log.Warn().Err(err).Str("plate", sess.plate).Msg("force-close append deferred to next sweep")
	}
}

// ActiveSessions counts open sessions across shards.
func (m *Manager) ActiveSessions() int {
	total := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		total += len(sh.sessions)
		sh.mu.Unlock()
	}
	return total
}

// ParkedTrips counts closed trips awaiting a ledger append retry.
func (m *Manager) ParkedTrips() int {
	total := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for _, queue := range sh.parked {
			total += len(queue)
		}
		sh.mu.Unlock()
	}
	return total
}

func (m *Manager) resolveOwner(ctx context.Context, plate string) registry.Owner {
	rctx, cancel := context.WithTimeout(ctx, m.cfg.RegistryTimeout)
	defer cancel()

	owner, err := m.reg.Resolve(rctx, plate)
	if err != nil {
		m.log.Warn().Err(err).Str("plate", plate).Msg("registry resolution failed, treating as unregistered")
		return registry.Owner{Name: "Unregistered"}
	}
	if owner.Name == "" {
		owner.Name = "Unregistered"
	}
	return owner
}

// orderByArrival sorts sightings by the engine arrival counter. Camera
// clocks may disagree; arrival order is the ordering of record for
// matching and pricing.
func orderByArrival(sightings []model.Sighting) {
	sort.Slice(sightings, func(i, j int) bool {
		return sightings[i].ArrivalSeq < sightings[j].ArrivalSeq
	})
}

func buildTrip(sess *session, status model.TripStatus, owner registry.Owner, closedAt time.Time) *model.Trip {
	return &model.Trip{
		ID:         uuid.New(),
		Plate:      sess.plate,
		ZoneID:     sess.zoneID,
		Status:     status,
		Toll:       computeToll(status, sess.snap, sess.sightings),
		OwnerName:  owner.Name,
		Registered: owner.Registered,
		Sightings:  append([]model.Sighting(nil), sess.sightings...),
		OpenedAt:   sess.openedAt,
		ClosedAt:   closedAt,
	}
}

func (m *Manager) shardFor(plate string) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(plate))
	return &m.shards[h.Sum32()%sessionShards]
}

func sessionKey(plate string, zoneID uuid.UUID) string {
	return plate + "|" + zoneID.String()
}
