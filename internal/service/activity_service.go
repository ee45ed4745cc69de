package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/dto"
)

const activityBufferSize = 16

// ActivityService fans grading events out to every client watching a
// session, across nodes via Redis pub/sub and NATS.
type ActivityService interface {
	Publish(ctx context.Context, event dto.ActivityEvent)
	Subscribe(sessionID string) (<-chan dto.ActivityEvent, func())
	Start(ctx context.Context)
}

type activityService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *activityBroker
	nodeID      string
}

type activityEnvelope struct {
	Source string            `json:"source"`
	Event  dto.ActivityEvent `json:"event"`
}

type activityBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ActivityEvent]struct{}
}

// NewActivityService constructs the session activity feed.
func NewActivityService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ActivityService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":activity"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".activity"
	}

	return &activityService{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "activity_service").Logger(),
		broker: &activityBroker{
			subscribers: make(map[string]map[chan dto.ActivityEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *activityService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish delivers the event to local subscribers immediately and to the
// brokers best-effort. Grading never fails because the feed is down.
func (s *activityService) Publish(ctx context.Context, event dto.ActivityEvent) {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	s.broker.broadcast(event.SessionID, event)

	payload, err := json.Marshal(activityEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish activity event to redis")
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish activity event to nats")
		}
	}
}

func (s *activityService) Subscribe(sessionID string) (<-chan dto.ActivityEvent, func()) {
	channel := make(chan dto.ActivityEvent, activityBufferSize)
	s.broker.subscribe(sessionID, channel)

	cleanup := func() {
		s.broker.unsubscribe(sessionID, channel)
	}
	return channel, cleanup
}

func (s *activityService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("activity redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *activityService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "markdesk-activity", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats activity subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain activity nats subscription")
		}
	}()
}

func (s *activityService) handleEnvelope(payload []byte) {
	var envelope activityEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid activity event payload")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}
	s.broker.broadcast(envelope.Event.SessionID, envelope.Event)
}

func (b *activityBroker) subscribe(sessionID string, ch chan dto.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sessionID]; !exists {
		b.subscribers[sessionID] = make(map[chan dto.ActivityEvent]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
}

func (b *activityBroker) unsubscribe(sessionID string, ch chan dto.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[sessionID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, sessionID)
		}
	}
}

func (b *activityBroker) broadcast(sessionID string, event dto.ActivityEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}
