package forum

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/validation"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/repository"
)

// AnonymousAuthor signs posts whose author has no stored profile.
const AnonymousAuthor = "Estudiante"

type TopicInput struct {
	Title   string   `json:"title" validate:"notblank,max=200"`
	Content string   `json:"content" validate:"notblank"`
	Subject string   `json:"subject" validate:"notblank"`
	Tags    []string `json:"tags" validate:"max=10,dive,notblank"`
}

type ReplyInput struct {
	Content string `json:"content" validate:"notblank"`
}

// UseCase is the collaborative forum. Topics live in process memory only.
type UseCase struct {
	mu        sync.RWMutex
	topics    []domain.Topic
	ids       *repository.IDSequence
	users     repository.UserRepository
	validator *validation.Validator
	clock     clock.Clock
	logger    *zap.Logger
}

func New(users repository.UserRepository, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &UseCase{
		ids:       repository.NewIDSequence(clk.Now),
		users:     users,
		validator: validation.New(),
		clock:     clk,
		logger:    logger,
	}
}

// Seed installs the sample discussion threads shown to new visitors.
func (uc *UseCase) Seed() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.topics = sampleTopics()
	for _, t := range uc.topics {
		uc.ids.Observe(t.ID)
		for _, r := range t.Replies {
			uc.ids.Observe(r.ID)
		}
	}
}

// List returns pinned topics first, then the rest by most recent activity.
func (uc *UseCase) List(_ context.Context, subject string) []domain.Topic {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]domain.Topic, 0, len(uc.topics))
	for _, t := range uc.topics {
		if subject != "" && subject != "all" && !strings.EqualFold(t.Subject, subject) {
			continue
		}
		out = append(out, cloneTopic(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// Get returns a topic and counts the view.
func (uc *UseCase) Get(_ context.Context, id int64) (*domain.Topic, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrTopicNotFound
	}
	uc.topics[idx].Views++
	topic := cloneTopic(uc.topics[idx])
	return &topic, nil
}

func (uc *UseCase) Create(ctx context.Context, userID string, in TopicInput) (*domain.Topic, error) {
	if err := uc.validator.Struct(&in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	topic := domain.Topic{
		ID:           uc.ids.Next(),
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
		Author:       uc.authorName(ctx, userID),
		Subject:      strings.TrimSpace(in.Subject),
		Tags:         append([]string(nil), in.Tags...),
		Replies:      []domain.Reply{},
		LastActivity: now,
		CreatedAt:    now,
	}

	uc.mu.Lock()
	uc.topics = append(uc.topics, topic)
	uc.mu.Unlock()

	uc.logger.Info("forum topic created", zap.Int64("topic_id", topic.ID), zap.String("subject", topic.Subject))
	out := cloneTopic(topic)
	return &out, nil
}

func (uc *UseCase) Reply(ctx context.Context, userID string, topicID int64, in ReplyInput) (*domain.Topic, error) {
	if err := uc.validator.Struct(&in); err != nil {
		return nil, err
	}
	author := uc.authorName(ctx, userID)
	now := uc.clock.Now()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(topicID)
	if idx < 0 {
		return nil, domain.ErrTopicNotFound
	}
	uc.topics[idx].Replies = append(uc.topics[idx].Replies, domain.Reply{
		ID:        uc.ids.Next(),
		Content:   strings.TrimSpace(in.Content),
		Author:    author,
		CreatedAt: now,
	})
	uc.topics[idx].LastActivity = now
	topic := cloneTopic(uc.topics[idx])
	return &topic, nil
}

func (uc *UseCase) Like(_ context.Context, topicID int64) (*domain.Topic, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(topicID)
	if idx < 0 {
		return nil, domain.ErrTopicNotFound
	}
	uc.topics[idx].Likes++
	topic := cloneTopic(uc.topics[idx])
	return &topic, nil
}

func (uc *UseCase) indexOf(id int64) int {
	for i := range uc.topics {
		if uc.topics[i].ID == id {
			return i
		}
	}
	return -1
}

func (uc *UseCase) authorName(ctx context.Context, userID string) string {
	if uc.users == nil || userID == "" {
		return AnonymousAuthor
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil || strings.TrimSpace(user.Name) == "" {
		if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.logger.Warn("forum author lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return AnonymousAuthor
	}
	return user.Name
}

func cloneTopic(t domain.Topic) domain.Topic {
	t.Tags = append([]string(nil), t.Tags...)
	replies := make([]domain.Reply, len(t.Replies))
	copy(replies, t.Replies)
	t.Replies = replies
	return t
}

func sampleTopics() []domain.Topic {
	at := func(value string) time.Time {
		ts, _ := time.Parse("2006-01-02T15:04:05", value)
		return ts
	}
	return []domain.Topic{
		{
			ID:      1,
			Title:   "¿Alguien tiene apuntes de la clase de Termodinámica del viernes?",
			Content: "Hola compañeros, no pude asistir a la clase del viernes pasado sobre termodinámica. ¿Alguien podría compartir sus apuntes? Especialmente necesito la parte sobre el segundo principio. ¡Gracias de antemano!",
			Author:  "Carlos Mendoza",
			Subject: "Física",
			Tags:    []string{"Física", "Termodinámica", "Apuntes"},
			Replies: []domain.Reply{
				{
					ID:        2,
					Content:   "¡Hola Carlos! Yo tengo los apuntes completos de esa clase. Te los puedo compartir por email. La parte del segundo principio está muy bien explicada con ejemplos prácticos.",
					Author:    "Ana Rodríguez",
					CreatedAt: at("2024-01-12T10:30:00"),
				},
				{
					ID:        3,
					Content:   "También recomiendo revisar el capítulo 5 del libro de Cengel, tiene ejercicios muy similares a los que vimos en clase.",
					Author:    "Miguel Torres",
					CreatedAt: at("2024-01-12T11:15:00"),
				},
			},
			Views:        45,
			Likes:        12,
			IsHot:        true,
			LastActivity: at("2024-01-12T11:15:00"),
			CreatedAt:    at("2024-01-12T09:00:00"),
		},
		{
			ID:           4,
			Title:        "Grupo de estudio para el parcial de Historia Contemporánea",
			Content:      "Estoy organizando un grupo de estudio para el parcial de Historia Contemporánea que es el próximo mes. La idea es reunirnos 2 veces por semana para repasar los temas más importantes. ¿Quién se apunta?",
			Author:       "Ana Rodríguez",
			Subject:      "Historia",
			Tags:         []string{"Historia", "Grupo de Estudio", "Parcial"},
			Replies:      []domain.Reply{},
			Views:        28,
			Likes:        8,
			LastActivity: at("2024-01-11T14:00:00"),
			CreatedAt:    at("2024-01-11T14:00:00"),
		},
	}
}
