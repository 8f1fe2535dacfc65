package server

import (
	"encoding/json"
	"sync"
	"time"

	"wordrush/internal/db"
	"wordrush/internal/game"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const playerStatusLeft = "left"

// persister writes room events to the database from its own goroutine so
// that a slow database never holds up a room. When the queue is full the
// event is dropped and logged; the in-memory room stays authoritative.
type persister struct {
	conn  *gorm.DB
	queue chan game.Event
	done  chan struct{}
	once  sync.Once
}

func newPersister(conn *gorm.DB, size int) *persister {
	p := &persister{conn: conn}
	if conn == nil {
		return p
	}
	if size <= 0 {
		size = 1
	}
	p.queue = make(chan game.Event, size)
	p.done = make(chan struct{})
	go p.run()
	return p
}

func (p *persister) Enqueue(e game.Event) {
	if p.queue == nil {
		return
	}
	select {
	case p.queue <- e:
	default:
		log.Warn().Str("room_id", e.Room()).Str("event", string(e.Type())).Msg("persist queue full, event dropped")
	}
}

func (p *persister) run() {
	defer close(p.done)
	for e := range p.queue {
		if err := p.apply(e); err != nil {
			log.Error().Err(err).Str("room_id", e.Room()).Str("event", string(e.Type())).Msg("persist event failed")
		}
	}
}

// Close must only be called once the dispatcher has stopped feeding events.
func (p *persister) Close() {
	if p.queue == nil {
		return
	}
	p.once.Do(func() {
		close(p.queue)
	})
	<-p.done
}

func (p *persister) apply(e game.Event) error {
	now := time.Now().UTC()
	return p.conn.Transaction(func(tx *gorm.DB) error {
		if err := applyEvent(tx, e, now); err != nil {
			return err
		}
		return appendEvent(tx, e, now)
	})
}

func applyEvent(tx *gorm.DB, e game.Event, now time.Time) error {
	switch ev := e.(type) {
	case game.RoomCreated:
		return createRoom(tx, ev, now)
	case game.PlayerJoined:
		return upsertPlayer(tx, ev.RoomID, ev.Player, now)
	case game.PlayerRejoined:
		return upsertPlayer(tx, ev.RoomID, ev.Player, now)
	case game.PlayerDisconnected:
		return updatePlayer(tx, ev.RoomID, ev.Username, map[string]any{
			"status":     string(game.StatusDisconnected),
			"updated_at": now,
		})
	case game.PlayerLeft:
		if err := updatePlayer(tx, ev.RoomID, ev.Username, map[string]any{
			"status":     playerStatusLeft,
			"left_at":    now,
			"updated_at": now,
		}); err != nil {
			return err
		}
		if ev.NewHost == "" {
			return nil
		}
		if err := updatePlayer(tx, ev.RoomID, ev.NewHost, map[string]any{
			"role":       string(game.RoleHost),
			"updated_at": now,
		}); err != nil {
			return err
		}
		return updateRoom(tx, ev.RoomID, map[string]any{"host_id": ev.NewHost, "updated_at": now})
	case game.ConfigUpdated:
		cfg, err := jsonValue(ev.Config)
		if err != nil {
			return err
		}
		return updateRoom(tx, ev.RoomID, map[string]any{"config": cfg, "updated_at": now})
	case game.GameStarted:
		cfg, err := jsonValue(ev.Config)
		if err != nil {
			return err
		}
		started := ev.StartedAt
		if err := tx.Where("room_id = ?", ev.RoomID).Delete(&db.RoundResult{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.RoomPlayer{}).Where("room_id = ?", ev.RoomID).
			Updates(map[string]any{"score": 0, "updated_at": now}).Error; err != nil {
			return err
		}
		return updateRoom(tx, ev.RoomID, map[string]any{
			"status":     db.RoomStatusActive,
			"phase":      string(ev.Phase),
			"config":     cfg,
			"winner":     "",
			"ranking":    nil,
			"started_at": &started,
			"ended_at":   nil,
			"updated_at": now,
		})
	case game.RoundStarted:
		return updateRoom(tx, ev.RoomID, map[string]any{"phase": string(game.PhasePlaying), "updated_at": now})
	case game.AnswersSubmitted:
		return updatePlayer(tx, ev.RoomID, ev.Username, map[string]any{"score": ev.TotalScore, "updated_at": now})
	case game.RoundEnded:
		if err := saveRoundResults(tx, ev.RoomID, ev.Report, now); err != nil {
			return err
		}
		return updateRoom(tx, ev.RoomID, map[string]any{"phase": string(game.PhaseRoundEnd), "updated_at": now})
	case game.GameFinished:
		ranking, err := jsonValue(ev.Ranking)
		if err != nil {
			return err
		}
		finished := ev.FinishedAt
		return updateRoom(tx, ev.RoomID, map[string]any{
			"status":     db.RoomStatusCompleted,
			"phase":      string(game.PhaseFinished),
			"winner":     ev.Winner,
			"ranking":    ranking,
			"ended_at":   &finished,
			"updated_at": now,
		})
	case game.GameEndedEarly:
		if err := tx.Where("room_id = ?", ev.RoomID).Delete(&db.RoundResult{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.RoomPlayer{}).Where("room_id = ?", ev.RoomID).
			Updates(map[string]any{"score": 0, "updated_at": now}).Error; err != nil {
			return err
		}
		return updateRoom(tx, ev.RoomID, map[string]any{
			"status":     db.RoomStatusCancelled,
			"phase":      string(game.PhaseWaiting),
			"winner":     "",
			"ranking":    nil,
			"started_at": nil,
			"updated_at": now,
		})
	case game.RoomDeleted:
		// A completed game keeps its status when the room goes away.
		return tx.Model(&db.Room{}).
			Where("id = ? AND status IN ?", ev.RoomID, []string{db.RoomStatusActive, db.RoomStatusCancelled}).
			Updates(map[string]any{"status": db.RoomStatusAbandoned, "ended_at": now, "updated_at": now}).Error
	}
	return nil
}

func createRoom(tx *gorm.DB, ev game.RoomCreated, now time.Time) error {
	cfg, err := jsonValue(ev.Config)
	if err != nil {
		return err
	}
	record := db.Room{
		ID:         ev.RoomID,
		JoinCode:   ev.JoinCode,
		HostID:     ev.Host.Username,
		Status:     db.RoomStatusActive,
		Phase:      string(game.PhaseWaiting),
		MaxPlayers: ev.MaxPlayers,
		Config:     cfg,
		CreatedAt:  ev.CreatedAt,
		UpdatedAt:  now,
	}
	if err := tx.Create(&record).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return err
		}
		log.Debug().Str("room_id", ev.RoomID).Msg("room already persisted")
	}
	return upsertPlayer(tx, ev.RoomID, ev.Host, now)
}

func upsertPlayer(tx *gorm.DB, roomID string, player game.PlayerView, now time.Time) error {
	record := db.RoomPlayer{
		RoomID:    roomID,
		Username:  player.Username,
		Avatar:    player.Avatar,
		Guest:     player.Guest,
		Role:      string(player.Role),
		Status:    string(player.Status),
		Score:     player.Score,
		JoinedAt:  player.JoinedAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "username"}},
		DoUpdates: clause.Assignments(map[string]any{
			"avatar":     record.Avatar,
			"guest":      record.Guest,
			"role":       record.Role,
			"status":     record.Status,
			"score":      record.Score,
			"joined_at":  record.JoinedAt,
			"left_at":    nil,
			"updated_at": now,
		}),
	}).Create(&record).Error
}

func saveRoundResults(tx *gorm.DB, roomID string, report game.RoundReport, now time.Time) error {
	if len(report.Results) == 0 {
		return nil
	}
	categories := make([]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		categories = append(categories, c.ID)
	}
	categoriesJSON, err := jsonValue(categories)
	if err != nil {
		return err
	}
	records := make([]db.RoundResult, 0, len(report.Results))
	for _, result := range report.Results {
		answers := result.Answers
		if answers == nil {
			answers = []game.Answer{}
		}
		answersJSON, err := jsonValue(answers)
		if err != nil {
			return err
		}
		records = append(records, db.RoundResult{
			RoomID:     roomID,
			Number:     report.Number,
			Username:   result.Username,
			Letter:     report.Letter,
			Categories: categoriesJSON,
			Answers:    answersJSON,
			Submitted:  result.Submitted,
			RoundScore: result.RoundScore,
			TotalScore: result.TotalScore,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "number"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "submitted", "round_score", "total_score", "updated_at"}),
	}).Create(&records).Error
}

func updateRoom(tx *gorm.DB, roomID string, values map[string]any) error {
	return tx.Model(&db.Room{}).Where("id = ?", roomID).Updates(values).Error
}

func updatePlayer(tx *gorm.DB, roomID, username string, values map[string]any) error {
	return tx.Model(&db.RoomPlayer{}).
		Where("room_id = ? AND username = ?", roomID, username).
		Updates(values).Error
}

func appendEvent(tx *gorm.DB, e game.Event, now time.Time) error {
	payload, err := jsonValue(eventEnvelope(e))
	if err != nil {
		return err
	}
	return tx.Create(&db.Event{
		RoomID:    e.Room(),
		Round:     eventRound(e),
		Username:  eventUser(e),
		Type:      string(e.Type()),
		Payload:   payload,
		CreatedAt: now,
	}).Error
}

func jsonValue(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
