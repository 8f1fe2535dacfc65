package server

import (
	"net/http"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roomURI struct {
	ID string `uri:"id" binding:"required"`
}

type memberQuery struct {
	Username string `form:"username" binding:"required"`
}

type resultsQuery struct {
	Username string `form:"username" binding:"required"`
	Round    int    `form:"round" binding:"min=0"`
}

type createRoomRequest struct {
	Username string `json:"username" binding:"required,username"`
	Avatar   string `json:"avatar" binding:"max=512"`
	Guest    bool   `json:"guest"`
}

type joinRoomRequest struct {
	JoinCode string `json:"join_code" binding:"required,joincode"`
	Username string `json:"username" binding:"required,username"`
	Avatar   string `json:"avatar" binding:"max=512"`
	Guest    bool   `json:"guest"`
}

type rejoinRoomRequest struct {
	JoinCode string `json:"join_code" binding:"required,joincode"`
	Username string `json:"username" binding:"required"`
	Avatar   string `json:"avatar" binding:"max=512"`
}

type memberRequest struct {
	Username string `json:"username" binding:"required"`
}

type chatRequest struct {
	Username string `json:"username" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type configBody struct {
	RoundsCount         int      `json:"rounds_count" binding:"required,min=1,max=10"`
	SupportedCategories []string `json:"supported_categories" binding:"required,min=1,dive,category"`
	ExcludedLetters     []string `json:"excluded_letters" binding:"omitempty,dive,letter"`
}

func (b configBody) toConfig() game.Config {
	return game.Config{
		RoundsCount:         b.RoundsCount,
		SupportedCategories: b.SupportedCategories,
		ExcludedLetters:     b.ExcludedLetters,
	}
}

type configRequest struct {
	Username string `json:"username" binding:"required"`
	configBody
}

type startRequest struct {
	Username string      `json:"username" binding:"required"`
	Config   *configBody `json:"config"`
}

type answerBody struct {
	Category string `json:"category" binding:"required,category"`
	Word     string `json:"word" binding:"max=64"`
	TimeLeft int    `json:"time_left" binding:"min=0"`
}

type answersRequest struct {
	Username string       `json:"username" binding:"required"`
	Answers  []answerBody `json:"answers" binding:"dive"`
}

var configMessages = bindMessages{
	"RoundsCount": {
		"required": "rounds_count must be between 1 and 10",
		"min":      "rounds_count must be between 1 and 10",
		"max":      "rounds_count must be between 1 and 10",
	},
	"SupportedCategories": {
		"required": "at least one category is required",
		"min":      "at least one category is required",
		"category": "unknown category",
	},
	"ExcludedLetters": {
		"letter": "excluded letters must be single letters A-Z",
	},
}

var answerMessages = bindMessages{
	"Category": {
		"required": "category is required",
		"category": "unknown category",
	},
	"Word": {
		"max": "answer must be 64 characters or fewer",
	},
	"TimeLeft": {
		"min": "time_left must not be negative",
	},
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rooms":  s.svc.Registry().Len(),
	})
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": game.Categories()})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req, nil, "invalid room request") {
		return
	}
	res, err := s.svc.CreateRoom(req.Username, req.Avatar, req.Guest)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", res.Room.RoomID).Str("join_code", res.Room.JoinCode).Str("username", res.Room.HostID).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"room": res.Room})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bindJSON(c, &req, nil, "invalid join request") {
		return
	}
	res, err := s.svc.JoinRoom(req.JoinCode, req.Username, req.Avatar, req.Guest)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", res.Room.RoomID).Str("username", req.Username).Msg("player joined")
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleRejoinRoom(c *gin.Context) {
	var req rejoinRoomRequest
	if !bindJSON(c, &req, nil, "invalid rejoin request") {
		return
	}
	res, err := s.svc.RejoinRoom(req.JoinCode, req.Username, req.Avatar)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", res.Room.RoomID).Str("username", req.Username).Msg("player rejoined")
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleGetRoom(c *gin.Context) {
	var uri roomURI
	var query memberQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}
	snap, err := s.svc.Snapshot(uri.ID, query.Username)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": snap})
}

func (s *Server) handleLeave(c *gin.Context) {
	var uri roomURI
	var req memberRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, nil, "invalid leave request") {
		return
	}
	res, err := s.svc.Leave(uri.ID, req.Username)
	if err != nil {
		writeGameError(c, err)
		return
	}
	event := log.Info().Str("room_id", uri.ID).Str("username", req.Username)
	if res.NewHost != "" {
		event = event.Str("new_host", res.NewHost)
	}
	event.Bool("deleted", res.Deleted).Msg("player left")
	c.JSON(http.StatusOK, gin.H{
		"deleted":  res.Deleted,
		"new_host": res.NewHost,
		"room":     res.Room,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var uri roomURI
	var req chatRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, bindMessages{"Message": {"required": "message is required"}}, "invalid chat message") {
		return
	}
	msg, err := s.svc.SendChat(uri.ID, req.Username, req.Message)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (s *Server) handleConfig(c *gin.Context) {
	var uri roomURI
	var req configRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, configMessages, "invalid config") {
		return
	}
	res, err := s.svc.UpdateConfig(uri.ID, req.Username, req.toConfig())
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleStart(c *gin.Context) {
	var uri roomURI
	var req startRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, configMessages, "invalid start request") {
		return
	}
	var cfg *game.Config
	if req.Config != nil {
		converted := req.Config.toConfig()
		cfg = &converted
	}
	res, err := s.svc.StartGame(uri.ID, req.Username, cfg)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", uri.ID).Int("rounds", res.Room.TotalRounds).Msg("game started")
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleAnswers(c *gin.Context) {
	var uri roomURI
	var req answersRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, answerMessages, "invalid answers") {
		return
	}
	answers := make([]game.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, game.AnswerSubmission{Category: a.Category, Word: a.Word, TimeLeft: a.TimeLeft})
	}
	res, err := s.svc.SubmitAnswers(c.Request.Context(), uri.ID, req.Username, answers)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", uri.ID).Str("username", req.Username).Int("round", res.Round).Int("round_score", res.RoundScore).Msg("answers submitted")
	c.JSON(http.StatusOK, gin.H{
		"round":          res.Round,
		"answers":        res.Answers,
		"round_score":    res.RoundScore,
		"total_score":    res.TotalScore,
		"round_complete": res.RoundComplete,
		"room":           res.Room,
	})
}

func (s *Server) handleNextRound(c *gin.Context) {
	var uri roomURI
	var req memberRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, nil, "invalid request") {
		return
	}
	res, err := s.svc.NextRound(uri.ID, req.Username)
	if err != nil {
		writeGameError(c, err)
		return
	}
	if res.Room.Phase == game.PhaseFinished {
		log.Info().Str("room_id", uri.ID).Str("winner", res.Room.Winner).Msg("game finished")
	}
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleEndGame(c *gin.Context) {
	var uri roomURI
	var req memberRequest
	if !bindURI(c, &uri) || !bindJSON(c, &req, nil, "invalid request") {
		return
	}
	res, err := s.svc.EndGame(uri.ID, req.Username)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("room_id", uri.ID).Str("username", req.Username).Msg("game ended early")
	c.JSON(http.StatusOK, gin.H{"room": res.Room})
}

func (s *Server) handleRoundResults(c *gin.Context) {
	var uri roomURI
	var query resultsQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}
	report, err := s.svc.RoundResults(uri.ID, query.Username, query.Round)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": report})
}

func (s *Server) handleSummary(c *gin.Context) {
	var uri roomURI
	var query memberQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}
	summary, err := s.svc.Summary(uri.ID, query.Username)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
