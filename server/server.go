package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toolbridge/toolbridge/agent"
	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// Pipeline is the surface of the orchestrator the facade depends on.
// *agent.Agent implements it.
type Pipeline interface {
	Process(ctx context.Context, userInput, conversationID string, optFns ...func(o *agent.ProcessOptions)) (*agent.Reply, error)
	GetConversation(id string) (*core.Conversation, error)
	DeleteConversation(id string) error
}

var _ Pipeline = (*agent.Agent)(nil)

// Options configure a Server.
type Options struct {
	// Logger receives request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// ReleaseMode silences gin's debug output.
	ReleaseMode bool
}

// Server is the REST facade over the pipeline.
type Server struct {
	pipeline Pipeline
	logger   logging.Logger
	engine   *gin.Engine
}

// New constructs a Server and registers its routes.
func New(pipeline Pipeline, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{pipeline: pipeline, logger: opts.Logger, engine: gin.New()}
	s.engine.Use(gin.Recovery(), corsMiddleware())

	s.engine.GET("/", s.handleHealth)
	s.engine.POST("/process", s.handleProcess)
	s.engine.GET("/conversation/:id", s.handleGetConversation)
	s.engine.DELETE("/conversation/:id", s.handleDeleteConversation)
	return s
}

// Handler returns the underlying http.Handler, mainly for tests and callers
// that manage their own http.Server.
func (s *Server) Handler() http.Handler { return s.engine }

// processRequest is the body of POST /process.
type processRequest struct {
	Input          string `json:"input" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Debug          bool   `json:"debug"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online", "message": "toolbridge is running"})
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var optFns []func(o *agent.ProcessOptions)
	if req.Debug {
		optFns = append(optFns, agent.WithDebug())
	}

	// In-flight external calls run to completion or timeout regardless of
	// client disconnect, so the request context is deliberately not used.
	reply, err := s.pipeline.Process(context.Background(), req.Input, req.ConversationID, optFns...)
	if err != nil {
		s.logger.Error("processing failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error processing input: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleGetConversation(c *gin.Context) {
	id := c.Param("id")
	conv, err := s.pipeline.GetConversation(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("conversation %s not found", id)})
			return
		}
		s.logger.Error("get conversation failed", "conversation_id", id, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conv.ID,
		"messages":        conv.Messages,
		"tool_calls":      conv.ToolCalls,
	})
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if err := s.pipeline.DeleteConversation(id); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("conversation %s not found", id)})
			return
		}
		s.logger.Error("delete conversation failed", "conversation_id", id, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("conversation %s deleted", id)})
}

// corsMiddleware allows browser clients from any origin. Deployments that
// need stricter origins should front the facade with a gateway.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
