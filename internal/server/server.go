// Package server exposes the simulation over a single-client websocket. The
// tick engine and the motion loop share one mutex-guarded sender, so frames
// from both never interleave mid-message.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/archive"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/protocol"
	"github.com/talgya/ai-town/internal/schedule"
	"github.com/talgya/ai-town/internal/sim"
)

// Server accepts one websocket client and runs simulations on its behalf.
type Server struct {
	Addr     string
	Cfg      *config.Tuning
	Brain    *llm.Client
	Profiles map[string]agent.Profile
	Store    *schedule.Store
	Archive  *archive.Archive
	Log      *slog.Logger

	upgrader websocket.Upgrader

	clientMu sync.Mutex
	busy     bool
}

// New builds a server around the shared services.
func New(addr string, cfg *config.Tuning, brain *llm.Client, profiles map[string]agent.Profile, store *schedule.Store, arch *archive.Archive, log *slog.Logger) *Server {
	return &Server{
		Addr:     addr,
		Cfg:      cfg,
		Brain:    brain,
		Profiles: profiles,
		Store:    store,
		Archive:  arch,
		Log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ListenAndServe blocks serving websocket upgrades until the listener fails
// or ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	srv := &http.Server{Addr: s.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.Log.Info("websocket server listening", "addr", s.Addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.clientMu.Lock()
	if s.busy {
		s.clientMu.Unlock()
		http.Error(w, "simulation client already connected", http.StatusConflict)
		return
	}
	s.busy = true
	s.clientMu.Unlock()
	defer func() {
		s.clientMu.Lock()
		s.busy = false
		s.clientMu.Unlock()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sess := &session{
		srv:      s,
		conn:     conn,
		log:      s.Log.With("remote", conn.RemoteAddr().String()),
		thinking: make(map[string]bool),
	}
	sess.log.Info("client connected")
	sess.readLoop(r.Context())
	sess.stopRun()
	sess.log.Info("client disconnected")
}

// session is the state of one connected client: the shared sender, the
// running simulation (if any) and the explicit-thinking overrides.
type session struct {
	srv  *Server
	conn *websocket.Conn
	log  *slog.Logger

	sendMu sync.Mutex

	runMu     sync.Mutex
	current   *sim.Simulation
	cancelRun context.CancelFunc
	runWG     sync.WaitGroup

	thinkMu  sync.Mutex
	thinking map[string]bool
}

// Send serializes a frame and writes its chunks to the client. It is safe for
// concurrent use by the tick engine and the motion loop.
func (c *session) Send(f protocol.Frame) error {
	chunks, err := protocol.MarshalFrame(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	for _, chunk := range chunks {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func (c *session) sendError(msg string) {
	if err := c.Send(protocol.Frame{Type: protocol.TypeError, Message: msg}); err != nil {
		c.log.Warn("send error frame", "err", err)
	}
}

func (c *session) readLoop(ctx context.Context) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("read error", "err", err)
			}
			return
		}

		var cmd protocol.Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendError("無法解析指令: " + err.Error())
			continue
		}

		switch cmd.Command {
		case protocol.CmdStartSimulation:
			c.startRun(ctx, cmd.Params)
		case protocol.CmdAgentTeleport:
			if s := c.simulation(); s != nil {
				s.Teleport(cmd.AgentName, cmd.TargetPortalName)
			}
		case protocol.CmdStepComplete:
			if s := c.simulation(); s != nil {
				s.StepComplete(cmd.StepID)
			}
		case protocol.CmdStartThinking:
			c.setThinking(cmd.AgentName, true)
		case protocol.CmdStopThinking:
			c.setThinking(cmd.AgentName, false)
		default:
			c.log.Warn("unknown command", "command", cmd.Command)
		}
	}
}

// startRun tears down any running simulation, then builds and launches a new
// one with its motion loop.
func (c *session) startRun(ctx context.Context, raw json.RawMessage) {
	params, err := protocol.ParseStart(raw)
	if err != nil {
		c.sendError("啟動參數錯誤: " + err.Error())
		return
	}

	c.stopRun()

	simulation, err := sim.New(params, c.srv.Profiles, c.srv.Store, c.srv.Brain, c.srv.Cfg, c, c.srv.Log)
	if err != nil {
		c.sendError("模擬初始化失敗: " + err.Error())
		return
	}

	runID := c.srv.Archive.BeginRun(params)
	runCtx, cancel := context.WithCancel(ctx)

	c.runMu.Lock()
	c.current = simulation
	c.cancelRun = cancel
	c.runMu.Unlock()

	c.runWG.Add(2)
	go func() {
		defer c.runWG.Done()
		if err := simulation.Run(runCtx); err != nil && runCtx.Err() == nil {
			c.log.Error("simulation run failed", "err", err)
		}
		c.srv.Archive.FinishRun(runID, simulation.FinalReport(), simulation.DisasterEvents(), c.srv.Brain.Log().Snapshot())
		cancel()
	}()
	go func() {
		defer c.runWG.Done()
		c.motionLoop(runCtx, simulation.Agents())
	}()
}

// stopRun cancels the active simulation and motion loop and waits for both to
// exit before returning.
func (c *session) stopRun() {
	c.runMu.Lock()
	cancel := c.cancelRun
	c.cancelRun = nil
	c.current = nil
	c.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.runWG.Wait()
}

func (c *session) simulation() *sim.Simulation {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.current
}

func (c *session) setThinking(agentName string, on bool) {
	if agentName == "" {
		return
	}
	c.thinkMu.Lock()
	if on {
		c.thinking[agentName] = true
	} else {
		delete(c.thinking, agentName)
	}
	c.thinkMu.Unlock()
}

func (c *session) explicitlyThinking(agentName string) bool {
	c.thinkMu.Lock()
	defer c.thinkMu.Unlock()
	return c.thinking[agentName]
}
