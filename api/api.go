package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/JackBinary/SyncStream/config"
	"github.com/JackBinary/SyncStream/model"
	"github.com/JackBinary/SyncStream/pkg/media"
	"github.com/JackBinary/SyncStream/pkg/ratelimit"
	"github.com/JackBinary/SyncStream/pkg/utils"
	"github.com/JackBinary/SyncStream/room"
	"github.com/JackBinary/SyncStream/storage"
)

type API struct {
	echo     *echo.Echo
	config   *config.Config
	storage  storage.Storage
	registry *room.Registry
	limiter  *ratelimit.Limiter
}

func New(c *config.Config, s storage.Storage) *API {
	api := &API{
		echo:     echo.New(),
		config:   c,
		storage:  s,
		registry: room.NewRegistry(c.MaxRooms),
		limiter:  ratelimit.New(ratelimit.DefaultRules()),
	}

	api.echo.HideBanner = true
	api.echo.Use(middleware.CORS())

	api.echo.GET("/", api.index)
	api.echo.Static("/static", c.StaticDir)
	api.echo.POST("/room", api.createRoom)
	api.echo.GET("/stats", api.stats)
	api.echo.Any("/ws/:code", api.websocket)

	return api
}

func (api *API) Start() error {
	return api.echo.Start(":" + strconv.Itoa(api.config.HttpPort))
}

func (api *API) Close(ctx context.Context) error {
	api.limiter.Close()
	return api.echo.Shutdown(ctx)
}

// Serves the player page
func (api *API) index(c echo.Context) error {
	_, err := api.storage.IncrVisits()
	if err != nil {
		log.Error(err)
	}
	return c.File(filepath.Join(api.config.StaticDir, "index.html"))
}

// Hands out an unused room code. The room itself only comes into
// existence on the first websocket join.
func (api *API) createRoom(c echo.Context) error {
	for i := 0; i < 10; i++ {
		code := utils.RandCode(utils.RoomCodeLength)
		if !api.registry.Exists(code) {
			return c.JSON(http.StatusOK, map[string]string{"code": code})
		}
	}
	return echo.NewHTTPError(http.StatusConflict)
}

// Returns today's visits and the active room count
func (api *API) stats(c echo.Context) error {
	visits, err := api.storage.GetVisitsByDate(time.Now())
	if err != nil {
		log.Error(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{
		"visits": visits,
		"rooms":  int64(api.registry.Count()),
	})
}

// Endpoint to establish a websocket connection to a room
func (api *API) websocket(c echo.Context) error {
	addr := c.RealIP()

	conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
	if err != nil {
		log.Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}

	if !api.limiter.Allow(addr, ratelimit.ActionConnect) {
		closePolicy(conn, "Rate limited")
		return nil
	}

	code, ok := utils.NormalizeRoomCode(c.Param("code"))
	if !ok {
		closePolicy(conn, "Invalid room code")
		return nil
	}

	client := model.NewClient(conn, addr)
	rm, snap, err := api.registry.Join(code, client)
	if err != nil {
		closePolicy(conn, "Server full")
		return nil
	}

	api.serveClient(rm, client, snap)
	return nil
}

// closePolicy rejects an upgraded connection with a 1008 close frame
func closePolicy(conn net.Conn, reason string) {
	frame := ws.NewCloseFrameBody(ws.StatusPolicyViolation, reason)
	if err := wsutil.WriteServerMessage(conn, ws.OpClose, frame); err != nil {
		log.Info(err)
	}
	_ = conn.Close()
}

// Serves one member's websocket connection until it drops
func (api *API) serveClient(rm *room.Room, client *model.Client, snap room.Snapshot) {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.Ping(); err != nil {
					log.Info(err)
				}
			}
		}
	}()

	// Teardown runs exactly once, whatever ends the receive loop
	defer func() {
		close(done)
		_ = client.Close()
		remaining := api.registry.Leave(rm.Code, client)
		if remaining > 0 {
			rm.Broadcast(model.NewViewers(remaining), "")
			rm.Broadcast(model.NewSystem(client.Nick+" left"), "")
		}
		log.Infof("%s disconnected from room %s", client.Nick, rm.Code)
	}()

	state := model.NewState(snap.Current, snap.Queue, snap.Playing, snap.Position, snap.Viewers)
	if err := client.SendJSON(state); err != nil {
		log.Warn(err)
		return
	}
	rm.Broadcast(model.NewViewers(snap.Viewers), client.ID())

	for {
		b, err := client.Receive()
		if err != nil {
			break
		}

		var msg model.Inbound
		if err = json.Unmarshal(b, &msg); err != nil {
			log.Warnf("room %s: malformed frame: %v", rm.Code, err)
			continue
		}
		if msg.Type == "" {
			log.Warnf("room %s: frame without a type", rm.Code)
			continue
		}

		api.dispatch(rm, client, &msg)
	}
}

// dispatch applies one inbound message to the client's room
func (api *API) dispatch(rm *room.Room, client *model.Client, msg *model.Inbound) {
	nick := utils.SanitizeNick(msg.Nick)
	client.Nick = nick

	switch msg.Type {
	case model.MsgPing:
		if err := client.SendJSON(model.NewPong(msg.T)); err != nil {
			log.Info(err)
		}

	case model.MsgJoin:
		rm.Broadcast(model.NewSystem(nick+" joined"), client.ID())

	case model.MsgChat:
		if !api.limiter.Allow(client.Addr, ratelimit.ActionMessage) {
			return // dropped silently
		}
		text := strings.TrimSpace(utils.TrimRunes(msg.Text, model.MaxChatLength))
		if text != "" {
			rm.Broadcast(model.NewChat(nick, text), "")
		}

	case model.MsgQueue:
		api.handleQueue(rm, client, nick, msg.URL)

	case model.MsgSkip:
		if rm.Advance() {
			rm.Broadcast(model.NewSystem(nick+" skipped"), "")
		}

	case model.MsgEnded:
		rm.Advance()

	case model.MsgPlay:
		rm.SetPlaying(model.ClampPosition(msg.Position), nick, client.ID())

	case model.MsgPause:
		rm.SetPaused(model.ClampPosition(msg.Position), nick, client.ID())

	case model.MsgSeek:
		rm.Seek(model.ClampPosition(msg.Position), client.ID())

	default:
		log.Warnf("room %s: unknown message type %q", rm.Code, msg.Type)
	}
}

func (api *API) handleQueue(rm *room.Room, client *model.Client, nick, rawURL string) {
	notify := func(text string) {
		if err := client.SendJSON(model.NewSystem(text)); err != nil {
			log.Info(err)
		}
	}

	if !api.limiter.Allow(client.Addr, ratelimit.ActionQueue) {
		notify("Rate limited, slow down")
		return
	}
	if rm.QueueFull() {
		notify("Queue is full")
		return
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}

	item, ok := media.Classify(rawURL)
	if !ok {
		notify("Invalid URL (must be http/https)")
		return
	}

	if _, err := rm.Enqueue(item, nick); err != nil {
		notify("Queue is full")
	}
}
