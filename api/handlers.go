package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"opsboard/domain"
	"opsboard/worklist"
)

const (
	maxBodySize       = 16 << 10
	idempotencyHeader = "Idempotency-Key"
	dateLayout        = "2006-01-02"
)

// Deps bundles what the HTTP handlers need.
type Deps struct {
	Board      Board
	Writer     RowWriter
	TasksTable int
	Settings   SettingsStore
	Refresher  Refresher
	Sessions   *Sessions
	// Deduper is optional; without it Idempotency-Key headers are ignored.
	Deduper Deduper
	Logger  *log.Logger
	Now     func() time.Time
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Logger == nil {
		d.Logger = log.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Refresher == nil {
		d.Refresher = noopRefresher{}
	}
	e.GET("/healthz", healthz())
	e.POST("/api/auth/login", login(d.Sessions, d.Logger))
	e.POST("/api/auth/logout", logout(d.Sessions))

	g := e.Group("/api", requireSession(d.Sessions))
	g.GET("/auth/check", checkSession)
	g.GET("/worklist", getWorklist(d.Board, d.Settings, d.Logger, d.Now))
	g.POST("/reload", postReload(d.Board))
	g.POST("/tasks", postTask(d))
	g.PATCH("/tasks/:id", patchTask(d))
	g.GET("/settings", getSettings(d.Settings))
	g.PUT("/settings", putSettings(d.Settings))
}

type noopRefresher struct{}

func (noopRefresher) Trigger() bool { return false }

type worklistResponse struct {
	Groups              worklist.Groups      `json:"groups"`
	OpenCount           int                  `json:"openCount"`
	HasHighPriorityOpen bool                 `json:"hasHighPriorityOpen"`
	Stats               worklist.Stats       `json:"stats"`
	Derived             []domain.DerivedTask `json:"derived"`
	IncludeDone         bool                 `json:"includeDone"`
	LoadedAt            time.Time            `json:"loadedAt"`
}

type reloadResponse struct {
	OpenCount int       `json:"openCount"`
	Derived   int       `json:"derived"`
	LoadedAt  time.Time `json:"loadedAt"`
}

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
}

type updateTaskRequest struct {
	Status domain.TaskStatus `json:"status"`
}

type loginRequest struct {
	PIN string `json:"pin"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func checkSession(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func login(s *Sessions, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		peer := c.RealIP()
		if err := s.CheckPIN(peer, strings.TrimSpace(req.PIN)); err != nil {
			if errors.Is(err, errRateLimited) {
				logger.WithField("peer", peer).Warn("login rate limited")
				return c.String(http.StatusTooManyRequests, err.Error())
			}
			return c.String(http.StatusUnauthorized, err.Error())
		}
		token, err := s.Issue()
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to issue session")
		}
		c.SetCookie(s.Cookie(token))
		return c.JSON(http.StatusOK, okResponse{OK: true})
	}
}

func logout(s *Sessions) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetCookie(s.ClearCookie())
		return c.NoContent(http.StatusNoContent)
	}
}

func getWorklist(b Board, settings SettingsStore, logger *log.Logger, now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newWorklistRequestMetrics(c.Request().Context(), logger)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		includeDone := false
		if raw := strings.TrimSpace(c.QueryParam("includeDone")); raw != "" {
			v, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				metrics.SetErrorStage("invalid_include_done")
				return c.String(http.StatusBadRequest, "invalid includeDone")
			}
			includeDone = v
		} else {
			s, fetchErr := settings.FetchSettings(ctx, userID(c))
			if fetchErr != nil {
				logger.WithError(fetchErr).Warn("settings unavailable, using defaults")
			}
			includeDone = s.ShowDoneTasks
		}
		metrics.SetIncludeDone(includeDone)

		loadStart := time.Now()
		view, loadErr := b.Ensure(ctx)
		metrics.ObserveLoad(time.Since(loadStart))
		if loadErr != nil {
			metrics.SetErrorStage("load")
			c.Logger().Error(loadErr)
			return c.String(http.StatusServiceUnavailable, "worklist unavailable: "+loadErr.Error())
		}

		rec := view.Reconciled
		groups := worklist.Group(rec.Entries, includeDone)
		metrics.SetEntriesReturned(groups.Len())
		metrics.SetOpenCount(rec.OpenCount)

		resp := worklistResponse{
			Groups:              groups,
			OpenCount:           rec.OpenCount,
			HasHighPriorityOpen: rec.HasHighPriorityOpen,
			Stats:               worklist.Summarize(rec.Entries, now().Format(dateLayout)),
			Derived:             view.Derived,
			IncludeDone:         includeDone,
			LoadedAt:            view.LoadedAt,
		}
		if resp.Derived == nil {
			resp.Derived = []domain.DerivedTask{}
		}
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postReload(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := b.Reload(c.Request().Context())
		if err != nil {
			return c.String(http.StatusBadGateway, "reload failed: "+err.Error())
		}
		return c.JSON(http.StatusOK, reloadResponse{
			OpenCount: view.Reconciled.OpenCount,
			Derived:   len(view.Derived),
			LoadedAt:  view.LoadedAt,
		})
	}
}

func postTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d.TasksTable <= 0 {
			return c.String(http.StatusNotImplemented, "task table not configured")
		}
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			return c.String(http.StatusBadRequest, "title is required")
		}
		if req.Priority != "" && !req.Priority.Valid() {
			return c.String(http.StatusBadRequest, "invalid priority")
		}

		ctx := c.Request().Context()
		user := userID(c)
		key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
		deduped := false
		if key != "" && d.Deduper != nil {
			c.Response().Header().Set(idempotencyHeader, key)
			added, err := d.Deduper.Add(ctx, user, key)
			switch {
			case err != nil:
				d.Logger.WithError(err).Warn("idempotency check failed, creating anyway")
			case !added:
				return c.String(http.StatusConflict, "duplicate request")
			default:
				deduped = true
			}
		}

		row, err := d.Writer.CreateRow(ctx, d.TasksTable, domain.NewTaskFields(title, req.Description, req.Priority))
		if err != nil {
			if deduped {
				if rmErr := d.Deduper.Remove(ctx, user, key); rmErr != nil {
					d.Logger.WithError(rmErr).Warn("idempotency key rollback failed")
				}
			}
			return storeError(c, err)
		}
		d.Refresher.Trigger()

		task, _ := domain.ParseTask(row)
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d.TasksTable <= 0 {
			return c.String(http.StatusNotImplemented, "task table not configured")
		}
		ref := c.Param("id")
		id, err := strconv.Atoi(ref)
		if err != nil || id <= 0 {
			return c.String(http.StatusBadRequest, "only stored tasks can be updated: "+ref)
		}
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if !req.Status.Valid() {
			return c.String(http.StatusBadRequest, "invalid status")
		}

		fields := domain.StatusFields(req.Status, d.Now().Format(dateLayout))
		row, err := d.Writer.UpdateRow(c.Request().Context(), d.TasksTable, id, fields)
		if err != nil {
			return storeError(c, err)
		}
		d.Refresher.Trigger()

		task, _ := domain.ParseTask(row)
		return c.JSON(http.StatusOK, task)
	}
}

func getSettings(store SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		settings, err := store.FetchSettings(c.Request().Context(), userID(c))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func putSettings(store SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var settings domain.Settings
		if err := decodeBody(c, &settings); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.SaveSettings(c.Request().Context(), userID(c), settings); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// storeError maps record store failures: a missing row stays 404, everything
// else is reported as an upstream failure.
func storeError(c echo.Context, err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return c.String(http.StatusNotFound, "task not found")
	}
	c.Logger().Error(err)
	return c.String(http.StatusBadGateway, "record store: "+err.Error())
}
