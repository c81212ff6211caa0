package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quay/pagequery"
	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/internal/log"
)

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagequery",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of HTTP requests by route and status.",
	}, []string{"route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagequery",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests by route.",
	}, []string{"route"})
)

// RequestIDHeader is the header echoing the per-request id.
const RequestIDHeader = `X-Request-Id`

// Options configures the handler returned by [NewHandler].
type Options struct {
	// Defaults is used for page parameters missing from a request.
	Defaults Defaults
}

// DefaultOptions is used by [NewHandler] for any zero-valued members.
var DefaultOptions = Options{
	Defaults: Defaults{
		Size:    20,
		MaxSize: 1000,
	},
}

type handler struct {
	pager    datastore.Pager
	defaults Defaults
}

// NewHandler returns an [http.Handler] serving pages from p.
//
// Routes:
//
//	GET /tables/{table}          a page of rows
//	GET /tables/{table}/columns  the table's columns
func NewHandler(p datastore.Pager, opts Options) http.Handler {
	if opts.Defaults.Size == 0 {
		opts.Defaults.Size = DefaultOptions.Defaults.Size
	}
	if opts.Defaults.MaxSize == 0 {
		opts.Defaults.MaxSize = DefaultOptions.Defaults.MaxSize
	}
	h := &handler{
		pager:    p,
		defaults: opts.Defaults,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestContext,
		instrument,
	)
	r.Get("/tables/{table}", h.page)
	r.Get("/tables/{table}/columns", h.columns)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &ErrorResponse{
			Code:    CodeNotFound,
			Message: "no route for " + r.URL.Path,
		}, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &ErrorResponse{
			Code:    CodeMethod,
			Message: r.Method + " not allowed",
		}, http.StatusMethodNotAllowed)
	})
	return r
}

// RequestContext assigns a request id and attaches it to the logging context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := log.With(r.Context(),
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Instrument records request metrics by route pattern and logs completion.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		begin := time.Now()
		next.ServeHTTP(ww, r)
		dur := time.Since(begin)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(route).Observe(dur.Seconds())
		slog.DebugContext(r.Context(), "request done",
			"route", route,
			"status", status,
			"duration", dur)
	})
}

// PageDocument is the response body for a page of rows.
type PageDocument struct {
	Content []map[string]any            `json:"content"`
	Page    PageInfo                    `json:"page"`
	Sort    []pagequery.SortInstruction `json:"sort"`
}

// PageInfo describes where a page sits in the whole result.
type PageInfo struct {
	Number        uint   `json:"number"`
	Size          uint   `json:"size"`
	TotalElements int64  `json:"total_elements"`
	TotalPages    uint64 `json:"total_pages"`
}

func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	table := chi.URLParam(r, "table")
	req, err := ParsePageRequest(r.URL.Query(), h.defaults)
	if err != nil {
		apiError(w, r, err)
		return
	}
	ctx = log.WithPage(log.With(ctx, "table", table), req)

	pg, err := h.pager.Page(ctx, table, req)
	if err != nil {
		apiError(w, r.WithContext(ctx), err)
		return
	}

	doc := PageDocument{
		Content: pg.Rows,
		Page: PageInfo{
			Number:        req.Index,
			Size:          req.Size,
			TotalElements: pg.Total,
			TotalPages:    pg.TotalPages(),
		},
		Sort: req.Sort,
	}
	if doc.Content == nil {
		doc.Content = []map[string]any{}
	}
	if doc.Sort == nil {
		doc.Sort = []pagequery.SortInstruction{}
	}
	if l := links(r.URL, pg); l != "" {
		w.Header().Set("Link", l)
	}
	writeJSON(ctx, w, &doc)
}

// ColumnsDocument is the response body for a table's columns.
type ColumnsDocument struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

func (h *handler) columns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	table := chi.URLParam(r, "table")
	t, err := h.pager.Schema(log.With(ctx, "table", table), table)
	if err != nil {
		apiError(w, r, err)
		return
	}
	writeJSON(ctx, w, &ColumnsDocument{
		Table:   t.Name(),
		Columns: t.Columns(),
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "unable to write response", "reason", err)
	}
}

// Links builds an RFC 8288 Link header value pointing at the neighboring
// pages.
func links(u *url.URL, pg *datastore.Page) string {
	var rels []string
	add := func(rel string, p pagequery.PageRequest) {
		q := u.Query()
		q.Set(ParamPage, strconv.FormatUint(uint64(p.Index), 10))
		q.Set(ParamSize, strconv.FormatUint(uint64(p.Size), 10))
		l := url.URL{Path: u.Path, RawQuery: q.Encode()}
		rels = append(rels, "<"+l.String()+`>; rel="`+rel+`"`)
	}
	if pg.Request.Size == 0 {
		return ""
	}
	if pg.Request.Index != 0 {
		add("first", pg.Request.First())
		add("prev", pg.Request.Previous())
	}
	if pg.HasNext() {
		add("next", pg.Request.Next())
	}
	return strings.Join(rels, ", ")
}
