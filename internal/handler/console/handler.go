// Package console serves the admin console pages and their JSON twins.
package console

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/registry"
	consolesvc "github.com/jwalitptl/clinic-console/internal/service/console"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

// Prefix is where the HTML console is mounted.
const Prefix = "/console"

type Handler struct {
	svc      *consolesvc.Service
	registry *registry.Registry
}

func NewHandler(svc *consolesvc.Service, reg *registry.Registry) *Handler {
	return &Handler{
		svc:      svc,
		registry: reg,
	}
}

// RegisterRoutes mounts the HTML pages on a group rooted at Prefix.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("", h.Dashboard)
	r.GET("/:resource", h.List)
	r.GET("/:resource/:id", h.Show)
	r.GET("/:resource/:id/edit", h.Edit)
	r.POST("/:resource", h.Create)
	r.POST("/:resource/:id", h.Update)
	r.POST("/:resource/:id/delete", h.Delete)
}

// RegisterAPIRoutes mounts the read-only JSON endpoints.
func (h *Handler) RegisterAPIRoutes(r gin.IRouter) {
	r.GET("/dashboard", h.APIDashboard)
	r.GET("/resources/:resource", h.APIList)
	r.GET("/resources/:resource/:id", h.APIShow)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())

	data := gin.H{"Dashboard": d}
	status := http.StatusOK
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load dashboard")
		data["LoadError"] = err.Error()
		status = handler.StatusFor(err)
	}
	c.HTML(status, "dashboard.html", h.page(c, "Dashboard", "dashboard", data))
}

// List shows a section. Without q the collection is re-fetched; with q the
// current snapshot is filtered.
func (h *Handler) List(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	view, err := h.view(c, kind)
	data := gin.H{"Kind": kind, "View": view}
	status := http.StatusOK
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("resource", kind.Type.String()).Msg("failed to load collection")
		data["LoadError"] = err.Error()
		status = handler.StatusFor(err)
	}
	c.HTML(status, "section.html", h.page(c, kind.Title, kind.Type.String(), data))
}

func (h *Handler) Show(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	if c.Param("id") == "new" {
		h.renderForm(c, kind, 0, map[string]string{}, nil, http.StatusOK)
		return
	}

	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	rec, err := h.svc.Find(c.Request.Context(), kind.Type, id)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int64("id", id).Msg("failed to fetch record")
		h.redirect(c, kind, "", fmt.Sprintf("Error fetching %s details", kind.Noun()))
		return
	}

	c.HTML(http.StatusOK, "detail.html", h.page(c, kind.Singular+" Details", kind.Type.String(), gin.H{
		"Kind": kind,
		"ID":   id,
		"Rows": kind.Details(rec),
	}))
}

func (h *Handler) Edit(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	rec, err := h.svc.Find(c.Request.Context(), kind.Type, id)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int64("id", id).Msg("failed to fetch record for edit")
		h.redirect(c, kind, "", fmt.Sprintf("Error fetching %s details", kind.Noun()))
		return
	}
	h.renderForm(c, kind, id, kind.FormValues(rec), nil, http.StatusOK)
}

func (h *Handler) Create(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	h.save(c, kind, 0)
}

func (h *Handler) Update(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.save(c, kind, id)
}

func (h *Handler) Delete(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	id, err := parseID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.svc.Remove(c.Request.Context(), kind.Type, id); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int64("id", id).Msg("failed to delete record")
		h.redirect(c, kind, "", fmt.Sprintf("Error deleting %s", kind.Noun()))
		return
	}
	h.redirect(c, kind, fmt.Sprintf("%s deleted successfully!", kind.Singular), "")
}

func (h *Handler) APIDashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) APIList(c *gin.Context) {
	kind, ok := h.registry.Lookup(c.Param("resource"))
	if !ok {
		_ = c.Error(unknownResource(c))
		return
	}
	view, err := h.view(c, kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) APIShow(c *gin.Context) {
	kind, ok := h.registry.Lookup(c.Param("resource"))
	if !ok {
		_ = c.Error(unknownResource(c))
		return
	}
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	rec, err := h.svc.Find(c.Request.Context(), kind.Type, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

// view runs a search when q is present and a full reload otherwise. A search
// against a collection that was never loaded fetches it once first.
func (h *Handler) view(c *gin.Context, kind *registry.Kind) (consolesvc.View, error) {
	q, searching := c.GetQuery("q")
	if !searching {
		return h.svc.Load(c.Request.Context(), kind.Type)
	}
	if !h.svc.Loaded(kind.Type) {
		if _, err := h.svc.Load(c.Request.Context(), kind.Type); err != nil {
			return consolesvc.View{}, err
		}
	}
	return h.svc.Search(kind.Type, q)
}

func (h *Handler) save(c *gin.Context, kind *registry.Kind, id int64) {
	payload, err := kind.Decode(c)
	if err != nil {
		h.renderForm(c, kind, id, submitted(c, kind), validator.Describe(err), http.StatusBadRequest)
		return
	}

	if _, err := h.svc.Save(c.Request.Context(), kind.Type, id, payload); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int64("id", id).Str("resource", kind.Type.String()).Msg("failed to save record")
		h.redirect(c, kind, "", fmt.Sprintf("Error saving %s: %s", kind.Noun(), err.Error()))
		return
	}

	verb := "created"
	if id != 0 {
		verb = "updated"
	}
	h.redirect(c, kind, fmt.Sprintf("%s %s successfully!", kind.Singular, verb), "")
}

func (h *Handler) renderForm(c *gin.Context, kind *registry.Kind, id int64, values map[string]string, problems []validator.FieldError, status int) {
	action := Prefix + "/" + kind.Type.String()
	title := "Add " + kind.Singular
	if id != 0 {
		action += "/" + strconv.FormatInt(id, 10)
		title = "Edit " + kind.Singular
	}

	var general []string
	for _, p := range problems {
		if p.Field == "" {
			general = append(general, p.Message)
		}
	}

	c.HTML(status, "form.html", h.page(c, title, kind.Type.String(), gin.H{
		"Kind":      kind,
		"Editing":   id != 0,
		"Action":    action,
		"Values":    values,
		"Errors":    validator.ByField(problems),
		"FormError": strings.Join(general, "; "),
	}))
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status := handler.StatusFor(err)
	c.HTML(status, "error.html", h.page(c, http.StatusText(status), "", gin.H{
		"Status":  status,
		"Message": err.Error(),
	}))
}

// redirect sends the browser back to the section list, which reloads it.
func (h *Handler) redirect(c *gin.Context, kind *registry.Kind, notice, alert string) {
	q := url.Values{}
	if notice != "" {
		q.Set("notice", notice)
	}
	if alert != "" {
		q.Set("alert", alert)
	}
	target := Prefix + "/" + kind.Type.String()
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *Handler) page(c *gin.Context, title, active string, data gin.H) gin.H {
	data["Title"] = title
	data["Active"] = active
	data["Kinds"] = h.registry.All()
	data["Notice"] = c.Query("notice")
	data["Alert"] = c.Query("alert")
	return data
}

func (h *Handler) kind(c *gin.Context) (*registry.Kind, bool) {
	kind, ok := h.registry.Lookup(c.Param("resource"))
	if !ok {
		h.renderError(c, unknownResource(c))
		return nil, false
	}
	return kind, true
}

func unknownResource(c *gin.Context) error {
	return apperrors.NotFound(fmt.Sprintf("resource %q", c.Param("resource")), nil)
}

func parseID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest(fmt.Sprintf("invalid id %q", raw), nil)
	}
	return id, nil
}

// submitted echoes the posted values back into a form that failed validation.
func submitted(c *gin.Context, kind *registry.Kind) map[string]string {
	values := make(map[string]string, len(kind.Fields))
	for _, f := range kind.Fields {
		values[f.Name] = c.PostForm(f.Name)
	}
	return values
}
