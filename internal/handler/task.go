package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/i18n"
	"github.com/BuzzLyutic/todo-list/internal/model"
	"github.com/BuzzLyutic/todo-list/internal/repo"
	"github.com/BuzzLyutic/todo-list/internal/service"
	"github.com/BuzzLyutic/todo-list/pkg/respond"
)

const (
	dateLayout     = "2006-01-02"
	msgInvalidDate = "Enter a valid date."
)

type TaskHandler struct {
	service *service.TaskService
	views   *renderer
	logger  *zap.Logger
}

type listPage struct {
	Filter form
	Tasks  []model.Task
}

type formPage struct {
	TaskID int64
	Action string
	Form   form
}

type deletePage struct {
	Task model.Task
}

// List shows the caller's tasks, filtered by ?query=, ?date_from= and
// ?date_to= (YYYY-MM-DD, both inclusive). Bad dates are reported on the form
// and left out of the filter.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	q := r.URL.Query()

	f := newForm()
	for _, name := range []string{"query", "date_from", "date_to"} {
		f.Values[name] = q.Get(name)
	}

	filter := model.TaskFilter{UserID: user.ID}
	if v := f.Values["query"]; v != "" {
		filter.Query = &v
	}
	if v := f.Values["date_from"]; v != "" {
		if from, err := time.ParseInLocation(dateLayout, v, time.UTC); err == nil {
			filter.CreatedFrom = &from
		} else {
			f.Errors["date_from"] = msgInvalidDate
		}
	}
	if v := f.Values["date_to"]; v != "" {
		if day, err := time.ParseInLocation(dateLayout, v, time.UTC); err == nil {
			to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
			filter.CreatedTo = &to
		} else {
			f.Errors["date_to"] = msgInvalidDate
		}
	}

	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	h.views.render(w, r, http.StatusOK, "tasks_list", listPage{Filter: f, Tasks: tasks})
}

func (h *TaskHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromContext(r.Context())
	h.views.render(w, r, http.StatusOK, "tasks_form", formPage{Action: loc.Path("/tasks/new/"), Form: newForm()})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	loc := i18n.FromContext(r.Context())
	in := taskInput(r)

	if _, err := h.service.Create(r.Context(), user.ID, in); err != nil {
		h.formErrors(w, r, formPage{Action: loc.Path("/tasks/new/")}, in, err)
		return
	}

	flash(w, noticeTaskCreated)
	respond.Redirect(w, r, loc.Path("/tasks/"))
}

func (h *TaskHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	f := newForm()
	f.Values["title"] = task.Title
	f.Values["description"] = task.Description
	h.views.render(w, r, http.StatusOK, "tasks_form", formPage{TaskID: id, Action: editPath(r, id), Form: f})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	in := taskInput(r)

	// someone else's task is a 404 even when the form is invalid
	if _, err := h.service.Get(r.Context(), user.ID, id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if _, err := h.service.Update(r.Context(), user.ID, id, in); err != nil {
		h.formErrors(w, r, formPage{TaskID: id, Action: editPath(r, id)}, in, err)
		return
	}

	flash(w, noticeTaskUpdated)
	respond.Redirect(w, r, i18n.FromContext(r.Context()).Path("/tasks/"))
}

func (h *TaskHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	h.views.render(w, r, http.StatusOK, "tasks_confirm_delete", deletePage{Task: task})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	flash(w, noticeTaskDeleted)
	respond.Redirect(w, r, i18n.FromContext(r.Context()).Path("/tasks/"))
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.ToggleComplete(r.Context(), user.ID, id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Redirect(w, r, i18n.FromContext(r.Context()).Path("/tasks/"))
}

// taskID parses {id}; anything that is not a positive integer is a 404.
func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.views.notFound(w, r)
		return 0, false
	}
	return id, true
}

// formErrors re-renders the task form for validation errors and falls back
// to handleErrors for everything else.
func (h *TaskHandler) formErrors(w http.ResponseWriter, r *http.Request, p formPage, in model.TaskInput, err error) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		h.handleErrors(w, r, err)
		return
	}

	p.Form = newForm()
	p.Form.Values["title"] = in.Title
	p.Form.Values["description"] = in.Description
	p.Form.Errors = verr.Fields
	h.views.render(w, r, http.StatusOK, "tasks_form", p)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		h.views.notFound(w, r)
	default:
		h.logger.Error("internal error", zap.Error(err))
		h.views.serverError(w, r)
	}
}

func taskInput(r *http.Request) model.TaskInput {
	return model.TaskInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}
}

func editPath(r *http.Request, id int64) string {
	return i18n.FromContext(r.Context()).Path(fmt.Sprintf("/tasks/%d/edit/", id))
}
