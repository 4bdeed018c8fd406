package docedit

import (
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aisa-it/docedit/internal/docedit/apierrors"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/dto"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/inspector"
	"github.com/aisa-it/docedit/internal/docedit/interaction"
	"github.com/aisa-it/docedit/internal/docedit/model"
	imagezindex "github.com/aisa-it/docedit/internal/docedit/plugins/image-zindex"
	"github.com/aisa-it/docedit/internal/docedit/plugins/placeholder"
	"github.com/aisa-it/docedit/internal/docedit/sessions"
	stack_error "github.com/aisa-it/docedit/internal/docedit/stack-error"
	"github.com/aisa-it/docedit/pkg/limiter"
)

func (s *Services) AddSessionServices(g *echo.Group) {
	sessionGroup := g.Group("sessions/:sessionId", s.SessionMiddleware)

	g.POST("sessions/", s.createSession)

	sessionGroup.GET("/", s.getSession)
	sessionGroup.DELETE("/", s.closeSession)
	sessionGroup.GET("/data/", s.getSessionData)
	sessionGroup.GET("/model/", s.getSessionModel)
	sessionGroup.GET("/commands/", s.getCommands)
	sessionGroup.POST("/commands/:name/", s.executeCommand)
	sessionGroup.POST("/selection/", s.setSelection)
	sessionGroup.POST("/pointer/", s.dispatchPointer)
	sessionGroup.POST("/save/", s.saveSession)
	sessionGroup.GET("/ws/", s.sessionFeed)
}

// createSession godoc
// @id createSession
// @Summary sessions: открытие сессии редактирования
// @Description сессия открывается по сохраненному документу или по переданной разметке
// @Tags Sessions
// @Accept json
// @Produce json
// @Param data body dto.SessionRequest true "документ или разметка"
// @Success 201 {object} dto.Session "сессия"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Failure 429 {object} apierrors.DefinedError "Слишком много открытых сессий"
// @Router /api/sessions/ [post]
func (s *Services) createSession(c echo.Context) error {
	var req dto.SessionRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err.Error()))
	}

	if !limiter.Limiter.CanOpenSession(s.sessions.Len()) {
		return EErrorDefined(c, apierrors.ErrSessionsExceeded)
	}

	var docID uuid.NullUUID
	data := req.Data
	if req.DocumentId != "" {
		id := uuid.FromStringOrNil(req.DocumentId)
		doc, err := s.store.Get(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, dao.ErrDocumentNotFound) {
				return EErrorDefined(c, apierrors.ErrDocumentNotFound)
			}
			return EError(c, err)
		}
		docID = uuid.NullUUID{UUID: doc.ID, Valid: true}
		data = doc.Data
	}
	if !limiter.Limiter.CanSaveDocument(len(data)) {
		return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
	}

	sess, err := s.sessions.Create(docID, data)
	if err != nil {
		if errors.Is(err, sessions.ErrTooManySessions) {
			return EErrorDefined(c, apierrors.ErrSessionsExceeded)
		}
		stack_error.GetError(c, stack_error.TrackErrorStack(err).AddContext("document_id", docID.UUID))
		return EErrorDefined(c, apierrors.ErrDocumentParse)
	}

	var res dto.Session
	if err := sess.Do(func(e *editor.Editor) error {
		res = sessionDTO(sess, e)
		return nil
	}); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (s *Services) getSession(c echo.Context) error {
	sess := c.(SessionContext).Session
	return s.respond(c, sess, func(e *editor.Editor) (any, error) {
		return sessionDTO(sess, e), nil
	})
}

func (s *Services) closeSession(c echo.Context) error {
	if !s.sessions.Close(c.(SessionContext).Session.ID) {
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	}
	return c.NoContent(http.StatusOK)
}

// getSessionData godoc
// @id getSessionData
// @Summary sessions: разметка документа
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param minify query bool false "Сжать разметку"
// @Success 200 {object} dto.Data "разметка"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/data/ [get]
func (s *Services) getSessionData(c echo.Context) error {
	minify := false
	if err := echo.QueryParamsBinder(c).
		Bool("minify", &minify).
		BindError(); err != nil {
		return EError(c, err)
	}

	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		res := dto.Data{Seq: e.Model.Seq(), Data: e.GetData()}
		if minify {
			data, err := e.GetMinifiedData()
			if err != nil {
				return nil, stack_error.TrackErrorStack(err)
			}
			res.Data = data
		}
		return res, nil
	})
}

func (s *Services) getSessionModel(c echo.Context) error {
	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		return inspector.Take(e.Model), nil
	})
}

func (s *Services) getCommands(c echo.Context) error {
	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		return commandsDTO(e), nil
	})
}

// executeCommand godoc
// @id executeCommand
// @Summary sessions: выполнение команды
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Param name path string true "Имя команды"
// @Param data body dto.CommandRequest true "значение"
// @Success 200 {object} dto.Commands "состояния команд после выполнения"
// @Failure 404 {object} apierrors.DefinedError "Команда не найдена"
// @Failure 409 {object} apierrors.DefinedError "Команда недоступна"
// @Failure 422 {object} apierrors.DefinedError "Ошибка выполнения команды"
// @Router /api/sessions/{sessionId}/commands/{name}/ [post]
func (s *Services) executeCommand(c echo.Context) error {
	name := c.Param("name")
	var req dto.CommandRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}

	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		cmd, ok := e.Commands.Get(name)
		if !ok {
			return nil, apierrors.ErrCommandNotFound.WithFormattedMessage(name)
		}
		if !cmd.State().IsEnabled {
			return nil, apierrors.ErrCommandDisabled.WithFormattedMessage(name)
		}
		if err := e.Execute(name, req.Value); err != nil {
			stack_error.GetError(c, stack_error.TrackErrorStack(err).AddContext("command", name))
			return nil, apierrors.ErrCommandFailed.WithFormattedMessage(name)
		}
		return commandsDTO(e), nil
	})
}

func (s *Services) setSelection(c echo.Context) error {
	var req dto.SelectionRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err.Error()))
	}

	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		sel, ok := selectionFromRequest(e.Model, req)
		if !ok {
			return nil, apierrors.ErrSelectionInvalid
		}
		if err := e.SetSelection(sel); err != nil {
			return nil, stack_error.TrackErrorStack(err)
		}
		return commandsDTO(e), nil
	})
}

func (s *Services) dispatchPointer(c echo.Context) error {
	var req dto.PointerRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err.Error()))
	}

	return s.respond(c, c.(SessionContext).Session, func(e *editor.Editor) (any, error) {
		evt := interaction.PointerEvent{
			Type:      interaction.EventType(req.Type),
			Buttons:   req.Buttons,
			MovementX: req.MovementX,
			MovementY: req.MovementY,
		}
		if req.TargetPath != nil {
			evt.Target = e.EditingView().NodeAt(req.TargetPath)
			if evt.Target == nil {
				return nil, apierrors.ErrPointerTarget
			}
		}
		handled := e.DispatchPointer(evt)
		return dto.PointerResponse{Handled: handled, Seq: e.Model.Seq()}, nil
	})
}

// saveSession godoc
// @id saveSession
// @Summary sessions: сохранение документа сессии
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Id сессии"
// @Success 200 {object} dto.Document "сохраненный документ"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Failure 413 {object} apierrors.DefinedError "Документ слишком большой"
// @Router /api/sessions/{sessionId}/save/ [post]
func (s *Services) saveSession(c echo.Context) error {
	sess := c.(SessionContext).Session
	if !sess.DocumentID.Valid {
		return EErrorDefined(c, apierrors.ErrDocumentNotFound)
	}

	var data string
	if err := sess.Do(func(e *editor.Editor) error {
		data = e.GetData()
		return nil
	}); err != nil {
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	}
	if !limiter.Limiter.CanSaveDocument(len(data)) {
		return EErrorDefined(c, apierrors.ErrDocumentTooLarge)
	}

	doc, err := s.store.Update(c.Request().Context(), sess.DocumentID.UUID, "", data)
	if err != nil {
		if errors.Is(err, dao.ErrDocumentNotFound) {
			return EErrorDefined(c, apierrors.ErrDocumentNotFound)
		}
		return EError(c, stack_error.TrackErrorStack(err).AddContext("session", sess.ID))
	}
	return c.JSON(http.StatusOK, doc.ToDTO())
}

// sessionFeed отдает ленту состояния сессии по вебсокету. Первое сообщение содержит разметку.
func (s *Services) sessionFeed(c echo.Context) error {
	sess := c.(SessionContext).Session
	var initial dto.StateMessage
	if err := sess.Do(func(e *editor.Editor) error {
		initial = stateMessage(e, e.Model.Seq())
		initial.Type = dto.DataMessageType
		initial.Data = e.GetData()
		return nil
	}); err != nil {
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	}
	sess.Feed.Serve(c.Response(), c.Request(), initial)
	return nil
}

// respond выполняет fn под блокировкой сессии и отвечает ее результатом.
func (s *Services) respond(c echo.Context, sess *sessions.Session, fn func(e *editor.Editor) (any, error)) error {
	var res any
	err := sess.Do(func(e *editor.Editor) error {
		var err error
		res, err = fn(e)
		return err
	})
	if errors.Is(err, sessions.ErrSessionClosed) {
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	}
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func sessionDTO(sess *sessions.Session, e *editor.Editor) dto.Session {
	res := dto.Session{
		Id:       sess.ID.String(),
		Seq:      e.Model.Seq(),
		Commands: e.Commands.States(),
	}
	if sess.DocumentID.Valid {
		res.DocumentId = sess.DocumentID.UUID.String()
	}
	return res
}

func commandsDTO(e *editor.Editor) dto.Commands {
	res := dto.Commands{
		Seq:    e.Model.Seq(),
		States: e.Commands.States(),
	}
	if cmd, ok := e.Commands.Get(placeholder.CommandName); ok {
		if p, ok := cmd.(*placeholder.Command); ok {
			res.PlaceholderTypes = p.Types()
		}
	}
	if cmd, ok := e.Commands.Get(imagezindex.CommandName); ok {
		if z, ok := cmd.(*imagezindex.Command); ok {
			res.ZIndexes = z.Levels()
		}
	}
	return res
}

// selectionFromRequest строит выделение по путям модели. Пустой запрос снимает выделение.
func selectionFromRequest(doc *model.Document, req dto.SelectionRequest) (model.Selection, bool) {
	if req.On != nil {
		el := doc.ElementAt(req.On)
		if el == nil || el.Parent() == nil {
			return model.Selection{}, false
		}
		return model.On(el), true
	}
	if req.Anchor == nil {
		return model.Selection{}, req.Focus == nil
	}
	anchor, ok := positionFromRequest(doc, req.Anchor)
	if !ok {
		return model.Selection{}, false
	}
	if req.Focus == nil {
		return model.Collapsed(anchor), true
	}
	focus, ok := positionFromRequest(doc, req.Focus)
	if !ok {
		return model.Selection{}, false
	}
	return model.Range(anchor, focus), true
}

func positionFromRequest(doc *model.Document, p *dto.PositionValue) (model.Position, bool) {
	parent := doc.ElementAt(p.Path)
	if parent == nil || p.Offset < 0 || p.Offset > parent.ChildCount() {
		return model.Position{}, false
	}
	return model.Position{Parent: parent, Offset: p.Offset}, true
}
