package docedit

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aisa-it/docedit/internal/docedit/apierrors"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/dto"
	stack_error "github.com/aisa-it/docedit/internal/docedit/stack-error"
	"github.com/aisa-it/docedit/pkg/limiter"
)

func (s *Services) AddDocumentServices(g *echo.Group) {
	docGroup := g.Group("documents/:docId", s.DocumentMiddleware)

	g.GET("documents/", s.getDocumentList)
	g.POST("documents/", s.createDocument)

	docGroup.GET("/", s.getDocument)
	docGroup.PATCH("/", s.updateDocument)
	docGroup.DELETE("/", s.deleteDocument)
}

// getDocumentList godoc
// @id getDocumentList
// @Summary documents: список документов
// @Tags Documents
// @Produce json
// @Param offset query int false "Смещение" default(0)
// @Param limit query int false "Количество, не больше 100" default(100)
// @Success 200 {object} dto.DocumentList "страница документов"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Router /api/documents/ [get]
func (s *Services) getDocumentList(c echo.Context) error {
	offset := 0
	limit := 100

	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		BindError(); err != nil {
		return EError(c, err)
	}

	if limit > 100 || limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	docs, count, err := s.store.List(c.Request().Context(), offset, limit)
	if err != nil {
		return EError(c, err)
	}

	res := dto.DocumentList{
		Count:  count,
		Offset: offset,
		Limit:  limit,
		Result: make([]dto.DocumentLight, 0, len(docs)),
	}
	for i := range docs {
		res.Result = append(res.Result, *docs[i].ToLightDTO())
	}
	return c.JSON(http.StatusOK, res)
}

// createDocument godoc
// @id createDocument
// @Summary documents: создание документа
// @Description разметка нормализуется редактором перед сохранением
// @Tags Documents
// @Accept json
// @Produce json
// @Param data body dto.DocumentRequest true "документ"
// @Success 201 {object} dto.Document "документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректные параметры запроса"
// @Failure 413 {object} apierrors.DefinedError "Документ слишком большой"
// @Router /api/documents/ [post]
func (s *Services) createDocument(c echo.Context) error {
	var req dto.DocumentRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return EErrorDefined(c, apierrors.ErrDocumentNameRequired)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err.Error()))
	}

	data, err := s.normalize(req.Data)
	if err != nil {
		return EError(c, err)
	}

	doc := dao.Document{Name: req.Name, Data: data}
	if err := s.store.Create(c.Request().Context(), &doc); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusCreated, doc.ToDTO())
}

// getDocument godoc
// @id getDocument
// @Summary documents: получение документа
// @Tags Documents
// @Produce json
// @Param docId path string true "Id документа"
// @Success 200 {object} dto.Document "документ"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/documents/{docId}/ [get]
func (s *Services) getDocument(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(DocumentContext).Document.ToDTO())
}

func (s *Services) updateDocument(c echo.Context) error {
	doc := c.(DocumentContext).Document

	var req dto.DocumentUpdateRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadRequestBody)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err.Error()))
	}

	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	data := doc.Data
	if req.Data != nil {
		var err error
		if data, err = s.normalize(*req.Data); err != nil {
			return EError(c, err)
		}
	}

	updated, err := s.store.Update(c.Request().Context(), doc.ID, name, data)
	if err != nil {
		if errors.Is(err, dao.ErrDocumentNotFound) {
			return EErrorDefined(c, apierrors.ErrDocumentNotFound)
		}
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, updated.ToDTO())
}

func (s *Services) deleteDocument(c echo.Context) error {
	doc := c.(DocumentContext).Document
	if err := s.store.Delete(c.Request().Context(), doc.ID); err != nil {
		if errors.Is(err, dao.ErrDocumentNotFound) {
			return EErrorDefined(c, apierrors.ErrDocumentNotFound)
		}
		return EError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// normalize пропускает разметку через редактор, чтобы в хранилище попадала только
// разметка, которую редактор выдает сам.
func (s *Services) normalize(markup string) (string, error) {
	if !limiter.Limiter.CanSaveDocument(len(markup)) {
		return "", apierrors.ErrDocumentTooLarge
	}
	e, err := s.newEditor()
	if err != nil {
		return "", stack_error.TrackErrorStack(err)
	}
	if err := e.LoadData(markup); err != nil {
		return "", apierrors.ErrDocumentParse
	}
	return e.GetData(), nil
}
