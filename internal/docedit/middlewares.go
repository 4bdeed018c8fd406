package docedit

import (
	"errors"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aisa-it/docedit/internal/docedit/apierrors"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/sessions"
	stack_error "github.com/aisa-it/docedit/internal/docedit/stack-error"
)

type DocumentContext struct {
	echo.Context
	Document *dao.Document
}

type SessionContext struct {
	echo.Context
	Session *sessions.Session
}

func (s *Services) DocumentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("docId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidID)
		}

		doc, err := s.store.Get(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, dao.ErrDocumentNotFound) {
				return EErrorDefined(c, apierrors.ErrDocumentNotFound)
			}
			stack_error.GetError(c, stack_error.TrackErrorStack(err).AddContext("document_id", id))
			return EErrorDefined(c, apierrors.ErrInternal)
		}

		return next(DocumentContext{c, doc})
	}
}

func (s *Services) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("sessionId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidID)
		}

		sess, ok := s.sessions.Get(id)
		if !ok {
			return EErrorDefined(c, apierrors.ErrSessionNotFound)
		}

		return next(SessionContext{c, sess})
	}
}
