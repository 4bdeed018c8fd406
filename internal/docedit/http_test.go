package docedit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/aisa-it/docedit/internal/docedit/apierrors"
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/dto"
	"github.com/aisa-it/docedit/internal/docedit/inspector"
	"github.com/aisa-it/docedit/pkg/limiter"
)

type testServer struct {
	services *Services
	echo     *echo.Echo
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	db, err := dao.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	if cfg == nil {
		cfg = &config.Config{SessionTTL: 30, MaxSessions: 10, MaxDocumentSize: 1 << 20}
	}
	limiter.Init(cfg)
	t.Cleanup(func() { limiter.Limiter = limiter.CommunityLimiter{} })

	s, err := NewServices(db, cfg, config.DefaultEditorOptions(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(s.sessions.CloseAll)
	return &testServer{services: s, echo: NewEcho(s)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, want apierrors.DefinedError) {
	t.Helper()
	assert.Equal(t, want.StatusCode, rec.Code, rec.Body.String())
	got := decode[apierrors.DefinedError](t, rec)
	assert.Equal(t, want.Code, got.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/_health/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DocEdit", rec.Header().Get(echo.HeaderServer))

	rec = ts.do(t, http.MethodGet, "/api/_health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentCRUD(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/documents/", dto.DocumentRequest{
		Name: " Letter ",
		Data: `<p>a<script>alert(1)</script></p><section class="simple-box"><h1 class="simple-box-title">T</h1><div class="simple-box-description"><p>D</p></div></section>`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[dto.Document](t, rec)
	assert.Equal(t, "Letter", doc.Name)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, `<p>a</p><section class="simple-box"><h1 class="simple-box-title">T</h1><div class="simple-box-description"><p>D</p></div></section>`, doc.Data)

	rec = ts.do(t, http.MethodGet, "/api/documents/?limit=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.DocumentList](t, rec)
	assert.EqualValues(t, 1, list.Count)
	assert.Equal(t, 100, list.Limit)
	require.Len(t, list.Result, 1)
	assert.Equal(t, doc.Id, list.Result[0].Id)

	rec = ts.do(t, http.MethodGet, "/api/documents/"+doc.Id+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc.Data, decode[dto.Document](t, rec).Data)

	name := "Renamed"
	rec = ts.do(t, http.MethodPatch, "/api/documents/"+doc.Id+"/", dto.DocumentUpdateRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dto.Document](t, rec)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, doc.Data, updated.Data)
	assert.Equal(t, 2, updated.Version)

	rec = ts.do(t, http.MethodDelete, "/api/documents/"+doc.Id+"/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/documents/"+doc.Id+"/", nil)
	assertAPIError(t, rec, apierrors.ErrDocumentNotFound)
}

func TestDocumentValidation(t *testing.T) {
	ts := newTestServer(t, &config.Config{SessionTTL: 30, MaxDocumentSize: 16})

	tests := []struct {
		name string
		req  dto.DocumentRequest
		want apierrors.DefinedError
	}{
		{"empty name", dto.DocumentRequest{Name: "   "}, apierrors.ErrDocumentNameRequired},
		{"long name", dto.DocumentRequest{Name: strings.Repeat("я", 151)}, apierrors.ErrValidation},
		{"control char", dto.DocumentRequest{Name: "a\x00b"}, apierrors.ErrValidation},
		{"too large", dto.DocumentRequest{Name: "a", Data: strings.Repeat("x", 17)}, apierrors.ErrDocumentTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAPIError(t, ts.do(t, http.MethodPost, "/api/documents/", tt.req), tt.want)
		})
	}

	assertAPIError(t, ts.do(t, http.MethodGet, "/api/documents/not-a-uuid/", nil), apierrors.ErrInvalidID)
}

func createSession(t *testing.T, ts *testServer, req dto.SessionRequest) dto.Session {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sessions/", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.Session](t, rec)
}

func TestSessionCommands(t *testing.T) {
	ts := newTestServer(t, nil)
	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p><figure class="image"><img src="a.png"/></figure>`})
	base := "/api/sessions/" + sess.Id

	assert.Empty(t, sess.DocumentId)
	assert.Equal(t, false, sess.Commands["imageSize"].IsEnabled)
	assert.True(t, sess.Commands["insertSimpleBox"].IsEnabled)

	rec := ts.do(t, http.MethodGet, base+"/commands/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cmds := decode[dto.Commands](t, rec)
	assert.Equal(t, []string{"date", "first name", "surname"}, cmds.PlaceholderTypes)
	require.Len(t, cmds.ZIndexes, 2)
	assert.Equal(t, "front", cmds.ZIndexes[0].Name)

	assertAPIError(t, ts.do(t, http.MethodPost, base+"/commands/imageSize/", dto.CommandRequest{Value: "80px"}), apierrors.ErrCommandDisabled)
	assertAPIError(t, ts.do(t, http.MethodPost, base+"/commands/bold/", dto.CommandRequest{}), apierrors.ErrCommandNotFound)

	rec = ts.do(t, http.MethodPost, base+"/selection/", dto.SelectionRequest{On: []int{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.Commands](t, rec).States["imageSize"].IsEnabled)

	rec = ts.do(t, http.MethodPost, base+"/commands/imageSize/", dto.CommandRequest{Value: "80px"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "80px", decode[dto.Commands](t, rec).States["imageSize"].Value)

	rec = ts.do(t, http.MethodGet, base+"/data/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `<p>a</p><figure class="image" style="width:80px"><img src="a.png"/></figure>`, decode[dto.Data](t, rec).Data)

	rec = ts.do(t, http.MethodGet, base+"/model/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[inspector.Snapshot](t, rec)
	assert.Equal(t, `<$root><paragraph>"a"</paragraph><image imageSize="80px" src="a.png"></image></$root>`, snap.Tree)
	assert.Equal(t, inspector.Selection{Type: "on", On: []int{1}}, snap.Selection)

	reg := ts.services.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CommandExecutions.WithLabelValues("imageSize")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ActiveSessions))
}

func TestSessionSelectionValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p>`})
	base := "/api/sessions/" + sess.Id

	tests := []struct {
		name string
		req  dto.SelectionRequest
		code int
	}{
		{"on paragraph", dto.SelectionRequest{On: []int{0}}, http.StatusOK},
		{"on missing", dto.SelectionRequest{On: []int{3}}, http.StatusBadRequest},
		{"negative path", dto.SelectionRequest{On: []int{-1}}, http.StatusBadRequest},
		{"collapsed", dto.SelectionRequest{Anchor: &dto.PositionValue{Path: []int{0}, Offset: 1}}, http.StatusOK},
		{"range", dto.SelectionRequest{Anchor: &dto.PositionValue{Path: []int{0}}, Focus: &dto.PositionValue{Path: []int{0}, Offset: 1}}, http.StatusOK},
		{"offset out of range", dto.SelectionRequest{Anchor: &dto.PositionValue{Path: []int{0}, Offset: 5}}, http.StatusBadRequest},
		{"focus only", dto.SelectionRequest{Focus: &dto.PositionValue{Path: []int{0}}}, http.StatusBadRequest},
		{"none", dto.SelectionRequest{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, base+"/selection/", tt.req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestSessionPointerMove(t *testing.T) {
	ts := newTestServer(t, nil)
	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p><figure class="image image-style-absolute"><img src="a.png"/></figure>`})
	base := "/api/sessions/" + sess.Id

	rec := ts.do(t, http.MethodPost, base+"/pointer/", dto.PointerRequest{Type: "mousedown", Buttons: 1, TargetPath: []int{1, 0}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.PointerResponse](t, rec).Handled)

	for range 2 {
		rec = ts.do(t, http.MethodPost, base+"/pointer/", dto.PointerRequest{Type: "mousemove", Buttons: 1, MovementX: 5, MovementY: 3})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, base+"/pointer/", dto.PointerRequest{Type: "mouseup"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, base+"/data/?minify=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[dto.Data](t, rec).Data, `style="left:10px;top:6px"`)

	assertAPIError(t, ts.do(t, http.MethodPost, base+"/pointer/", dto.PointerRequest{Type: "mousedown", Buttons: 1, TargetPath: []int{7}}), apierrors.ErrPointerTarget)
	assertAPIError(t, ts.do(t, http.MethodPost, base+"/pointer/", dto.PointerRequest{Type: "click"}), apierrors.ErrValidation)
}

func TestSessionSave(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/documents/", dto.DocumentRequest{Name: "Letter", Data: `<p>Hello</p>`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[dto.Document](t, rec)

	sess := createSession(t, ts, dto.SessionRequest{DocumentId: doc.Id})
	assert.Equal(t, doc.Id, sess.DocumentId)
	base := "/api/sessions/" + sess.Id

	rec = ts.do(t, http.MethodPost, base+"/selection/", dto.SelectionRequest{Anchor: &dto.PositionValue{Path: []int{0}, Offset: 1}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, base+"/commands/placeholder/", dto.CommandRequest{Value: "date"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, base+"/save/", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[dto.Document](t, rec)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, `<p>Hello<span class="placeholder">{date}</span></p>`, saved.Data)

	unbound := createSession(t, ts, dto.SessionRequest{Data: `<p>x</p>`})
	assertAPIError(t, ts.do(t, http.MethodPost, "/api/sessions/"+unbound.Id+"/save/", nil), apierrors.ErrDocumentNotFound)

	assertAPIError(t, ts.do(t, http.MethodPost, "/api/sessions/", dto.SessionRequest{DocumentId: "1b4e28ba-2fa1-41d2-883f-0016d3cca427"}), apierrors.ErrDocumentNotFound)
	assertAPIError(t, ts.do(t, http.MethodPost, "/api/sessions/", dto.SessionRequest{DocumentId: "abc"}), apierrors.ErrValidation)
}

func TestSessionLimitAndClose(t *testing.T) {
	ts := newTestServer(t, &config.Config{SessionTTL: 30, MaxSessions: 1})

	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p>`})
	assertAPIError(t, ts.do(t, http.MethodPost, "/api/sessions/", dto.SessionRequest{}), apierrors.ErrSessionsExceeded)

	rec := ts.do(t, http.MethodDelete, "/api/sessions/"+sess.Id+"/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assertAPIError(t, ts.do(t, http.MethodGet, "/api/sessions/"+sess.Id+"/", nil), apierrors.ErrSessionNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(ts.services.metrics.ActiveSessions))

	createSession(t, ts, dto.SessionRequest{})
}

func TestSessionEviction(t *testing.T) {
	ts := newTestServer(t, nil)
	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p>`})

	assert.Equal(t, 0, ts.services.sessions.Evict(time.Now()))
	assert.Equal(t, 1, ts.services.sessions.Evict(time.Now().Add(31*time.Minute)))
	assertAPIError(t, ts.do(t, http.MethodGet, "/api/sessions/"+sess.Id+"/", nil), apierrors.ErrSessionNotFound)
}

func TestSessionFeed(t *testing.T) {
	ts := newTestServer(t, nil)
	sess := createSession(t, ts, dto.SessionRequest{Data: `<p>a</p><figure class="image"><img src="a.png"/></figure>`})

	srv := httptest.NewServer(ts.echo)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sess.Id + "/ws/"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var initial dto.StateMessage
	require.NoError(t, wsjson.Read(ctx, conn, &initial))
	assert.Equal(t, dto.DataMessageType, initial.Type)
	assert.Equal(t, `<p>a</p><figure class="image"><img src="a.png"/></figure>`, initial.Data)

	rec := ts.do(t, http.MethodPost, "/api/sessions/"+sess.Id+"/selection/", dto.SelectionRequest{On: []int{1}})
	require.Equal(t, http.StatusOK, rec.Code)

	var msg dto.StateMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, dto.StateMessageType, msg.Type)
	assert.Equal(t, initial.Seq+1, msg.Seq)
	assert.True(t, msg.Commands["imageSize"].IsEnabled)

	ts.do(t, http.MethodDelete, "/api/sessions/"+sess.Id+"/", nil)
	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}
