package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	printingapp "github.com/rental/backend/internal/application/printing"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/domain/identity"
	infra "github.com/rental/backend/internal/infrastructure/printing"
	"github.com/rental/backend/internal/infrastructure/persistence"
	"github.com/rental/backend/internal/infrastructure/storage"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	html string
}

func (r *fakeRenderer) Render(_ context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	r.html = req.HTML
	return &infra.RenderResult{PDFData: []byte("%PDF-1.7 contract"), PageCount: 2}, nil
}

func (r *fakeRenderer) Close() error { return nil }

func contractEngine(t *testing.T, env *testEnv, renderer infra.PDFRenderer, session identity.Session) (*gin.Engine, *storage.LocalStore) {
	t.Helper()

	tmpl, err := infra.NewContractTemplate()
	require.NoError(t, err)
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	svc := printingapp.NewContractService(
		persistence.NewGormRoomRepository(env.db),
		persistence.NewGormUserRepository(env.db),
		tmpl, renderer, store, nil,
	)
	engine := newEngine(&session)
	engine.GET("/rooms/:number/contract", NewContractHandler(svc).Generate)
	return engine, store
}

func seedLease(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := identity.WithSession(context.Background(), landlord)
	_, err := env.rooms.Create(ctx, propertyapp.CreateRoomInput{
		Number:     "501",
		TenantName: "王小明",
		RentAmount: decimal.NewFromInt(6000),
		Deposit:    decimal.NewFromInt(12000),
		StartDate:  parseDate("2024-07-01"),
		TermMonths: 12,
	})
	require.NoError(t, err)
	seedRooms(t, env, "502")
}

func TestContractHandler_Generate(t *testing.T) {
	env := newTestEnv(t)
	seedLease(t, env)
	renderer := &fakeRenderer{}
	engine, store := contractEngine(t, env, renderer, landlord)

	w := doJSON(engine, http.MethodGet, "/rooms/501/contract", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contract-501.pdf")
	assert.Equal(t, "%PDF-1.7 contract", w.Body.String())
	assert.Contains(t, renderer.html, "王小明")

	url := w.Header().Get("X-Contract-URL")
	require.True(t, strings.HasPrefix(url, "/files/contracts/501/"), url)
	stored, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(url, "/files/")))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 contract", string(stored))

	w = doJSON(engine, http.MethodGet, "/rooms/501/contract?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc printingapp.ContractDocument
	decodeData(t, w, &doc)
	assert.Equal(t, "501", doc.RoomNumber)
	assert.Equal(t, 2, doc.PageCount)
	assert.Nil(t, doc.Data)
}

func TestContractHandler_Errors(t *testing.T) {
	env := newTestEnv(t)
	seedLease(t, env)

	engine, _ := contractEngine(t, env, &fakeRenderer{}, landlord)

	w := doJSON(engine, http.MethodGet, "/rooms/502/contract", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "a vacant room has no contract")

	w = doJSON(engine, http.MethodGet, "/rooms/999/contract", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	disabled, _ := contractEngine(t, env, infra.DisabledRenderer{}, landlord)
	w = doJSON(disabled, http.MethodGet, "/rooms/501/contract", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeUnavailable, decodeError(t, w).Code)

	asTenant, _ := contractEngine(t, env, &fakeRenderer{}, tenant)
	w = doJSON(asTenant, http.MethodGet, "/rooms/501/contract", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
