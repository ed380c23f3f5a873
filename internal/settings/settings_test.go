package settings

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	n     Notification
	saved bool
	err   error
}

func (m *memStore) Get(ctx context.Context) (Notification, bool, error) {
	return m.n, m.saved, m.err
}

func (m *memStore) Save(ctx context.Context, n Notification) error {
	if m.err != nil {
		return m.err
	}
	m.n, m.saved = n, true
	return nil
}

var defaults = Notification{AlertRecipient: "hr@example.com", OpsRecipient: "ops@example.com"}

func TestProviderFallsBackToDefaults(t *testing.T) {
	p := NewProvider(&memStore{}, defaults)
	n, err := p.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, n)
}

func TestProviderOverridesPerField(t *testing.T) {
	p := NewProvider(&memStore{saved: true, n: Notification{AlertRecipient: "boss@example.com"}}, defaults)
	n, err := p.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", n.AlertRecipient)
	assert.Equal(t, "ops@example.com", n.OpsRecipient)
}

func TestProviderStoreErrorKeepsDefaults(t *testing.T) {
	p := NewProvider(&memStore{err: errors.New("db down")}, defaults)
	n, err := p.Settings(context.Background())
	assert.Error(t, err)
	assert.Equal(t, defaults, n)
}

func TestUpdateValidatesAddresses(t *testing.T) {
	p := NewProvider(&memStore{}, defaults)
	_, err := p.Update(context.Background(), Notification{AlertRecipient: "not an address"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	n, err := p.Update(context.Background(), Notification{AlertRecipient: " a@example.com, b@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com, b@example.com", n.AlertRecipient)
}

func TestStoreGet(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("FROM notification_settings").
		WillReturnRows(sqlmock.NewRows([]string{"alert_recipient", "ops_recipient"}).AddRow("a@example.com", nil))

	n, ok, err := NewStore(conn).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", n.AlertRecipient)
	assert.Equal(t, "", n.OpsRecipient)

	mock.ExpectQuery("FROM notification_settings").
		WillReturnRows(sqlmock.NewRows([]string{"alert_recipient", "ops_recipient"}))
	_, ok, err = NewStore(conn).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlerPut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewProvider(&memStore{}, defaults))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/settings/notifications", bytes.NewBufferString(`{"alert_recipient":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/settings/notifications", bytes.NewBufferString(`{"ops_recipient":"ops2@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alert_recipient":"hr@example.com","ops_recipient":"ops2@example.com"}`, w.Body.String())
}
