package handler_test

import (
	"cinema-seat-booking/internal/handler"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/service/mocks"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetSeats(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewSeatServiceMock()
		router := handler.NewRouter(mockService, nil, 0)

		jana := "Jana"
		seats := []*model.Seat{
			{ID: uuid.New(), RowLabel: "A", SeatNumber: 1, IsTaken: true, BookedBy: &jana},
			{ID: uuid.New(), RowLabel: "A", SeatNumber: 2},
		}
		mockService.On("List", mock.Anything).Return(seats, nil).Once()

		req, _ := http.NewRequest("GET", "/api/v1/seats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got []model.Seat
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "A1", got[0].Label())
		assert.Equal(t, "Jana", *got[0].BookedBy)
		assert.Nil(t, got[1].BookedBy)
		assert.Contains(t, w.Body.String(), `"booked_by":null`)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - store error", func(t *testing.T) {
		mockService := mocks.NewSeatServiceMock()
		router := handler.NewRouter(mockService, nil, 0)

		mockService.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		req, _ := http.NewRequest("GET", "/api/v1/seats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeBody(w.Body)["error"])
	})
}

func TestHealth(t *testing.T) {
	router := handler.NewRouter(mocks.NewSeatServiceMock(), nil, 0)

	req, _ := http.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestNotFound(t *testing.T) {
	router := handler.NewRouter(mocks.NewSeatServiceMock(), nil, 0)

	req, _ := http.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
