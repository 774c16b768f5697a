package service

import (
	"context"
	"strings"
	"testing"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNoteLoad_MissingReturnsEmpty(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	noteRepo.On("Get", mock.Anything, "u1", "catalog").Return(nil, repository.ErrNoteNotFound)

	note, err := service.Load(context.Background(), "u1", "catalog")

	assert.NoError(t, err)
	assert.Equal(t, "", note.Text)
	assert.Equal(t, "u1", note.UserID)
}

func TestNoteSave_TrimsText(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	noteRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entity.PageNote")).Return(nil)

	note, err := service.Save(context.Background(), "u1", "catalog", "  remember to update Q3 prices  ")

	assert.NoError(t, err)
	assert.Equal(t, "remember to update Q3 prices", note.Text)
	noteRepo.AssertExpectations(t)
}

func TestNoteSave_TooLong(t *testing.T) {
	service := NewNoteService(new(mocks.MockNoteRepository))

	_, err := service.Save(context.Background(), "u1", "catalog", strings.Repeat("x", 201))

	assert.ErrorIs(t, err, ErrNoteTooLong)
}

func TestNoteSave_AtLimitAccepted(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	noteRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Save(context.Background(), "u1", "catalog", strings.Repeat("y", 200))

	assert.NoError(t, err)
}

func TestNoteSave_EmptyDeletes(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	noteRepo.On("Delete", mock.Anything, "u1", "catalog").Return(nil)

	note, err := service.Save(context.Background(), "u1", "catalog", "   ")

	assert.NoError(t, err)
	assert.Equal(t, "", note.Text)
	noteRepo.AssertCalled(t, "Delete", mock.Anything, "u1", "catalog")
	noteRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestNoteDelete_MissingNotError(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	noteRepo.On("Delete", mock.Anything, "u1", "hr").Return(repository.ErrNoteNotFound)

	err := service.Delete(context.Background(), "u1", "hr")

	assert.NoError(t, err)
}

func TestNoteLoad_PassesThrough(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepository)
	service := NewNoteService(noteRepo)

	stored := &entity.PageNote{UserID: "u1", PageID: "finance", Text: "check VND rate"}
	noteRepo.On("Get", mock.Anything, "u1", "finance").Return(stored, nil)

	note, err := service.Load(context.Background(), "u1", "finance")

	assert.NoError(t, err)
	assert.Equal(t, "check VND rate", note.Text)
}
